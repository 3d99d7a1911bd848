package ws

import (
	"CaseLink/entity"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type handlerMock struct {
	mock.Mock
}

func (m *handlerMock) CanJoinConversation(ctx context.Context, userID, conversationID string) error {
	return m.Called(userID, conversationID).Error(0)
}

func (m *handlerMock) HandleMessageRead(ctx context.Context, userID, conversationID string, messageID int64) error {
	return m.Called(userID, conversationID, messageID).Error(0)
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), 16, 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func testClient(h *Hub, userID string) *Client {
	c := &Client{
		hub:    h,
		send:   make(chan []byte, 16),
		userID: userID,
		rooms:  make(map[string]bool),
	}
	h.Register(c)
	return c
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no event for %s", c.userID)
	}
	return Event{}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected event for %s: %s", c.userID, raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func rawEvent(t *testing.T, eventType string, data interface{}) []byte {
	t.Helper()
	d, err := json.Marshal(data)
	require.NoError(t, err)
	raw, err := json.Marshal(clientEvent{Type: eventType, Data: d})
	require.NoError(t, err)
	return raw
}

func TestPublishToConversationRoom(t *testing.T) {
	h := newTestHub(t)
	a := testClient(h, "a")
	b := testClient(h, "b")
	h.Join(a, ConversationRoom("c1"))

	h.PublishToConversation("c1", entity.EventNewMessage, entity.NewMessageEvent{ConversationID: "c1"})

	ev := receive(t, a)
	assert.Equal(t, entity.EventNewMessage, ev.Type)
	assertSilent(t, b)
}

func TestPublishToUserReachesEverySocket(t *testing.T) {
	h := newTestHub(t)
	first := testClient(h, "u1")
	second := testClient(h, "u1")
	other := testClient(h, "u2")

	h.PublishToUser("u1", entity.EventConversationUpdated, entity.ConversationUpdatedEvent{ConversationID: "c1"})

	assert.Equal(t, entity.EventConversationUpdated, receive(t, first).Type)
	assert.Equal(t, entity.EventConversationUpdated, receive(t, second).Type)
	assertSilent(t, other)
}

func TestTypingExcludesSender(t *testing.T) {
	h := newTestHub(t)
	handler := &handlerMock{}
	handler.On("CanJoinConversation", mock.Anything, "c1").Return(nil)
	h.SetHandler(handler)

	a := testClient(h, "a")
	b := testClient(h, "b")
	h.HandleClientMessage(a, rawEvent(t, clientJoinConversation, conversationData{ConversationID: "c1"}))
	h.HandleClientMessage(b, rawEvent(t, clientJoinConversation, conversationData{ConversationID: "c1"}))

	h.HandleClientMessage(a, rawEvent(t, clientTyping, typingData{ConversationID: "c1", IsTyping: true}))

	ev := receive(t, b)
	assert.Equal(t, entity.EventUserTyping, ev.Type)
	data := ev.Data.(map[string]interface{})
	assert.Equal(t, "a", data["user_id"])
	assert.Equal(t, true, data["is_typing"])
	assertSilent(t, a)
}

func TestTypingOutsideRoomIgnored(t *testing.T) {
	h := newTestHub(t)
	a := testClient(h, "a")
	b := testClient(h, "b")
	h.Join(b, ConversationRoom("c1"))

	h.HandleClientMessage(a, rawEvent(t, clientTyping, typingData{ConversationID: "c1", IsTyping: true}))

	assertSilent(t, b)
}

func TestJoinDenied(t *testing.T) {
	h := newTestHub(t)
	handler := &handlerMock{}
	handler.On("CanJoinConversation", "x", "c1").Return(entity.ErrAccessDenied)
	h.SetHandler(handler)

	x := testClient(h, "x")
	h.HandleClientMessage(x, rawEvent(t, clientJoinConversation, conversationData{ConversationID: "c1"}))

	ev := receive(t, x)
	assert.Equal(t, entity.EventError, ev.Type)
	assert.Equal(t, "access_denied", ev.Data.(map[string]interface{})["error"])
	assert.False(t, h.inRoom(x, ConversationRoom("c1")))

	h.PublishToConversation("c1", entity.EventNewMessage, nil)
	assertSilent(t, x)
	handler.AssertExpectations(t)
}

func TestMessageReadDispatch(t *testing.T) {
	h := newTestHub(t)
	handler := &handlerMock{}
	handler.On("HandleMessageRead", "a", "c1", int64(7)).Return(nil)
	handler.On("HandleMessageRead", "a", "c1", int64(8)).Return(entity.ErrNotFound)
	h.SetHandler(handler)

	a := testClient(h, "a")
	h.HandleClientMessage(a, rawEvent(t, clientMessageRead, messageReadData{ConversationID: "c1", MessageID: 7}))
	assertSilent(t, a)

	h.HandleClientMessage(a, rawEvent(t, clientMessageRead, messageReadData{ConversationID: "c1", MessageID: 8}))
	ev := receive(t, a)
	assert.Equal(t, "not_found", ev.Data.(map[string]interface{})["error"])
	handler.AssertExpectations(t)
}

func TestPublishNeverBlocks(t *testing.T) {
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), 1, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.PublishToConversation("c1", entity.EventNewMessage, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full queue")
	}
	assert.Len(t, h.broadcast, 1)
}

func TestUnregisterLeavesRooms(t *testing.T) {
	h := newTestHub(t)
	a := testClient(h, "a")
	h.Join(a, ConversationRoom("c1"))

	online, err := h.Online(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true}, online)

	h.Unregister(a)
	h.Unregister(a)

	h.mu.RLock()
	assert.Empty(t, h.rooms)
	assert.Empty(t, h.clients)
	h.mu.RUnlock()

	_, open := <-a.send
	assert.False(t, open)
}

func TestRelaySkipsOwnEvents(t *testing.T) {
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), 4, 4)

	own, _ := json.Marshal(relayMessage{Origin: h.instanceID, Room: "conversation_c1", Type: entity.EventNewMessage})
	h.handleRelay(own)
	assert.Len(t, h.broadcast, 0)

	foreign, _ := json.Marshal(relayMessage{Origin: "other", Room: "conversation_c1", Type: entity.EventNewMessage, Data: json.RawMessage(`{"x":1}`)})
	h.handleRelay(foreign)
	require.Len(t, h.broadcast, 1)

	ev := <-h.broadcast
	assert.Equal(t, "conversation_c1", ev.room)
	assert.False(t, ev.relay)
}
