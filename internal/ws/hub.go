package ws

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/sl"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const handlerTimeout = 5 * time.Second

// ClientMessageHandler handles requests that arrive over a socket.
type ClientMessageHandler interface {
	CanJoinConversation(ctx context.Context, userID, conversationID string) error
	HandleMessageRead(ctx context.Context, userID, conversationID string, messageID int64) error
}

// Presence is the shared registry of users with live sockets.
type Presence interface {
	Connect(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) error
	Disconnect(ctx context.Context, userID string) error
}

// Event is a server to client message.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type roomEvent struct {
	room    string
	event   *Event
	exclude *Client
	relay   bool
}

func ConversationRoom(conversationID string) string {
	return "conversation_" + conversationID
}

func UserRoom(userID string) string {
	return "user_" + userID
}

// Hub tracks connected clients and their rooms and fans events out to them.
// Publishing never blocks: a full queue drops the event.
type Hub struct {
	clients   map[*Client]bool
	rooms     map[string]map[*Client]bool
	broadcast chan *roomEvent
	mu        sync.RWMutex

	handler  ClientMessageHandler
	presence Presence

	rdb        *redis.Client
	channel    string
	instanceID string

	sendBuffer int
	log        *slog.Logger
}

// NewHub creates a hub with the given publish queue and per-client send buffer sizes.
func NewHub(log *slog.Logger, queueSize, sendBuffer int) *Hub {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *roomEvent, queueSize),
		instanceID: uuid.NewString(),
		sendBuffer: sendBuffer,
		log:        log.With(sl.Module("ws.hub")),
	}
}

func (h *Hub) SetHandler(handler ClientMessageHandler) {
	h.handler = handler
}

func (h *Hub) SetPresence(presence Presence) {
	h.presence = presence
}

// SetRelay enables cross-instance delivery over a Redis Pub/Sub channel.
func (h *Hub) SetRelay(rdb *redis.Client, channel string) {
	h.rdb = rdb
	h.channel = channel
}

// Run delivers queued events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeRelay(ctx)
	}

	for {
		select {
		case ev := <-h.broadcast:
			h.deliver(ev)
			if ev.relay && h.rdb != nil {
				h.publishRelay(ctx, ev)
			}
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Register adds the client and joins it to its user room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.joinLocked(c, UserRoom(c.userID))
	h.mu.Unlock()

	h.log.With(
		slog.String("user_id", c.userID),
	).Debug("client connected")

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		if err := h.presence.Connect(ctx, c.userID); err != nil {
			h.log.Warn("presence connect", sl.Err(err))
		}
	}
}

// Unregister removes the client from every room and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	if !h.remove(c) {
		return
	}

	h.log.With(
		slog.String("user_id", c.userID),
	).Debug("client disconnected")

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		if err := h.presence.Disconnect(ctx, c.userID); err != nil {
			h.log.Warn("presence disconnect", sl.Err(err))
		}
	}
}

func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
	close(c.send)
	return true
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.joinLocked(c, room)
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
	c.rooms[room] = true
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// PublishToConversation queues an event for the sockets joined to the conversation.
func (h *Hub) PublishToConversation(conversationID, eventType string, data interface{}) {
	h.publish(&roomEvent{room: ConversationRoom(conversationID), event: &Event{Type: eventType, Data: data}, relay: true})
}

// PublishToUser queues an event for every socket of the user.
func (h *Hub) PublishToUser(userID, eventType string, data interface{}) {
	h.publish(&roomEvent{room: UserRoom(userID), event: &Event{Type: eventType, Data: data}, relay: true})
}

func (h *Hub) publish(ev *roomEvent) {
	select {
	case h.broadcast <- ev:
	default:
		h.log.With(
			slog.String("room", ev.room),
			slog.String("type", ev.event.Type),
		).Warn("event queue full, event dropped")
	}
}

func (h *Hub) deliver(ev *roomEvent) {
	data, err := json.Marshal(ev.event)
	if err != nil {
		h.log.Error("marshal event", slog.String("type", ev.event.Type), sl.Err(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.rooms[ev.room] {
		if c == ev.exclude {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.With(
			slog.String("user_id", c.userID),
		).Warn("client send buffer full, disconnecting")
		h.Unregister(c)
	}
}

// Online reports which of the users have a socket on this instance.
func (h *Hub) Online(_ context.Context, userIDs []string) (map[string]bool, error) {
	online := make(map[string]bool, len(userIDs))
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range userIDs {
		if len(h.rooms[UserRoom(id)]) > 0 {
			online[id] = true
		}
	}
	return online, nil
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}

// sendTo writes an event to a single client without blocking.
func (h *Hub) sendTo(c *Client, eventType string, data interface{}) {
	raw, err := json.Marshal(&Event{Type: eventType, Data: data})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

func (h *Hub) sendError(c *Client, kind, message string) {
	h.sendTo(c, entity.EventError, entity.ErrorEvent{Error: kind, Message: message})
}
