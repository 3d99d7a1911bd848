package message

import (
	"CaseLink/entity"
	"CaseLink/impl/core"
	"CaseLink/internal/lib/api/cont"
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type coreMock struct {
	mock.Mock
}

func (m *coreMock) SendMessage(_ context.Context, req core.SendMessageRequest) (*entity.Message, error) {
	var content []byte
	if req.Attachment != nil {
		content, _ = io.ReadAll(req.Attachment.Reader)
	}
	args := m.Called(req.ConversationID, req.SenderID, req.Content, string(content))
	msg, _ := args.Get(0).(*entity.Message)
	return msg, args.Error(1)
}

func (m *coreMock) GetMessages(_ context.Context, conversationID, userID string, beforeID int64, limit int) (*core.MessagePage, error) {
	args := m.Called(conversationID, userID, beforeID, limit)
	page, _ := args.Get(0).(*core.MessagePage)
	return page, args.Error(1)
}

func (m *coreMock) MarkMessageRead(_ context.Context, messageID int64, conversationID, userID string) (*entity.ReadReceiptEvent, error) {
	args := m.Called(messageID, conversationID, userID)
	ev, _ := args.Get(0).(*entity.ReadReceiptEvent)
	return ev, args.Error(1)
}

func (m *coreMock) DeleteMessage(_ context.Context, messageID int64, conversationID, userID string) error {
	return m.Called(messageID, conversationID, userID).Error(0)
}

func newRouter(m *coreMock) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := cont.PutUser(req.Context(), &entity.UserAuth{UserID: "u1"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/conversations/{id}/messages", List(log, m))
	r.Post("/conversations/{id}/messages", Send(log, m))
	r.Post("/conversations/{id}/messages/{message_id}/read", MarkRead(log, m))
	r.Delete("/conversations/{id}/messages/{message_id}", Delete(log, m))
	return r
}

func TestSendJSON(t *testing.T) {
	m := &coreMock{}
	m.On("SendMessage", "c1", "u1", "hello", "").Return(&entity.Message{ID: 7, Content: "hello"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/c1/messages", strings.NewReader(`{"content":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":7`)
	m.AssertExpectations(t)
}

func TestSendMultipart(t *testing.T) {
	m := &coreMock{}
	m.On("SendMessage", "c1", "u1", "scan attached", "%PDF-1.4").Return(&entity.Message{ID: 8}, nil).Once()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("content", "scan attached"))
	fw, err := mw.CreateFormFile("file", "passport.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/conversations/c1/messages", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	m.AssertExpectations(t)
}

func TestSendRejectsUnknownType(t *testing.T) {
	m := &coreMock{}

	req := httptest.NewRequest(http.MethodPost, "/conversations/c1/messages", strings.NewReader(`{"content":"x","message_type":"video"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListPassesPaging(t *testing.T) {
	m := &coreMock{}
	m.On("GetMessages", "c1", "u1", int64(40), 10).Return(&core.MessagePage{HasMore: true}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/c1/messages?before=40&limit=10", nil)
	rec := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"messages":[]`)
	assert.Contains(t, rec.Body.String(), `"has_more":true`)
	m.AssertExpectations(t)
}

func TestDeleteByOtherUserIsForbidden(t *testing.T) {
	m := &coreMock{}
	m.On("DeleteMessage", int64(5), "c1", "u1").Return(entity.ErrForbidden).Once()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/c1/messages/5", nil)
	rec := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"forbidden"`)
}

func TestMarkReadBadID(t *testing.T) {
	m := &coreMock{}

	req := httptest.NewRequest(http.MethodPost, "/conversations/c1/messages/abc/read", nil)
	rec := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
