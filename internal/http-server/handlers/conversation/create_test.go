package conversation

import (
	"CaseLink/entity"
	"CaseLink/impl/core"
	"CaseLink/internal/lib/api/cont"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// coreMock implements the calls exercised here; the embedded interface covers the rest.
type coreMock struct {
	Core
	mock.Mock
}

func (m *coreMock) CreateConversation(_ context.Context, req core.CreateConversationRequest) (*entity.ConversationDetails, error) {
	args := m.Called(req)
	details, _ := args.Get(0).(*entity.ConversationDetails)
	return details, args.Error(1)
}

func (m *coreMock) AddParticipant(_ context.Context, conversationID, userID, actingUserID string) (bool, error) {
	args := m.Called(conversationID, userID, actingUserID)
	return args.Bool(0), args.Error(1)
}

func (m *coreMock) SetStatus(_ context.Context, conversationID, userID string, status entity.ConversationStatus) (*entity.Conversation, error) {
	args := m.Called(conversationID, userID, status)
	conv, _ := args.Get(0).(*entity.Conversation)
	return conv, args.Error(1)
}

func serve(m *coreMock, method, target, body string) *httptest.ResponseRecorder {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user := &entity.UserAuth{UserID: "u1", Role: "consultant"}
			next.ServeHTTP(w, req.WithContext(cont.PutUser(req.Context(), user)))
		})
	})
	r.Post("/conversations", Create(log, m))
	r.Post("/conversations/{id}/participants", AddParticipant(log, m))
	r.Patch("/conversations/{id}/status", SetStatus(log, m))

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	m := &coreMock{}
	m.On("CreateConversation", core.CreateConversationRequest{
		CaseID:         "case1",
		Title:          "Visa",
		CreatorID:      "u1",
		CreatorRole:    "consultant",
		ParticipantIDs: []string{"u2"},
		Priority:       entity.PriorityHigh,
	}).Return(&entity.ConversationDetails{Conversation: entity.Conversation{ID: "c1"}}, nil).Once()

	rec := serve(m, http.MethodPost, "/conversations", `{"case_id":"case1","title":"Visa","participant_ids":["u2"],"priority":"high"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"c1"`)
	m.AssertExpectations(t)
}

func TestCreateValidation(t *testing.T) {
	for _, body := range []string{
		`{"title":"Visa"}`,
		`{"case_id":"case1"}`,
		`{"case_id":"case1","title":"Visa","priority":"critical"}`,
	} {
		m := &coreMock{}
		rec := serve(m, http.MethodPost, "/conversations", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		m.AssertNotCalled(t, "CreateConversation", mock.Anything)
	}
}

func TestAddParticipantStatus(t *testing.T) {
	m := &coreMock{}
	m.On("AddParticipant", "c1", "u2", "u1").Return(true, nil).Once()
	m.On("AddParticipant", "c1", "u2", "u1").Return(false, nil).Once()

	rec := serve(m, http.MethodPost, "/conversations/c1/participants", `{"user_id":"u2"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(m, http.MethodPost, "/conversations/c1/participants", `{"user_id":"u2"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"added":false`)
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	m := &coreMock{}

	rec := serve(m, http.MethodPatch, "/conversations/c1/status", `{"status":"closed"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	m.On("SetStatus", "c1", "u1", entity.StatusArchived).Return(nil, entity.ErrAccessDenied).Once()
	rec = serve(m, http.MethodPatch, "/conversations/c1/status", `{"status":"archived"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
