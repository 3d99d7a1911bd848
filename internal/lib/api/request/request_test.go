package request

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/api/cont"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type titleRequest struct {
	Title string `json:"title" validate:"required,max=10"`
}

func (t *titleRequest) Bind(_ *http.Request) error {
	return Validate(t)
}

func post(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDecode(t *testing.T) {
	var ok titleRequest
	require.NoError(t, Decode(post(`{"title":"Visa"}`), &ok))
	assert.Equal(t, "Visa", ok.Title)

	for _, body := range []string{`{}`, `{"title":"a very long title"}`, `not json`, ``} {
		var req titleRequest
		assert.ErrorIs(t, Decode(post(body), &req), entity.ErrInvalidArgument, body)
	}
}

func TestCaller(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := Caller(req)
	assert.ErrorIs(t, err, entity.ErrUnauthenticated)

	req = req.WithContext(cont.PutUser(req.Context(), &entity.UserAuth{UserID: "u1"}))
	user, err := Caller(req)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
}

func TestInt64Param(t *testing.T) {
	withParam := func(v string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("message_id", v)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := Int64Param(withParam("42"), "message_id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, v := range []string{"", "abc", "0", "-3"} {
		_, err = Int64Param(withParam(v), "message_id")
		assert.ErrorIs(t, err, entity.ErrInvalidArgument, v)
	}
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&before=x", nil)
	assert.Equal(t, 25, QueryInt(req, "limit", 50))
	assert.Equal(t, 50, QueryInt(req, "before", 50))
	assert.Equal(t, 7, QueryInt(req, "missing", 7))
	assert.Zero(t, QueryInt64(req, "before"))
}
