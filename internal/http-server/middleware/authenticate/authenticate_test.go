package authenticate

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/api/cont"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticAuth map[string]*entity.UserAuth

func (a staticAuth) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if u, ok := a[token]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("token rejected: %w", entity.ErrUnauthenticated)
}

func serve(header string) *httptest.ResponseRecorder {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := staticAuth{"good": {UserID: "u1", Role: "consultant"}}

	var seen *entity.UserAuth
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = cont.GetUser(r.Context())
		w.Header().Set("X-Seen", seen.UserID)
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/user/unread", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	New(log, auth)(next).ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer good", http.StatusNoContent},
		{"lowercase scheme", "bearer good", http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.header)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "u1", rec.Header().Get("X-Seen"))
				assert.Equal(t, "u1", rec.Header().Get("X-User"))
			} else {
				assert.Contains(t, rec.Body.String(), `"error":"unauthenticated"`)
			}
		})
	}
}
