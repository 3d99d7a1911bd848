package response

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/api/cont"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFail(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"unauthenticated", entity.ErrUnauthenticated, http.StatusUnauthorized, KindUnauthenticated},
		{"access denied", fmt.Errorf("conversation c1: %w", entity.ErrAccessDenied), http.StatusForbidden, KindAccessDenied},
		{"forbidden", entity.ErrForbidden, http.StatusForbidden, KindForbidden},
		{"not found", entity.NotFound("message 7"), http.StatusNotFound, KindNotFound},
		{"invalid", entity.Invalid("bad status %q", "open"), http.StatusBadRequest, KindInvalidArgument},
		{"too large", entity.FileTooLargeError("a.pdf", 11<<20), http.StatusBadRequest, KindInvalidArgument},
		{"gateway", fmt.Errorf("send: %w", &entity.GatewayError{Code: 21211, Status: 400, Message: "invalid To"}), http.StatusBadGateway, KindGateway},
		{"gateway unreachable", fmt.Errorf("send to gateway: %w", &entity.GatewayError{Status: http.StatusBadGateway, Message: "connection refused", Err: errors.New("dial tcp: connection refused")}), http.StatusBadGateway, KindGateway},
		{"internal", errors.New("boom"), http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := Fail(tt.err, "dev")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, resp.Error)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.err.Error(), resp.Detail)
		})
	}
}

func TestFailGatewayCode(t *testing.T) {
	_, resp := Fail(&entity.GatewayError{Code: 63016, Status: 400, Message: "outside window"}, "prod")
	assert.Equal(t, 63016, resp.Code)
	assert.Equal(t, "outside window", resp.Message)
}

func TestFailHidesDetailInProd(t *testing.T) {
	_, resp := Fail(errors.New("mongo: connection refused"), "prod")
	assert.Empty(t, resp.Detail)
	assert.Equal(t, KindInternal, resp.Error)
}

func TestRenderFailUsesContextEnv(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(cont.PutEnv(req.Context(), "prod"))
	rec := httptest.NewRecorder()

	RenderFail(rec, req, entity.NotFound("conversation c1"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, KindNotFound, resp.Error)
	assert.Empty(t, resp.Detail)
}
