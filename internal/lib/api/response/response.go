package response

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/api/cont"
	"errors"
	"net/http"

	"github.com/go-chi/render"
)

const (
	KindUnauthenticated = "unauthenticated"
	KindAccessDenied    = "access_denied"
	KindForbidden       = "forbidden"
	KindNotFound        = "not_found"
	KindInvalidArgument = "invalid_argument"
	KindGateway         = "gateway_error"
	KindInternal        = "internal"

	envProd = "prod"
)

type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Code    int         `json:"code,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:    data,
		Success: true,
	}
}

func Error(message string) Response {
	return Response{
		Success: false,
		Error:   KindInvalidArgument,
		Message: message,
	}
}

// Fail maps an error to its HTTP status and response body.
// The wrapped error chain is exposed as detail outside of production.
func Fail(err error, env string) (int, Response) {
	resp := Response{Success: false}
	status := http.StatusInternalServerError

	var gwErr *entity.GatewayError
	switch {
	case errors.As(err, &gwErr):
		status = http.StatusBadGateway
		resp.Error = KindGateway
		resp.Message = gwErr.Message
		resp.Code = gwErr.Code
	case errors.Is(err, entity.ErrUnauthenticated):
		status = http.StatusUnauthorized
		resp.Error = KindUnauthenticated
		resp.Message = "Authentication required"
	case errors.Is(err, entity.ErrAccessDenied):
		status = http.StatusForbidden
		resp.Error = KindAccessDenied
		resp.Message = "Access denied"
	case errors.Is(err, entity.ErrForbidden):
		status = http.StatusForbidden
		resp.Error = KindForbidden
		resp.Message = "Operation not permitted"
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
		resp.Error = KindNotFound
		resp.Message = "Not found"
	case errors.Is(err, entity.ErrInvalidArgument), errors.Is(err, entity.ErrFileTooLarge):
		status = http.StatusBadRequest
		resp.Error = KindInvalidArgument
		resp.Message = "Invalid request"
	default:
		resp.Error = KindInternal
		resp.Message = "Internal server error"
	}

	if env != envProd && err != nil {
		resp.Detail = err.Error()
	}
	return status, resp
}

// RenderFail writes the mapped error response for the environment stored in the request context.
func RenderFail(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := Fail(err, cont.GetEnv(r.Context()))
	render.Status(r, status)
	render.JSON(w, r, resp)
}
