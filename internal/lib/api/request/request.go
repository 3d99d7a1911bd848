package request

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/api/cont"
	"CaseLink/internal/lib/validate"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Decode reads a JSON body into v; the Bind method of v runs its validation.
func Decode(r *http.Request, v render.Binder) error {
	if err := render.Bind(r, v); err != nil {
		return entity.Invalid("request body: %v", err)
	}
	return nil
}

// Validate is the body of Bind for request types with validate tags.
func Validate(v interface{}) error {
	return validate.Struct(v)
}

// Caller returns the authenticated user of the request.
func Caller(r *http.Request) (*entity.UserAuth, error) {
	user := cont.GetUser(r.Context())
	if user == nil {
		return nil, fmt.Errorf("no caller in request: %w", entity.ErrUnauthenticated)
	}
	return user, nil
}

func Int64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, entity.Invalid("%s %q", name, raw)
	}
	return id, nil
}

// QueryInt returns def when the parameter is absent or not a number.
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func QueryInt64(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return v
}
