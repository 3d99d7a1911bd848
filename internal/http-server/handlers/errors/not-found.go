package errors

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/api/response"
	"log/slog"
	"net/http"
)

func NotFound(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.RenderFail(w, r, entity.NotFound("route "+r.URL.Path))
	}
}
