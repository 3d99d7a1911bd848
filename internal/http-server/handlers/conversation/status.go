package conversation

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/api/request"
	"CaseLink/internal/lib/api/response"
	"CaseLink/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type StatusRequest struct {
	Status entity.ConversationStatus `json:"status" validate:"required,oneof=active resolved archived"`
}

func (s *StatusRequest) Bind(_ *http.Request) error {
	return request.Validate(s)
}

type PriorityRequest struct {
	Priority entity.Priority `json:"priority" validate:"required,oneof=low medium high urgent"`
}

func (p *PriorityRequest) Bind(_ *http.Request) error {
	return request.Validate(p)
}

func SetStatus(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		var req StatusRequest
		if err = request.Decode(r, &req); err != nil {
			response.RenderFail(w, r, err)
			return
		}

		conversationID := chi.URLParam(r, "id")
		conv, err := handler.SetStatus(r.Context(), conversationID, user.UserID, req.Status)
		if err != nil {
			log.With(
				sl.Module("http.handlers.conversation"),
				slog.String("conversation_id", conversationID),
			).Warn("failed to set status", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(conv))
	}
}

func SetPriority(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		var req PriorityRequest
		if err = request.Decode(r, &req); err != nil {
			response.RenderFail(w, r, err)
			return
		}

		conversationID := chi.URLParam(r, "id")
		conv, err := handler.SetPriority(r.Context(), conversationID, user.UserID, req.Priority)
		if err != nil {
			log.With(
				sl.Module("http.handlers.conversation"),
				slog.String("conversation_id", conversationID),
			).Warn("failed to set priority", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(conv))
	}
}
