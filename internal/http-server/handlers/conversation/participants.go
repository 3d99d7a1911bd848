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

type AddParticipantRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (a *AddParticipantRequest) Bind(_ *http.Request) error {
	return request.Validate(a)
}

func Participants(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		list, err := handler.ListParticipants(r.Context(), chi.URLParam(r, "id"), user.UserID)
		if err != nil {
			log.With(sl.Module("http.handlers.conversation")).Debug("list participants", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}
		if list == nil {
			list = []entity.ParticipantInfo{}
		}

		render.JSON(w, r, response.Ok(list))
	}
}

// AddParticipant answers 201 for a new member and 200 when the user was already in.
func AddParticipant(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		var req AddParticipantRequest
		if err = request.Decode(r, &req); err != nil {
			response.RenderFail(w, r, err)
			return
		}

		conversationID := chi.URLParam(r, "id")
		added, err := handler.AddParticipant(r.Context(), conversationID, req.UserID, user.UserID)
		if err != nil {
			log.With(
				sl.Module("http.handlers.conversation"),
				slog.String("conversation_id", conversationID),
				slog.String("user_id", req.UserID),
			).Warn("failed to add participant", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		if added {
			render.Status(r, http.StatusCreated)
		}
		render.JSON(w, r, response.Ok(map[string]bool{"added": added}))
	}
}
