package conversation

import (
	"CaseLink/entity"
	"CaseLink/impl/core"
	"CaseLink/internal/lib/api/request"
	"CaseLink/internal/lib/api/response"
	"CaseLink/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type CreateRequest struct {
	CaseID         string          `json:"case_id" validate:"required"`
	Title          string          `json:"title" validate:"required,max=255"`
	ParticipantIDs []string        `json:"participant_ids"`
	Priority       entity.Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	InitialMessage string          `json:"initial_message"`
}

func (c *CreateRequest) Bind(_ *http.Request) error {
	return request.Validate(c)
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.conversation"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		var req CreateRequest
		if err = request.Decode(r, &req); err != nil {
			logger.Debug("invalid create request", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		conv, err := handler.CreateConversation(r.Context(), core.CreateConversationRequest{
			CaseID:         req.CaseID,
			Title:          req.Title,
			CreatorID:      user.UserID,
			CreatorRole:    user.Role,
			ParticipantIDs: req.ParticipantIDs,
			Priority:       req.Priority,
			InitialMessage: req.InitialMessage,
		})
		if err != nil {
			logger.Error("failed to create conversation", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(conv))
	}
}
