package message

import (
	"CaseLink/internal/lib/api/request"
	"CaseLink/internal/lib/api/response"
	"CaseLink/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func MarkRead(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}
		messageID, err := request.Int64Param(r, "message_id")
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		receipt, err := handler.MarkMessageRead(r.Context(), messageID, chi.URLParam(r, "id"), user.UserID)
		if err != nil {
			log.With(sl.Module("http.handlers.message")).Debug("mark read", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(receipt))
	}
}

// Delete soft-deletes a message of the caller.
func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}
		messageID, err := request.Int64Param(r, "message_id")
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		conversationID := chi.URLParam(r, "id")
		if err = handler.DeleteMessage(r.Context(), messageID, conversationID, user.UserID); err != nil {
			log.With(
				sl.Module("http.handlers.message"),
				slog.String("conversation_id", conversationID),
				slog.Int64("message_id", messageID),
			).Warn("failed to delete message", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok("Message deleted"))
	}
}
