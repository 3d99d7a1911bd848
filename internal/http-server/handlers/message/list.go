package message

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

// List returns a page of messages; ?before= takes the oldest id of the previous page.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		conversationID := chi.URLParam(r, "id")
		page, err := handler.GetMessages(
			r.Context(),
			conversationID,
			user.UserID,
			request.QueryInt64(r, "before"),
			request.QueryInt(r, "limit", 0),
		)
		if err != nil {
			log.With(
				sl.Module("http.handlers.message"),
				slog.String("conversation_id", conversationID),
			).Debug("get messages", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}
		if page.Messages == nil {
			page.Messages = []entity.Message{}
		}

		render.JSON(w, r, response.Ok(page))
	}
}
