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

func renderList(w http.ResponseWriter, r *http.Request, list []entity.ConversationSummary) {
	if list == nil {
		list = []entity.ConversationSummary{}
	}
	render.JSON(w, r, response.Ok(list))
}

func ForCase(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		caseID := chi.URLParam(r, "case_id")
		list, err := handler.GetConversationsForCase(r.Context(), caseID, user.UserID)
		if err != nil {
			log.With(
				sl.Module("http.handlers.conversation"),
				slog.String("case_id", caseID),
			).Debug("conversations for case", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		renderList(w, r, list)
	}
}

func Recent(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		list, err := handler.RecentConversations(r.Context(), user.UserID, request.QueryInt(r, "limit", 0))
		if err != nil {
			log.With(sl.Module("http.handlers.conversation")).Error("recent conversations", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		renderList(w, r, list)
	}
}

func Search(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		list, err := handler.SearchConversations(r.Context(), user.UserID, r.URL.Query().Get("q"))
		if err != nil {
			log.With(sl.Module("http.handlers.conversation")).Debug("search conversations", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		renderList(w, r, list)
	}
}

func Unread(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		count, err := handler.GetUnreadCount(r.Context(), user.UserID)
		if err != nil {
			log.With(sl.Module("http.handlers.conversation")).Error("unread count", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(map[string]int64{"unread_count": count}))
	}
}
