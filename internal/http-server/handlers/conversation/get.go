package conversation

import (
	"CaseLink/internal/lib/api/request"
	"CaseLink/internal/lib/api/response"
	"CaseLink/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		conv, err := handler.GetConversation(r.Context(), chi.URLParam(r, "id"), user.UserID)
		if err != nil {
			log.With(sl.Module("http.handlers.conversation")).Debug("get conversation", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(conv))
	}
}

// Export returns the full transcript; admins may export any conversation.
func Export(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		export, err := handler.ExportConversation(r.Context(), chi.URLParam(r, "id"), user)
		if err != nil {
			log.With(sl.Module("http.handlers.conversation")).Warn("export conversation", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(export))
	}
}

func Statistics(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		stats, err := handler.Statistics(r.Context(), user)
		if err != nil {
			log.With(sl.Module("http.handlers.conversation")).Warn("statistics", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(stats))
	}
}

// All pages through every conversation; admins only.
func All(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		page, err := handler.AllConversations(r.Context(), user, request.QueryInt(r, "page", 1), request.QueryInt(r, "limit", 0))
		if err != nil {
			log.With(sl.Module("http.handlers.conversation")).Warn("all conversations", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(page))
	}
}
