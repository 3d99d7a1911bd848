package whatsapp

import (
	"CaseLink/internal/lib/api/request"
	"CaseLink/internal/lib/api/response"
	"CaseLink/internal/lib/sl"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SendRequest struct {
	To      string `json:"to" validate:"required"`
	Message string `json:"message" validate:"required"`
	CaseID  string `json:"case_id"`
}

func (s *SendRequest) Bind(_ *http.Request) error {
	return request.Validate(s)
}

func Send(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.whatsapp"))

		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		var req SendRequest
		if err = request.Decode(r, &req); err != nil {
			response.RenderFail(w, r, err)
			return
		}

		result, err := handler.SendOutboundMessage(r.Context(), req.To, req.Message, req.CaseID, user.UserID)
		if err != nil {
			logger.Error("failed to send whatsapp message", sl.Err(err), sl.Secret("to", req.To))
			response.RenderFail(w, r, err)
			return
		}

		logger.Info("whatsapp message sent",
			slog.String("sid", result.ExternalID),
			slog.String("case_id", result.CaseID),
			slog.Bool("auto_mapped", result.AutoMapped),
		)
		render.JSON(w, r, response.Ok(result))
	}
}

func Status(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := handler.GatewayStatus(r.Context())
		if err != nil {
			log.With(sl.Module("http.handlers.whatsapp")).Warn("gateway status", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(account))
	}
}

func History(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phoneRaw := chi.URLParam(r, "phone")
		if decoded, err := url.PathUnescape(phoneRaw); err == nil {
			phoneRaw = decoded
		}

		messages, err := handler.MessageHistory(r.Context(), phoneRaw)
		if err != nil {
			log.With(sl.Module("http.handlers.whatsapp")).Warn("message history", sl.Err(err), sl.Secret("phone", phoneRaw))
			response.RenderFail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(messages))
	}
}
