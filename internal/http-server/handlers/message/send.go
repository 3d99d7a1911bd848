package message

import (
	"CaseLink/entity"
	"CaseLink/impl/core"
	"CaseLink/internal/lib/api/request"
	"CaseLink/internal/lib/api/response"
	"CaseLink/internal/lib/sl"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type SendRequest struct {
	Content string             `json:"content"`
	Type    entity.MessageType `json:"message_type" validate:"omitempty,oneof=text file system"`
}

func (s *SendRequest) Bind(_ *http.Request) error {
	return request.Validate(s)
}

// Send accepts either a JSON body or multipart/form-data with "content" and an optional "file".
func Send(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.message"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("conversation_id", conversationID),
		)

		user, err := request.Caller(r)
		if err != nil {
			response.RenderFail(w, r, err)
			return
		}

		req := core.SendMessageRequest{
			ConversationID: conversationID,
			SenderID:       user.UserID,
		}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err = r.ParseMultipartForm(entity.MaxFileSize); err != nil {
				response.RenderFail(w, r, entity.Invalid("multipart form: %v", err))
				return
			}
			req.Content = r.FormValue("content")
			req.Type = entity.MessageType(r.FormValue("message_type"))

			file, fh, err := r.FormFile("file")
			switch {
			case err == nil:
				defer file.Close()
				if fh.Size > entity.MaxFileSize {
					response.RenderFail(w, r, entity.FileTooLargeError(fh.Filename, fh.Size))
					return
				}
				mimeType := fh.Header.Get("Content-Type")
				if mimeType == "" {
					mimeType = "application/octet-stream"
				}
				req.Attachment = &entity.Upload{
					Filename: fh.Filename,
					MIMEType: mimeType,
					Size:     fh.Size,
					Reader:   file,
				}
			case err != http.ErrMissingFile:
				response.RenderFail(w, r, fmt.Errorf("read uploaded file: %w", err))
				return
			}
		} else {
			var body SendRequest
			if err = request.Decode(r, &body); err != nil {
				response.RenderFail(w, r, err)
				return
			}
			req.Content = body.Content
			req.Type = body.Type
		}

		msg, err := handler.SendMessage(r.Context(), req)
		if err != nil {
			logger.Warn("failed to send message", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}

		logger.Debug("message sent", slog.Int64("message_id", msg.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(msg))
	}
}
