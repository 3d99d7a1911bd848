package files

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/api/response"
	"CaseLink/internal/lib/sl"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Core interface {
	OpenFile(ctx context.Context, fileID, expires, sig string) (string, entity.FileMetadata, io.ReadCloser, error)
}

// Download streams a stored attachment. Access is granted by the link signature, not by a token,
// so the URL works in <img src> and <a href>.
func Download(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileID := chi.URLParam(r, "file_id")
		logger := log.With(
			sl.Module("http.handlers.files"),
			slog.String("file_id", fileID),
		)

		q := r.URL.Query()
		filename, meta, reader, err := handler.OpenFile(r.Context(), fileID, q.Get("expires"), q.Get("sig"))
		if err != nil {
			logger.Debug("file not served", sl.Err(err))
			response.RenderFail(w, r, err)
			return
		}
		defer reader.Close()

		if meta.MIMEType != "" {
			w.Header().Set("Content-Type", meta.MIMEType)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))

		if _, err = io.Copy(w, reader); err != nil {
			logger.Error("failed to stream file", sl.Err(err))
		}
	}
}
