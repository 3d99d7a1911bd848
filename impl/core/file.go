package core

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/sl"
	"context"
	"fmt"
	"io"
	"log/slog"
)

// StoreAttachment puts an upload into file storage and returns its signed download URL.
// Uploads that turn out larger than declared are removed from storage again.
func (c *Core) StoreAttachment(ctx context.Context, conversationID, uploader string, upload *entity.Upload) (*entity.StoredFile, error) {
	if c.files == nil || c.signer == nil {
		return nil, fmt.Errorf("file storage is not configured")
	}
	if upload.Size > entity.MaxFileSize {
		return nil, entity.FileTooLargeError(upload.Filename, upload.Size)
	}

	reader := io.LimitReader(upload.Reader, entity.MaxFileSize+1)
	fileID, size, err := c.files.UploadFile(ctx, upload.Filename, reader, entity.FileMetadata{
		MIMEType:       upload.MIMEType,
		ConversationID: conversationID,
		Uploader:       uploader,
	})
	if err != nil {
		return nil, err
	}
	if size > entity.MaxFileSize {
		if err = c.files.DeleteFile(ctx, fileID); err != nil {
			c.log.With(
				slog.String("file_id", fileID),
			).Warn("delete oversized upload", sl.Err(err))
		}
		return nil, entity.FileTooLargeError(upload.Filename, size)
	}

	c.log.With(
		slog.String("file_id", fileID),
		slog.String("conversation_id", conversationID),
		slog.Int64("size", size),
	).Debug("attachment stored")

	return &entity.StoredFile{
		FileID:   fileID,
		URL:      c.signer.SignURL(fileID),
		Filename: upload.Filename,
		MIMEType: upload.MIMEType,
		Size:     size,
	}, nil
}

// OpenFile verifies a signed link and opens the file. The caller closes the reader.
func (c *Core) OpenFile(ctx context.Context, fileID, expires, sig string) (string, entity.FileMetadata, io.ReadCloser, error) {
	if c.files == nil || c.signer == nil {
		return "", entity.FileMetadata{}, nil, fmt.Errorf("file storage is not configured")
	}
	if !c.signer.Verify(fileID, expires, sig) {
		return "", entity.FileMetadata{}, nil, fmt.Errorf("file link: %w", entity.ErrForbidden)
	}
	return c.files.DownloadFile(ctx, fileID)
}
