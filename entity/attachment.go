package entity

import (
	"errors"
	"fmt"
	"io"
)

// MaxFileSize is the maximum allowed file size for uploads (10 MB).
const MaxFileSize = 10 << 20

// ErrFileTooLarge is returned when an uploaded file exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("file too large")

// FileTooLargeError wraps ErrFileTooLarge with details about the offending file.
func FileTooLargeError(filename string, size int64) error {
	return fmt.Errorf("%w: %q is %d bytes, limit is %d MB", ErrFileTooLarge, filename, size, MaxFileSize>>20)
}

// Upload is an attachment received with a message, not yet stored.
type Upload struct {
	Filename string
	MIMEType string
	Size     int64
	Reader   io.Reader
}

// StoredFile is the result of putting an Upload into file storage.
type StoredFile struct {
	FileID   string
	URL      string
	Filename string
	MIMEType string
	Size     int64
}

// FileMetadata holds GridFS metadata for an uploaded file.
type FileMetadata struct {
	MIMEType       string `bson:"mime_type"`
	ConversationID string `bson:"conversation_id"`
	Uploader       string `bson:"uploader"`
}
