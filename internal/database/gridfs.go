package repository

import (
	"CaseLink/entity"
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const filesBucket = "attachments"

func (m *MongoDB) bucket() (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(m.client.Database(m.database), options.GridFSBucket().SetName(filesBucket))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return bucket, nil
}

// UploadFile stores a file in GridFS and returns the generated file ID and size.
func (m *MongoDB) UploadFile(ctx context.Context, filename string, reader io.Reader, meta entity.FileMetadata) (string, int64, error) {
	bucket, err := m.bucket()
	if err != nil {
		return "", 0, err
	}

	uploadOpts := options.GridFSUpload().SetMetadata(meta)
	uploadStream, err := bucket.OpenUploadStream(filename, uploadOpts)
	if err != nil {
		return "", 0, fmt.Errorf("gridfs open upload: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = uploadStream.SetWriteDeadline(deadline)
	}

	size, err := io.Copy(uploadStream, reader)
	if err != nil {
		_ = uploadStream.Abort()
		return "", 0, fmt.Errorf("gridfs copy: %w", err)
	}

	if err := uploadStream.Close(); err != nil {
		return "", 0, fmt.Errorf("gridfs close upload: %w", err)
	}

	fileID := uploadStream.FileID.(primitive.ObjectID)
	return fileID.Hex(), size, nil
}

// DownloadFile retrieves a file from GridFS by its hex ID.
// The caller must close the returned ReadCloser.
func (m *MongoDB) DownloadFile(ctx context.Context, fileID string) (string, entity.FileMetadata, io.ReadCloser, error) {
	oid, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return "", entity.FileMetadata{}, nil, entity.Invalid("file id %q", fileID)
	}

	bucket, err := m.bucket()
	if err != nil {
		return "", entity.FileMetadata{}, nil, err
	}

	stream, err := bucket.OpenDownloadStream(oid)
	if err != nil {
		if err == gridfs.ErrFileNotFound {
			return "", entity.FileMetadata{}, nil, entity.NotFound("file " + fileID)
		}
		return "", entity.FileMetadata{}, nil, fmt.Errorf("gridfs open download: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	file := stream.GetFile()

	var meta entity.FileMetadata
	if len(file.Metadata) > 0 {
		if err := bson.Unmarshal(file.Metadata, &meta); err != nil {
			m.log.Error("failed to unmarshal gridfs metadata", "error", err.Error())
		}
	}

	return file.Name, meta, stream, nil
}

// DeleteFile removes a file and its chunks from GridFS.
func (m *MongoDB) DeleteFile(ctx context.Context, fileID string) error {
	oid, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return entity.Invalid("file id %q", fileID)
	}
	bucket, err := m.bucket()
	if err != nil {
		return err
	}
	if err = bucket.DeleteContext(ctx, oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return entity.NotFound("file " + fileID)
		}
		return fmt.Errorf("gridfs delete: %w", err)
	}
	return nil
}
