package port

import (
	"context"
	"io"
	"time"
)

type VideoStorage interface {
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
	UploadArchive(ctx context.Context, objectKey string, reader io.Reader, size int64) error
	// ArchiveURL returns a time-limited download link for an uploaded archive.
	ArchiveURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}
