package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage keeps uploaded videos and the frame archives built from them.
type Storage struct {
	client        *miniogo.Client
	uploadBucket  string
	archiveBucket string
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	UploadBucket  string
	ArchiveBucket string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:        client,
		uploadBucket:  cfg.UploadBucket,
		archiveBucket: cfg.ArchiveBucket,
	}, nil
}

func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.uploadBucket, s.archiveBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

func (s *Storage) DownloadVideo(ctx context.Context, objectKey string, destPath string) error {
	if err := s.client.FGetObject(ctx, s.uploadBucket, objectKey, destPath, miniogo.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download %s/%s: %w", s.uploadBucket, objectKey, err)
	}
	return nil
}

func (s *Storage) UploadArchive(ctx context.Context, objectKey string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.archiveBucket, objectKey, reader, size, miniogo.PutObjectOptions{
		ContentType:        "application/zip",
		ContentDisposition: attachment(objectKey),
	})
	if err != nil {
		return fmt.Errorf("upload archive: %w", err)
	}
	return nil
}

func (s *Storage) ArchiveURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", attachment(objectKey))

	u, err := s.client.PresignedGetObject(ctx, s.archiveBucket, objectKey, expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign archive url: %w", err)
	}
	return u.String(), nil
}

func attachment(objectKey string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, path.Base(objectKey))
}
