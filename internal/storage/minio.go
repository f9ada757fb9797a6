// Package storage keeps uploaded resumes in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/strove-app/strove/internal/config"
)

type ResumeBucket struct {
	client *minio.Client
	bucket string
}

// NewResumeBucket connects to MinIO and creates the bucket if it is missing.
func NewResumeBucket(ctx context.Context, cfg config.MinIOConfig) (*ResumeBucket, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect minio: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
		log.Printf("🪣 Created bucket %s", cfg.Bucket)
	}
	return &ResumeBucket{client: client, bucket: cfg.Bucket}, nil
}

// PutResume uploads data under key.
func (b *ResumeBucket) PutResume(ctx context.Context, key, contentType string, data []byte) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
