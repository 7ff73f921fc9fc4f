// Package storage archives conversation transcripts in S3-compatible object
// storage.
package storage

import (
	"context"

	"leadbot_backend/platform/config"
)

// StorageService is the slice of object storage the transcript archive uses.
type StorageService interface {
	// PutObject stores data under key, replacing any existing object.
	PutObject(ctx context.Context, bucket, key, contentType string, data []byte) error
	EnsureBucketExists(ctx context.Context, bucket string) error
}

// Config is the subset of configuration the MinIO client needs.
type Config = config.MinIOConfig
