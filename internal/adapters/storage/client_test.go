package storage

import (
	"testing"

	"leadbot_backend/platform/config"
)

func TestNewMinIOServiceRequiresEndpoint(t *testing.T) {
	if _, err := NewMinIOService(&config.Config{}); err == nil {
		t.Fatal("expected an error without MINIO_ENDPOINT")
	}

	svc, err := NewMinIOService(&config.Config{
		MinIOEndpoint:  "localhost:9000",
		MinIOAccessKey: "minio",
		MinIOSecretKey: "minio123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc == nil {
		t.Fatal("expected a service")
	}
}
