package storage

import (
	"context"
	"testing"

	"github.com/memorybook/memorybook/config"
)

func TestNewBlobStoreFromConfig(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")
	tests := []struct {
		name     string
		cfg      config.AppConfig
		wantErr  bool
		wantType string
	}{
		{
			name:     "local",
			cfg:      config.AppConfig{BlobBackend: "local", LocalBlobDir: t.TempDir(), PublicBaseURL: "http://localhost:8080"},
			wantType: "local",
		},
		{
			name:     "s3",
			cfg:      config.AppConfig{BlobBackend: "s3", PhotoBucket: "photos", S3Region: "us-east-1", S3Endpoint: "http://minio:9000"},
			wantType: "s3",
		},
		{
			name:    "unknown",
			cfg:     config.AppConfig{BlobBackend: "ftp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewBlobStoreFromConfig(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBlobStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			switch tt.wantType {
			case "local":
				ls, ok := s.(*LocalBlobStore)
				if !ok {
					t.Fatalf("got %T, want *LocalBlobStore", s)
				}
				if got := ls.PublicURL("x.jpg"); got != "http://localhost:8080/photos/x.jpg" {
					t.Errorf("PublicURL() = %q", got)
				}
			case "s3":
				if _, ok := s.(*S3BlobStore); !ok {
					t.Fatalf("got %T, want *S3BlobStore", s)
				}
			}
		})
	}
}
