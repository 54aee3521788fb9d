package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeS3 accepts path-style PutObject and ListObjectsV2 calls for one bucket.
type fakeS3 struct {
	mu   sync.Mutex
	keys map[string]bool
	puts []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _ = io.Copy(io.Discard, r.Body)

	path := strings.TrimPrefix(r.URL.Path, "/photos")
	switch {
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/"):
		key := strings.TrimPrefix(path, "/")
		if f.keys[key] && r.Header.Get("If-None-Match") == "*" {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusPreconditionFailed)
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>PreconditionFailed</Code><Message>At least one of the pre-conditions you specified did not hold</Message></Error>`)
			return
		}
		f.keys[key] = true
		f.puts = append(f.puts, key)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		w.Header().Set("Content-Type", "application/xml")
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><Name>photos</Name><IsTruncated>false</IsTruncated>`)
		for k := range f.keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>1</Size></Contents>", k)
		}
		b.WriteString(`</ListBucketResult>`)
		fmt.Fprint(w, b.String())
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newFakeS3Store(t *testing.T) (*S3BlobStore, *fakeS3) {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")
	fake := &fakeS3{keys: map[string]bool{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3BlobStore(context.Background(), S3Options{
		Bucket:          "photos",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("NewS3BlobStore() error = %v", err)
	}
	return s, fake
}

func TestS3BlobStore_Put(t *testing.T) {
	s, fake := newFakeS3Store(t)
	ctx := context.Background()

	if err := s.Put(ctx, "1700000000000-abc123.jpg", strings.NewReader("jpeg"), 4, "image/jpeg"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if len(fake.puts) != 1 || fake.puts[0] != "1700000000000-abc123.jpg" {
		t.Errorf("server saw puts %v", fake.puts)
	}

	err := s.Put(ctx, "1700000000000-abc123.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")
	if !errors.Is(err, ErrBlobExists) {
		t.Errorf("second Put() error = %v, want ErrBlobExists", err)
	}
}

func TestS3BlobStore_List(t *testing.T) {
	s, _ := newFakeS3Store(t)
	ctx := context.Background()
	if err := s.Put(ctx, "a.jpg", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	names, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 1 || names[0] != "a.jpg" {
		t.Errorf("List() = %v, want [a.jpg]", names)
	}
}

func TestS3PublicBase(t *testing.T) {
	tests := []struct {
		name string
		opts S3Options
		want string
	}{
		{
			name: "explicit public url",
			opts: S3Options{Bucket: "photos", PublicURL: "https://cdn.example.com/storage/v1/object/public/"},
			want: "https://cdn.example.com/storage/v1/object/public/photos",
		},
		{
			name: "custom endpoint",
			opts: S3Options{Bucket: "photos", Endpoint: "http://minio:9000"},
			want: "http://minio:9000/photos",
		},
		{
			name: "aws virtual host",
			opts: S3Options{Bucket: "photos", Region: "eu-west-1"},
			want: "https://photos.s3.eu-west-1.amazonaws.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publicBase(tt.opts); got != tt.want {
				t.Errorf("publicBase() = %q, want %q", got, tt.want)
			}
		})
	}
}
