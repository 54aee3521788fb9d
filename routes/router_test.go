package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/memorybook/memorybook/config"
	"github.com/memorybook/memorybook/models"
	"github.com/memorybook/memorybook/services"
	"github.com/memorybook/memorybook/session"
	"github.com/memorybook/memorybook/storage"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	cfg := config.AppConfig{
		GinMode:        "test",
		PublicBaseURL:  "http://memories.test",
		AdminPassword:  "hunter2",
		SessionSecret:  "router-test-secret",
		DBDriver:       "sqlite",
		SQLitePath:     filepath.Join(dir, "memorybook.db"),
		BlobBackend:    "local",
		LocalBlobDir:   filepath.Join(dir, "photos"),
		AllowedOrigins: []string{"*"},
		YearMetMin:     1986,
		YearMetMax:     2025,
		MaxPhotoMB:     5,
		MetricsEnabled: true,
		LogLevel:       "silent",
	}
	db, err := config.OpenDatabase(cfg)
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	if err := config.Migrate(db, &models.Memory{}, &models.PageView{}); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	blobs, err := storage.NewLocalBlobStore(cfg.LocalBlobDir, cfg.PublicBaseURL+storage.LocalBlobRoute)
	if err != nil {
		t.Fatal(err)
	}
	records := storage.NewGormRecordStore(db)
	return SetupRouter(Deps{
		Config:      cfg,
		DB:          db,
		Submissions: services.NewSubmissionService(blobs, records, cfg.YearMetMin, cfg.YearMetMax),
		Listing:     services.NewListingService(records),
		Gate:        services.NewPasswordGate(cfg.AdminPassword),
	})
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func adminCookie(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	w := do(h, httptest.NewRequest(http.MethodPost, "/api/admin/verify", strings.NewReader(`{"password":"hunter2"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("verify set no session cookie")
	return nil
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(t), httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestAdminAPIRequiresSession(t *testing.T) {
	h := newTestRouter(t)
	for _, path := range []string{"/api/admin/memories", "/api/admin/stats"} {
		w := do(h, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without session = %d, want 401", path, w.Code)
		}
	}
}

func TestSubmitThenListAndStats(t *testing.T) {
	h := newTestRouter(t)

	for _, name := range []string{"Alice", "Bob"} {
		body := "name=" + name + "&year_met=2005&message=hello"
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if w := do(h, req); w.Code != http.StatusOK {
			t.Fatalf("submit %s = %d", name, w.Code)
		}
	}
	do(h, httptest.NewRequest(http.MethodGet, "/", nil))

	cookie := adminCookie(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/memories", nil)
	req.AddCookie(cookie)
	w := do(h, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d %s", w.Code, w.Body.String())
	}
	var listing struct {
		Data struct {
			Memories []models.Memory `json:"memories"`
			Count    int             `json:"count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if listing.Data.Count != 2 || len(listing.Data.Memories) != 2 {
		t.Fatalf("listing = %+v", listing.Data)
	}
	first, second := listing.Data.Memories[0], listing.Data.Memories[1]
	if first.CreatedAt.Before(second.CreatedAt) {
		t.Error("listing not newest first")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(cookie)
	w = do(h, req)
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d", w.Code)
	}
	var stats struct {
		Data struct {
			MemoryCount int64              `json:"memory_count"`
			PageViews   []models.PathViews `json:"page_views"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Data.MemoryCount != 2 {
		t.Errorf("memory_count = %d", stats.Data.MemoryCount)
	}
	if len(stats.Data.PageViews) != 1 || stats.Data.PageViews[0].Path != "/" || stats.Data.PageViews[0].Count != 1 {
		t.Errorf("page_views = %+v", stats.Data.PageViews)
	}
}

func TestFormConfig(t *testing.T) {
	w := do(newTestRouter(t), httptest.NewRequest(http.MethodGet, "/api/config/form", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"max_photo_bytes":5242880`) {
		t.Errorf("form config = %d %s", w.Code, w.Body.String())
	}
}

func TestNotFound(t *testing.T) {
	h := newTestRouter(t)
	w := do(h, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "40400") {
		t.Errorf("api 404 = %d %s", w.Code, w.Body.String())
	}
	w = do(h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("page 404 = %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	do(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	w := do(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "memorybook_http_requests_total") {
		t.Errorf("metrics = %d", w.Code)
	}
}

func TestServesLocalPhotos(t *testing.T) {
	h := newTestRouter(t)
	var buf bytes.Buffer
	buf.WriteString("--x\r\nContent-Disposition: form-data; name=\"name\"\r\n\r\nAlice\r\n")
	buf.WriteString("--x\r\nContent-Disposition: form-data; name=\"year_met\"\r\n\r\n2005\r\n")
	buf.WriteString("--x\r\nContent-Disposition: form-data; name=\"message\"\r\n\r\nhi\r\n")
	buf.WriteString("--x\r\nContent-Disposition: form-data; name=\"photo\"; filename=\"p.png\"\r\nContent-Type: image/png\r\n\r\nPNGDATA\r\n")
	buf.WriteString("--x--\r\n")
	req := httptest.NewRequest(http.MethodPost, "/api/memories", &buf)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	if w := do(h, req); w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/memories", nil)
	req.AddCookie(adminCookie(t, h))
	var listing struct {
		Data struct {
			Memories []models.Memory `json:"memories"`
		} `json:"data"`
	}
	if err := json.Unmarshal(do(h, req).Body.Bytes(), &listing); err != nil || len(listing.Data.Memories) != 1 {
		t.Fatalf("listing err=%v %+v", err, listing)
	}
	photoURL := *listing.Data.Memories[0].PhotoURL
	path := strings.TrimPrefix(photoURL, "http://memories.test")

	w := do(h, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusOK || w.Body.String() != "PNGDATA" {
		t.Errorf("GET %s = %d %q", path, w.Code, w.Body.String())
	}
}
