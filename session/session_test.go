package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

var secret = []byte("test-secret")

func newContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	ctx.Request = req
	return ctx, w
}

func cookieFrom(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestCookieStore_SetThenGet(t *testing.T) {
	ctx, w := newContext()
	if err := NewCookieStore(ctx, secret, false).Set(); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	c := cookieFrom(w)
	if c == nil {
		t.Fatal("Set() wrote no cookie")
	}
	if c.MaxAge != 0 || !c.Expires.IsZero() {
		t.Errorf("cookie should be session scoped, MaxAge=%d Expires=%v", c.MaxAge, c.Expires)
	}
	if !c.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}

	next, _ := newContext(c)
	if !NewCookieStore(next, secret, false).Get() {
		t.Error("Get() = false after Set()")
	}
}

func TestCookieStore_RejectsForgedCookies(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie"},
		{name: "plain flag", cookie: &http.Cookie{Name: CookieName, Value: "true"}},
		{name: "garbage", cookie: &http.Cookie{Name: CookieName, Value: "a.b.c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctx *gin.Context
			if tt.cookie != nil {
				ctx, _ = newContext(tt.cookie)
			} else {
				ctx, _ = newContext()
			}
			if NewCookieStore(ctx, secret, false).Get() {
				t.Error("Get() = true for forged cookie")
			}
		})
	}

	t.Run("other secret", func(t *testing.T) {
		ctx, w := newContext()
		_ = NewCookieStore(ctx, []byte("another"), false).Set()
		next, _ := newContext(cookieFrom(w))
		if NewCookieStore(next, secret, false).Get() {
			t.Error("Get() accepted a token signed with another secret")
		}
	})
}

func TestCookieStore_Clear(t *testing.T) {
	ctx, w := newContext()
	if err := NewCookieStore(ctx, secret, true).Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	c := cookieFrom(w)
	if c == nil || c.MaxAge >= 0 || c.Value != "" {
		t.Fatalf("Clear() cookie = %+v, want expired empty cookie", c)
	}
	if !c.Secure {
		t.Error("secure store wrote a non-Secure cookie")
	}
}

func TestCookieStore_ClearRevokesToken(t *testing.T) {
	ctx, w := newContext()
	_ = NewCookieStore(ctx, secret, false).Set()
	issued := cookieFrom(w)

	logout, _ := newContext(issued)
	if err := NewCookieStore(logout, secret, false).Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	replay, _ := newContext(issued)
	if NewCookieStore(replay, secret, false).Get() {
		t.Error("Get() accepted a token after logout")
	}
}

func TestMemoryStore(t *testing.T) {
	var s MemoryStore
	if s.Get() {
		t.Fatal("new store is set")
	}
	_ = s.Set()
	if !s.Get() {
		t.Fatal("Get() = false after Set()")
	}
	_ = s.Clear()
	if s.Get() {
		t.Fatal("Get() = true after Clear()")
	}
}
