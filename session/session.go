// Package session holds the per-browser admin flag.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memorybook/memorybook/utils"
)

// CookieName is the cookie carrying the signed admin flag.
const CookieName = "memorybook_admin"

// tokenTTL bounds a token even when the browser keeps its session cookies alive.
const tokenTTL = 12 * time.Hour

// Store gets, sets and clears the admin flag for one browser.
type Store interface {
	Get() bool
	Set() error
	Clear() error
}

// CookieStore keeps the flag in a cookie without Max-Age, so it ends with the browser session.
// The value is a signed token. Logout clears the cookie and records the token as revoked
// until its expiry, in Redis when configured and in process memory otherwise.
type CookieStore struct {
	ctx    *gin.Context
	secret []byte
	secure bool
}

// NewCookieStore binds a store to one request.
func NewCookieStore(ctx *gin.Context, secret []byte, secure bool) *CookieStore {
	return &CookieStore{ctx: ctx, secret: secret, secure: secure}
}

func (s *CookieStore) Get() bool {
	raw, err := s.ctx.Cookie(CookieName)
	if err != nil || raw == "" {
		return false
	}
	if _, err := utils.ParseSessionToken(s.secret, raw); err != nil {
		return false
	}
	return !utils.IsSessionRevoked(raw)
}

func (s *CookieStore) Set() error {
	token, err := utils.GenerateSessionToken(s.secret, tokenTTL)
	if err != nil {
		return err
	}
	s.write(token, 0)
	return nil
}

// Clear expires the cookie and revokes the token it carried.
func (s *CookieStore) Clear() error {
	if raw, err := s.ctx.Cookie(CookieName); err == nil && raw != "" {
		if claims, err := utils.ParseSessionToken(s.secret, raw); err == nil && claims.ExpiresAt != nil {
			utils.RevokeSessionToken(raw, claims.ExpiresAt.Time)
		}
	}
	s.write("", -1)
	return nil
}

func (s *CookieStore) write(value string, maxAge int) {
	http.SetCookie(s.ctx.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// MemoryStore is an in-process Store for tests and tools.
type MemoryStore struct {
	mu  sync.Mutex
	set bool
}

func (s *MemoryStore) Get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

func (s *MemoryStore) Set() error {
	s.mu.Lock()
	s.set = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.set = false
	s.mu.Unlock()
	return nil
}
