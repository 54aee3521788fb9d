package utils

import (
	"context"
	"sync"
	"time"
)

const revokedPrefix = "session:revoked:"

var (
	revoked   = map[string]time.Time{}
	revokedMu sync.RWMutex
)

// RevokeSessionToken refuses token until it would have expired anyway, so a copied
// cookie stops working after logout.
func RevokeSessionToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if token == "" || ttl <= 0 {
		return
	}
	// Prefer Redis: key with TTL until token expiration
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, revokedPrefix+token, "1", ttl).Err(); err == nil {
			return
		}
	}
	revokedMu.Lock()
	pruneRevokedLocked(time.Now())
	revoked[token] = expiresAt
	revokedMu.Unlock()
}

// pruneRevokedLocked drops entries whose token has expired on its own. Caller holds revokedMu.
func pruneRevokedLocked(now time.Time) {
	for t, exp := range revoked {
		if now.After(exp) {
			delete(revoked, t)
		}
	}
}

// IsSessionRevoked reports whether token was revoked before its natural expiry.
func IsSessionRevoked(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, revokedPrefix+token).Result()
		// fail open on Redis errors; the in-memory map still applies
		if err == nil && n > 0 {
			return true
		}
	}
	revokedMu.RLock()
	expiresAt, ok := revoked[token]
	revokedMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		revokedMu.Lock()
		delete(revoked, token)
		revokedMu.Unlock()
		return false
	}
	return true
}
