package services

import (
	"crypto/subtle"
)

// PasswordGate checks the shared admin secret. There is no hashing, lockout or rate limit.
type PasswordGate struct {
	secret []byte
}

// NewPasswordGate builds a gate around the configured secret. An empty secret rejects everything.
func NewPasswordGate(secret string) *PasswordGate {
	return &PasswordGate{secret: []byte(secret)}
}

// Configured reports whether a secret was provided.
func (g *PasswordGate) Configured() bool { return len(g.secret) > 0 }

// Verify compares password byte for byte with the secret.
func (g *PasswordGate) Verify(password string) bool {
	ok := len(g.secret) > 0 && subtle.ConstantTimeCompare([]byte(password), g.secret) == 1
	if ok {
		adminLoginsTotal.WithLabelValues("success").Inc()
	} else {
		adminLoginsTotal.WithLabelValues("failure").Inc()
	}
	return ok
}
