// Package keystore abstracts the platform-secure, session-scoped key-value
// store that holds derived encryption keys (and the local salt fallback).
// Values are short strings (hex-encoded key material); keys are namespaced
// per user via StoreKey.
package keystore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SecureStore is the minimal contract the key service needs. Get returns an
// empty string for absent entries: absence is an expected pre-login state,
// not an error. Delete is idempotent.
type SecureStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// StoreKey builds the store identifier for a (namespace, userID) pair.
// Characters outside [A-Za-z0-9._-] are replaced with underscores so the
// result is safe for any secure-store backend. When sanitization altered the
// identifier, a short hash of the original is appended: distinct raw IDs can
// never collapse onto the same store entry.
func StoreKey(namespace, userID string) string {
	sanitized := sanitize(userID)
	if sanitized == userID {
		return sanitize(namespace) + "_" + sanitized
	}
	sum := sha256.Sum256([]byte(userID))
	return sanitize(namespace) + "_" + sanitized + "_" + hex.EncodeToString(sum[:8])
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
