// Package profiles stores the per-user profile record. The only field this
// core owns is the encryption salt: read on every key initialization,
// written at most once.
package profiles

import "context"

type Repository interface {
	// GetSalt returns the user's encryption salt, or common.ErrorNotFound
	// when the profile has none yet.
	GetSalt(ctx context.Context, userID string) (string, error)

	// SetSaltIfAbsent persists the salt if the profile record has none.
	// A second write with the same value is a no-op; a differing value
	// returns common.ErrSaltConflict; the anchor is immutable.
	SetSaltIfAbsent(ctx context.Context, userID, salt string) error
}
