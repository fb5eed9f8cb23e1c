// Package keys manages password-derived encryption keys: salt
// synchronization with the backend profile record, PBKDF2 derivation, and
// the session lifetime of the derived key in a platform secure store.
package keys

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/auravita/privacykit/internal/audit"
	"github.com/auravita/privacykit/internal/common"
	"github.com/auravita/privacykit/internal/cryptox"
	"github.com/auravita/privacykit/internal/keystore"
	"github.com/auravita/privacykit/internal/logging"
)

const (
	keyNamespace  = "enc_key"
	saltNamespace = "enc_salt"
)

// ProfileStore is the backend user-profile record holding the per-user
// encryption salt. FetchSalt returns common.ErrorNotFound when the profile
// has no salt yet; SaveSalt persists it (first write wins on the backend).
type ProfileStore interface {
	FetchSalt(ctx context.Context, userID string) (string, error)
	SaveSalt(ctx context.Context, userID, salt string) error
}

// AuditRecorder is the slice of the audit pipeline this service needs.
// *audit.Logger satisfies it.
type AuditRecorder interface {
	Log(ctx context.Context, action audit.Action, resourceType audit.ResourceType, resourceID string, metadata map[string]string)
}

// Service derives and manages per-user session keys. All collaborators are
// injected; the service holds no global state and no key material of its
// own; the secure store is the single place a derived key lives.
type Service struct {
	store    keystore.SecureStore
	profiles ProfileStore
	recorder AuditRecorder
	log      logging.Logger
}

// NewService constructs a Service. recorder may be nil when audit logging
// is not wired; log may be nil.
func NewService(store keystore.SecureStore, profiles ProfileStore, recorder AuditRecorder, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{store: store, profiles: profiles, recorder: recorder, log: log}
}

// Initialize derives the user's encryption key from password and the
// synchronized salt and stores it for the session. It reports success;
// failures are logged, never propagated as panics. The salt, not the key,
// is the durable multi-device anchor: two devices with the same password
// and the same backend salt always derive bit-identical keys.
func (s *Service) Initialize(ctx context.Context, userID string, password []byte) bool {
	if userID == "" || len(password) == 0 {
		s.log.Warn(ctx, "key initialization refused, missing user or password")
		return false
	}

	salt, err := s.resolveSalt(ctx, userID)
	if err != nil {
		s.log.Error(ctx, "salt resolution failed", "error", err)
		return false
	}

	key := cryptox.DeriveKey(password, salt)
	defer cryptox.Wipe(key)

	if err := s.store.Set(ctx, keystore.StoreKey(keyNamespace, userID), hex.EncodeToString(key)); err != nil {
		s.log.Error(ctx, "failed to store derived key", "error", err)
		return false
	}

	if s.recorder != nil {
		s.recorder.Log(ctx, audit.ActionAccess, audit.ResourceEncryptionKey, "",
			map[string]string{"operation": "key_initialized"})
	}

	return true
}

// Key returns the session key for userID, or (nil, nil) when no key is
// present. Absence before login is an expected state and is not logged.
func (s *Service) Key(ctx context.Context, userID string) ([]byte, error) {
	encoded, err := s.store.Get(ctx, keystore.StoreKey(keyNamespace, userID))
	if err != nil {
		return nil, fmt.Errorf("secure store read: %w", err)
	}
	if encoded == "" {
		return nil, nil
	}

	key, err := hex.DecodeString(encoded)
	if err != nil || len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("stored key is corrupt: %w", common.ErrorInternal)
	}
	return key, nil
}

// Clear deletes the session key. It is the logout teardown point and must
// run synchronously before the session is considered closed. Idempotent.
// The locally cached salt is kept: it is public material and preserves
// multi-device derivation for the next login.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, keystore.StoreKey(keyNamespace, userID))
}

// Initialized reports whether a session key is currently resolvable.
func (s *Service) Initialized(ctx context.Context, userID string) bool {
	key, err := s.Key(ctx, userID)
	return err == nil && key != nil
}

// resolveSalt returns the user's salt, creating and synchronizing it on
// first login. Remote failures degrade to a local-only salt: the current
// device stays usable at the cost of multi-device consistency until the
// backend becomes reachable on a later login.
func (s *Service) resolveSalt(ctx context.Context, userID string) ([]byte, error) {
	localKey := keystore.StoreKey(saltNamespace, userID)

	remote, err := s.profiles.FetchSalt(ctx, userID)
	switch {
	case err == nil && remote != "":
		salt, decodeErr := hex.DecodeString(remote)
		if decodeErr != nil {
			return nil, fmt.Errorf("backend salt is not valid hex: %w", decodeErr)
		}
		// Cache for offline logins.
		if cacheErr := s.store.Set(ctx, localKey, remote); cacheErr != nil {
			s.log.Warn(ctx, "failed to cache salt locally", "error", cacheErr)
		}
		return salt, nil

	case err == nil || errors.Is(err, common.ErrorNotFound):
		// The profile has no salt. A locally cached one means an earlier
		// sync failed: reuse it and try to heal the backend record, so
		// already-encrypted data stays decryptable.
		cached, localErr := s.store.Get(ctx, localKey)
		if localErr != nil {
			return nil, fmt.Errorf("local salt read: %w", localErr)
		}
		if cached != "" {
			if saveErr := s.profiles.SaveSalt(ctx, userID, cached); saveErr != nil {
				s.log.Warn(ctx, "failed to sync salt to backend, encryption is local-only for now", "error", saveErr)
			}
			return hex.DecodeString(cached)
		}
		// First login anywhere: mint the multi-device anchor.
		return s.createSalt(ctx, userID, localKey)

	default:
		// Backend unreachable. Recoverable: fall back to the cached salt,
		// or mint a local-only one.
		s.log.Warn(ctx, "salt fetch failed, falling back to local salt", "error", err)

		cached, localErr := s.store.Get(ctx, localKey)
		if localErr != nil {
			return nil, fmt.Errorf("local salt read: %w", localErr)
		}
		if cached != "" {
			return hex.DecodeString(cached)
		}
		return s.createSalt(ctx, userID, localKey)
	}
}

// createSalt generates a fresh salt, tries to persist it to the backend
// profile, and always keeps a local copy. A failed backend write is a
// warning, not a failure: availability wins over consistency here.
func (s *Service) createSalt(ctx context.Context, userID, localKey string) ([]byte, error) {
	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("salt generation: %w", err)
	}
	encoded := hex.EncodeToString(salt)

	if err := s.profiles.SaveSalt(ctx, userID, encoded); err != nil {
		if errors.Is(err, common.ErrSaltConflict) {
			// Another device won the first write. Its salt is the anchor.
			remote, fetchErr := s.profiles.FetchSalt(ctx, userID)
			if fetchErr == nil && remote != "" {
				if cacheErr := s.store.Set(ctx, localKey, remote); cacheErr != nil {
					s.log.Warn(ctx, "failed to cache salt locally", "error", cacheErr)
				}
				return hex.DecodeString(remote)
			}
		}
		s.log.Warn(ctx, "failed to sync salt to backend, encryption is local-only for now", "error", err)
	}

	if err := s.store.Set(ctx, localKey, encoded); err != nil {
		return nil, fmt.Errorf("local salt write: %w", err)
	}
	return salt, nil
}
