package keys

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auravita/privacykit/internal/audit"
	"github.com/auravita/privacykit/internal/common"
	"github.com/auravita/privacykit/internal/cryptox"
	"github.com/auravita/privacykit/internal/keystore"
)

// fakeProfiles implements ProfileStore backed by a map, with switchable
// failures for fetch and save.
type fakeProfiles struct {
	mu       sync.Mutex
	salts    map[string]string
	fetchErr error
	saveErr  error

	fetchCalls int
	saveCalls  int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{salts: make(map[string]string)}
}

func (f *fakeProfiles) FetchSalt(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	salt, ok := f.salts[userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return salt, nil
}

func (f *fakeProfiles) SaveSalt(ctx context.Context, userID, salt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	if existing, ok := f.salts[userID]; ok && existing != salt {
		return common.ErrSaltConflict
	}
	f.salts[userID] = salt
	return nil
}

// recorderSpy captures audit calls.
type recorderSpy struct {
	mu     sync.Mutex
	events []audit.Action
}

func (r *recorderSpy) Log(ctx context.Context, action audit.Action, rt audit.ResourceType, resourceID string, metadata map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, action)
}

func TestInitialize_FirstLoginCreatesAndSyncsSalt(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfiles()
	store := keystore.NewMemoryStore()
	spy := &recorderSpy{}
	svc := NewService(store, profiles, spy, nil)

	require.True(t, svc.Initialize(ctx, "user-1", []byte("p@ss1234")))

	// Salt persisted to the backend profile record.
	remote, err := profiles.FetchSalt(ctx, "user-1")
	require.NoError(t, err)
	saltBytes, err := hex.DecodeString(remote)
	require.NoError(t, err)
	assert.Len(t, saltBytes, cryptox.SaltSize)

	// Key resolvable and well-formed.
	key, err := svc.Key(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, key, cryptox.KeySize)
	assert.True(t, svc.Initialized(ctx, "user-1"))

	// Audit access event recorded for the encryption key.
	assert.Equal(t, []audit.Action{audit.ActionAccess}, spy.events)
}

func TestInitialize_DeterministicAcrossCalls(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfiles()
	svc := NewService(keystore.NewMemoryStore(), profiles, nil, nil)

	require.True(t, svc.Initialize(ctx, "user-1", []byte("p@ss1234")))
	key1, err := svc.Key(ctx, "user-1")
	require.NoError(t, err)

	require.True(t, svc.Initialize(ctx, "user-1", []byte("p@ss1234")))
	key2, err := svc.Key(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, key1, key2, "same (password, salt) must derive the same key")
}

func TestInitialize_MultiDeviceConsistency(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfiles() // shared backend

	deviceA := NewService(keystore.NewMemoryStore(), profiles, nil, nil)
	deviceB := NewService(keystore.NewMemoryStore(), profiles, nil, nil)

	require.True(t, deviceA.Initialize(ctx, "user-1", []byte("p@ss1234")))
	require.True(t, deviceB.Initialize(ctx, "user-1", []byte("p@ss1234")))

	keyA, err := deviceA.Key(ctx, "user-1")
	require.NoError(t, err)
	keyB, err := deviceB.Key(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB, "independent devices with the backend salt must derive identical keys")
	assert.Equal(t, 1, len(profiles.salts), "only one salt may ever exist per user")
}

func TestInitialize_BackendWriteFailureDegradesToLocalSalt(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfiles()
	profiles.saveErr = errors.New("backend write failed")
	store := keystore.NewMemoryStore()
	svc := NewService(store, profiles, nil, nil)

	// Availability over consistency: the device stays usable.
	require.True(t, svc.Initialize(ctx, "user-1", []byte("pw")))
	assert.True(t, svc.Initialized(ctx, "user-1"))

	// The salt survived locally, so re-login derives the same key.
	key1, err := svc.Key(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, svc.Initialize(ctx, "user-1", []byte("pw")))
	key2, err := svc.Key(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}

func TestInitialize_BackendFetchFailureUsesCachedSalt(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfiles()
	store := keystore.NewMemoryStore()
	svc := NewService(store, profiles, nil, nil)

	// Online first login.
	require.True(t, svc.Initialize(ctx, "user-1", []byte("pw")))
	key1, err := svc.Key(ctx, "user-1")
	require.NoError(t, err)

	// Backend goes away; the cached salt keeps derivation stable.
	profiles.fetchErr = errors.New("network unreachable")
	require.True(t, svc.Initialize(ctx, "user-1", []byte("pw")))
	key2, err := svc.Key(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}

func TestInitialize_SaltConflictAdoptsBackendSalt(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfiles()

	// Device B sees an empty profile, but by the time it saves, device A
	// already won the first write.
	deviceA := NewService(keystore.NewMemoryStore(), profiles, nil, nil)
	require.True(t, deviceA.Initialize(ctx, "user-1", []byte("pw")))
	winning := profiles.salts["user-1"]

	conflict := &conflictingProfiles{inner: profiles}
	deviceB := NewService(keystore.NewMemoryStore(), conflict, nil, nil)
	require.True(t, deviceB.Initialize(ctx, "user-1", []byte("pw")))

	keyA, err := deviceA.Key(ctx, "user-1")
	require.NoError(t, err)
	keyB, err := deviceB.Key(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, keyA, keyB)
	assert.Equal(t, winning, profiles.salts["user-1"])
}

// conflictingProfiles reports ErrorNotFound on the first fetch and delegates
// afterwards, simulating a lost first-write race.
type conflictingProfiles struct {
	inner   *fakeProfiles
	fetched bool
}

func (c *conflictingProfiles) FetchSalt(ctx context.Context, userID string) (string, error) {
	if !c.fetched {
		c.fetched = true
		return "", common.ErrorNotFound
	}
	return c.inner.FetchSalt(ctx, userID)
}

func (c *conflictingProfiles) SaveSalt(ctx context.Context, userID, salt string) error {
	return c.inner.SaveSalt(ctx, userID, salt)
}

func TestKey_AbsentBeforeLogin(t *testing.T) {
	svc := NewService(keystore.NewMemoryStore(), newFakeProfiles(), nil, nil)

	key, err := svc.Key(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, key)
	assert.False(t, svc.Initialized(context.Background(), "user-1"))
}

func TestClear_IsIdempotentAndRemovesKeyOnly(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfiles()
	store := keystore.NewMemoryStore()
	svc := NewService(store, profiles, nil, nil)

	require.True(t, svc.Initialize(ctx, "user-1", []byte("pw")))
	require.True(t, svc.Initialized(ctx, "user-1"))

	require.NoError(t, svc.Clear(ctx, "user-1"))
	assert.False(t, svc.Initialized(ctx, "user-1"))
	require.NoError(t, svc.Clear(ctx, "user-1"))

	// The public salt survives logout for the next login.
	cached, err := store.Get(ctx, keystore.StoreKey("enc_salt", "user-1"))
	require.NoError(t, err)
	assert.NotEmpty(t, cached)
}

func TestInitialize_RefusesMissingInput(t *testing.T) {
	svc := NewService(keystore.NewMemoryStore(), newFakeProfiles(), nil, nil)

	assert.False(t, svc.Initialize(context.Background(), "", []byte("pw")))
	assert.False(t, svc.Initialize(context.Background(), "user-1", nil))
}

func TestInitialize_KeysDifferPerUser(t *testing.T) {
	ctx := context.Background()
	profiles := newFakeProfiles()
	store := keystore.NewMemoryStore()
	svc := NewService(store, profiles, nil, nil)

	require.True(t, svc.Initialize(ctx, "user-1", []byte("same-password")))
	require.True(t, svc.Initialize(ctx, "user-2", []byte("same-password")))

	key1, err := svc.Key(ctx, "user-1")
	require.NoError(t, err)
	key2, err := svc.Key(ctx, "user-2")
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2, "per-user salts must keep identical passwords from colliding")
}
