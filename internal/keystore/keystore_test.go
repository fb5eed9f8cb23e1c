package keystore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestStoreKey_PlainIdentifierKeepsShape(t *testing.T) {
	assert.Equal(t, "enc_key_user-42", StoreKey("enc_key", "user-42"))
	assert.Equal(t, "enc_key_a.b_c-d", StoreKey("enc_key", "a.b_c-d"))
}

func TestStoreKey_SanitizedIdentifierGetsHashSuffix(t *testing.T) {
	k := StoreKey("enc_key", "user@example.com")

	assert.Regexp(t, regexp.MustCompile(`^enc_key_user_example\.com_[0-9a-f]{16}$`), k)
}

func TestStoreKey_NoCollisionAfterSanitization(t *testing.T) {
	// Both raw IDs sanitize to "user_1"; the hash suffix keeps them apart.
	a := StoreKey("enc_key", "user@1")
	b := StoreKey("enc_key", "user#1")
	assert.NotEqual(t, a, b)
}

func TestStoreKey_NamespacesAreIndependent(t *testing.T) {
	assert.NotEqual(t, StoreKey("enc_key", "u1"), StoreKey("enc_salt", "u1"))
}

// storeContract exercises the SecureStore behavior shared by all backends.
func storeContract(t *testing.T, store SecureStore) {
	t.Helper()
	ctx := context.Background()

	// absent entries read as empty, not as errors
	v, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, store.Set(ctx, "k1", "v1"))
	v, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	// overwrite
	require.NoError(t, store.Set(ctx, "k1", "v2"))
	v, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	// delete is idempotent
	require.NoError(t, store.Delete(ctx, "k1"))
	require.NoError(t, store.Delete(ctx, "k1"))
	v, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestKeyringStore_Contract(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	storeContract(t, NewKeyringStore(ring))
}

func TestSQLiteStore_Contract(t *testing.T) {
	db, err := sql.Open("sqlite", "file:keystore?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	storeContract(t, NewSQLiteStore(db))
}
