package envelope

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/auravita/privacykit/internal/common"
	"github.com/auravita/privacykit/internal/cryptox"
	"github.com/auravita/privacykit/internal/logging"
)

const gcmNonceSize = 12

// AssociatedData identifies the record an envelope belongs to. Seal binds it
// into the GCM authentication tag, so moving an envelope to another user or
// record makes Open fail closed.
type AssociatedData struct {
	UserID       string
	ResourceType string
	ResourceID   string
}

// bytes produces an unambiguous encoding of the identity tuple.
func (ad AssociatedData) bytes() []byte {
	b, _ := json.Marshal([3]string{ad.UserID, ad.ResourceType, ad.ResourceID})
	return b
}

// Cipher transforms plaintext into envelopes and back. It holds no key
// material; every call receives the key explicitly, so concurrent calls for
// the same or different users are safe without coordination.
type Cipher struct {
	log logging.Logger

	// plaintextFallback makes EncryptText return the plaintext unchanged
	// when no key is available instead of failing. Callers opt in with
	// WithPlaintextFallback and accept that the value is stored unprotected.
	plaintextFallback bool
}

// Option configures a Cipher.
type Option func(*Cipher)

// WithPlaintextFallback enables the permissive encryption mode: when the
// session key is unavailable, EncryptText returns the input unchanged (and
// warns) rather than returning ErrKeyUnavailable. Off by default.
func WithPlaintextFallback() Option {
	return func(c *Cipher) { c.plaintextFallback = true }
}

// New constructs a Cipher. A nil logger falls back to a no-op logger.
func New(log logging.Logger, opts ...Option) *Cipher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &Cipher{log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EncryptText encrypts plaintext under key and returns the serialized
// envelope. Blank input returns common.ErrNothingToEncrypt: callers must
// treat "nothing to encrypt" as a valid no-op. A missing key returns
// common.ErrKeyUnavailable (a normal pre-login state) unless the plaintext
// fallback mode is enabled.
func (c *Cipher) EncryptText(ctx context.Context, plaintext string, key []byte) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", common.ErrNothingToEncrypt
	}
	if len(key) != cryptox.KeySize {
		if c.plaintextFallback {
			c.log.Warn(ctx, "encryption key unavailable, storing value unencrypted")
			return plaintext, nil
		}
		return "", common.ErrKeyUnavailable
	}

	iv, err := cryptox.GenerateIV()
	if err != nil {
		return "", fmt.Errorf("iv generation: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}

	padded := cryptox.PKCS7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	mac := cryptox.ComputeHMAC(key, ciphertext)

	env := &Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
		HMAC:       base64.StdEncoding.EncodeToString(mac),
		Algorithm:  AlgorithmCBCHMAC,
	}
	return env.marshal()
}

// DecryptText decrypts raw, which may be an envelope or legacy plaintext.
//
// Classification order: input that does not parse as an envelope (invalid
// JSON or missing algorithm tag) is legacy plaintext and is returned
// unchanged; an unrecognized algorithm tag fails closed; only then is the
// key required; the HMAC is verified before any decryption is attempted.
func (c *Cipher) DecryptText(ctx context.Context, raw string, key []byte) (string, error) {
	env, ok := Parse(raw)
	if !ok {
		// Historical plaintext written before encryption rollout.
		return raw, nil
	}

	if !env.Recognized() {
		c.log.Error(ctx, "unrecognized envelope algorithm", "algorithm", env.Algorithm)
		return "", common.ErrUnknownAlgorithm
	}

	if len(key) != cryptox.KeySize {
		// Key missing on real envelope data means a logged-in user has no
		// session key. Legacy plaintext never reaches this branch, so the
		// warning stays meaningful.
		c.log.Warn(ctx, "no encryption key available for envelope data")
		return "", common.ErrKeyUnavailable
	}

	if env.Algorithm == AlgorithmGCM {
		return c.open(ctx, env, key, AssociatedData{})
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return "", common.ErrMalformedEnvelope
	}
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil || len(iv) != cryptox.IVSize {
		return "", common.ErrMalformedEnvelope
	}
	mac, err := base64.StdEncoding.DecodeString(env.HMAC)
	if err != nil {
		return "", common.ErrMalformedEnvelope
	}

	// Verify first, decrypt second. Never touch tampered ciphertext.
	if !cryptox.VerifyHMAC(key, ciphertext, mac) {
		c.log.Error(ctx, "envelope integrity check failed, possible tampering or corruption")
		return "", common.ErrIntegrityCheckFailed
	}

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", common.ErrMalformedEnvelope
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := cryptox.PKCS7Unpad(padded, aes.BlockSize)
	if err != nil || len(plaintext) == 0 {
		return "", common.ErrMalformedEnvelope
	}

	return string(plaintext), nil
}

// EncryptStringArray JSON-serializes the ordered values and encrypts the
// result as a single envelope.
func (c *Cipher) EncryptStringArray(ctx context.Context, values []string, key []byte) (string, error) {
	if len(values) == 0 {
		return "", common.ErrNothingToEncrypt
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("array serialization: %w", err)
	}
	return c.EncryptText(ctx, string(payload), key)
}

// DecryptStringArray reverses EncryptStringArray. When the decrypted payload
// is not a JSON string array the value predates array encryption, and the
// payload is returned as a single-element slice.
func (c *Cipher) DecryptStringArray(ctx context.Context, raw string, key []byte) ([]string, error) {
	plaintext, err := c.DecryptText(ctx, raw, key)
	if err != nil {
		return nil, err
	}

	var values []string
	if err := json.Unmarshal([]byte(plaintext), &values); err != nil {
		return []string{plaintext}, nil
	}
	return values, nil
}

// Seal encrypts plaintext with AES-256-GCM, binding ad into the
// authentication tag. Same blank-input and missing-key semantics as
// EncryptText, minus the plaintext fallback: identity-bound encryption is
// always strict.
func (c *Cipher) Seal(ctx context.Context, plaintext string, key []byte, ad AssociatedData) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", common.ErrNothingToEncrypt
	}
	if len(key) != cryptox.KeySize {
		return "", common.ErrKeyUnavailable
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("gcm init: %w", err)
	}

	nonce, err := cryptox.GenerateNonce(gcmNonceSize)
	if err != nil {
		return "", fmt.Errorf("nonce generation: %w", err)
	}

	ciphertext := aesgcm.Seal(nil, nonce, []byte(plaintext), ad.bytes())

	env := &Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(nonce),
		Algorithm:  AlgorithmGCM,
	}
	return env.marshal()
}

// Open decrypts a GCM envelope produced by Seal, verifying that ad matches
// the identity bound at encryption time. Legacy plaintext passes through
// unchanged, mirroring DecryptText.
func (c *Cipher) Open(ctx context.Context, raw string, key []byte, ad AssociatedData) (string, error) {
	env, ok := Parse(raw)
	if !ok {
		return raw, nil
	}

	if env.Algorithm != AlgorithmGCM {
		if !env.Recognized() {
			c.log.Error(ctx, "unrecognized envelope algorithm", "algorithm", env.Algorithm)
			return "", common.ErrUnknownAlgorithm
		}
		// CBC envelopes carry no identity binding; fall back to the plain
		// decryption path.
		return c.DecryptText(ctx, raw, key)
	}

	if len(key) != cryptox.KeySize {
		c.log.Warn(ctx, "no encryption key available for envelope data")
		return "", common.ErrKeyUnavailable
	}

	return c.open(ctx, env, key, ad)
}

func (c *Cipher) open(ctx context.Context, env *Envelope, key []byte, ad AssociatedData) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return "", common.ErrMalformedEnvelope
	}
	nonce, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil || len(nonce) != gcmNonceSize {
		return "", common.ErrMalformedEnvelope
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("gcm init: %w", err)
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, ad.bytes())
	if err != nil {
		c.log.Error(ctx, "envelope integrity check failed, possible tampering or corruption")
		return "", common.ErrIntegrityCheckFailed
	}
	if len(plaintext) == 0 {
		return "", common.ErrMalformedEnvelope
	}

	return string(plaintext), nil
}
