// Package cryptox contains the cryptographic primitives shared by the key
// derivation service and the envelope cipher: PBKDF2 key derivation, random
// salt/IV generation, HMAC computation and verification, PKCS#7 padding,
// and secure wiping of byte slices.
package cryptox

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the size of the per-user random salt in bytes.
	SaltSize = 16

	// KeySize is the derived key size in bytes (AES-256).
	KeySize = 32

	// IVSize is the AES-CBC initialization vector size in bytes.
	IVSize = 16

	// KDFIterations is the PBKDF2-HMAC-SHA256 iteration count. Changing it
	// changes every derived key, so it is part of the wire compatibility
	// contract with existing envelopes.
	KDFIterations = 100_000
)

// DeriveKey derives a 256-bit key from a password and salt using
// PBKDF2-HMAC-SHA256 with KDFIterations iterations. The derivation is
// deterministic: the same (password, salt) pair always reproduces the same
// key, which is what makes multi-device decryption work without ever
// transmitting the key itself.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, KDFIterations, KeySize, sha256.New)
}

// GenerateSalt returns SaltSize cryptographically random bytes.
func GenerateSalt() ([]byte, error) {
	return randBytes(SaltSize)
}

// GenerateIV returns IVSize cryptographically random bytes.
func GenerateIV() ([]byte, error) {
	return randBytes(IVSize)
}

// GenerateNonce returns n cryptographically random bytes.
func GenerateNonce(n int) ([]byte, error) {
	return randBytes(n)
}

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("random source error: %w", err)
	}
	return b, nil
}

// ComputeHMAC returns the HMAC-SHA256 of data under key. Used in the
// encrypt-then-MAC construction, keyed with the same key as the cipher.
func ComputeHMAC(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// VerifyHMAC reports whether expected matches the HMAC-SHA256 of data under
// key, using a constant-time comparison.
func VerifyHMAC(key, data, expected []byte) bool {
	return hmac.Equal(ComputeHMAC(key, data), expected)
}

// PKCS7Pad appends PKCS#7 padding so that len(result) is a multiple of
// blockSize. The input is always padded, even when already aligned.
func PKCS7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

// PKCS7Unpad strips PKCS#7 padding, validating its shape.
func PKCS7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding size")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding bytes")
		}
	}
	return data[:len(data)-n], nil
}

// Wipe overwrites the contents of b with zeros. Useful for removing
// passwords and derived keys from memory after use. Nil-safe.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
