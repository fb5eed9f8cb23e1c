// Package envelope implements the authenticated-encryption envelope that
// protects sensitive user records before they reach the backend store.
//
// An envelope is a JSON object carrying base64 ciphertext, IV, an HMAC-SHA256
// tag and an algorithm identifier. It is persisted wherever a plaintext text
// column previously lived, so decryption must tolerate three shapes of input:
// a current envelope, an envelope produced by a future/unknown algorithm, and
// historical plaintext written before encryption was rolled out. The last
// case is a supported compatibility branch, not an error.
//
// The default construction is AES-256-CBC with PKCS#7 padding plus an
// encrypt-then-MAC HMAC-SHA256 over the ciphertext. The MAC is verified
// before any decryption work happens; a mismatch fails closed. Seal and Open
// additionally provide an AES-256-GCM construction that binds the owning
// user/resource identity into the authentication tag, so envelopes cannot be
// swapped between records undetected.
package envelope
