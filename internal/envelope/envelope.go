package envelope

import (
	"github.com/goccy/go-json"
)

const (
	// AlgorithmCBCHMAC identifies the AES-256-CBC + HMAC-SHA256
	// encrypt-then-MAC construction. This is the default write format.
	AlgorithmCBCHMAC = "AES-CBC-256-HMAC"

	// AlgorithmGCM identifies the AES-256-GCM construction with associated
	// data. The authentication tag is appended to the ciphertext and the
	// 12-byte nonce travels in the IV field.
	AlgorithmGCM = "AES-GCM-256"
)

// Envelope is the wire format persisted inside existing text columns. All
// binary fields are base64 (standard encoding). The Algorithm tag is
// mandatory for anything encrypted by this package: its absence defines the
// value as legacy plaintext.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	HMAC       string `json:"hmac,omitempty"`
	Algorithm  string `json:"algorithm"`
}

// Parse attempts to interpret raw as an envelope. The second return value is
// false when raw is not valid JSON, is not a JSON object, or lacks the
// algorithm tag. All of these classify the value as legacy plaintext.
func Parse(raw string) (*Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, false
	}
	if env.Algorithm == "" {
		return nil, false
	}
	return &env, true
}

// Recognized reports whether the algorithm tag names a construction this
// package can decrypt.
func (e *Envelope) Recognized() bool {
	return e.Algorithm == AlgorithmCBCHMAC || e.Algorithm == AlgorithmGCM
}

func (e *Envelope) marshal() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
