package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Classification(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		isEnvelope bool
	}{
		{"plain legacy string", "Oggi mi sento bene", false},
		{"empty string", "", false},
		{"json number", "123", false},
		{"json array", `["a","b"]`, false},
		{"json object without algorithm", `{"ciphertext":"abc","iv":"def"}`, false},
		{"envelope with algorithm", `{"ciphertext":"abc","iv":"def","hmac":"ghi","algorithm":"AES-CBC-256-HMAC"}`, true},
		{"envelope with unknown algorithm", `{"ciphertext":"abc","algorithm":"ROT13"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ok := Parse(tt.raw)
			assert.Equal(t, tt.isEnvelope, ok)
			if tt.isEnvelope {
				require.NotNil(t, env)
				assert.NotEmpty(t, env.Algorithm)
			}
		})
	}
}

func TestEnvelope_Recognized(t *testing.T) {
	assert.True(t, (&Envelope{Algorithm: AlgorithmCBCHMAC}).Recognized())
	assert.True(t, (&Envelope{Algorithm: AlgorithmGCM}).Recognized())
	assert.False(t, (&Envelope{Algorithm: "ROT13"}).Recognized())
}
