package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSigningKey signs test tokens; the client never verifies signatures.
var TokenSigningKey = []byte("guidechat-test-key")

// CreateTempDir creates a temporary directory removed when the test ends
func CreateTempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// JSONMarshal marshals a value to JSON for testing
func JSONMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}

// JSONUnmarshal unmarshals JSON for testing
func JSONUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}

// MintToken returns a signed JWT for subject expiring at exp
func MintToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(TokenSigningKey)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

// ValidToken returns a token that expires in an hour
func ValidToken(t *testing.T) string {
	t.Helper()
	return MintToken(t, "alice", time.Now().Add(time.Hour))
}

// ExpiredToken returns a token that expired an hour ago
func ExpiredToken(t *testing.T) string {
	t.Helper()
	return MintToken(t, "alice", time.Now().Add(-time.Hour))
}
