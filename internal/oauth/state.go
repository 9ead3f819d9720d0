package oauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// BuildState builds an HMAC-signed state token for OAuth CSRF protection.
// Format: userID.nonce.signature
func BuildState(userID, secret string) (string, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	payload := userID + "." + hex.EncodeToString(nonce)
	return payload + "." + sign(payload, secret), nil
}

// VerifyState verifies an HMAC-signed state token and returns the embedded
// user id.
func VerifyState(state, secret string) (string, bool) {
	parts := strings.Split(state, ".")
	if len(parts) != 3 {
		return "", false
	}

	payload := parts[0] + "." + parts[1]
	expected := sign(payload, secret)
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return "", false
	}
	return parts[0], true
}

func sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
