package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// CSRFGenerator derives CSRF tokens from a user ID with HMAC-SHA256.
// Tokens need no server-side storage and stay valid across token refreshes.
type CSRFGenerator struct {
	secret []byte
}

// NewCSRFGenerator creates a new HMAC-based CSRF generator
func NewCSRFGenerator(secret string) *CSRFGenerator {
	return &CSRFGenerator{secret: []byte(secret)}
}

// GenerateToken returns the CSRF token for userID
func (g *CSRFGenerator) GenerateToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user ID is required")
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte("csrf:" + userID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// ValidateToken reports whether token is the CSRF token for userID
func (g *CSRFGenerator) ValidateToken(userID, token string) bool {
	if userID == "" || token == "" {
		return false
	}
	expected, err := g.GenerateToken(userID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}
