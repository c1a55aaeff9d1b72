package model

import (
	"crypto/rand"
	"encoding/base32"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const apiKeyBytes = 30

// GenerateAPIKey returns a new random API key.
func GenerateAPIKey() ([]byte, error) {
	raw := make([]byte, apiKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return []byte(strings.ToLower(encoded)), nil
}

// HashAPIKey returns the bcrypt hash stored in credentials.api_key_hash.
func HashAPIKey(apiKey []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(apiKey, bcrypt.DefaultCost)
}

// CompareAPIKey reports whether apiKey matches hash.
func CompareAPIKey(hash, apiKey []byte) bool {
	if len(hash) == 0 || len(apiKey) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, apiKey) == nil
}
