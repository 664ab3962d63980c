package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a session token fails signature
// verification or does not carry a usable subject claim.
var ErrInvalidToken = errors.New("invalid token")

// NewSessionToken builds and signs an HS256 JWT binding the user's id.
// Session tokens carry no expiry claim: a token stays valid until it is
// revoked by logout or logoutAll.  Claims are subject (sub) and issued
// at (iat).
func NewSessionToken(secret string, userID uint64) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseSessionToken verifies the signature of a session token and returns
// the embedded user id.  Only HMAC-signed tokens are accepted.
func ParseSessionToken(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	// Numeric JSON claims decode as float64.
	sub, ok := claims["sub"].(float64)
	if !ok || sub < 1 {
		return 0, ErrInvalidToken
	}
	return uint64(sub), nil
}

// HashToken returns the SHA-256 hash of a session token as a hex string.
// Only the hash is persisted, so a stolen database copy cannot be used to
// authenticate.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
