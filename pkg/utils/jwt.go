package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const resetTokenPurpose = "password_reset"

// ResetClaims identify the user a password-reset link was issued for.
// Password is a fingerprint of the hash at issue time, so the link stops
// working once the password changes.
type ResetClaims struct {
	Username string `json:"username"`
	Purpose  string `json:"purpose"`
	Password string `json:"pwd"`
	jwt.RegisteredClaims
}

// PasswordFingerprint is a short digest of a stored password hash
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

// GenerateResetToken signs a short-lived password-reset token for username,
// bound to the user's current password hash
func GenerateResetToken(username, passwordHash, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("reset token secret not configured")
	}

	now := time.Now().UTC()
	claims := &ResetClaims{
		Username: username,
		Purpose:  resetTokenPurpose,
		Password: PasswordFingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateResetToken verifies signature, expiry and purpose and returns the
// claims. Callers must still compare Password with the user's current hash.
func ValidateResetToken(tokenString, secret string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Purpose != resetTokenPurpose || claims.Username == "" || claims.Password == "" {
		return nil, errors.New("invalid reset token")
	}
	return claims, nil
}
