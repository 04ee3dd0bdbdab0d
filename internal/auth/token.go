package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oggyb/bubbles/internal/db"
	svcErr "github.com/oggyb/bubbles/internal/errors"
)

// Claims carried by a session token. Version tracks the password
// generation so a password change invalidates older tokens.
type Claims struct {
	UserID  uint64 `json:"id"`
	Email   string `json:"email"`
	Version int    `json:"version"`
	jwt.RegisteredClaims
}

const tokenTTL = 30 * 24 * time.Hour

// Issue signs an HS256 session token for the user.
func Issue(secret string, user *db.User) (string, error) {
	claims := Claims{
		UserID:  user.ID,
		Email:   user.Email,
		Version: user.Version,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseUserID validates a token and returns the authenticated user id.
// Any invalid, expired or foreign-signed token resolves to ErrUnauthorized.
func ParseUserID(secret, tokenString string) (uint64, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return 0, svcErr.ErrUnauthorized
	}
	return claims.UserID, nil
}
