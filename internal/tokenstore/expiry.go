package tokenstore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryOf returns the "exp" claim of a JWT without verifying its signature.
// Opaque tokens and JWTs without "exp" report ok=false.
func ExpiryOf(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
