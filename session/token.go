package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a JWT session token without checking
// its signature. ok is false when the token is not a JWT or has no exp
// claim; such tokens are treated as never expiring.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	nd, err := claims.GetExpirationTime()
	if err != nil || nd == nil {
		return time.Time{}, false
	}
	return nd.Time, true
}

// TokenSubject reads the sub claim of a JWT session token without checking
// its signature.
func TokenSubject(token string) (string, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

// CheckToken rejects an empty token with ErrNotAuthenticated and an expired
// one with ErrTokenExpired.
func CheckToken(token string, now time.Time) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	if exp, ok := TokenExpiry(token); ok && !now.Before(exp) {
		return ErrTokenExpired
	}
	return nil
}

var (
	// ErrNotAuthenticated is returned when an operation needs a session and
	// there is none.
	ErrNotAuthenticated = errors.New("not signed in")
	// ErrTokenExpired is returned for a session token past its exp claim.
	ErrTokenExpired = errors.New("session token has expired")
)
