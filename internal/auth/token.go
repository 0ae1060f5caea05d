package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when a token is not a JWT. Such tokens are opaque
// to the client and are sent to the server unchanged.
var ErrNotJWT = errors.New("auth: token is not a JWT")

// TokenInfo holds the registered claims of an inspected token.
type TokenInfo struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the token has expired at now.
// A token without an expiry never expires.
func (i TokenInfo) Expired(now time.Time) bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(i.ExpiresAt)
}

// InspectToken decodes a JWT without verifying its signature.
//
// Returns:
//   - TokenInfo: Subject, issuer and expiry from the registered claims
//   - error: ErrNotJWT wrapping the parse error for malformed tokens
func InspectToken(token string) (TokenInfo, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return TokenInfo{}, fmt.Errorf("%w: %w", ErrNotJWT, err)
		}
		return TokenInfo{}, fmt.Errorf("inspecting token: %w", err)
	}

	info := TokenInfo{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
