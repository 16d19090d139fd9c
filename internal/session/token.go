package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/litfav/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// CheckLiveness is a local, non-network check of an access token.
//
// It parses a three-part signed token, extracts the exp claim and compares it to now.
// The signature is never verified; the account service does that on every request.
// Returns the expiry on success, [shared.ErrTokenMalformed] or [shared.ErrTokenExpired] otherwise.
func CheckLiveness(token string, now time.Time) (time.Time, error) {
	exp, err := Expiry(token)
	if err != nil {
		return time.Time{}, err
	}
	if !exp.After(now) {
		return exp, fmt.Errorf("%w: expired at %s", shared.ErrTokenExpired, exp.Format(time.RFC3339))
	}
	return exp, nil
}

// Expiry returns the exp claim of a three-part signed token without checking it against the clock.
func Expiry(token string) (time.Time, error) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, fmt.Errorf("%w: expected three segments", shared.ErrTokenMalformed)
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", shared.ErrTokenMalformed, err)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", shared.ErrTokenMalformed)
	}
	return claims.ExpiresAt.Time, nil
}
