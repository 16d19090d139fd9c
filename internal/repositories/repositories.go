package repositories

import (
	"fmt"

	"github.com/desertthunder/litfav/internal/shared"
)

// Well-known storage keys.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
	KeyUserEmail    = "userEmail"
	KeyFavorites    = "favorites"
)

// SessionKeys are cleared together on logout.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser, KeyUserEmail}

// AllKeys are cleared together when a session is forcibly terminated.
var AllKeys = append(append([]string{}, SessionKeys...), KeyFavorites)

// Store is a string-keyed durable storage backend.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set writes a single key.
	Set(key, value string) error

	// SetMany writes all values; backends that support it apply them atomically.
	SetMany(values map[string]string) error

	// Delete removes the keys; missing keys are ignored.
	Delete(keys ...string) error
}

func storageErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", shared.ErrStorage, op, key, err)
}
