package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/repositories"
	"github.com/desertthunder/litfav/internal/shared"
	"golang.org/x/oauth2"
)

// ChangeFunc receives the new identity after a transition; present is false after teardown.
type ChangeFunc func(identity models.Identity, present bool)

// Session is the credential store.
type Session struct {
	mu        sync.RWMutex
	store     repositories.Store
	logger    *log.Logger
	now       func() time.Time
	token     *oauth2.Token
	identity  *models.Identity
	loading   bool
	listeners []ChangeFunc
}

// Options configures a [Session].
type Options struct {
	Store  repositories.Store
	Logger *log.Logger
	Now    func() time.Time
}

// New creates an unauthenticated [Session]. Call [Session.Initialize] to hydrate it.
func New(opts Options) *Session {
	if opts.Store == nil {
		opts.Store = repositories.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Session{
		store:  opts.Store,
		logger: shared.WithLogger(opts.Logger, "component", "session"),
		now:    opts.Now,
	}
}

// Initialize reads the persisted identity and access token and keeps them only if the
// token passes [CheckLiveness]. Otherwise all persisted credential keys are cleared.
//
// Returns whether the session is authenticated afterwards.
func (s *Session) Initialize() (bool, error) {
	s.mu.Lock()
	s.loading = true

	authenticated, err := s.hydrate()

	s.loading = false
	identity := s.identity
	s.mu.Unlock()

	if authenticated {
		s.publish(*identity, true)
	}
	return authenticated, err
}

func (s *Session) hydrate() (bool, error) {
	rawUser, hasUser, err := s.store.Get(repositories.KeyUser)
	if err != nil {
		return false, err
	}
	access, hasAccess, err := s.store.Get(repositories.KeyAccessToken)
	if err != nil {
		return false, err
	}
	refresh, _, err := s.store.Get(repositories.KeyRefreshToken)
	if err != nil {
		return false, err
	}

	var identity models.Identity
	reason := ""
	var exp time.Time

	switch {
	case !hasUser || !hasAccess:
		reason = "missing persisted session"
	case json.Unmarshal([]byte(rawUser), &identity) != nil:
		reason = "unreadable identity"
	case identity.Validate() != nil:
		reason = "identity without email"
	default:
		if exp, err = CheckLiveness(access, s.now()); err != nil {
			reason = err.Error()
		}
	}

	if reason != "" {
		s.token, s.identity = nil, nil
		if hasUser || hasAccess {
			s.logger.Info("discarding persisted session", "reason", reason)
		}
		return false, s.store.Delete(repositories.SessionKeys...)
	}

	s.identity = &identity
	s.token = &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer", Expiry: exp}
	s.logger.Debug("session restored", "email", identity.Email, "expires", exp)
	return true, nil
}

// Login sets and persists the identity. It does not touch credentials.
func (s *Session) Login(identity models.Identity) error {
	if err := identity.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	s.mu.Lock()
	s.identity = &identity
	err = s.store.SetMany(map[string]string{
		repositories.KeyUser:      string(raw),
		repositories.KeyUserEmail: identity.Email,
	})
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.publish(identity, true)
	return nil
}

// SetCredentials stores a credential pair obtained from a successful network exchange.
func (s *Session) SetCredentials(pair models.TokenPair) error {
	if pair.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrInvalidInput)
	}

	// Opaque tokens are accepted; they simply carry no expiry.
	exp, _ := Expiry(pair.AccessToken)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = &oauth2.Token{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       exp,
	}
	return s.store.SetMany(map[string]string{
		repositories.KeyAccessToken:  pair.AccessToken,
		repositories.KeyRefreshToken: pair.RefreshToken,
	})
}

// Establish replaces identity and credentials in one step after sign-in or sign-up.
//
// Both are validated first and written with a single SetMany, so no reader sees the previous
// identity paired with the new token. A storage failure leaves the session signed out.
func (s *Session) Establish(identity models.Identity, pair models.TokenPair) error {
	if err := identity.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if pair.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrInvalidInput)
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	exp, _ := Expiry(pair.AccessToken)

	s.mu.Lock()
	had := s.identity
	err = s.store.SetMany(map[string]string{
		repositories.KeyAccessToken:  pair.AccessToken,
		repositories.KeyRefreshToken: pair.RefreshToken,
		repositories.KeyUser:         string(raw),
		repositories.KeyUserEmail:    identity.Email,
	})
	if err != nil {
		s.token, s.identity = nil, nil
		if derr := s.store.Delete(repositories.SessionKeys...); derr != nil {
			s.logger.Error("failed to clear partial session", "error", derr)
		}
		s.mu.Unlock()
		if had != nil {
			s.publish(models.Identity{}, false)
		}
		return err
	}
	s.identity = &identity
	s.token = &oauth2.Token{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       exp,
	}
	s.mu.Unlock()

	s.publish(identity, true)
	return nil
}

// Logout clears the identity and every persisted credential key.
//
// In-memory state is cleared under the lock before storage, so readers never observe half a session.
func (s *Session) Logout() error {
	return s.clear(repositories.SessionKeys)
}

// Terminate is a forced logout that also drops the favorites mirror.
func (s *Session) Terminate() error {
	return s.clear(repositories.AllKeys)
}

func (s *Session) clear(keys []string) error {
	s.mu.Lock()
	had := s.identity
	s.token, s.identity = nil, nil
	err := s.store.Delete(keys...)
	s.mu.Unlock()

	if had != nil {
		s.publish(models.Identity{}, false)
	}
	return err
}

// IsAuthenticated reports whether both an identity and an access credential are present.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil && s.token != nil
}

// Loading is true only while [Session.Initialize] runs.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Identity returns the current identity, if any.
func (s *Session) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

// Token returns a copy of the current credential pair, or nil.
func (s *Session) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil
	}
	t := *s.token
	return &t
}

// AccessToken returns the current access credential, or "".
func (s *Session) AccessToken() string {
	if t := s.Token(); t != nil {
		return t.AccessToken
	}
	return ""
}

// RefreshToken returns the current refresh credential, or "".
func (s *Session) RefreshToken() string {
	if t := s.Token(); t != nil {
		return t.RefreshToken
	}
	return ""
}

// OnChange registers fn for identity transitions.
func (s *Session) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) publish(identity models.Identity, present bool) {
	s.mu.RLock()
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(identity, present)
	}
}
