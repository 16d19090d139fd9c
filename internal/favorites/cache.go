package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/repositories"
	"github.com/desertthunder/litfav/internal/session"
	"github.com/desertthunder/litfav/internal/shared"
)

// Remote is the authoritative per-user collection.
type Remote interface {
	List(ctx context.Context, email string) ([]models.FavoriteEntry, error)
	Add(ctx context.Context, entry models.FavoriteEntry) (models.FavoriteEntry, error)
	Remove(ctx context.Context, email, authorID string) error
}

// Catalog supplies the metadata saved with a new favorite.
type Catalog interface {
	Author(ctx context.Context, id string) (*models.Author, error)
	CoversURL() string
}

// Cache is the client-side view of the signed-in user's favorites.
//
// Mutations are confirmed remotely before the cache changes. At most one toggle per author
// may be in flight; a second one for the same author fails with [shared.ErrToggleInFlight].
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]models.FavoriteEntry
	pending    map[string]bool
	owner      string
	generation int

	remote  Remote
	catalog Catalog
	store   repositories.Store
	session *session.Session
	logger  *log.Logger
	now     func() time.Time
}

// Options configures a [Cache].
type Options struct {
	Remote  Remote
	Catalog Catalog
	// Store receives the durable mirror; nil disables mirroring.
	Store  repositories.Store
	Logger *log.Logger
	Now    func() time.Time
}

// New creates an empty, unbound [Cache].
func New(opts Options) *Cache {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Cache{
		entries: make(map[string]models.FavoriteEntry),
		pending: make(map[string]bool),
		remote:  opts.Remote,
		catalog: opts.Catalog,
		store:   opts.Store,
		logger:  shared.WithLogger(opts.Logger, "component", "favorites"),
		now:     opts.Now,
	}
}

// Bind makes s the identity source for toggles and follows its transitions: a new identity
// loads that user's favorites, and teardown resets the cache.
//
// If s already holds an identity it is loaded immediately.
func (c *Cache) Bind(ctx context.Context, s *session.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	s.OnChange(func(identity models.Identity, present bool) {
		if !present {
			c.Reset()
			return
		}
		if identity.Email == c.Owner() {
			return
		}
		if err := c.Load(ctx, identity); err != nil {
			c.logger.Error("failed to load favorites", "email", identity.Email, "error", err)
		}
	})

	if identity, ok := s.Identity(); ok && s.IsAuthenticated() {
		if err := c.Load(ctx, identity); err != nil {
			c.logger.Error("failed to load favorites", "email", identity.Email, "error", err)
		}
	}
}

// Load replaces the cache with the remote collection of identity and mirrors it.
//
// On failure the cache and the mirror are left empty and the error is returned for logging only.
func (c *Cache) Load(ctx context.Context, identity models.Identity) error {
	if err := identity.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthExpired, err)
	}

	entries, err := c.remote.List(ctx, identity.Email)

	c.mu.Lock()
	c.generation++
	c.owner = identity.Email
	c.entries = make(map[string]models.FavoriteEntry, len(entries))
	if err == nil {
		for _, e := range entries {
			c.entries[models.AuthorIDFromKey(e.AuthorID)] = e
		}
	}
	snapshot := c.sortedLocked()
	c.mu.Unlock()

	if err != nil {
		c.dropMirror()
		return err
	}

	c.logger.Debug("favorites loaded", "email", identity.Email, "count", len(snapshot))
	c.mirror(snapshot)
	return nil
}

// Reset empties the cache. Toggles still in flight for the previous owner are discarded when they settle.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.owner = ""
	c.entries = make(map[string]models.FavoriteEntry)
}

// IsFavorite reports membership of key, which may be a bare id or an /authors/ key.
func (c *Cache) IsFavorite(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[models.AuthorIDFromKey(key)]
	return ok
}

// IsPending reports whether a toggle for key is in flight.
func (c *Cache) IsPending(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending[models.AuthorIDFromKey(key)]
}

// Toggle flips the membership of key.
//
// Returns true when key is a favorite afterwards. On any failure the cache is unchanged.
func (c *Cache) Toggle(ctx context.Context, key string) (bool, error) {
	present, _, err := c.change(ctx, key, func(present bool) bool { return !present })
	return present, err
}

// Add makes key a favorite if it is not one already. Returns whether a remote add was made.
func (c *Cache) Add(ctx context.Context, key string) (bool, error) {
	_, changed, err := c.change(ctx, key, func(bool) bool { return true })
	return changed, err
}

// Remove drops key from the favorites if present. Returns whether a remote remove was made.
func (c *Cache) Remove(ctx context.Context, key string) (bool, error) {
	_, changed, err := c.change(ctx, key, func(bool) bool { return false })
	return changed, err
}

// change drives key to the membership chosen by target, confirming remotely first.
func (c *Cache) change(ctx context.Context, key string, target func(present bool) bool) (present, changed bool, err error) {
	id := models.AuthorIDFromKey(key)
	if id == "" {
		return false, false, fmt.Errorf("%w: empty author key", shared.ErrInvalidInput)
	}

	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	var identity models.Identity
	ok := false
	if s != nil {
		identity, ok = s.Identity()
	}
	if !ok {
		return false, false, fmt.Errorf("%w: no signed-in user", shared.ErrAuthExpired)
	}

	c.mu.Lock()
	if c.pending[id] {
		c.mu.Unlock()
		return c.IsFavorite(id), false, fmt.Errorf("%w: %s", shared.ErrToggleInFlight, id)
	}
	_, present = c.entries[id]
	want := target(present)
	if want == present {
		c.mu.Unlock()
		return present, false, nil
	}
	c.pending[id] = true
	generation := c.generation
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if want {
		err = c.add(ctx, id, identity, generation)
	} else {
		err = c.remove(ctx, id, identity, generation)
	}
	if err != nil {
		return present, false, err
	}
	return want, true, nil
}

func (c *Cache) add(ctx context.Context, id string, identity models.Identity, generation int) error {
	author, err := c.catalog.Author(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up author %s: %w", id, err)
	}

	entry := author.FavoriteFor(identity, c.catalog.CoversURL(), c.now())
	saved, err := c.remote.Add(ctx, entry)
	if err != nil {
		return mutationErr("add", id, err)
	}

	c.settle(identity, generation, func() { c.entries[id] = saved })
	c.logger.Info("favorite added", "author", id, "name", saved.Name)
	return nil
}

func (c *Cache) remove(ctx context.Context, id string, identity models.Identity, generation int) error {
	if err := c.remote.Remove(ctx, identity.Email, id); err != nil {
		return mutationErr("remove", id, err)
	}

	c.settle(identity, generation, func() { delete(c.entries, id) })
	c.logger.Info("favorite removed", "author", id)
	return nil
}

// settle applies a confirmed mutation unless the cache was reset or rebound meanwhile.
func (c *Cache) settle(identity models.Identity, generation int, apply func()) {
	c.mu.Lock()
	if generation != c.generation || (c.owner != "" && c.owner != identity.Email) {
		c.mu.Unlock()
		c.logger.Debug("discarding settled toggle for previous session", "email", identity.Email)
		return
	}
	c.owner = identity.Email
	apply()
	snapshot := c.sortedLocked()
	c.mu.Unlock()

	c.mirror(snapshot)
}

func mutationErr(op, id string, err error) error {
	switch {
	case errors.Is(err, shared.ErrRemoteMutation),
		errors.Is(err, shared.ErrAuthExpired),
		errors.Is(err, shared.ErrRefreshFailed):
		return err
	default:
		return fmt.Errorf("%w: %s %s: %w", shared.ErrRemoteMutation, op, id, err)
	}
}

// Entries returns the cached favorites, most recently added first.
func (c *Cache) Entries() []models.FavoriteEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedLocked()
}

// Keys returns the cached author ids in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached favorites.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Owner returns the email the cache was loaded for, or "".
func (c *Cache) Owner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

func (c *Cache) sortedLocked() []models.FavoriteEntry {
	out := make([]models.FavoriteEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.After(out[j].AddedAt)
		}
		return out[i].AuthorID < out[j].AuthorID
	})
	return out
}

func (c *Cache) mirror(entries []models.FavoriteEntry) {
	if c.store == nil {
		return
	}

	data, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("failed to encode favorites mirror", "error", err)
		return
	}
	if err := c.store.Set(repositories.KeyFavorites, string(data)); err != nil {
		c.logger.Warn("failed to write favorites mirror", "error", err)
	}
}

func (c *Cache) dropMirror() {
	if c.store == nil {
		return
	}
	if err := c.store.Delete(repositories.KeyFavorites); err != nil {
		c.logger.Warn("failed to clear favorites mirror", "error", err)
	}
}

// Mirrored reads the durable mirror written by the last load or toggle.
//
// The mirror is a convenience for offline listing and is never authoritative. While a user
// email is persisted, only entries added by that user are returned.
func Mirrored(store repositories.Store) ([]models.FavoriteEntry, error) {
	raw, ok, err := store.Get(repositories.KeyFavorites)
	if err != nil || !ok {
		return nil, err
	}

	var entries []models.FavoriteEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: favorites mirror: %v", shared.ErrMalformedResponse, err)
	}

	email, ok, err := store.Get(repositories.KeyUserEmail)
	if err != nil {
		return nil, err
	}
	if !ok || email == "" {
		return entries, nil
	}
	owned := make([]models.FavoriteEntry, 0, len(entries))
	for _, e := range entries {
		if strings.EqualFold(e.AddedBy, email) {
			owned = append(owned, e)
		}
	}
	return owned, nil
}

// Mirrored reads the durable mirror of this cache's store.
func (c *Cache) Mirrored() ([]models.FavoriteEntry, error) {
	if c.store == nil {
		return nil, nil
	}
	return Mirrored(c.store)
}
