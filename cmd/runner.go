package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/litfav/internal/favorites"
	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/repositories"
	"github.com/desertthunder/litfav/internal/services"
	"github.com/desertthunder/litfav/internal/session"
	"github.com/desertthunder/litfav/internal/shared"
	"github.com/desertthunder/litfav/internal/tasks"
	"github.com/desertthunder/litfav/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are built lazily by [Runner.connect] so setup commands work without a store.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	notifier   *ui.Notifier
	openURL    func(string) error

	store      repositories.Store
	closeStore func() error
	session    *session.Session
	account    *services.AccountService
	gateway    *services.Gateway
	remote     *services.FavoritesService
	catalog    *services.CatalogService
	cache      *favorites.Cache
	engine     *tasks.FavoritesEngine
	bound      bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Notifier   *ui.Notifier
	// Store overrides the configured storage backend.
	Store repositories.Store
	// OpenURL opens the sign-in page; defaults to [shared.OpenBrowser].
	OpenURL func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Notifier == nil {
		opts.Notifier = ui.NewNotifier(os.Stderr)
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		notifier:   opts.Notifier,
		openURL:    opts.OpenURL,
		store:      opts.Store,
	}
}

// SetLogger replaces the logger used by the runner and every service it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, authorsCommand, favoritesCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openStore returns the configured durable store.
func (r *Runner) openStore() (repositories.Store, func() error, error) {
	nop := func() error { return nil }
	if r.store != nil {
		return r.store, nop, nil
	}

	switch r.config.Storage.Backend {
	case shared.BackendMemory:
		return repositories.NewMemoryStore(), nop, nil
	case shared.BackendKeyring:
		return repositories.NewKeyringStore(r.config.Storage.KeyringService), nop, nil
	default:
		db, err := shared.OpenStore(r.config.Database)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewKVRepository(db), db.Close, nil
	}
}

// connect builds the session and services once and restores any persisted session.
func (r *Runner) connect() error {
	if r.session != nil {
		return nil
	}

	store, closeStore, err := r.openStore()
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", r.config.Storage.Backend, err)
	}
	r.store, r.closeStore = store, closeStore

	s := session.New(session.Options{Store: store, Logger: r.logger})
	if _, err := s.Initialize(); err != nil {
		r.logger.Warn("stored session discarded", "error", err)
	}

	api := services.NewAPIService(r.config.Account.BaseURL, r.httpClient)
	r.account = services.NewAccountService(api, r.config.Account.SignInTimeout(), r.logger)
	r.gateway = services.NewGateway(services.GatewayOptions{
		API:       api,
		Session:   s,
		Refresher: r.account,
		Notifier:  r.notifier,
		Navigator: r.navigator(),
		Logger:    r.logger,
	})
	r.remote = services.NewFavoritesService(r.gateway, r.logger)
	r.catalog = services.NewCatalogService(services.CatalogOptions{
		BaseURL:     r.config.Catalog.BaseURL,
		CoversURL:   r.config.Catalog.CoversURL,
		SearchLimit: r.config.Catalog.SearchLimit,
		RateLimit:   r.config.Catalog.RateLimit,
		HTTPClient:  r.httpClient,
		Logger:      r.logger,
	})
	r.cache = favorites.New(favorites.Options{
		Remote:  r.remote,
		Catalog: r.catalog,
		Store:   store,
		Logger:  r.logger,
	})
	r.engine = tasks.NewFavoritesEngine(r.cache)
	r.session = s
	return nil
}

// bind attaches the favorites cache to the session, loading the signed-in user's favorites.
func (r *Runner) bind(ctx context.Context) error {
	if err := r.connect(); err != nil {
		return err
	}
	if !r.bound {
		r.cache.Bind(ctx, r.session)
		r.bound = true
	}
	return nil
}

// requireIdentity returns the signed-in identity or [shared.ErrNotAuthenticated].
func (r *Runner) requireIdentity() (models.Identity, error) {
	if err := r.connect(); err != nil {
		return models.Identity{}, err
	}
	identity, ok := r.session.Identity()
	if !ok || !r.session.IsAuthenticated() {
		return models.Identity{}, fmt.Errorf("%w: run `litfav auth signin` first", shared.ErrNotAuthenticated)
	}
	return identity, nil
}

// close releases the store opened by connect.
func (r *Runner) close() error {
	if r.closeStore == nil {
		return nil
	}
	err := r.closeStore()
	r.closeStore = nil
	return err
}

// report prints err for the user. An expired session is logged out locally and the user is
// sent back to sign-in; the favorites mirror is kept.
func (r *Runner) report(err error) {
	switch {
	case errors.Is(err, shared.ErrAuthExpired):
		if r.session != nil {
			if lerr := r.session.Logout(); lerr != nil {
				r.logger.Error("failed to clear session", "error", lerr)
			}
		}
		r.notifier.Error(services.SessionExpiredMessage)
		r.navigator().SignIn()
	case errors.Is(err, shared.ErrRefreshFailed):
		r.logger.Debug("session ended during request", "error", err)
	case errors.Is(err, shared.ErrNotAuthenticated):
		r.notifier.Info(err.Error())
	default:
		r.notifier.Error(err.Error())
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
