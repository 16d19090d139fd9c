package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/session"
	"github.com/desertthunder/litfav/internal/shared"
	"golang.org/x/oauth2"
)

// SessionExpiredMessage is shown when a refresh cannot recover the session.
const SessionExpiredMessage = "Session expired. Please log in again."

// Notifier shows user-facing notifications.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// Navigator sends the user to the sign-in surface.
type Navigator interface {
	SignIn()
}

// Refresher exchanges a refresh credential for a new pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
}

// Sender issues authenticated requests. [Gateway] is the production implementation.
type Sender interface {
	Send(ctx context.Context, req *Request) (*APIResponse, error)
}

// Request describes one call to the account service.
//
// Body is sent as-is when it is a []byte and JSON-encoded otherwise.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   any
}

// Gateway attaches the session credential to every request and recovers from a single
// expired credential by refreshing and retrying once.
type Gateway struct {
	api       *APIService
	session   *session.Session
	refresher Refresher
	notifier  Notifier
	navigator Navigator
	logger    *log.Logger

	// refreshMu serializes refresh exchanges across concurrent callers.
	refreshMu sync.Mutex
}

// GatewayOptions configures a [Gateway].
type GatewayOptions struct {
	API       *APIService
	Session   *session.Session
	Refresher Refresher
	Notifier  Notifier
	Navigator Navigator
	Logger    *log.Logger
}

// NewGateway creates a [Gateway]. Notifier and Navigator default to no-ops.
func NewGateway(opts GatewayOptions) *Gateway {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Navigator == nil {
		opts.Navigator = nopNavigator{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Gateway{
		api:       opts.API,
		session:   opts.Session,
		refresher: opts.Refresher,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		logger:    shared.WithLogger(opts.Logger, "component", "gateway"),
	}
}

// Send performs req with the current access credential.
//
// A 401 triggers at most one refresh followed by one retry, whose response is returned
// whatever its status. Without a refresh credential the 401 is returned unchanged.
// If the refresh itself fails the session is terminated, the user is notified and sent to
// sign-in, and the returned error wraps [shared.ErrRefreshFailed]. A refresh cut short by
// ctx leaves the session alone and returns the context error.
func (g *Gateway) Send(ctx context.Context, req *Request) (*APIResponse, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	token := g.session.Token()
	resp, err := g.do(ctx, req, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if token == nil || token.RefreshToken == "" {
		g.logger.Debug("unauthorized without refresh credential", "path", req.Path)
		return resp, nil
	}

	fresh, err := g.refresh(ctx, token)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("retrying after refresh", "method", req.Method, "path", req.Path)
	return g.do(ctx, req, body, fresh)
}

func (g *Gateway) do(ctx context.Context, req *Request, body []byte, token *oauth2.Token) (*APIResponse, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	requestID := shared.GenerateID()
	resp, err := g.api.Do(ctx, method, req.Path, body,
		WithHeader(req.Header),
		WithToken(token),
		func(r *http.Request) {
			r.Header.Set("Content-Type", "application/json")
			r.Header.Set("X-Request-ID", requestID)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, req.Path, err)
	}

	g.logger.Debug("request", "method", method, "path", req.Path, "status", resp.StatusCode, "request_id", requestID)
	return resp, nil
}

// refresh exchanges stale's refresh credential for a new pair.
//
// A caller that waited behind another refresh reuses the pair it produced.
func (g *Gateway) refresh(ctx context.Context, stale *oauth2.Token) (*oauth2.Token, error) {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()

	current := g.session.Token()
	if current == nil {
		return nil, fmt.Errorf("%w: session ended during refresh", shared.ErrRefreshFailed)
	}
	if current.AccessToken != stale.AccessToken {
		return current, nil
	}

	pair, err := g.refresher.Refresh(ctx, stale.RefreshToken)
	if err != nil && ctx.Err() != nil {
		// The caller gave up; the refresh credential was never rejected.
		g.logger.Debug("refresh abandoned", "error", err)
		return nil, fmt.Errorf("token refresh abandoned: %w", ctx.Err())
	}
	if err == nil {
		if pair.RefreshToken == "" {
			pair.RefreshToken = stale.RefreshToken
		}
		err = g.session.SetCredentials(pair)
	}
	if err != nil {
		g.expire(err)
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	g.logger.Info("access token refreshed")
	return g.session.Token(), nil
}

func (g *Gateway) expire(cause error) {
	g.logger.Warn("refresh failed, ending session", "error", cause)
	if err := g.session.Terminate(); err != nil {
		g.logger.Error("failed to clear session storage", "error", err)
	}
	g.notifier.Error(SessionExpiredMessage)
	g.navigator.SignIn()
}

func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		return data, nil
	}
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Info(string)    {}
func (nopNotifier) Error(string)   {}

type nopNavigator struct{}

func (nopNavigator) SignIn() {}
