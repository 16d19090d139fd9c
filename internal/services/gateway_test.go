package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/repositories"
	"github.com/desertthunder/litfav/internal/session"
	"github.com/desertthunder/litfav/internal/shared"
	tu "github.com/desertthunder/litfav/internal/testing"
)

var jane = models.Identity{Name: "Jane", Email: "jane@example.com"}

// accountServer fakes the account service. Favorites accept only the current access token,
// and refresh accepts only the current refresh token.
type accountServer struct {
	t *testing.T

	mu      sync.Mutex
	access  string
	refresh string

	refreshes     atomic.Int32
	favoriteCalls atomic.Int32
	rejectRefresh bool
	refreshBody   string
	lastHeader    http.Header
}

func (s *accountServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.URL.Path == "/auth/refresh":
		s.refreshes.Add(1)
		if r.Method != http.MethodPost {
			s.t.Errorf("expected POST refresh, got %s", r.Method)
		}
		if s.rejectRefresh || r.Header.Get("Authorization") != "Bearer "+s.refresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if s.refreshBody != "" {
			w.Write([]byte(s.refreshBody))
			return
		}

		s.access = tu.ValidToken(s.t, "jane")
		s.refresh = "refresh-2"
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"accessToken": s.access, "refreshToken": s.refresh},
		})
	default:
		s.favoriteCalls.Add(1)
		s.lastHeader = r.Header.Clone()
		if r.Header.Get("Authorization") != "Bearer "+s.access {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "jwt expired"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}
}

// with runs fn while holding the server lock.
func (s *accountServer) with(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

type gatewayFixture struct {
	srv       *accountServer
	store     *repositories.MemoryStore
	session   *session.Session
	notifier  *tu.RecordingNotifier
	navigator *tu.RecordingNavigator
	gateway   *Gateway
}

// newGatewayFixture signs jane in with a stale access token the server no longer accepts.
func newGatewayFixture(t *testing.T, refreshToken string) *gatewayFixture {
	t.Helper()

	srv := &accountServer{t: t, access: tu.ValidToken(t, "server"), refresh: "refresh-1"}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	logger := shared.NewLogger(io.Discard)
	store := repositories.NewMemoryStore()
	sess := session.New(session.Options{Store: store, Logger: logger})
	if err := sess.Establish(jane, models.TokenPair{AccessToken: tu.ExpiredToken(t, "jane"), RefreshToken: refreshToken}); err != nil {
		t.Fatalf("failed to establish session: %v", err)
	}
	store.Set(repositories.KeyFavorites, "[]")

	api := NewAPIService(server.URL, nil)
	f := &gatewayFixture{
		srv:       srv,
		store:     store,
		session:   sess,
		notifier:  &tu.RecordingNotifier{},
		navigator: &tu.RecordingNavigator{},
	}
	f.gateway = NewGateway(GatewayOptions{
		API:       api,
		Session:   sess,
		Refresher: NewAccountService(api, 0, logger),
		Notifier:  f.notifier,
		Navigator: f.navigator,
		Logger:    logger,
	})
	return f
}

type refresherFunc func(ctx context.Context, refreshToken string) (models.TokenPair, error)

func (f refresherFunc) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	return f(ctx, refreshToken)
}

func TestGateway(t *testing.T) {
	ctx := context.Background()
	list := &Request{Method: http.MethodGet, Path: "/favorites/jane@example.com"}

	t.Run("Injects Headers", func(t *testing.T) {
		f := newGatewayFixture(t, "refresh-1")
		f.srv.with(func() { f.srv.access = f.session.AccessToken() })

		req := &Request{
			Method: http.MethodGet,
			Path:   "/favorites/jane@example.com",
			Header: http.Header{
				"Authorization": {"Basic caller"},
				"Content-Type":  {"text/plain"},
				"X-Client":      {"cli"},
			},
		}
		resp, err := f.gateway.Send(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var h http.Header
		f.srv.with(func() { h = f.srv.lastHeader })
		if h.Get("Authorization") != "Bearer "+f.session.AccessToken() {
			t.Errorf("expected injected Authorization to win, got %s", h.Get("Authorization"))
		}
		if h.Get("Content-Type") != "application/json" {
			t.Errorf("expected injected Content-Type to win, got %s", h.Get("Content-Type"))
		}
		if h.Get("X-Client") != "cli" {
			t.Errorf("expected caller header to be preserved, got %s", h.Get("X-Client"))
		}
		if h.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID")
		}
		if f.srv.refreshes.Load() != 0 {
			t.Error("a non-401 response must not refresh")
		}
	})

	t.Run("Refreshes And Retries Once", func(t *testing.T) {
		f := newGatewayFixture(t, "refresh-1")

		resp, err := f.gateway.Send(ctx, list)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected retried response 200, got %d", resp.StatusCode)
		}
		if got := f.srv.refreshes.Load(); got != 1 {
			t.Errorf("expected exactly one refresh, got %d", got)
		}
		if got := f.srv.favoriteCalls.Load(); got != 2 {
			t.Errorf("expected original call plus one retry, got %d", got)
		}

		var access string
		f.srv.with(func() { access = f.srv.access })
		if f.session.AccessToken() != access {
			t.Error("expected session to hold the refreshed access token")
		}
		if v, _, _ := f.store.Get(repositories.KeyRefreshToken); v != "refresh-2" {
			t.Errorf("expected refreshed pair to be persisted, got %s", v)
		}
		if f.navigator.Count() != 0 || len(f.notifier.Notices) != 0 {
			t.Error("a successful refresh is silent")
		}
	})

	t.Run("Retry Response Is Returned Whatever Its Status", func(t *testing.T) {
		f := newGatewayFixture(t, "refresh-1")
		f.srv.with(func() {
			f.srv.refreshBody = `{"data":{"accessToken":"still-wrong","refreshToken":"refresh-2"}}`
		})

		resp, err := f.gateway.Send(ctx, list)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected the retry's 401, got %d", resp.StatusCode)
		}
		if got := f.srv.refreshes.Load(); got != 1 {
			t.Errorf("expected exactly one refresh, got %d", got)
		}
		if got := f.srv.favoriteCalls.Load(); got != 2 {
			t.Errorf("expected exactly two favorites calls, got %d", got)
		}
	})

	t.Run("No Refresh Credential", func(t *testing.T) {
		f := newGatewayFixture(t, "")

		resp, err := f.gateway.Send(ctx, list)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 to pass through, got %d", resp.StatusCode)
		}
		if f.srv.refreshes.Load() != 0 {
			t.Error("expected no refresh attempt")
		}
		if !f.session.IsAuthenticated() {
			t.Error("the gateway alone must not tear down the session here")
		}
	})

	t.Run("Refresh Failure", func(t *testing.T) {
		tt := []struct {
			name  string
			setup func(*accountServer)
		}{
			{name: "rejected", setup: func(s *accountServer) { s.rejectRefresh = true }},
			{name: "malformed body", setup: func(s *accountServer) { s.refreshBody = "not json" }},
			{name: "missing token", setup: func(s *accountServer) { s.refreshBody = `{"data":{}}` }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				f := newGatewayFixture(t, "refresh-1")
				f.srv.with(func() { tc.setup(f.srv) })

				_, err := f.gateway.Send(ctx, list)
				if !errors.Is(err, shared.ErrRefreshFailed) {
					t.Fatalf("expected ErrRefreshFailed, got %v", err)
				}

				if f.store.Len() != 0 {
					t.Errorf("expected storage to be cleared, %d keys remain", f.store.Len())
				}
				if f.session.IsAuthenticated() {
					t.Error("expected session to be terminated")
				}
				if f.navigator.Count() != 1 {
					t.Errorf("expected one sign-in redirect, got %d", f.navigator.Count())
				}
				if f.notifier.Count("error") != 1 || f.notifier.Notices[0].Message != SessionExpiredMessage {
					t.Errorf("expected session expired notice, got %+v", f.notifier.Notices)
				}
				if got := f.srv.favoriteCalls.Load(); got != 1 {
					t.Errorf("expected no retry after refresh failure, got %d calls", got)
				}
			})
		}
	})

	t.Run("Abandoned Refresh Keeps Session", func(t *testing.T) {
		f := newGatewayFixture(t, "refresh-1")
		f.gateway.refresher = refresherFunc(func(ctx context.Context, _ string) (models.TokenPair, error) {
			<-ctx.Done()
			return models.TokenPair{}, ctx.Err()
		})

		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := f.gateway.Send(short, list)
		if !errors.Is(err, context.DeadlineExceeded) || errors.Is(err, shared.ErrRefreshFailed) {
			t.Fatalf("expected deadline error without ErrRefreshFailed, got %v", err)
		}
		if !f.session.IsAuthenticated() {
			t.Error("expected session to survive caller cancellation")
		}
		if f.navigator.Count() != 0 || len(f.notifier.Notices) != 0 {
			t.Errorf("expected no redirect or notice, got %d redirects, %+v", f.navigator.Count(), f.notifier.Notices)
		}
		if _, ok, _ := f.store.Get(repositories.KeyFavorites); !ok {
			t.Error("expected favorites mirror kept")
		}
	})

	t.Run("Concurrent 401s Share One Refresh", func(t *testing.T) {
		f := newGatewayFixture(t, "refresh-1")

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := f.gateway.Send(ctx, list)
				if err == nil && resp.StatusCode != http.StatusOK {
					err = errors.New(http.StatusText(resp.StatusCode))
				}
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}
		if got := f.srv.refreshes.Load(); got != 1 {
			t.Errorf("expected a single refresh, got %d", got)
		}
	})

	t.Run("Encodes Body", func(t *testing.T) {
		var got []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		sess := session.New(session.Options{Logger: shared.NewLogger(io.Discard)})
		g := NewGateway(GatewayOptions{API: NewAPIService(server.URL, nil), Session: sess, Logger: shared.NewLogger(io.Discard)})

		if _, err := g.Send(ctx, &Request{Method: http.MethodPost, Path: "/favorites", Body: map[string]string{"authorId": "42"}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Contains(got, []byte(`"authorId":"42"`)) {
			t.Errorf("expected JSON body, got %s", got)
		}

		if _, err := g.Send(ctx, &Request{Method: http.MethodPost, Path: "/x", Body: []byte("raw")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != "raw" {
			t.Errorf("expected raw body to pass through, got %s", got)
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		sess := session.New(session.Options{Logger: shared.NewLogger(io.Discard)})
		g := NewGateway(GatewayOptions{API: NewAPIService("http://example.com", client), Session: sess, Logger: shared.NewLogger(io.Discard)})

		if _, err := g.Send(ctx, list); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}
