package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/shared"
)

// TimeoutMessage is returned when sign-in does not complete within the configured bound.
const TimeoutMessage = "Request timeout. Please try again."

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Gender   string `json:"gender,omitempty"`
}

// SigninRequest is the body of POST /auth/signin.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string          `json:"message"`
	Data    models.AuthData `json:"data"`
}

type refreshResponse struct {
	Data models.TokenPair `json:"data"`
}

// AccountService talks to the unauthenticated auth endpoints of the account service.
//
// It implements [Refresher]; refresh requests go straight to the transport so they never
// recurse through a [Gateway].
type AccountService struct {
	api           *APIService
	signinTimeout time.Duration
	logger        *log.Logger
}

// NewAccountService creates an [AccountService]. A non-positive timeout disables the sign-in bound.
func NewAccountService(api *APIService, signinTimeout time.Duration, logger *log.Logger) *AccountService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AccountService{
		api:           api,
		signinTimeout: signinTimeout,
		logger:        shared.WithLogger(logger, "component", "account"),
	}
}

// Signup registers a new user and returns the issued credentials and identity.
func (a *AccountService) Signup(ctx context.Context, req SignupRequest) (*models.AuthData, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", shared.ErrInvalidInput)
	}
	return a.authenticate(ctx, "/auth/signup", req, "Registration failed")
}

// Signin exchanges email and password for credentials.
//
// The exchange is bounded by the configured timeout; exceeding it returns [shared.ErrTimeout].
func (a *AccountService) Signin(ctx context.Context, email, password string) (*models.AuthData, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrInvalidInput)
	}

	if a.signinTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.signinTimeout)
		defer cancel()
	}

	data, err := a.authenticate(ctx, "/auth/signin", SigninRequest{Email: email, Password: password}, "Login failed")
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTimeout, TimeoutMessage)
	}
	return data, err
}

func (a *AccountService) authenticate(ctx context.Context, path string, body any, fallback string) (*models.AuthData, error) {
	resp, err := a.api.PostJSON(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, resp.Message(fallback))
	}

	var result authResponse
	if err := resp.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	if result.Data.AccessToken == "" || result.Data.Email == "" {
		return nil, fmt.Errorf("%w: missing credentials or email", shared.ErrMalformedResponse)
	}

	a.logger.Debug("authenticated", "path", path, "email", result.Data.Email)
	return &result.Data, nil
}

// Logout invalidates accessToken on the server.
func (a *AccountService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return shared.ErrNotAuthenticated
	}

	resp, err := a.api.Get(ctx, "/auth/logout", WithBearer(accessToken))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, resp.Message("Logout failed"))
	}
	return nil
}

// Refresh exchanges refreshToken, sent as the bearer credential, for a new pair.
func (a *AccountService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	resp, err := a.api.Post(ctx, "/auth/refresh", nil, WithBearer(refreshToken))
	if err != nil {
		return models.TokenPair{}, err
	}
	if !resp.OK() {
		return models.TokenPair{}, fmt.Errorf("refresh rejected: status %d", resp.StatusCode)
	}

	var result refreshResponse
	if err := resp.Decode(&result); err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	if result.Data.AccessToken == "" {
		return models.TokenPair{}, fmt.Errorf("%w: missing access token", shared.ErrMalformedResponse)
	}
	return result.Data, nil
}
