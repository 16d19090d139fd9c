package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/shared"
)

// FavoritesService is the remote per-user favorites collection.
//
// All calls go through a [Sender] so credentials are attached and refreshed transparently.
type FavoritesService struct {
	sender Sender
	logger *log.Logger
}

// NewFavoritesService creates a [FavoritesService] on top of sender.
func NewFavoritesService(sender Sender, logger *log.Logger) *FavoritesService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &FavoritesService{sender: sender, logger: shared.WithLogger(logger, "component", "favorites")}
}

// List returns every favorite of email.
//
// A payload whose data field is not an array is logged and yields an empty list.
func (f *FavoritesService) List(ctx context.Context, email string) ([]models.FavoriteEntry, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: user email not found", shared.ErrAuthExpired)
	}

	resp, err := f.sender.Send(ctx, &Request{Method: http.MethodGet, Path: "/favorites/" + url.PathEscape(email)})
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, shared.ErrAPIRequest, "Failed to load favorites"); err != nil {
		return nil, err
	}

	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	trimmed := bytes.TrimSpace(payload.Data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		f.logger.Warn("invalid favorites data structure", "data", string(trimmed))
		return []models.FavoriteEntry{}, nil
	}

	var entries []models.FavoriteEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return entries, nil
}

// Add stores entry remotely and returns the saved record.
//
// When the server echoes nothing usable the submitted entry is returned.
func (f *FavoritesService) Add(ctx context.Context, entry models.FavoriteEntry) (models.FavoriteEntry, error) {
	if err := entry.Validate(); err != nil {
		return entry, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resp, err := f.sender.Send(ctx, &Request{Method: http.MethodPost, Path: "/favorites", Body: entry})
	if err != nil {
		return entry, err
	}
	if err := checkStatus(resp, shared.ErrRemoteMutation, "Failed to add favorite"); err != nil {
		return entry, err
	}

	if saved, ok := decodeSaved(resp); ok && saved.AuthorID == entry.AuthorID {
		return saved, nil
	}
	return entry, nil
}

// Remove deletes authorID from the collection of email.
func (f *FavoritesService) Remove(ctx context.Context, email, authorID string) error {
	if email == "" {
		return fmt.Errorf("%w: user email not found", shared.ErrAuthExpired)
	}

	path := "/favorites/" + url.PathEscape(email) + "/" + url.PathEscape(authorID)
	resp, err := f.sender.Send(ctx, &Request{Method: http.MethodDelete, Path: path})
	if err != nil {
		return err
	}
	return checkStatus(resp, shared.ErrRemoteMutation, "Failed to remove favorite")
}

// checkStatus maps a final 401 to [shared.ErrAuthExpired] and other non-2xx statuses to kind.
func checkStatus(resp *APIResponse, kind error, fallback string) error {
	switch {
	case resp.OK():
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrAuthExpired, resp.Message("unauthorized"))
	default:
		return fmt.Errorf("%w: status %d: %s", kind, resp.StatusCode, resp.Message(fallback))
	}
}

// decodeSaved accepts both a bare entry and one wrapped in {data: ...}.
func decodeSaved(resp *APIResponse) (models.FavoriteEntry, bool) {
	var wrapped struct {
		Data *models.FavoriteEntry `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapped); err == nil && wrapped.Data != nil && wrapped.Data.AuthorID != "" {
		return *wrapped.Data, true
	}

	var bare models.FavoriteEntry
	if err := json.Unmarshal(resp.Body, &bare); err == nil && bare.AuthorID != "" {
		return bare, true
	}
	return models.FavoriteEntry{}, false
}
