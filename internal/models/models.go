package models

import (
	"fmt"
	"strings"
	"time"
)

// Identity is the signed-in user as cached by the session.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate reports whether the identity can key a favorites collection.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.Email) == "" {
		return fmt.Errorf("identity email is required")
	}
	return nil
}

// TokenPair is the access/refresh credential pair issued by the account service.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthData is the payload of sign-in and sign-up responses.
type AuthData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Gender       string `json:"gender"`
}

// Identity returns the user part of the payload.
func (a AuthData) Identity() Identity {
	return Identity{Name: a.Name, Email: a.Email}
}

// Tokens returns the credential part of the payload.
func (a AuthData) Tokens() TokenPair {
	return TokenPair{AccessToken: a.AccessToken, RefreshToken: a.RefreshToken}
}

// FavoriteEntry is one author saved by one user.
type FavoriteEntry struct {
	ID        string    `json:"id,omitempty"`
	AuthorID  string    `json:"authorId"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	BirthDate string    `json:"birthDate,omitempty"`
	DeathDate string    `json:"deathDate,omitempty"`
	TopWork   string    `json:"topWork,omitempty"`
	AddedBy   string    `json:"addedBy"`
	AddedAt   time.Time `json:"addedAt"`
}

// Validate checks the fields the account service requires.
func (f FavoriteEntry) Validate() error {
	if f.AuthorID == "" {
		return fmt.Errorf("favorite authorId is required")
	}
	if f.Name == "" {
		return fmt.Errorf("favorite name is required")
	}
	if f.AddedBy == "" {
		return fmt.Errorf("favorite addedBy is required")
	}
	return nil
}

// Author is catalog metadata for a single author.
type Author struct {
	ID        string
	Name      string
	BirthDate string
	DeathDate string
	TopWork   string
	WorkCount int
	Bio       string
	Photos    []int
}

// FavoriteFor builds the entry saved when user favorites this author.
//
// coversURL is the catalog image host, e.g. "https://covers.openlibrary.org".
func (a Author) FavoriteFor(user Identity, coversURL string, now time.Time) FavoriteEntry {
	entry := FavoriteEntry{
		AuthorID:  a.ID,
		Name:      a.Name,
		BirthDate: a.BirthDate,
		DeathDate: a.DeathDate,
		TopWork:   a.TopWork,
		AddedBy:   user.Email,
		AddedAt:   now.UTC(),
	}
	if photo := a.PhotoID(); photo > 0 && coversURL != "" {
		entry.ImageURL = fmt.Sprintf("%s/a/id/%d-M.jpg", strings.TrimRight(coversURL, "/"), photo)
	}
	return entry
}

// PhotoID returns the first usable photo id, or 0.
//
// The catalog uses -1 for removed photos.
func (a Author) PhotoID() int {
	for _, p := range a.Photos {
		if p > 0 {
			return p
		}
	}
	return 0
}

// AuthorSearchResult is one page of author search hits.
type AuthorSearchResult struct {
	NumFound int
	Page     int
	Authors  []Author
}

// AuthorIDFromKey normalizes a catalog key to a bare author id.
//
// "/authors/OL23919A", "authors/OL23919A" and "OL23919A" all yield "OL23919A".
func AuthorIDFromKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "/")
	key = strings.TrimPrefix(key, "authors/")
	return strings.Trim(key, "/")
}
