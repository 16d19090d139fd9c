package models

import (
	"testing"
	"time"
)

func TestAuthorIDFromKey(t *testing.T) {
	tt := []struct {
		name string
		key  string
		want string
	}{
		{name: "route style key", key: "/authors/OL23919A", want: "OL23919A"},
		{name: "relative route key", key: "authors/OL23919A", want: "OL23919A"},
		{name: "bare id", key: "OL23919A", want: "OL23919A"},
		{name: "surrounding whitespace", key: "  /authors/OL1A/ ", want: "OL1A"},
		{name: "empty", key: "", want: ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := AuthorIDFromKey(tc.key); got != tc.want {
				t.Errorf("AuthorIDFromKey(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}

func TestAuthor(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	user := Identity{Name: "Ada", Email: "ada@example.com"}

	t.Run("FavoriteFor With Photo", func(t *testing.T) {
		author := Author{ID: "42", Name: "Jane Doe", TopWork: "X", BirthDate: "1900", Photos: []int{-1, 7}}
		entry := author.FavoriteFor(user, "https://covers.openlibrary.org/", now)

		if entry.AuthorID != "42" || entry.Name != "Jane Doe" || entry.TopWork != "X" {
			t.Errorf("unexpected entry: %+v", entry)
		}
		if entry.AddedBy != "ada@example.com" {
			t.Errorf("expected addedBy from identity, got %s", entry.AddedBy)
		}
		if entry.ImageURL != "https://covers.openlibrary.org/a/id/7-M.jpg" {
			t.Errorf("unexpected image URL %s", entry.ImageURL)
		}
		if !entry.AddedAt.Equal(now) {
			t.Errorf("expected addedAt %v, got %v", now, entry.AddedAt)
		}
		if err := entry.Validate(); err != nil {
			t.Errorf("entry should be valid: %v", err)
		}
	})

	t.Run("FavoriteFor Without Photo", func(t *testing.T) {
		entry := Author{ID: "1", Name: "No Photo"}.FavoriteFor(user, "https://covers.openlibrary.org", now)
		if entry.ImageURL != "" {
			t.Errorf("expected no image URL, got %s", entry.ImageURL)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("Identity", func(t *testing.T) {
		if err := (Identity{Name: "x"}).Validate(); err == nil {
			t.Error("expected error for identity without email")
		}
		if err := (Identity{Email: "a@b.com"}).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("FavoriteEntry", func(t *testing.T) {
		tt := []struct {
			name  string
			entry FavoriteEntry
		}{
			{name: "missing author id", entry: FavoriteEntry{Name: "n", AddedBy: "a@b.com"}},
			{name: "missing name", entry: FavoriteEntry{AuthorID: "1", AddedBy: "a@b.com"}},
			{name: "missing addedBy", entry: FavoriteEntry{AuthorID: "1", Name: "n"}},
		}
		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if err := tc.entry.Validate(); err == nil {
					t.Error("expected validation error")
				}
			})
		}
	})
}
