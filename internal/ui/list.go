package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/litfav/internal/formatter"
	"github.com/desertthunder/litfav/internal/models"
)

var _ list.Item = authorItem{}

// authorItem wraps [models.Author] with its favorite state to implement [list.Item].
type authorItem struct {
	author   models.Author
	favorite bool
	pending  bool
}

func (i authorItem) FilterValue() string { return i.author.Name }
func (i authorItem) Title() string       { return favoriteMark(i.favorite, i.pending) + " " + i.author.Name }
func (i authorItem) Description() string {
	parts := []string{}
	if span := formatter.Lifespan(i.author.BirthDate, i.author.DeathDate); span != "" {
		parts = append(parts, span)
	}
	if i.author.TopWork != "" {
		parts = append(parts, i.author.TopWork)
	}
	if i.author.WorkCount > 0 {
		parts = append(parts, fmt.Sprintf("%d works", i.author.WorkCount))
	}
	if len(parts) == 0 {
		return i.author.ID
	}
	return strings.Join(parts, " • ")
}

// favoriteMark is "…" while a change is in flight, "★" for favorites and "☆" otherwise.
func favoriteMark(favorite, pending bool) string {
	switch {
	case pending:
		return "…"
	case favorite:
		return "★"
	default:
		return "☆"
	}
}
