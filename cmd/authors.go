package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/litfav/internal/formatter"
	"github.com/desertthunder/litfav/internal/shared"
	"github.com/urfave/cli/v3"
)

// mark is "★" for favorites of the signed-in user.
func (r *Runner) mark(id string) string {
	if r.cache != nil && r.cache.IsFavorite(id) {
		return "★"
	}
	return " "
}

// AuthorsSearch prints one page of catalog matches, marking favorites when signed in.
func (r *Runner) AuthorsSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if err := r.bind(ctx); err != nil {
		return err
	}

	result, err := r.catalog.SearchAuthors(ctx, query, cmd.Int("page"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	limit := r.catalog.SearchLimit()
	pages := (result.NumFound + limit - 1) / limit
	r.writePlainHeader(fmt.Sprintf("%d authors matching %q (page %d of %d)", result.NumFound, query, result.Page, max(pages, 1)))
	for _, a := range result.Authors {
		r.writePlain("%s %-12s %s\n", r.mark(a.ID), a.ID, a.Name)
		details := formatter.Lifespan(a.BirthDate, a.DeathDate)
		if a.TopWork != "" {
			if details != "" {
				details += " • "
			}
			details += a.TopWork
		}
		if details != "" {
			r.writePlain("  %-12s %s\n", "", details)
		}
	}
	if result.Page < pages {
		r.writePlainln("More results: --page %d", result.Page+1)
	}
	return nil
}

// AuthorsShow prints the catalog record of one author.
func (r *Runner) AuthorsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: author id", shared.ErrMissingArgument)
	}
	if err := r.bind(ctx); err != nil {
		return err
	}

	author, err := r.catalog.Author(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(author, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s %s", r.mark(author.ID), author.Name))
	if span := formatter.Lifespan(author.BirthDate, author.DeathDate); span != "" {
		r.writePlain("Lived: %s\n", span)
	}
	if author.TopWork != "" {
		r.writePlain("Top work: %s\n", author.TopWork)
	}
	r.writePlain("Open Library: https://openlibrary.org/authors/%s\n", author.ID)
	if author.Bio != "" {
		r.writePlainln("%s", author.Bio)
	}
	return nil
}
