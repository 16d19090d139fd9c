package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/litfav/internal/formatter"
	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/shared"
	"github.com/desertthunder/litfav/internal/tasks"
	"github.com/urfave/cli/v3"
)

// FavoritesList prints the signed-in user's favorites.
//
// With --offline it reads the durable mirror instead and needs no session.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	var entries []models.FavoriteEntry
	if cmd.Bool("offline") {
		if err := r.connect(); err != nil {
			return err
		}
		mirrored, err := r.cache.Mirrored()
		if err != nil {
			return err
		}
		entries = mirrored
	} else {
		identity, err := r.requireIdentity()
		if err != nil {
			return err
		}
		if err := r.cache.Load(ctx, identity); err != nil {
			return err
		}
		entries = r.cache.Entries()
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	data, err := formatter.ExportToText(entries)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// FavoritesToggle flips one author in or out of the favorites.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: author id", shared.ErrMissingArgument)
	}
	if _, err := r.requireIdentity(); err != nil {
		return err
	}
	if err := r.bind(ctx); err != nil {
		return err
	}

	present, err := r.cache.Toggle(ctx, id)
	if err != nil {
		return err
	}

	key := models.AuthorIDFromKey(id)
	if present {
		r.notifier.Success(fmt.Sprintf("Added %s to favorites", key))
	} else {
		r.notifier.Success(fmt.Sprintf("Removed %s from favorites", key))
	}
	return nil
}

// FavoritesAdd adds several authors concurrently.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	return r.bulk(ctx, cmd, false)
}

// FavoritesRemove removes several authors concurrently.
func (r *Runner) FavoritesRemove(ctx context.Context, cmd *cli.Command) error {
	return r.bulk(ctx, cmd, true)
}

func (r *Runner) bulk(ctx context.Context, cmd *cli.Command, remove bool) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one author id", shared.ErrMissingArgument)
	}
	if _, err := r.requireIdentity(); err != nil {
		return err
	}
	if err := r.bind(ctx); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.BulkFavorite(ctx, progress, ids, tasks.BulkOpts{
		Remove:     remove,
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	<-done

	if result != nil {
		r.writePlainln("Changed: %d  Unchanged: %d  Failed: %d", result.Changed, result.Unchanged, result.Failed)
	}
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		failed := []string{}
		for _, res := range result.Results {
			if res.Error != nil {
				failed = append(failed, res.Key)
			}
		}
		return fmt.Errorf("%w: %d of %d failed (%s)", shared.ErrRemoteMutation, result.Failed, result.Total, strings.Join(failed, ", "))
	}
	return nil
}

// FavoritesExport reloads the favorites and writes them to disk.
func (r *Runner) FavoritesExport(ctx context.Context, cmd *cli.Command) error {
	identity, err := r.requireIdentity()
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	result, err := r.engine.Export(ctx, progress, identity, tasks.ExportOpts{
		Format:         cmd.String("format"),
		Path:           cmd.String("output"),
		DownloadImages: cmd.Bool("images"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d favorites\n", result.Count)
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	return nil
}
