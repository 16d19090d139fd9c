package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/litfav/internal/shared"
	"github.com/desertthunder/litfav/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive author browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.bind(ctx); err != nil {
		return err
	}
	if _, ok := r.session.Identity(); !ok {
		r.notifier.Info("Browsing without an account; sign in to save favorites")
	}

	notices := r.notifier.Capture(16)
	defer r.notifier.Release()

	model := ui.NewModel(ctx, r.catalog, r.cache, notices)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
