// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	configFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		}
	}

	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Roll back every migration first, dropping the stored session and favorites",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles account operations
func authCommand(r *Runner) *cli.Command {
	credentialFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Sources:  cli.EnvVars("LITFAV_EMAIL"),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password",
				Sources:  cli.EnvVars("LITFAV_PASSWORD"),
				Required: true,
			},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account session",
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account and sign in",
				Flags: append(credentialFlags(),
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "gender",
						Usage: "Gender (optional)",
					},
				),
				Action: r.AuthSignup,
			},
			{
				Name:   "signin",
				Usage:  "Sign in with email and password",
				Flags:  credentialFlags(),
				Action: r.AuthSignin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and clear stored credentials",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in user and token expiry",
				Action: r.AuthStatus,
			},
		},
	}
}

// authorsCommand handles catalog lookups
func authorsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "authors",
		Aliases: []string{"a"},
		Usage:   "Search the Open Library author catalog",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search authors by name",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: append(outputFlags(), &cli.IntFlag{
					Name:  "page",
					Usage: "Result page, starting at 1",
					Value: 1,
				}),
				Action: r.AuthorsSearch,
			},
			{
				Name:  "show",
				Usage: "Show one author by Open Library id",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  outputFlags(),
				Action: r.AuthorsShow,
			},
		},
	}
}

// favoritesCommand handles the signed-in user's favorites
func favoritesCommand(r *Runner) *cli.Command {
	bulkFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent requests (max 10)",
				Value: 4,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests started per second",
				Value: 5,
			},
		}
	}

	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorite authors",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favorite authors",
				Flags: append(outputFlags(), &cli.BoolFlag{
					Name:  "offline",
					Usage: "Read the local copy saved by the last sync",
				}),
				Action: r.FavoritesList,
			},
			{
				Name:  "toggle",
				Usage: "Add or remove one author",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.FavoritesToggle,
			},
			{
				Name:      "add",
				Usage:     "Add one or more authors",
				ArgsUsage: "<id>...",
				Flags:     bulkFlags(),
				Action:    r.FavoritesAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove one or more authors",
				ArgsUsage: "<id>...",
				Flags:     bulkFlags(),
				Action:    r.FavoritesRemove,
			},
			{
				Name:  "export",
				Usage: "Export favorites to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json, csv, markdown or txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (directory for markdown with --images)",
					},
					&cli.BoolFlag{
						Name:  "images",
						Usage: "Download author images (markdown only)",
					},
				},
				Action: r.FavoritesExport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse authors and toggle favorites interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log file while the TUI is running",
				Value: "./tmp/litfav-tui.log",
			},
		},
		Action: r.TUI,
	}
}
