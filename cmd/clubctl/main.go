// Command clubctl runs administrative tasks against the club database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dccc/clubhouse/internal/app"
	"github.com/dccc/clubhouse/pkg/config"
	"github.com/dccc/clubhouse/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "clubctl",
		Short:        "Administer the club showcase service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logging.InitLogger(&cfg.Logging); err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}

	root.AddCommand(
		c.migrateCmd(),
		c.resetCmd(),
		c.recalculateCmd(),
		c.leaderboardCmd(),
		c.tokenCmd(),
	)
	return root
}

// run opens the services for the duration of fn
func (c *cli) run(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(c.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(func(ctx context.Context, a *app.App) error {
				if err := a.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func (c *cli) resetCmd() *cobra.Command {
	var adminID, at string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Archive the previous month's leaderboard and zero live scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				when = parsed
			}
			return c.run(func(ctx context.Context, a *app.App) error {
				archive, err := a.Archive.ResetAt(ctx, adminID, when)
				if err != nil {
					return err
				}
				return printJSON(cmd, archive)
			})
		},
	}
	cmd.Flags().StringVar(&adminID, "admin", "", "id of the admin performing the reset")
	cmd.Flags().StringVar(&at, "at", "", "run as if at this RFC3339 time")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func (c *cli) recalculateCmd() *cobra.Command {
	var adminID string
	cmd := &cobra.Command{
		Use:   "recalculate <member-id>",
		Short: "Rebuild a member's ledger from their shows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(func(ctx context.Context, a *app.App) error {
				ledger, err := a.Members.Recalculate(ctx, adminID, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, ledger)
			})
		},
	}
	cmd.Flags().StringVar(&adminID, "admin", "", "id of the admin requesting the rebuild")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func (c *cli) leaderboardCmd() *cobra.Command {
	var archiveID string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the current or an archived leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(func(ctx context.Context, a *app.App) error {
				if archiveID != "" {
					archive, err := a.Leaderboard.Archived(ctx, archiveID)
					if err != nil {
						return err
					}
					return printJSON(cmd, archive)
				}
				entries, err := a.Leaderboard.Current(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, entries)
			})
		},
	}
	cmd.Flags().StringVar(&archiveID, "archive", "", "archive id (YYYY-MM)")
	return cmd
}
