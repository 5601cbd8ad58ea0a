// Package cli provides the command-line interface for the alert engine.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"watchlist-sentinel/internal/config"
	"watchlist-sentinel/internal/store"
	"watchlist-sentinel/pkg/utils"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Watchlist price-alert engine",
		Long: `sentinel evaluates user-defined price alerts against live quotes and
notifies on matches, throttled per rule (once per day, once per hour,
or real-time).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newCheckCmd(app))
	rootCmd.AddCommand(newRulesCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sentinel %s\n", Version)
		},
	}
}

// openStore opens the configured rule store backend. Mongo connections are
// retried with backoff; a cold Atlas cluster can take a few seconds to accept
// the first connection.
func openStore(ctx context.Context, app *App) (store.RuleStore, error) {
	switch app.Config.Store.Backend {
	case "mongo":
		return utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() (store.RuleStore, error) {
			return store.NewMongoStore(ctx, app.Config.Store.MongoURI, app.Config.Store.MongoDB)
		})
	default:
		return store.NewSQLiteStore(app.Config.Store.SQLitePath)
	}
}
