package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"watchlist-sentinel/internal/engine"
	"watchlist-sentinel/internal/notify"
	"watchlist-sentinel/internal/quote"
)

func newCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single evaluation cycle",
		Long: `Run one evaluation cycle and exit. Useful under cron or for verifying a
configuration before starting the daemon.`,
		Example: `  sentinel check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			ruleStore, err := openStore(ctx, app)
			if err != nil {
				return err
			}
			defer ruleStore.Close()

			client := quote.NewClient(app.Config.Quote, app.Logger)
			fetcher := quote.NewFetcher(client, app.Config.Engine.FetchConcurrency)
			sink := notify.NewMultiNotifier(app.Config.Notifications, app.Logger)
			eng := engine.New(ruleStore, fetcher, sink, app.Logger)

			stats, err := eng.RunCycle(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("rules=%d symbols=%d quotes=%d rate_limited=%d unavailable=%d matches=%d fired=%d suppressed=%d\n",
				stats.Rules, stats.Symbols, stats.Quotes, stats.RateLimited,
				stats.Unavailable, stats.Matches, stats.Fired, stats.Suppressed)
			return nil
		},
	}
}
