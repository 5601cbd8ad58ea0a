package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"

	"watchlist-sentinel/internal/api"
	"watchlist-sentinel/internal/engine"
	"watchlist-sentinel/internal/logging"
	"watchlist-sentinel/internal/notify"
	"watchlist-sentinel/internal/quote"
)

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the evaluation daemon",
		Long: `Start the periodic evaluation loop: every interval, snapshot the active
rules, fetch one quote per distinct symbol, evaluate conditions, apply
per-rule throttling, and notify on allowed matches.`,
		Example: `  sentinel run
  sentinel run --interval 1m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			if interval > 0 {
				app.Config.Engine.Interval = interval
			}
			return runDaemon(app)
		},
	}

	cmd.Flags().Duration("interval", 0, "override the evaluation interval")

	return cmd
}

func runDaemon(app *App) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ruleStore, err := openStore(ctx, app)
	if err != nil {
		return err
	}
	defer ruleStore.Close()

	client := quote.NewClient(app.Config.Quote, app.Logger)
	fetcher := quote.NewFetcher(client, app.Config.Engine.FetchConcurrency)
	sink := notify.NewMultiNotifier(app.Config.Notifications, app.Logger)
	eng := engine.New(ruleStore, fetcher, sink, app.Logger)

	var statusServer *api.Server
	if app.Config.API.Enabled {
		statusServer = api.NewServer(app.Config.API.Addr, eng, app.Logger)
		go statusServer.Start()
	}

	// SingletonModeAll guarantees a slow cycle is never overlapped by the
	// next tick; the engine carries its own guard as well.
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()
	if _, err := scheduler.Every(app.Config.Engine.Interval).Do(func() {
		if _, err := eng.RunCycle(ctx); err != nil && ctx.Err() == nil {
			app.Logger.Error().Err(err).Msg("evaluation cycle failed")
		}
	}); err != nil {
		return err
	}

	app.Logger.Info().
		Dur("interval", app.Config.Engine.Interval).
		Str("store", app.Config.Store.Backend).
		Str("quote_token", logging.MaskSecret(app.Config.Quote.Token)).
		Msg("starting evaluation daemon")
	scheduler.StartAsync()

	<-ctx.Done()

	app.Logger.Info().Msg("shutting down")
	scheduler.Stop()
	if statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		statusServer.Shutdown(shutdownCtx)
	}

	return nil
}
