package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"resty.dev/v3"

	"pricewatch/internal/catalog"
	"pricewatch/internal/coingecko"
	"pricewatch/internal/config"
	"pricewatch/internal/coordinator"
	"pricewatch/internal/fetcher"
	"pricewatch/internal/logging"
	"pricewatch/internal/ratelimit"
	"pricewatch/internal/resource"
	"pricewatch/internal/ui"
	"pricewatch/internal/view"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type runOptions struct {
	headless bool
	once     bool
}

func newRootCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:          "pricewatch",
		Short:        "Live asset price across world currencies",
		Version:      config.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			// Handle interrupt signals for graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "print settled states instead of drawing the dashboard")
	cmd.Flags().BoolVar(&opts.once, "once", false, "run a single refresh cycle, print it and exit (implies --headless)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts runOptions, stdout, stderr io.Writer) error {
	// The dashboard owns the terminal, so its logs go to the log file or nowhere
	var fallback io.Writer
	if opts.headless || opts.once {
		fallback = stderr
	}
	logger, closeLog, err := logging.Setup(cfg.LogLevel, cfg.LogFile, fallback)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	// One client serves both the price API and the flag host
	client := fetcher.NewHTTPClient(fetcher.ClientOptions{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
	})
	defer client.Close()

	switch {
	case opts.once:
		return runOnce(ctx, cfg, client, logger, stdout)
	case opts.headless:
		return runHeadless(ctx, cfg, client, logger, stdout)
	default:
		return runDashboard(ctx, cfg, client, logger)
	}
}

// newCoordinator wires the leaf components to a coordinator
func newCoordinator(cfg *config.Config, client *resty.Client, logger *slog.Logger, opts ...coordinator.Option) *coordinator.Coordinator {
	getter := fetcher.NewHTTPGetter(client, logger)

	cat := catalog.New(cfg.FlagBaseURL)
	prices := coingecko.NewPriceSource(getter, cfg.PriceBaseURL, cfg.Asset)
	flags := resource.NewBatchFetcher(getter, logger)

	base := []coordinator.Option{
		coordinator.WithLogger(logger),
		coordinator.WithLimiter(ratelimit.New(cfg.MinRefetchInterval)),
		coordinator.WithSkipOverlappingTicks(cfg.SkipOverlappingTicks),
	}
	return coordinator.New(cat, prices, flags, append(base, opts...)...)
}

func runOnce(ctx context.Context, cfg *config.Config, client *resty.Client, logger *slog.Logger, stdout io.Writer) error {
	settled := make(chan coordinator.ViewState, 1)
	coord := newCoordinator(cfg, client, logger, coordinator.WithListener(func(s coordinator.ViewState) {
		if s.Status == coordinator.StatusLoading {
			return
		}
		select {
		case settled <- s:
		default:
		}
	}))

	runCtx, cancel := context.WithCancel(ctx)
	var wg conc.WaitGroup
	wg.Go(func() { _ = coord.Run(runCtx) })
	defer func() {
		cancel()
		wg.Wait()
	}()

	select {
	case state := <-settled:
		if err := view.Print(stdout, state); err != nil {
			return err
		}
		if state.Status == coordinator.StatusError {
			return fmt.Errorf("refresh failed: %s", state.Message)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runHeadless(ctx context.Context, cfg *config.Config, client *resty.Client, logger *slog.Logger, stdout io.Writer) error {
	coord := newCoordinator(cfg, client, logger, coordinator.WithListener(func(s coordinator.ViewState) {
		if s.Status == coordinator.StatusLoading {
			return
		}
		if err := view.Print(stdout, s); err != nil {
			logger.Error("failed to print state", "error", err)
		}
	}))

	settings := cfg.Settings()
	auto := coordinator.NewAutoRefresh(coord, settings.AutoRefreshInterval, settings.AutoRefreshEnabled, logger)

	var wg conc.WaitGroup
	wg.Go(func() { auto.Run(ctx) })
	wg.Go(func() { _ = coord.Run(ctx) })
	wg.Wait()

	logger.Info("shutting down")
	return nil
}

func runDashboard(ctx context.Context, cfg *config.Config, client *resty.Client, logger *slog.Logger) error {
	var dash *ui.Dashboard
	coord := newCoordinator(cfg, client, logger, coordinator.WithListener(func(s coordinator.ViewState) {
		dash.Update(s)
	}))
	dash = ui.NewDashboard(coord, cfg.Settings(), logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	settings := cfg.Settings()
	auto := coordinator.NewAutoRefresh(coord, settings.AutoRefreshInterval, settings.AutoRefreshEnabled, logger)

	var wg conc.WaitGroup
	wg.Go(func() { auto.Run(runCtx) })
	wg.Go(func() { _ = coord.Run(runCtx) })
	wg.Go(func() {
		<-runCtx.Done()
		dash.Stop()
	})

	err := dash.Run()
	cancel()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
