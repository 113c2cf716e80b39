// Command farewatch checks flight fares for one route and alerts on Telegram
// when the price hits a new minimum, drops past a threshold, or reaches the
// target. One invocation processes one origin/destination pair and exits.
//
// Usage:
//
//	farewatch check --origin EZE --destination MAD --from 2025-11-01 --to 2025-12-15
//	farewatch check --one-way --from 2025-11-01 --to 2025-11-20 --target 450
//	farewatch state show
//	farewatch state reset --yes
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tferreyra/farewatch/internal/alert"
	"github.com/tferreyra/farewatch/internal/amadeus"
	"github.com/tferreyra/farewatch/internal/config"
	"github.com/tferreyra/farewatch/internal/notify"
	"github.com/tferreyra/farewatch/internal/runlog"
	"github.com/tferreyra/farewatch/internal/search"
	"github.com/tferreyra/farewatch/internal/state"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "farewatch",
		Short:         "Flight fare drop watcher",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(checkCmd(cfg))
	root.AddCommand(stateCmd(cfg))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// check command
// --------------------------------------------------------------------------

func checkCmd(cfg *config.Config) *cobra.Command {
	var (
		crit       search.Criteria
		from, to   string
		target     float64
		minDropPct float64
		rateLimit  int
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one fare check for the configured route",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Fail fast on missing credentials, before any network call.
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}
			if from == "" || to == "" {
				return fmt.Errorf("--from and --to are required (or FAREWATCH_DATE_FROM / FAREWATCH_DATE_TO)")
			}
			var err error
			if crit.WindowStart, err = config.ParseDate(from); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if crit.WindowEnd, err = config.ParseDate(to); err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			logger, closeLog, err := runlog.Open(cfg.LogFile)
			if err != nil {
				return err
			}
			defer closeLog()

			runID := uuid.NewString()
			logger = logger.With("run_id", runID)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			sender := notify.NewTelegram(config.TelegramAPIBase, cfg.TelegramBotToken, cfg.TelegramChatID)
			thresholds := alert.Thresholds{
				Target:     decimal.NewFromFloat(target),
				MinDropPct: decimal.NewFromFloat(minDropPct),
			}

			if err := runCheck(ctx, cfg, crit, thresholds, rateLimit, runID, sender, logger); err != nil {
				logger.Error("check failed", "error", err)
				// Best effort: tell the channel the run died, then propagate.
				notify.ReportError(ctx, sender, err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&crit.Origin, "origin", cfg.Origin, "Origin IATA code")
	cmd.Flags().StringVar(&crit.Destination, "destination", cfg.Destination, "Destination IATA code")
	cmd.Flags().StringVar(&from, "from", cfg.DateFrom, "Window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", cfg.DateTo, "Window end date (YYYY-MM-DD, inclusive)")
	cmd.Flags().BoolVar(&crit.OneWay, "one-way", cfg.OneWay, "Search one-way fares instead of round trips")
	cmd.Flags().IntVar(&crit.MinNights, "nights-min", cfg.MinNights, "Minimum nights at destination (round trip)")
	cmd.Flags().IntVar(&crit.MaxNights, "nights-max", cfg.MaxNights, "Maximum nights at destination (round trip)")
	cmd.Flags().IntVar(&crit.Adults, "adults", cfg.Adults, "Passenger count")
	cmd.Flags().StringVar(&crit.Currency, "currency", cfg.Currency, "Currency code")
	cmd.Flags().Float64Var(&target, "target", cfg.TargetPrice, "Target price that always triggers an alert")
	cmd.Flags().Float64Var(&minDropPct, "min-drop-pct", cfg.MinDropPct, "Minimum percentage drop vs stored minimum to alert")
	cmd.Flags().IntVar(&crit.MaxDates, "max-dates", cfg.MaxDates, "Maximum departure dates to scan")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", cfg.RateLimit, "Search requests per minute")
	return cmd
}

// runCheck is one full enumerate → search → select → decide → persist →
// notify cycle.
func runCheck(ctx context.Context, cfg *config.Config, crit search.Criteria, thresholds alert.Thresholds, rateLimit int, runID string, sender notify.Sender, logger *slog.Logger) error {
	client := amadeus.NewClient(amadeus.Config{
		OAuthURL:          cfg.OAuthURL,
		SearchURL:         cfg.SearchURL,
		ClientID:          cfg.AmadeusClientID,
		ClientSecret:      cfg.AmadeusClientSecret,
		TokenFile:         cfg.TokenFile,
		RequestsPerMinute: rateLimit,
	}, logger)

	store, err := openStore(ctx, cfg, crit.Route())
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("searching fares",
		"route", crit.Route(), "env", cfg.AmadeusEnv,
		"from", crit.WindowStart.Format("2006-01-02"), "to", crit.WindowEnd.Format("2006-01-02"),
		"one_way", crit.OneWay)

	start := time.Now()
	offer, err := search.NewPlanner(client, logger).FindCheapest(ctx, crit)
	if err != nil {
		return err
	}
	if offer == nil {
		logger.Info("no offers found", "route", crit.Route(),
			"duration", time.Since(start).Round(time.Second))
		return nil
	}

	prior, err := store.Load(ctx)
	if err != nil {
		return err
	}

	decision, next := alert.Evaluate(offer, prior, thresholds.Target, thresholds.MinDropPct, time.Now())
	next.UpdatedBy = runID
	if err := store.Save(ctx, next); err != nil {
		return err
	}

	if !decision.Notify {
		logger.Info("no alert",
			"price", offer.Total.StringFixed(2), "currency", offer.Currency,
			"stored_min", priceOrDash(prior.MinPrice),
			"duration", time.Since(start).Round(time.Second))
		return nil
	}

	if err := sender.Validate(); err != nil {
		return err
	}
	if err := sender.Send(ctx, alert.Message(offer, next, decision)); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	logger.Info("alert sent",
		"price", offer.Total.StringFixed(2), "currency", offer.Currency,
		"reasons", strings.Join(decision.Reasons, " | "),
		"duration", time.Since(start).Round(time.Second))
	return nil
}

// --------------------------------------------------------------------------
// state command
// --------------------------------------------------------------------------

func stateCmd(cfg *config.Config) *cobra.Command {
	var origin, destination string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the persisted price state",
	}
	cmd.PersistentFlags().StringVar(&origin, "origin", cfg.Origin, "Origin IATA code")
	cmd.PersistentFlags().StringVar(&destination, "destination", cfg.Destination, "Destination IATA code")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored minimum price record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, origin, destination, func(ctx context.Context, store state.Store) error {
				st, err := store.Load(ctx)
				if err != nil {
					return err
				}
				if st.MinPrice == nil {
					fmt.Println("no price recorded yet")
					return nil
				}
				fmt.Printf("route: %s\nmin price: %s\nrecorded: %s\nlast run: %s\n",
					st.MinRoute, st.MinPrice.StringFixed(2),
					st.MinWhen.Format(time.RFC3339), st.UpdatedBy)
				return nil
			})
		},
	}

	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Forget the stored minimum price",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			return withStore(cfg, origin, destination, func(ctx context.Context, store state.Store) error {
				return store.Reset(ctx)
			})
		},
	}
	reset.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")

	cmd.AddCommand(show)
	cmd.AddCommand(reset)
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// openStore picks the Postgres backend when a DSN is configured, the JSON
// file otherwise.
func openStore(ctx context.Context, cfg *config.Config, route string) (state.Store, error) {
	if cfg.StateDSN != "" {
		return state.NewPostgresStore(ctx, cfg.StateDSN, route)
	}
	return state.NewFileStore(cfg.StateFile), nil
}

func withStore(cfg *config.Config, origin, destination string, fn func(ctx context.Context, store state.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	store, err := openStore(ctx, cfg, origin+"→"+destination)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}

func priceOrDash(p *decimal.Decimal) string {
	if p == nil {
		return "-"
	}
	return p.StringFixed(2)
}
