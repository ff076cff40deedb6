package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fundscope/navcast/internal/config"
)

const (
	appName = "navcast"
	version = "v1.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Live NAV estimation and discount analytics for listed funds",
		Version: version,
		Long: `navcast estimates live intraday NAVs for closed-end funds, BDCs and
similar listed fund structures between official NAV publications, and
derives discounts, Z/D-scores, corporate-action adjusted valuations and
redemption IRRs over the tracked universe.`,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to yaml config (defaults apply when omitted)")
	rootCmd.PersistentFlags().String("log-level", "", "Override configured log level (debug|info|warn|error)")

	calcCmd := &cobra.Command{
		Use:   "calc",
		Short: "Run one full Calculate pass and exit",
		Long:  "Loads the universe from the warehouse, runs the initialization pass and a single valuation pass, then publishes snapshots.",
		RunE:  runCalc,
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the calculation loop",
		Long:  "Runs Start and Calculate on their configured intervals with overlap protection, alongside the live price feed and monitor server.",
		RunE:  runSchedule,
	}

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve only the monitoring endpoints",
		Long:  "Starts the HTTP server with /health, /metrics and /forecasts without running the calculation loop.",
		RunE:  runMonitor,
	}

	rootCmd.AddCommand(calcCmd, scheduleCmd, monitorCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// loadConfig resolves the config file flag and applies the log level.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	level := cfg.LogLevel
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		level = override
	}
	if parsed, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(parsed)
	}
	return cfg, nil
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
