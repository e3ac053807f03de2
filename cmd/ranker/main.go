package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"places_ranker/internal/adapters/gmaps"
	"places_ranker/internal/adapters/observability"
	"places_ranker/internal/app"
	"places_ranker/internal/report"
	"places_ranker/internal/shared"
)

type options struct {
	term       string
	configPath string
	csvPath    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "ranker",
		Short: "Rank nearby places by Bayesian-smoothed rating and travel cost",
		Long: `ranker searches the places API around the configured origin, smooths every
rating toward a prior, estimates the cost of getting there and prints the
businesses best first.

Without --term the search string is read from stdin.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.term, "term", "t", "", "search string (prompted when omitted)")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFIG_FILE"), "YAML config file")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "also write the ranking as CSV to this path")
	return cmd
}

func run(ctx context.Context, opts options) error {
	cfg, err := shared.Load(opts.configPath)
	log.Logger = observability.NewLogger(cfg.AppEnv, os.Stderr)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	searchTerm := strings.TrimSpace(opts.term)
	if searchTerm == "" {
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		if searchTerm, err = readTerm(os.Stdin, os.Stdout, interactive); err != nil {
			return err
		}
	}

	client, err := gmaps.New(cfg.BaseURL, cfg.APIKey, cfg.GatewayRPS)
	if err != nil {
		return err
	}
	svc := app.NewRankingService(client, app.Settings{
		Origin:       cfg.Origin,
		RadiusMeters: cfg.RadiusMeters,
		Prior:        cfg.Prior(),
		Cost:         cfg.CostModel(),
	})

	ranked, err := svc.Rank(ctx, searchTerm)
	if err != nil {
		return err
	}

	if err := (report.Table{NameWidth: cfg.NameWidth}).Render(os.Stdout, ranked); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if opts.csvPath != "" {
		if err := writeCSVFile(opts.csvPath, ranked); err != nil {
			return err
		}
		log.Info().Str("path", opts.csvPath).Int("rows", len(ranked.Businesses)).Msg("csv written")
	}
	return nil
}
