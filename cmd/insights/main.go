package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"review_insights/internal/adapters/console"
	"review_insights/internal/adapters/observability"
	"review_insights/internal/app"
	"review_insights/internal/bootstrap"
	"review_insights/internal/shared"
)

func main() {
	var (
		cfg    shared.Config
		output string
		apiKey string
	)

	root := &cobra.Command{
		Use:           "insights",
		Short:         "Google Maps review insights dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = shared.Load()
			// logs stay off stdout so json/yaml output can be piped
			log.Logger = observability.NewLoggerTo(os.Stderr, cfg.AppEnv)
			if apiKey != "" {
				cfg.SerpAPIKey = apiKey
			}
		},
	}
	root.PersistentFlags().StringVarP(&output, "output", "o", console.FormatText, "output format: text, json or yaml")
	root.PersistentFlags().StringVar(&apiKey, "api-key", "", "SerpAPI key (overrides SERPAPI_API_KEY)")

	root.AddCommand(analyzeCmd(&cfg, &output), compareCmd(&cfg, &output), serveCmd(&cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func analyzeCmd(cfg *shared.Config, output *string) *cobra.Command {
	var (
		placeID   string
		csvPath   string
		statsOnly bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fetch or import one business's reviews and analyze them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (placeID == "") == (csvPath == "") {
				return fmt.Errorf("exactly one of --place-id or --csv is required")
			}
			r, err := console.New(os.Stdout, *output)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			d, id, cleanup, err := openSession(ctx, *cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			rep := console.SingleReport{PlaceID: placeID, Source: "serpapi"}
			if csvPath != "" {
				rep.Source = csvPath
				f, err := os.Open(csvPath)
				if err != nil {
					return err
				}
				defer f.Close()
				err = step("Importing reviews", func() error {
					rep.Reviews, err = d.ImportSingle(ctx, id, f)
					return err
				})
				if err != nil {
					return err
				}
			} else {
				err = step("Fetching reviews", func() error {
					rep.Reviews, err = d.FetchSingle(ctx, id, placeID, cfg.SerpAPIKey)
					return err
				})
				if err != nil {
					return err
				}
			}

			if err := step("Classifying sentiment", func() error {
				rep.Stats, err = d.AnalyzeSingle(ctx, id)
				return err
			}); err != nil {
				return err
			}
			if !statsOnly {
				var bi app.BusinessInsights
				if err := step("Generating insights", func() error {
					bi, err = d.InsightsSingle(ctx, id)
					return err
				}); err != nil {
					return err
				}
				rep.Insights = &bi
			}
			return r.Single(rep)
		},
	}
	cmd.Flags().StringVar(&placeID, "place-id", "", "Google Maps place ID")
	cmd.Flags().StringVar(&csvPath, "csv", "", "path to a CSV file with a text column")
	cmd.Flags().BoolVar(&statsOnly, "stats-only", false, "skip LLM insights")
	return cmd
}

func compareCmd(cfg *shared.Config, output *string) *cobra.Command {
	var (
		placeA    string
		placeB    string
		statsOnly bool
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two businesses by their reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := console.New(os.Stdout, *output)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			d, id, cleanup, err := openSession(ctx, *cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := step("Fetching reviews", func() error {
				_, _, err := d.FetchCompare(ctx, id, placeA, placeB, cfg.SerpAPIKey)
				return err
			}); err != nil {
				return err
			}
			rep := console.CompareReport{PlaceA: placeA, PlaceB: placeB}
			if err := step("Classifying sentiment", func() error {
				rep.Stats, err = d.AnalyzeCompare(ctx, id)
				return err
			}); err != nil {
				return err
			}
			if !statsOnly {
				var ci app.CompareInsights
				if err := step("Generating insights", func() error {
					ci, err = d.InsightsCompare(ctx, id)
					return err
				}); err != nil {
					return err
				}
				rep.Insights = &ci
			}
			return r.Compare(rep)
		},
	}
	cmd.Flags().StringVar(&placeA, "place-a", "", "place ID of business A")
	cmd.Flags().StringVar(&placeB, "place-b", "", "place ID of business B")
	cmd.Flags().BoolVar(&statsOnly, "stats-only", false, "skip LLM insights")
	_ = cmd.MarkFlagRequired("place-a")
	_ = cmd.MarkFlagRequired("place-b")
	return cmd
}

func serveCmd(cfg *shared.Config) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return bootstrap.Serve(cmd.Context(), *cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

// openSession wires a dashboard with process-local sessions and opens one.
func openSession(ctx context.Context, cfg shared.Config) (*app.Dashboard, string, func(), error) {
	cfg.SessionStore = "memory"
	d, cleanup, err := bootstrap.Dashboard(ctx, cfg)
	if err != nil {
		return nil, "", nil, err
	}
	s, err := d.NewSession(ctx)
	if err != nil {
		cleanup()
		return nil, "", nil, err
	}
	return d, s.ID, cleanup, nil
}

// step runs fn behind a spinner and reports completion on stderr.
func step(description string, fn func() error) error {
	bar := console.Spinner(description)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				_ = bar.Add(1)
			}
		}
	}()
	err := fn()
	close(stop)
	wg.Wait()
	_ = bar.Finish()
	if err == nil {
		fmt.Fprintln(os.Stderr, color.GreenString("✓ %s", description))
	}
	return err
}
