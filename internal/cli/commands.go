package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/landscout/internal/app"
	"github.com/UnknownOlympus/landscout/internal/daterange"
	"github.com/UnknownOlympus/landscout/internal/portal"
	"github.com/UnknownOlympus/landscout/internal/server"
	"github.com/UnknownOlympus/landscout/internal/status"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var (
	errMixedRange   = errors.New("--month-to-date cannot be combined with --start or --end")
	errPartialRange = errors.New("both --start and --end are required")
)

func newLandCommand(s *state) *cobra.Command {
	var (
		start, end, output string
		monthToDate        bool
		headless           bool
		districts          []string
	)

	cmd := &cobra.Command{
		Use:   "land",
		Short: "Collect land transaction permits from the Seoul portal",
		Long: `Walks every Seoul district on the land permit portal for the given period,
adds road addresses and coordinates, and saves the result as CSV.
Without --start/--end or --month-to-date the period is asked for interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rng, err := resolveRange(start, end, monthToDate, time.Now(), s.cfg.Portal.MaxSpanDays, s.in, s.out)
			if err != nil {
				return err
			}
			if monthToDate || start != "" {
				fmt.Fprintf(s.out, "Search period: %s\n", rng)
			}

			opts := app.LandOptions{
				Range:     rng,
				OutputDir: output,
				Headless:  s.cfg.Portal.Headless,
				Districts: districts,
			}
			if cmd.Flags().Changed("headless") {
				opts.Headless = headless
			}

			ctx := cmd.Context()
			repo, closeArchive := s.openArchive(ctx)
			defer closeArchive()

			res, err := s.runner(repo).RunLand(ctx, opts, &consoleProgress{out: s.out})
			if err != nil {
				return err
			}
			s.report(res)

			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day of the period (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&monthToDate, "month-to-date", false, "search from the first of this month through today")
	cmd.Flags().StringVarP(&output, "output", "o", "", "directory for the CSV file (default from configuration)")
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	cmd.Flags().StringSliceVar(&districts, "district", nil, "only crawl these district codes (repeatable)")

	return cmd
}

// resolveRange picks the search period from the flags, or prompts for it.
func resolveRange(
	start, end string,
	monthToDate bool,
	now time.Time,
	maxSpanDays int,
	in io.Reader,
	out io.Writer,
) (daterange.Range, error) {
	switch {
	case monthToDate && (start != "" || end != ""):
		return daterange.Range{}, errMixedRange
	case monthToDate:
		return daterange.MonthToDate(now), nil
	case start != "" && end != "":
		return daterange.Parse(start, end, maxSpanDays)
	case start != "" || end != "":
		return daterange.Range{}, errPartialRange
	default:
		return PromptRange(in, out, maxSpanDays)
	}
}

func newApartmentsCommand(s *state) *cobra.Command {
	var (
		output    string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "apartments",
		Short: "Export the Seoul apartment registry",
		Long: `Reads the apartment registry (OpenAptInfo) from the Seoul open data API in
batches, adds lot-number addresses through Kakao when a key is configured,
and saves the result as CSV.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, closeArchive := s.openArchive(ctx)
			defer closeArchive()

			res, err := s.runner(repo).RunApartments(ctx, app.ApartmentOptions{
				OutputDir: output,
				BatchSize: batchSize,
			}, &consoleProgress{out: s.out})
			if err != nil {
				return err
			}
			s.report(res)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "directory for the CSV file (default from configuration)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "records per API call (default from configuration)")

	return cmd
}

func newServeCommand(s *state) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port == 0 {
				port = s.cfg.Port
			}

			return serve(cmd.Context(), s, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from configuration)")

	return cmd
}

func serve(ctx context.Context, s *state, port int) error {
	logs := status.NewBroadcaster()
	s.log = slog.New(status.NewLogHandler(s.handler, logs))

	repo, closeArchive := s.openArchive(ctx)
	defer closeArchive()

	manager := status.NewManager(ctx, s.log, s.metrics)
	deps := server.Deps{
		Runner:  s.runner(repo),
		Manager: manager,
		Logs:    logs,
		Defaults: server.Defaults{
			Headless:    s.cfg.Portal.Headless,
			MaxSpanDays: s.cfg.Portal.MaxSpanDays,
			BatchSize:   s.cfg.Apartment.BatchSize,
			JusoKey:     s.cfg.Keys.Juso,
			KakaoKey:    s.cfg.Keys.Kakao,
			OpenAPIKey:  s.cfg.Keys.OpenAPI,
		},
		Log: s.log,
	}
	if repo != nil {
		deps.Runs = repo
		deps.DB = repo
	}

	srv := server.New(port, server.NewRouter(server.NewHandler(deps), s.reg, s.log), s.log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	fmt.Fprintf(s.out, "Open http://127.0.0.1:%d in your browser. Press Ctrl+C to stop.\n", port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutdown signal received, stopping")
	manager.Stop()
	manager.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func newInstallCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download the Chromium build used to drive the portal",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := portal.Install(); err != nil {
				return fmt.Errorf("failed to install browser: %w", err)
			}
			fmt.Fprintln(s.out, "Browser installed.")

			return nil
		},
	}
}
