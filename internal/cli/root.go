// Package cli is the landscout command line: one-off collection runs, the
// web interface and the browser installer.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/UnknownOlympus/landscout/internal/app"
	"github.com/UnknownOlympus/landscout/internal/config"
	"github.com/UnknownOlympus/landscout/internal/logger"
	"github.com/UnknownOlympus/landscout/internal/metrics"
	"github.com/UnknownOlympus/landscout/internal/repository"
	"github.com/UnknownOlympus/landscout/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const appName = "landscout"

// state is shared by the subcommands once the configuration is loaded.
type state struct {
	in  io.Reader
	out io.Writer

	cfg     *config.Config
	handler slog.Handler
	log     *slog.Logger
	reg     *prometheus.Registry
	metrics *metrics.Metrics
}

// NewRootCommand builds the command tree reading prompts from in and writing to out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	s := &state{in: in, out: out}

	root := &cobra.Command{
		Use:   appName,
		Short: "Seoul land permit and apartment registry collector",
		Long: `landscout collects Seoul land transaction permits from the city portal,
adds road addresses and coordinates, and saves them as CSV. It can also
export the apartment registry from the Seoul open data API.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			s.load()
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	root.AddCommand(
		newLandCommand(s),
		newApartmentsCommand(s),
		newServeCommand(s),
		newInstallCommand(s),
	)

	return root
}

func (s *state) load() {
	s.cfg = config.MustLoad()
	s.handler = logger.NewHandler(s.cfg.Env, s.out)
	s.log = slog.New(s.handler)

	s.reg = prometheus.NewRegistry()
	s.reg.MustRegister(collectors.NewGoCollector())
	s.reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.metrics = metrics.NewMetrics(s.reg)
}

// openArchive connects the optional run archive. A database that cannot be
// reached is logged and the run continues without it.
func (s *state) openArchive(ctx context.Context) (*repository.Repository, func()) {
	if !s.cfg.Database.Enabled() {
		return nil, func() {}
	}

	repo, closeDB, err := app.OpenArchive(ctx, s.cfg.Database, s.log)
	if err != nil {
		s.log.ErrorContext(ctx, "Run archive unavailable, continuing without it", "error", err)
		return nil, func() {}
	}

	return repo, closeDB
}

// runner builds a job runner, leaving the archive out when repo is nil.
func (s *state) runner(repo *repository.Repository) *app.Runner {
	var archive service.Archive
	if repo != nil {
		archive = repo
	}

	return app.NewRunner(s.cfg, s.log, s.metrics, archive)
}

func (s *state) report(res service.Result) {
	if res.Rows == 0 {
		fmt.Fprintln(s.out, "No data collected.")
		return
	}

	fmt.Fprintf(s.out, "Collected %d rows.\nSaved to %s\n", res.Rows, res.OutputPath)
}

// consoleProgress prints each new stage to the terminal.
type consoleProgress struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

func (p *consoleProgress) Stage(label string, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if label == "" || label == p.last {
		return
	}
	p.last = label
	fmt.Fprintf(p.out, "[%3d%%] %s\n", percent, label)
}

func (p *consoleProgress) SetRows(int) {}
