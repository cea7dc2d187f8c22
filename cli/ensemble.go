package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/heatshock/config"
	"github.com/pthm-cable/heatshock/ensemble"
	"github.com/pthm-cable/heatshock/metrics"
	"github.com/pthm-cable/heatshock/model"
	"github.com/pthm-cable/heatshock/store"
	"github.com/pthm-cable/heatshock/telemetry"
)

func newEnsembleCmd(a *app) *cobra.Command {
	var (
		replicates  int
		workers     int
		seed        uint64
		outputDir   string
		database    string
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "Simulate independent replicates and summarize them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("replicates") {
				cfg.Simulation.Replicates = replicates
			}
			if flags.Changed("workers") {
				cfg.Simulation.Workers = workers
			}
			if flags.Changed("seed") {
				cfg.Simulation.Seed = seed
			}
			if flags.Changed("output-dir") {
				cfg.Output.Dir = outputDir
			}
			if flags.Changed("db") {
				cfg.Output.Database = database
			}
			if flags.Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runEnsemble(ctx, cfg)
		},
	}
	cmd.Flags().IntVarP(&replicates, "replicates", "n", 0, "Number of replicates (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent replicates, 0 = GOMAXPROCS (overrides config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "RNG seed (overrides config)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for CSV output (overrides config)")
	cmd.Flags().StringVar(&database, "db", "", "SQLite run archive path (overrides config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus /metrics on this address while running")
	return cmd
}

func runEnsemble(ctx context.Context, cfg *config.Config) error {
	net, sched, err := model.Build(cfg)
	if err != nil {
		return err
	}

	om, err := telemetry.NewOutputManager(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		return err
	}

	var db *store.Store
	if cfg.Output.Database != "" {
		db, err = store.Open(ctx, cfg.Output.Database)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return err
	}

	sink := &runSink{ctx: ctx, cfg: cfg, om: om, db: db}
	opts := ensemble.Options{
		Replicates: cfg.Simulation.Replicates,
		Seed:       cfg.Simulation.Seed,
		Workers:    cfg.Simulation.Workers,
		TStart:     cfg.Simulation.TStart,
		TEnd:       cfg.Simulation.TEnd,
	}

	slog.Info("starting ensemble",
		"model", cfg.Model.Name,
		"replicates", opts.Replicates,
		"workers", opts.Workers,
		"seed", opts.Seed,
		"output_dir", om.Dir(),
	)

	g, gctx := errgroup.WithContext(ctx)
	srvCtx, stopServer := context.WithCancel(gctx)
	if cfg.Metrics.Addr != "" {
		g.Go(func() error { return metrics.Serve(srvCtx, cfg.Metrics.Addr, reg) })
	}

	var results []ensemble.Result
	g.Go(func() error {
		defer stopServer()
		var err error
		results, err = ensemble.Run(gctx, net, sched, opts, rec, sink)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if sink.err != nil {
		return sink.err
	}

	summary, err := telemetry.Ensemble(ensemble.Trajectories(results), cfg.Simulation.BurnIn, cfg.Simulation.TEnd)
	if err != nil {
		return err
	}
	for _, s := range summary {
		slog.Info("ensemble", "summary", s)
	}
	return om.WriteEnsemble(summary)
}

// runSink writes each finished replicate to the configured outputs. The
// ensemble runner serializes calls, so no locking is needed.
type runSink struct {
	ctx context.Context
	cfg *config.Config
	om  *telemetry.OutputManager
	db  *store.Store
	err error
}

func (s *runSink) ObserveRun(res ensemble.Result) {
	if s.err != nil {
		return
	}
	sim := s.cfg.Simulation
	var errs []error

	if s.cfg.Output.Trajectories {
		errs = append(errs, s.om.WriteTrajectory(res.Replicate, res.Trajectory))
	}
	errs = append(errs, s.om.WriteSummary(telemetry.Summarize(res.Trajectory, res.Replicate, res.Seed, sim.BurnIn, sim.TEnd)))

	if s.db != nil {
		_, err := s.db.SaveRun(s.ctx, store.RunMeta{
			Model:     s.cfg.Model.Name,
			Replicate: res.Replicate,
			Seed:      res.Seed,
			Stream:    res.Stream,
			TStart:    sim.TStart,
			TEnd:      sim.TEnd,
		}, res.Trajectory)
		errs = append(errs, err)
	}

	s.err = errors.Join(errs...)
	if s.err != nil {
		slog.Error("writing replicate output", "replicate", res.Replicate, "error", s.err)
	}
}
