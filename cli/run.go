package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/heatshock/kinetics"
	"github.com/pthm-cable/heatshock/model"
	"github.com/pthm-cable/heatshock/telemetry"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		output string
		seed   uint64
		stream uint64
		tEnd   float64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one trajectory and write it as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("seed") {
				cfg.Simulation.Seed = seed
			}
			if cmd.Flags().Changed("t-end") {
				cfg.Simulation.TEnd = tEnd
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			net, sched, err := model.Build(cfg)
			if err != nil {
				return err
			}

			slog.Info("starting simulation",
				"model", cfg.Model.Name,
				"seed", cfg.Simulation.Seed,
				"stream", stream,
				"t_start", cfg.Simulation.TStart,
				"t_end", cfg.Simulation.TEnd,
			)
			traj, err := net.Simulate(cfg.Simulation.TStart, cfg.Simulation.TEnd, sched,
				kinetics.NewSource(cfg.Simulation.Seed, stream))
			if err != nil {
				return err
			}
			slog.Info("simulation finished", "trajectory", traj)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := telemetry.WriteTrajectoryTo(w, traj); err != nil {
				return err
			}

			for _, s := range telemetry.Summarize(traj, 0, cfg.Simulation.Seed, cfg.Simulation.BurnIn, cfg.Simulation.TEnd) {
				slog.Info("species", "summary", s)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Trajectory CSV path (empty = stdout)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "RNG seed (overrides config)")
	cmd.Flags().Uint64Var(&stream, "stream", 0, "RNG stream, i.e. the replicate index to reproduce")
	cmd.Flags().Float64Var(&tEnd, "t-end", 0, "End of the simulated interval (overrides config)")
	return cmd
}
