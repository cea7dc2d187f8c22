package cli

import (
	"fmt"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/heatshock/config"
	"github.com/pthm-cable/heatshock/model"
)

type temperatureSample struct {
	Time        float64 `csv:"time"`
	Temperature float64 `csv:"temperature"`
}

func newScheduleCmd(a *app) *cobra.Command {
	var (
		step   float64
		export string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the temperature schedule sampled over the run interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sched, err := model.BuildSchedule(a.cfg)
			if err != nil {
				return err
			}
			if export != "" {
				return config.WriteBreakpointsCSV(export, a.cfg.Derived.Breakpoints)
			}
			if step <= 0 {
				return fmt.Errorf("--step must be positive, got %g", step)
			}

			sim := a.cfg.Simulation
			var samples []temperatureSample
			for i := 0; ; i++ {
				t := sim.TStart + float64(i)*step
				if t > sim.TEnd {
					break
				}
				samples = append(samples, temperatureSample{Time: t, Temperature: sched.TemperatureAt(t)})
			}
			return gocsv.Marshal(samples, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Float64Var(&step, "step", 1, "Sampling interval")
	cmd.Flags().StringVar(&export, "export", "", "Write the effective breakpoints to this CSV file instead")
	return cmd
}
