package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/heatshock/kinetics"
	"github.com/pthm-cable/heatshock/model"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a model file and print its species and reactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			net, sched, err := model.Build(a.cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model %s: %d species, %d reactions, %d breakpoints, ambient %g K\n",
				a.cfg.Model.Name, len(net.Species()), len(net.Reactions()), len(sched.Breakpoints()), sched.AmbientTemperature())
			reg := net.Registry()
			for i := range reg.Len() {
				sp := reg.Species(kinetics.SpeciesID(i))
				fmt.Fprintf(out, "  species  %-12s %d\n", sp.Name(), sp.Count())
			}
			for _, rc := range a.cfg.Model.Reactions {
				th, err := model.Thermal(rc.Thermal)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  reaction %-24s %-22s rate=%g thermal=%s\n", rc.Name, rc.Kind, rc.Rate, th)
			}
			return nil
		},
	}
}
