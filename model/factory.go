// Package model builds kinetics networks from configuration.
package model

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/pthm-cable/heatshock/config"
	"github.com/pthm-cable/heatshock/kinetics"
)

// CatalyzedOptions are the options of a catalyzed_conversion reaction.
type CatalyzedOptions struct {
	Yield         int64 `mapstructure:"yield"`
	CatalystOrder bool  `mapstructure:"catalyst_order"`
}

// SurfaceOptions are the options of a surface_inactivation reaction.
type SurfaceOptions struct {
	ScaleNucleation bool `mapstructure:"scale_nucleation"`
}

// Build constructs the network and temperature schedule a config describes.
// Species are registered in declaration order, so a species' handle equals
// its index in cfg.Derived.SpeciesIndex.
func Build(cfg *config.Config) (*kinetics.Network, *kinetics.StepSchedule, error) {
	net, err := BuildNetwork(cfg)
	if err != nil {
		return nil, nil, err
	}
	sched, err := BuildSchedule(cfg)
	if err != nil {
		return nil, nil, err
	}
	return net, sched, nil
}

// BuildNetwork registers species and reactions.
func BuildNetwork(cfg *config.Config) (*kinetics.Network, error) {
	net := kinetics.NewNetwork()
	net.ProgressInterval = cfg.Simulation.ProgressInterval

	for _, sc := range cfg.Model.Species {
		if _, err := net.AddSpecies(sc.Name, sc.Count); err != nil {
			return nil, err
		}
	}

	for i := range cfg.Model.Reactions {
		rc := &cfg.Model.Reactions[i]
		r, err := buildReaction(net.Registry(), rc)
		if err != nil {
			return nil, fmt.Errorf("reaction %q: %w", rc.Name, err)
		}
		net.AddReaction(r)
	}

	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net, nil
}

// BuildSchedule converts the effective breakpoints to a step schedule.
func BuildSchedule(cfg *config.Config) (*kinetics.StepSchedule, error) {
	bps := make([]kinetics.Breakpoint, len(cfg.Derived.Breakpoints))
	for i, bp := range cfg.Derived.Breakpoints {
		bps[i] = kinetics.Breakpoint{Time: bp.Time, Temperature: bp.Temperature}
	}
	return kinetics.NewStepSchedule(cfg.Temperature.Ambient, bps...)
}

// Thermal maps a thermal config to its kinetics law.
func Thermal(tc config.ThermalConfig) (kinetics.Thermal, error) {
	switch tc.Law {
	case "", config.ThermalNone:
		return kinetics.Isothermal{}, nil
	case config.ThermalLinear:
		return kinetics.Linear{Scale: tc.Scale}, nil
	case config.ThermalQuadratic:
		return kinetics.Quadratic{Scale: tc.Scale}, nil
	case config.ThermalArrhenius:
		return kinetics.Arrhenius{Activation: tc.Activation, Reference: tc.Reference}, nil
	default:
		return nil, &kinetics.ConfigError{Field: "thermal.law", Reason: fmt.Sprintf("unknown law %q", tc.Law)}
	}
}

func buildReaction(reg *kinetics.Registry, rc *config.ReactionConfig) (kinetics.Reaction, error) {
	spec, ok := config.Kinds[rc.Kind]
	if !ok {
		return nil, &kinetics.ConfigError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", rc.Kind)}
	}
	if len(rc.Inputs) < spec.Inputs || len(rc.Outputs) < spec.Outputs {
		return nil, &kinetics.ConfigError{
			Field:  "inputs/outputs",
			Reason: fmt.Sprintf("kind %s needs %d inputs and %d outputs", rc.Kind, spec.Inputs, spec.Outputs),
		}
	}

	in, err := resolve(reg, rc.Inputs)
	if err != nil {
		return nil, err
	}
	out, err := resolve(reg, rc.Outputs)
	if err != nil {
		return nil, err
	}
	th, err := Thermal(rc.Thermal)
	if err != nil {
		return nil, err
	}

	switch rc.Kind {
	case config.KindProduction:
		if err := noOptions(rc); err != nil {
			return nil, err
		}
		return &kinetics.Production{Label: rc.Name, Output: out[0], Rate: rc.Rate, Thermal: th}, nil

	case config.KindDegradation:
		if err := noOptions(rc); err != nil {
			return nil, err
		}
		return &kinetics.Degradation{Label: rc.Name, Input: in[0], Rate: rc.Rate, Thermal: th}, nil

	case config.KindConversion:
		if err := noOptions(rc); err != nil {
			return nil, err
		}
		return &kinetics.Conversion{Label: rc.Name, Input: in[0], Output: out[0], Rate: rc.Rate, Thermal: th}, nil

	case config.KindCatalyzedConversion:
		var opts CatalyzedOptions
		if err := decodeOptions(rc, &opts); err != nil {
			return nil, err
		}
		// A second output, when given, documents that the catalyst is
		// returned; anything else would be a different reaction.
		if len(out) > 1 && out[1] != in[1] {
			return nil, &kinetics.ConfigError{
				Field:  "outputs",
				Reason: fmt.Sprintf("second output %q must be the catalyst %q", rc.Outputs[1], rc.Inputs[1]),
			}
		}
		if opts.Yield < 0 {
			return nil, &kinetics.ConfigError{Field: "options.yield", Reason: fmt.Sprintf("must not be negative, got %d", opts.Yield)}
		}
		return &kinetics.CatalyzedConversion{
			Label:         rc.Name,
			Substrate:     in[0],
			Catalyst:      in[1],
			Product:       out[0],
			Yield:         opts.Yield,
			Rate:          rc.Rate,
			CatalystOrder: opts.CatalystOrder,
			Thermal:       th,
		}, nil

	case config.KindDimerization:
		if err := noOptions(rc); err != nil {
			return nil, err
		}
		return &kinetics.Dimerization{Label: rc.Name, Monomer: in[0], Dimer: out[0], Rate: rc.Rate, Thermal: th}, nil

	case config.KindSurfaceInactivation:
		var opts SurfaceOptions
		if err := decodeOptions(rc, &opts); err != nil {
			return nil, err
		}
		return &kinetics.SurfaceInactivation{
			Label:           rc.Name,
			Active:          in[0],
			Aggregate:       out[0],
			Rate:            rc.Rate,
			Thermal:         th,
			ScaleNucleation: opts.ScaleNucleation,
		}, nil

	case config.KindInverseProduction:
		if err := noOptions(rc); err != nil {
			return nil, err
		}
		return &kinetics.InverseProduction{Label: rc.Name, Output: out[0], Dependent: in[0], Rate: rc.Rate, Thermal: th}, nil

	case config.KindInducedProduction:
		if err := noOptions(rc); err != nil {
			return nil, err
		}
		return &kinetics.InducedProduction{Label: rc.Name, Inducer: in[0], Output: out[0], Rate: rc.Rate, Thermal: th}, nil
	}
	return nil, &kinetics.ConfigError{Field: "kind", Reason: fmt.Sprintf("no builder for kind %q", rc.Kind)}
}

func resolve(reg *kinetics.Registry, names []string) ([]kinetics.SpeciesID, error) {
	ids := make([]kinetics.SpeciesID, len(names))
	for i, name := range names {
		id, ok := reg.Lookup(name)
		if !ok {
			return nil, &kinetics.ConfigError{Field: "species", Reason: fmt.Sprintf("unknown species %q", name)}
		}
		ids[i] = id
	}
	return ids, nil
}

// decodeOptions decodes the free-form options map into a typed struct,
// rejecting keys the kind does not understand.
func decodeOptions(rc *config.ReactionConfig, out any) error {
	if len(rc.Options) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(rc.Options); err != nil {
		return &kinetics.ConfigError{Field: "options", Reason: err.Error()}
	}
	return nil
}

func noOptions(rc *config.ReactionConfig) error {
	if len(rc.Options) == 0 {
		return nil
	}
	return &kinetics.ConfigError{Field: "options", Reason: fmt.Sprintf("kind %s takes no options", rc.Kind)}
}
