package kinetics

import (
	"fmt"
	"log/slog"
	"math"
)

// DefaultProgressInterval is how many steps pass between progress log lines.
const DefaultProgressInterval = 500

// Network holds the species and reactions of one model. It is not safe for
// concurrent use; run replicates on clones.
type Network struct {
	registry  *Registry
	reactions []Reaction

	// ProgressInterval sets how often Simulate logs progress at debug
	// level. Zero uses DefaultProgressInterval; negative disables it.
	ProgressInterval int
}

// NewNetwork returns an empty network.
func NewNetwork() *Network {
	return &Network{registry: NewRegistry()}
}

// AddSpecies registers a species and returns its handle.
func (n *Network) AddSpecies(name string, count int64) (SpeciesID, error) {
	return n.registry.Add(name, count)
}

// MustSpecies is AddSpecies for static model definitions; it panics on error.
func (n *Network) MustSpecies(name string, count int64) SpeciesID {
	id, err := n.AddSpecies(name, count)
	if err != nil {
		panic(err)
	}
	return id
}

// AddReaction appends a reaction. Registration order is the scan order of
// reaction selection.
func (n *Network) AddReaction(r Reaction) {
	n.reactions = append(n.reactions, r)
}

// Registry exposes the species counts.
func (n *Network) Registry() *Registry { return n.registry }

// Species returns species names in registration order.
func (n *Network) Species() []string { return n.registry.Names() }

// Reactions returns the registered reactions.
func (n *Network) Reactions() []Reaction {
	out := make([]Reaction, len(n.reactions))
	copy(out, n.reactions)
	return out
}

// Clone returns a network with an independent copy of the species counts.
// Reactions are immutable and shared.
func (n *Network) Clone() *Network {
	return &Network{
		registry:         n.registry.Clone(),
		reactions:        n.reactions,
		ProgressInterval: n.ProgressInterval,
	}
}

// Validate checks that the network has reactions and that every declared
// species reference resolves.
func (n *Network) Validate() error {
	if len(n.reactions) == 0 {
		return configErrorf("reactions", "network has no reactions")
	}
	for i, r := range n.reactions {
		if r == nil {
			return configErrorf("reactions", "reaction %d is nil", i)
		}
		ref, ok := r.(Referencer)
		if !ok {
			continue
		}
		for _, id := range ref.References() {
			if !n.registry.Has(id) {
				return configErrorf("reactions."+r.Name(), "references unknown species handle %d", id)
			}
		}
	}
	return nil
}

// Simulate runs the Gillespie direct method from tStart while t <= tEnd.
//
// The loop condition is tested before each step, so the final record usually
// lies one waiting time past tEnd. A state in which every propensity is zero
// ends the run early with TerminatedAbsorbed; that is not an error.
//
// Simulate advances the network's own counts, so a second call continues
// from the previous final state. Call it on a Clone to keep a template.
func (n *Network) Simulate(tStart, tEnd float64, profile Profile, rng Uniform) (*Trajectory, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if !finite(tStart) || !finite(tEnd) || tStart >= tEnd {
		return nil, configErrorf("simulation", "need finite t_start < t_end, got [%g, %g]", tStart, tEnd)
	}
	if rng == nil {
		return nil, configErrorf("simulation", "random source is nil")
	}
	if profile == nil {
		profile = Ambient(DefaultAmbient)
	}

	progressEvery := n.ProgressInterval
	if progressEvery == 0 {
		progressEvery = DefaultProgressInterval
	}

	reg := n.registry
	traj := newTrajectory(reg.Names())
	alphas := make([]float64, len(n.reactions))

	t := tStart
	traj.append(t, profile.TemperatureAt(t), reg.Snapshot())
	traj.Termination = TerminatedHorizon

	for t <= tEnd {
		temp := profile.TemperatureAt(t)

		var total float64
		for i, r := range n.reactions {
			a := r.Propensity(reg, temp)
			if a < 0 || math.IsNaN(a) {
				return traj, &SimulationError{
					Step: traj.Steps, Time: t, Reaction: r.Name(),
					Err: fmt.Errorf("propensity %g at T=%g: %w", a, temp, ErrInvalidState),
				}
			}
			alphas[i] = a
			total += a
		}
		if total == 0 {
			traj.Termination = TerminatedAbsorbed
			slog.Debug("ssa absorbed", "step", traj.Steps, "time", t)
			break
		}

		r1 := openUnit(rng)
		r2 := openUnit(rng)
		tau := math.Log(1/r1) / total

		chosen := selectReaction(alphas, r2*total)

		t += tau
		traj.Steps++

		if err := n.reactions[chosen].Fire(reg); err != nil {
			return traj, &SimulationError{Step: traj.Steps, Time: t, Reaction: n.reactions[chosen].Name(), Err: err}
		}
		traj.append(t, temp, reg.Snapshot())

		if progressEvery > 0 && traj.Steps%progressEvery == 0 {
			slog.Debug("ssa progress", "step", traj.Steps, "time", t, "temperature", temp, "total_propensity", total)
		}
	}

	slog.Debug("ssa finished", "trajectory", traj)
	return traj, nil
}

// selectReaction returns the first index whose cumulative propensity exceeds
// target. If roundoff leaves the scan without a hit, the last channel with
// positive propensity is used.
func selectReaction(alphas []float64, target float64) int {
	var z float64
	last := -1
	for i, a := range alphas {
		if a > 0 {
			last = i
		}
		z += a
		if target < z {
			return i
		}
	}
	return last
}
