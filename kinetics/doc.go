// Package kinetics simulates discrete molecule populations with the Gillespie
// stochastic simulation algorithm under a time-varying temperature.
//
// A [Network] owns a [Registry] of species counts and an ordered list of
// [Reaction] channels. Reactions reference species through [SpeciesID]
// handles, so a catalyst shared by several channels is a single count.
// [Network.Simulate] advances the exact direct method, asking a [Profile]
// for the temperature at the start of every step and threading it into each
// propensity evaluation:
//
//	net := kinetics.NewNetwork()
//	l := net.MustSpecies("L", 0)
//	net.AddReaction(&kinetics.Production{Label: "arrival", Output: l, Rate: 1})
//	net.AddReaction(&kinetics.Degradation{Label: "jump", Input: l, Rate: 0.1})
//	traj, err := net.Simulate(0, 200, kinetics.Ambient(298), kinetics.NewSource(42, 0))
//
// Temperature dependence of a rate constant is a separate [Thermal] strategy
// ([Linear], [Quadratic], [Arrhenius]) so the formula variants used across
// heat-shock models stay selectable per reaction.
package kinetics
