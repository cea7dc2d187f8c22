package kinetics

import (
	"math"
	"sort"
)

// Profile supplies the temperature at a simulated time.
type Profile interface {
	TemperatureAt(t float64) float64
}

// Breakpoint sets the temperature from Time onward.
type Breakpoint struct {
	Time        float64
	Temperature float64
}

// StepSchedule is a piecewise-constant temperature profile. Before the first
// breakpoint the ambient temperature applies.
type StepSchedule struct {
	ambient     float64
	breakpoints []Breakpoint
}

// NewStepSchedule validates and copies the breakpoints. They must already be
// in non-decreasing time order; unsorted input is rejected, not re-sorted.
func NewStepSchedule(ambient float64, breakpoints ...Breakpoint) (*StepSchedule, error) {
	if !finite(ambient) {
		return nil, configErrorf("temperature.ambient", "must be finite, got %g", ambient)
	}
	for i, bp := range breakpoints {
		if !finite(bp.Time) || !finite(bp.Temperature) {
			return nil, configErrorf("temperature.breakpoints", "breakpoint %d is not finite: (%g, %g)", i, bp.Time, bp.Temperature)
		}
		if i > 0 && bp.Time < breakpoints[i-1].Time {
			return nil, configErrorf("temperature.breakpoints", "breakpoint %d at t=%g precedes breakpoint %d at t=%g", i, bp.Time, i-1, breakpoints[i-1].Time)
		}
	}
	bps := make([]Breakpoint, len(breakpoints))
	copy(bps, breakpoints)
	return &StepSchedule{ambient: ambient, breakpoints: bps}, nil
}

// Ambient returns a schedule that holds temperature constant.
func Ambient(temperature float64) *StepSchedule {
	return &StepSchedule{ambient: temperature}
}

// TemperatureAt returns the temperature of the latest breakpoint at or before
// t, or the ambient temperature when t precedes every breakpoint.
func (s *StepSchedule) TemperatureAt(t float64) float64 {
	// First breakpoint strictly after t; the one before it is in effect.
	i := sort.Search(len(s.breakpoints), func(i int) bool {
		return s.breakpoints[i].Time > t
	})
	if i == 0 {
		return s.ambient
	}
	return s.breakpoints[i-1].Temperature
}

// AmbientTemperature returns the temperature before the first breakpoint.
func (s *StepSchedule) AmbientTemperature() float64 { return s.ambient }

// Breakpoints returns a copy of the breakpoints.
func (s *StepSchedule) Breakpoints() []Breakpoint {
	out := make([]Breakpoint, len(s.breakpoints))
	copy(out, s.breakpoints)
	return out
}

// Span returns the times of the first and last breakpoints. ok is false for
// a constant schedule.
func (s *StepSchedule) Span() (first, last float64, ok bool) {
	if len(s.breakpoints) == 0 {
		return 0, 0, false
	}
	return s.breakpoints[0].Time, s.breakpoints[len(s.breakpoints)-1].Time, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
