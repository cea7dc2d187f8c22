package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pthm-cable/heatshock/config"
)

// ParamSpec defines a single fittable rate constant.
type ParamSpec struct {
	Name    string  // Reaction name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value
}

// ParseParamSpec parses "reaction:min:max". The reaction name may itself
// contain colons; the bounds are always the last two fields.
func ParseParamSpec(s string) (ParamSpec, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return ParamSpec{}, fmt.Errorf("param %q: want reaction:min:max", s)
	}
	j := strings.LastIndex(s[:i], ":")
	if j <= 0 {
		return ParamSpec{}, fmt.Errorf("param %q: want reaction:min:max", s)
	}
	lo, err := strconv.ParseFloat(s[j+1:i], 64)
	if err != nil {
		return ParamSpec{}, fmt.Errorf("param %q: min: %w", s, err)
	}
	hi, err := strconv.ParseFloat(s[i+1:], 64)
	if err != nil {
		return ParamSpec{}, fmt.Errorf("param %q: max: %w", s, err)
	}
	if !(lo >= 0 && hi > lo) || math.IsInf(hi, 0) {
		return ParamSpec{}, fmt.Errorf("param %q: need 0 <= min < max", s)
	}
	return ParamSpec{Name: s[:j], Min: lo, Max: hi}, nil
}

// ParamVector holds the set of all fitted parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector binds specs to the reactions of cfg. Each default is the
// configured rate clamped into its bounds.
func NewParamVector(cfg *config.Config, specs []ParamSpec) (*ParamVector, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no parameters to fit")
	}
	pv := &ParamVector{Specs: make([]ParamSpec, len(specs))}
	for i, spec := range specs {
		rc, ok := cfg.Reaction(spec.Name)
		if !ok {
			return nil, fmt.Errorf("param %q: no such reaction", spec.Name)
		}
		spec.Default = min(max(rc.Rate, spec.Min), spec.Max)
		pv.Specs[i] = spec
	}
	return pv, nil
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into the matching reaction rates.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		rc, ok := cfg.Reaction(spec.Name)
		if !ok {
			return fmt.Errorf("param %q: no such reaction", spec.Name)
		}
		rc.Rate = clamped[i]
	}
	return nil
}

// ExtractFromConfig reads the current rates of the fitted reactions.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if rc, ok := cfg.Reaction(spec.Name); ok {
			v[i] = rc.Rate
		}
	}
	return v
}

// Target is the desired time-weighted mean count of a species.
type Target struct {
	Species string
	Value   float64
}

// ParseTarget parses "species=value".
func ParseTarget(s string) (Target, error) {
	name, val, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return Target{}, fmt.Errorf("target %q: want species=value", s)
	}
	v, err := strconv.ParseFloat(val, 64)
	if err != nil || v < 0 {
		return Target{}, fmt.Errorf("target %q: value must be a non-negative number", s)
	}
	return Target{Species: name, Value: v}, nil
}
