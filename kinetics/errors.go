package kinetics

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by this package wraps one of them.
var (
	// ErrInvalidState indicates a mutation that would leave the registry in an
	// impossible state, such as a negative species count. It points at a
	// modeling bug upstream and is never recovered inside the engine.
	ErrInvalidState = errors.New("kinetics: invalid state")

	// ErrConfig indicates a malformed network or temperature schedule, detected
	// before simulation starts.
	ErrConfig = errors.New("kinetics: invalid configuration")
)

// StateError reports an attempt to take more units of a species than it holds.
type StateError struct {
	Species string
	Count   int64
	Want    int64
}

func (e *StateError) Error() string {
	return fmt.Sprintf("kinetics: cannot destroy %d of species %q with count %d", e.Want, e.Species, e.Count)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// ConfigError reports a validation failure on a named field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "kinetics: " + e.Reason
	}
	return fmt.Sprintf("kinetics: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SimulationError wraps a failure raised mid-run with the step context it
// happened in.
type SimulationError struct {
	Step     int
	Time     float64
	Reaction string
	Err      error
}

func (e *SimulationError) Error() string {
	if e.Reaction == "" {
		return fmt.Sprintf("step %d (t=%g): %v", e.Step, e.Time, e.Err)
	}
	return fmt.Sprintf("step %d (t=%g) reaction %q: %v", e.Step, e.Time, e.Reaction, e.Err)
}

func (e *SimulationError) Unwrap() error { return e.Err }
