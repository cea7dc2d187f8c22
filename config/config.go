// Package config provides configuration loading for heat-shock kinetics runs.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds a model definition and the parameters of a run.
type Config struct {
	Model       ModelConfig       `yaml:"model"`
	Temperature TemperatureConfig `yaml:"temperature"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ModelConfig describes a reaction network.
type ModelConfig struct {
	Name      string           `yaml:"name"`
	Species   []SpeciesConfig  `yaml:"species"`
	Reactions []ReactionConfig `yaml:"reactions"`
}

// SpeciesConfig declares a species and its initial count.
type SpeciesConfig struct {
	Name  string `yaml:"name"`
	Count int64  `yaml:"count"`
}

// ReactionConfig declares one reaction channel. Inputs and Outputs are
// positional; see Kinds for the role of each slot.
type ReactionConfig struct {
	Name    string         `yaml:"name"`
	Kind    string         `yaml:"kind"`
	Inputs  []string       `yaml:"inputs,omitempty"`
	Outputs []string       `yaml:"outputs,omitempty"`
	Rate    float64        `yaml:"rate"`
	Thermal ThermalConfig  `yaml:"thermal,omitempty"`
	Options map[string]any `yaml:"options,omitempty"` // kind-specific, see model package
}

// ThermalConfig selects how the rate constant scales with temperature.
type ThermalConfig struct {
	Law        string  `yaml:"law,omitempty"`        // none, linear, quadratic, arrhenius
	Activation float64 `yaml:"activation,omitempty"` // arrhenius Ea (dimensionless)
	Reference  float64 `yaml:"reference,omitempty"`  // arrhenius reference temperature
	Scale      float64 `yaml:"scale,omitempty"`      // linear/quadratic coefficient, 0 means 1
}

// TemperatureConfig defines the step temperature schedule.
type TemperatureConfig struct {
	Ambient     float64            `yaml:"ambient"`
	Breakpoints []BreakpointConfig `yaml:"breakpoints"`
	File        string             `yaml:"file"`
}

// BreakpointConfig sets the temperature from Time onward.
type BreakpointConfig struct {
	Time        float64 `yaml:"time" csv:"time"`
	Temperature float64 `yaml:"temperature" csv:"temperature"`
}

// SimulationConfig holds the run interval and replicate settings.
type SimulationConfig struct {
	TStart           float64 `yaml:"t_start"`
	TEnd             float64 `yaml:"t_end"`
	Seed             uint64  `yaml:"seed"`
	Replicates       int     `yaml:"replicates"`
	Workers          int     `yaml:"workers"`
	BurnIn           float64 `yaml:"burn_in"`
	ProgressInterval int     `yaml:"progress_interval"`
}

// OutputConfig holds result destinations.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	Database     string `yaml:"database"`
	Trajectories bool   `yaml:"trajectories"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds the prometheus listener address.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	SpeciesIndex map[string]int    // name -> registration index
	Breakpoints  []BreakpointConfig // effective schedule (file or inline)
	Source       string             // path the config was loaded from, "" for defaults
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		cfg.Derived.Source = path
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived fills per-kind defaults and resolves the breakpoint file.
func (c *Config) computeDerived() error {
	if c.Simulation.Replicates < 1 {
		c.Simulation.Replicates = 1
	}

	for i := range c.Model.Reactions {
		rc := &c.Model.Reactions[i]
		if rc.Thermal.Law == "" {
			if spec, ok := Kinds[rc.Kind]; ok {
				rc.Thermal.Law = spec.DefaultThermal
			}
		}
		if rc.Thermal.Law == ThermalArrhenius && rc.Thermal.Reference == 0 {
			rc.Thermal.Reference = c.Temperature.Ambient
		}
	}

	c.Derived.SpeciesIndex = make(map[string]int, len(c.Model.Species))
	for i, sp := range c.Model.Species {
		c.Derived.SpeciesIndex[sp.Name] = i
	}

	c.Derived.Breakpoints = c.Temperature.Breakpoints
	if c.Temperature.File != "" {
		path := c.Temperature.File
		if !filepath.IsAbs(path) && c.Derived.Source != "" {
			path = filepath.Join(filepath.Dir(c.Derived.Source), path)
		}
		bps, err := LoadBreakpointsCSV(path)
		if err != nil {
			return err
		}
		c.Derived.Breakpoints = bps
	}
	return nil
}

// Validate reports every structural problem in the model and run settings.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(c.Model.Species) == 0 {
		add("model.species: at least one species is required")
	}
	seen := make(map[string]bool, len(c.Model.Species))
	for i, sp := range c.Model.Species {
		switch {
		case sp.Name == "":
			add("model.species[%d]: name is required", i)
		case seen[sp.Name]:
			add("model.species[%d]: duplicate name %q", i, sp.Name)
		}
		seen[sp.Name] = true
		if sp.Count < 0 {
			add("model.species[%d] %q: count %d is negative", i, sp.Name, sp.Count)
		}
	}

	if len(c.Model.Reactions) == 0 {
		add("model.reactions: at least one reaction is required")
	}
	for i, rc := range c.Model.Reactions {
		where := fmt.Sprintf("model.reactions[%d] %q", i, rc.Name)
		spec, ok := Kinds[rc.Kind]
		if !ok {
			add("%s: unknown kind %q", where, rc.Kind)
			continue
		}
		if len(rc.Inputs) < spec.Inputs {
			add("%s: kind %s needs %d inputs, got %d", where, rc.Kind, spec.Inputs, len(rc.Inputs))
		}
		if len(rc.Outputs) < spec.Outputs {
			add("%s: kind %s needs %d outputs, got %d", where, rc.Kind, spec.Outputs, len(rc.Outputs))
		}
		for _, name := range append(append([]string{}, rc.Inputs...), rc.Outputs...) {
			if !seen[name] {
				add("%s: unknown species %q", where, name)
			}
		}
		if rc.Rate < 0 || math.IsNaN(rc.Rate) || math.IsInf(rc.Rate, 0) {
			add("%s: rate must be finite and non-negative, got %g", where, rc.Rate)
		}
		if _, ok := thermalLaws[rc.Thermal.Law]; !ok {
			add("%s: unknown thermal law %q", where, rc.Thermal.Law)
		}
		if sc := rc.Thermal.Scale; sc != 0 {
			switch {
			case rc.Thermal.Law != ThermalLinear && rc.Thermal.Law != ThermalQuadratic:
				add("%s: thermal scale applies only to linear and quadratic laws", where)
			case sc < 0 || math.IsNaN(sc) || math.IsInf(sc, 0):
				add("%s: thermal scale must be finite and positive, got %g", where, sc)
			}
		}
	}

	if amb := c.Temperature.Ambient; !(amb > 0) || math.IsInf(amb, 0) {
		add("temperature.ambient: must be a positive temperature in kelvin, got %g", amb)
	}

	if !(c.Simulation.TEnd > c.Simulation.TStart) {
		add("simulation: t_end (%g) must exceed t_start (%g)", c.Simulation.TEnd, c.Simulation.TStart)
	}
	if c.Simulation.Workers < 0 {
		add("simulation.workers: must not be negative")
	}
	if c.Simulation.BurnIn < 0 {
		add("simulation.burn_in: must not be negative")
	}
	if c.Simulation.BurnIn >= c.Simulation.TEnd {
		add("simulation.burn_in (%g) must be below t_end (%g)", c.Simulation.BurnIn, c.Simulation.TEnd)
	}

	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Clone returns a deep copy suitable for per-evaluation edits.
func (c *Config) Clone() (*Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("parsing config copy: %w", err)
	}
	out.Derived.Source = c.Derived.Source
	// Breakpoints already resolved; avoid re-reading the file.
	out.Temperature.File = ""
	out.Temperature.Breakpoints = c.Derived.Breakpoints
	if err := out.computeDerived(); err != nil {
		return nil, err
	}
	return out, nil
}

// Reaction returns the reaction config with the given name.
func (c *Config) Reaction(name string) (*ReactionConfig, bool) {
	for i := range c.Model.Reactions {
		if c.Model.Reactions[i].Name == name {
			return &c.Model.Reactions[i], true
		}
	}
	return nil, false
}
