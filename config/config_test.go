package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "lemmings", cfg.Model.Name)
	require.Len(t, cfg.Model.Species, 1)
	assert.Equal(t, "L", cfg.Model.Species[0].Name)
	require.Len(t, cfg.Model.Reactions, 2)
	assert.Equal(t, KindProduction, cfg.Model.Reactions[0].Kind)
	assert.Equal(t, ThermalNone, cfg.Model.Reactions[0].Thermal.Law)
	assert.Equal(t, 298.0, cfg.Temperature.Ambient)
	assert.Equal(t, 200.0, cfg.Simulation.TEnd)
	assert.Equal(t, 1, cfg.Simulation.Replicates)
	assert.Equal(t, map[string]int{"L": 0}, cfg.Derived.SpeciesIndex)
	assert.Empty(t, cfg.Derived.Source)
}

func TestLoadOverlaysUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
simulation:
  t_end: 50
  seed: 7
logging:
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.Simulation.TEnd)
	assert.Equal(t, uint64(7), cfg.Simulation.Seed)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, "lemmings", cfg.Model.Name)
	assert.Equal(t, 500, cfg.Simulation.ProgressInterval)
	assert.Equal(t, path, cfg.Derived.Source)
}

func TestLoadExampleModels(t *testing.T) {
	tests := []struct {
		file        string
		species     int
		reactions   int
		breakpoints int
	}{
		{"lemmings.yaml", 1, 2, 0},
		{"reactivation.yaml", 4, 5, 3},
		{"pab1.yaml", 3, 4, 2},
		{"pab1_original.yaml", 3, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			cfg, err := Load(filepath.Join("..", "models", tt.file))
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			assert.Len(t, cfg.Model.Species, tt.species)
			assert.Len(t, cfg.Model.Reactions, tt.reactions)
			assert.Len(t, cfg.Derived.Breakpoints, tt.breakpoints)
		})
	}
}

func TestComputeDerivedThermalDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
model:
  name: dimers
  species:
    - {name: A, count: 10}
    - {name: AA, count: 0}
  reactions:
    - {name: dim, kind: dimerization, inputs: [A], outputs: [AA], rate: 0.001}
    - {name: hot, kind: degradation, inputs: [AA], rate: 0.1, thermal: {law: arrhenius, activation: 20}}
temperature:
  ambient: 303
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ThermalLinear, cfg.Model.Reactions[0].Thermal.Law)
	assert.Equal(t, ThermalArrhenius, cfg.Model.Reactions[1].Thermal.Law)
	assert.Equal(t, 303.0, cfg.Model.Reactions[1].Thermal.Reference)
}

func TestValidateReportsProblems(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown kind", `
model:
  reactions:
    - {name: x, kind: teleport, inputs: [L], rate: 1}
`, "unknown kind"},
		{"unknown species", `
model:
  reactions:
    - {name: x, kind: degradation, inputs: [Q], rate: 1}
`, "unknown species"},
		{"missing inputs", `
model:
  reactions:
    - {name: x, kind: catalyzed_conversion, inputs: [L], outputs: [L], rate: 1}
`, "needs 2 inputs"},
		{"negative rate", `
model:
  reactions:
    - {name: x, kind: degradation, inputs: [L], rate: -1}
`, "non-negative"},
		{"no reactions", `
model:
  reactions: []
`, "at least one reaction"},
		{"duplicate species", `
model:
  species:
    - {name: L, count: 1}
    - {name: L, count: 2}
`, "duplicate name"},
		{"bad interval", `
simulation:
  t_start: 10
  t_end: 5
`, "must exceed"},
		{"unknown thermal", `
model:
  reactions:
    - {name: x, kind: degradation, inputs: [L], rate: 1, thermal: {law: cubic}}
`, "unknown thermal law"},
		{"zero ambient", `
temperature:
  ambient: 0
`, "positive temperature in kelvin"},
		{"burn-in reaches end", `
simulation:
  t_end: 50
  burn_in: 50
`, "must be below t_end"},
		{"scale on arrhenius", `
model:
  reactions:
    - {name: x, kind: degradation, inputs: [L], rate: 1, thermal: {law: arrhenius, activation: 5, scale: 2}}
`, "applies only to linear and quadratic"},
		{"negative scale", `
model:
  reactions:
    - {name: x, kind: degradation, inputs: [L], rate: 1, thermal: {law: linear, scale: -0.5}}
`, "finite and positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExplicitZeroAmbientIsKept(t *testing.T) {
	cfg, err := Parse([]byte("temperature:\n  ambient: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Temperature.Ambient)
	assert.Error(t, cfg.Validate())
}

func TestThermalScaleParses(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "models", "reactivation.yaml"))
	require.NoError(t, err)
	rc, ok := cfg.Reaction("inactivation")
	require.True(t, ok)
	assert.Equal(t, ThermalConfig{Law: ThermalLinear, Scale: 0.09}, rc.Thermal)
	assert.Equal(t, 0.001, rc.Rate)
}

func TestWriteYAMLReloads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "models", "pab1.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Model, again.Model)
	assert.Equal(t, cfg.Derived.Breakpoints, again.Derived.Breakpoints)
}

func TestCloneIsIndependent(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "models", "reactivation.yaml"))
	require.NoError(t, err)

	cp, err := cfg.Clone()
	require.NoError(t, err)
	rc, ok := cp.Reaction("disaggregation")
	require.True(t, ok)
	rc.Rate = 99

	orig, ok := cfg.Reaction("disaggregation")
	require.True(t, ok)
	assert.Equal(t, 0.01, orig.Rate)
	assert.Equal(t, cfg.Derived.Breakpoints, cp.Derived.Breakpoints)

	_, ok = cfg.Reaction("missing")
	assert.False(t, ok)
}

func TestBreakpointsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.csv")
	want := []BreakpointConfig{{Time: 1, Temperature: 310}, {Time: 5.5, Temperature: 320}}
	require.NoError(t, WriteBreakpointsCSV(path, want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "time,temperature"))

	got, err := LoadBreakpointsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = LoadBreakpointsCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
