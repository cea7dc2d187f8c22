package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/heatshock/config"
	"github.com/pthm-cable/heatshock/kinetics"
)

func loadModel(t *testing.T, name string) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join("..", "models", name))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestBuildReactivation(t *testing.T) {
	cfg := loadModel(t, "reactivation.yaml")
	net, sched, err := Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "AA", "iAA", "C"}, net.Species())
	for name, idx := range cfg.Derived.SpeciesIndex {
		id, ok := net.Registry().Lookup(name)
		require.True(t, ok)
		assert.Equal(t, kinetics.SpeciesID(idx), id)
	}

	rs := net.Reactions()
	require.Len(t, rs, 5)
	assert.IsType(t, &kinetics.SurfaceInactivation{}, rs[0])
	assert.IsType(t, &kinetics.Dimerization{}, rs[4])

	cat, ok := rs[1].(*kinetics.CatalyzedConversion)
	require.True(t, ok)
	assert.Equal(t, int64(2), cat.Yield)
	assert.Equal(t, "disaggregation", cat.Name())

	dim := rs[4].(*kinetics.Dimerization)
	assert.Equal(t, kinetics.Linear{Scale: 0.09}, dim.Thermal)

	assert.Equal(t, 298.0, sched.TemperatureAt(0))
	assert.Equal(t, 303.0, sched.TemperatureAt(10))
	assert.Equal(t, 317.0, sched.TemperatureAt(30))
	assert.Equal(t, 303.0, sched.TemperatureAt(90))
}

func TestReactivationPropensities(t *testing.T) {
	net, _, err := Build(loadModel(t, "reactivation.yaml"))
	require.NoError(t, err)
	reg := net.Registry()
	id := func(name string) kinetics.SpeciesID {
		sid, ok := reg.Lookup(name)
		require.True(t, ok)
		return sid
	}
	aa, iaa := id("AA"), id("iAA")
	rs := net.Reactions()
	inact, dim := rs[0], rs[4]

	// Dimerization: 0.09·k·T·A·(A−1) with k = 1e-5, A = 100.
	assert.InDelta(t, 0.09*1e-5*298*100*99, dim.Propensity(reg, 298), 1e-9)

	require.NoError(t, reg.Set(aa, 10))

	// No aggregate yet: nucleation at k·AA, independent of T.
	require.NoError(t, reg.Set(iaa, 0))
	assert.InDelta(t, 0.01, inact.Propensity(reg, 298), 1e-12)
	assert.InDelta(t, 0.01, inact.Propensity(reg, 317), 1e-12)

	// Growth: k·AA·0.09·T·√iAA.
	require.NoError(t, reg.Set(iaa, 4))
	assert.InDelta(t, 0.001*10*298*0.09*2, inact.Propensity(reg, 298), 1e-9)
}

func TestBuildPab1Original(t *testing.T) {
	cfg := loadModel(t, "pab1_original.yaml")
	net, sched, err := Build(cfg)
	require.NoError(t, err)
	reg := net.Registry()
	temp := sched.TemperatureAt(0)
	assert.Equal(t, 1.0, temp)
	assert.Equal(t, 298.0, sched.AmbientTemperature())

	// Pab1 = 100, Chaperone = 50, iPab1 = 0.
	rs := net.Reactions()
	want := []float64{0.1 * 100, 0, 1 * 100, 0.1 * 50}
	for i, r := range rs {
		assert.InDelta(t, want[i], r.Propensity(reg, temp), 1e-12, r.Name())
	}

	ipab1, _ := reg.Lookup("iPab1")
	require.NoError(t, reg.Set(ipab1, 7))
	assert.InDelta(t, 0.1*7, rs[1].Propensity(reg, temp), 1e-12)
}

func TestBuildPab1(t *testing.T) {
	cfg := loadModel(t, "pab1.yaml")
	net, sched, err := Build(cfg)
	require.NoError(t, err)

	rs := net.Reactions()
	agg := rs[0].(*kinetics.Conversion)
	assert.Equal(t, kinetics.Arrhenius{Activation: 50, Reference: 303}, agg.Thermal)
	cat := rs[1].(*kinetics.CatalyzedConversion)
	assert.True(t, cat.CatalystOrder)
	inv := rs[2].(*kinetics.InverseProduction)
	pab1, _ := net.Registry().Lookup("Pab1")
	assert.Equal(t, pab1, inv.Dependent)

	// Reference temperature gives a unit factor.
	assert.InDelta(t, 0.1*100, agg.Propensity(net.Registry(), sched.TemperatureAt(0)), 1e-9)
}

func TestBuildSetsProgressInterval(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Simulation.ProgressInterval = -1

	net, err := BuildNetwork(cfg)
	require.NoError(t, err)
	assert.Equal(t, -1, net.ProgressInterval)
}

func TestBuildRejectsBadReactions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown option", func(c *config.Config) {
			c.Model.Reactions[3].Options = map[string]any{"yield": 2}
		}},
		{"catalyst mismatch", func(c *config.Config) {
			rc, _ := c.Reaction("disaggregation")
			rc.Outputs = []string{"A", "AA"}
		}},
		{"misspelled option", func(c *config.Config) {
			rc, _ := c.Reaction("disaggregation")
			rc.Options = map[string]any{"yeild": 2}
		}},
		{"negative yield", func(c *config.Config) {
			rc, _ := c.Reaction("disaggregation")
			rc.Options = map[string]any{"yield": -1}
		}},
		{"unknown species", func(c *config.Config) {
			c.Model.Reactions[0].Inputs = []string{"Z"}
		}},
		{"unknown kind", func(c *config.Config) {
			c.Model.Reactions[0].Kind = "fusion"
		}},
		{"unknown thermal", func(c *config.Config) {
			c.Model.Reactions[0].Thermal.Law = "cubic"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadModel(t, "reactivation.yaml")
			tt.mutate(cfg)
			_, err := BuildNetwork(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, kinetics.ErrConfig)
		})
	}
}

func TestBuildRejectsUnsortedSchedule(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Derived.Breakpoints = []config.BreakpointConfig{{Time: 10, Temperature: 310}, {Time: 5, Temperature: 300}}

	_, _, err = Build(cfg)
	assert.ErrorIs(t, err, kinetics.ErrConfig)
}

func TestThermal(t *testing.T) {
	tests := []struct {
		law   string
		scale float64
		want  kinetics.Thermal
	}{
		{"", 0, kinetics.Isothermal{}},
		{config.ThermalNone, 0, kinetics.Isothermal{}},
		{config.ThermalLinear, 0, kinetics.Linear{}},
		{config.ThermalLinear, 0.09, kinetics.Linear{Scale: 0.09}},
		{config.ThermalQuadratic, 0, kinetics.Quadratic{}},
		{config.ThermalQuadratic, 2, kinetics.Quadratic{Scale: 2}},
	}
	for _, tt := range tests {
		got, err := Thermal(config.ThermalConfig{Law: tt.law, Scale: tt.scale})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSimulateBuiltLemmings(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	net, sched, err := Build(cfg)
	require.NoError(t, err)

	traj, err := net.Simulate(0, 50, sched, kinetics.NewSource(1, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"L"}, traj.Species)
	assert.Greater(t, traj.Steps, 0)
	assert.Greater(t, traj.Final().Time, 50.0)
}
