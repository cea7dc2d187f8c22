package telemetry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/heatshock/kinetics"
)

// stepTrajectory builds a one-species trajectory from (time, count) pairs.
func stepTrajectory(points ...[2]float64) *kinetics.Trajectory {
	traj := &kinetics.Trajectory{Species: []string{"X"}, Termination: kinetics.TerminatedHorizon}
	for _, p := range points {
		traj.Records = append(traj.Records, kinetics.Record{Time: p[0], Temperature: 298, Counts: []int64{int64(p[1])}})
	}
	traj.Steps = len(points) - 1
	return traj
}

func TestDwell(t *testing.T) {
	traj := stepTrajectory([2]float64{0, 1}, [2]float64{2, 3}, [2]float64{5, 0}, [2]float64{11, 4})

	tests := []struct {
		name        string
		from, until float64
		values      []float64
		weights     []float64
	}{
		{"whole run", 0, 10, []float64{1, 3, 0}, []float64{2, 3, 5}},
		{"burn-in clips first state", 1, 10, []float64{1, 3, 0}, []float64{1, 3, 5}},
		{"window inside one state", 6, 8, []float64{0}, []float64{2}},
		{"last state held to until", 11, 15, []float64{4}, []float64{4}},
		{"window before start", -5, -1, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, w := Dwell(traj, 0, tt.from, tt.until)
			assert.Equal(t, tt.values, x)
			assert.InDeltaSlice(t, tt.weights, w, 1e-12)
		})
	}
}

func TestTimeWeighted(t *testing.T) {
	// Two units at 0 and two at 4: mean 2, population variance 4.
	traj := stepTrajectory([2]float64{0, 0}, [2]float64{2, 4}, [2]float64{4, 4})
	m, err := TimeWeighted(traj, "X", 0, 4)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m.Mean, 1e-12)
	assert.InDelta(t, 4.0, m.Variance, 1e-12)
	assert.InDelta(t, 4.0, m.Weight, 1e-12)
	assert.InDelta(t, 2.0, m.Fano(), 1e-12)

	_, err = TimeWeighted(traj, "Y", 0, 4)
	assert.Error(t, err)

	_, err = TimeWeighted(traj, "X", -3, -1)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestPoolWeighsByTime(t *testing.T) {
	a := stepTrajectory([2]float64{0, 2})
	b := stepTrajectory([2]float64{0, 6})
	m, err := Pool([]*kinetics.Trajectory{a, b}, "X", 0, 10)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, m.Mean, 1e-12)
	assert.InDelta(t, 4.0, m.Variance, 1e-12)
	assert.InDelta(t, 20.0, m.Weight, 1e-12)
}

func TestFanoZeroMean(t *testing.T) {
	assert.Equal(t, 0.0, Moments{}.Fano())
}

func TestSummarize(t *testing.T) {
	traj := stepTrajectory([2]float64{0, 1}, [2]float64{2, 3}, [2]float64{5, 0}, [2]float64{11, 4})
	rows := Summarize(traj, 3, 42, 0, 10)
	require.Len(t, rows, 1)

	s := rows[0]
	assert.Equal(t, 3, s.Replicate)
	assert.Equal(t, uint64(42), s.Seed)
	assert.Equal(t, "X", s.Species)
	assert.InDelta(t, (1*2+3*3+0*5)/10.0, s.Mean, 1e-12)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.Equal(t, int64(4), s.Final)
	assert.Equal(t, 3, s.Steps)
	assert.Equal(t, 11.0, s.EndTime)
	assert.Equal(t, "horizon", s.Outcome)
}

func TestEnsemble(t *testing.T) {
	trajs := []*kinetics.Trajectory{
		stepTrajectory([2]float64{0, 2}, [2]float64{5, 1}),
		stepTrajectory([2]float64{0, 2}, [2]float64{5, 3}),
		stepTrajectory([2]float64{0, 2}, [2]float64{5, 5}),
	}
	rows, err := Ensemble(trajs, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	e := rows[0]
	assert.Equal(t, 3, e.Replicates)
	assert.InDelta(t, 2.5, e.Mean, 1e-12)
	assert.InDelta(t, 3.0, e.FinalMean, 1e-12)
	assert.InDelta(t, 2.0, e.FinalStd, 1e-12)
	assert.Equal(t, 3.0, e.FinalP50)

	_, err = Ensemble(nil, 0, 10)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestKolmogorovSmirnov(t *testing.T) {
	uniform := func(x float64) float64 { return math.Min(math.Max(x, 0), 1) }

	d := KolmogorovSmirnov([]float64{0.1, 0.3, 0.5, 0.7, 0.9}, uniform)
	assert.InDelta(t, 0.1, d, 1e-12)

	d = KolmogorovSmirnov([]float64{0.9, 0.95, 0.99}, uniform)
	assert.Greater(t, d, KSCritical(3, 0.05))

	assert.Equal(t, 0.0, KolmogorovSmirnov(nil, uniform))
}

func TestKSCritical(t *testing.T) {
	// Tabulated asymptotic values: 1.358/sqrt(n) at 5%, 1.628/sqrt(n) at 1%.
	assert.InDelta(t, 1.358/10, KSCritical(100, 0.05), 1e-3)
	assert.InDelta(t, 1.628/10, KSCritical(100, 0.01), 1e-3)
	assert.True(t, math.IsInf(KSCritical(0, 0.05), 1))
}
