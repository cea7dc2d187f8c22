package ensemble

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/heatshock/kinetics"
)

func lemmings(t *testing.T) *kinetics.Network {
	t.Helper()
	net := kinetics.NewNetwork()
	l := net.MustSpecies("L", 0)
	net.AddReaction(&kinetics.Production{Label: "arrival", Output: l, Rate: 1})
	net.AddReaction(&kinetics.Degradation{Label: "jump", Input: l, Rate: 0.1})
	return net
}

type collector struct {
	mu   sync.Mutex
	seen []int
}

func (c *collector) ObserveRun(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, r.Replicate)
}

func TestRunOrdersResults(t *testing.T) {
	net := lemmings(t)
	obs := &collector{}

	results, err := Run(context.Background(), net, kinetics.Ambient(298), Options{
		Replicates: 8,
		Seed:       7,
		Workers:    3,
		TEnd:       20,
	}, obs)
	require.NoError(t, err)
	require.Len(t, results, 8)

	for i, r := range results {
		assert.Equal(t, i, r.Replicate)
		assert.Equal(t, uint64(i), r.Stream)
		assert.Equal(t, uint64(7), r.Seed)
		require.NotNil(t, r.Trajectory)
		assert.Greater(t, r.Trajectory.Final().Time, 20.0)
	}
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, obs.seen)

	// The template keeps its initial state.
	assert.Equal(t, []int64{0}, net.Registry().Snapshot())
}

func TestRunReplicateIsReproducible(t *testing.T) {
	net := lemmings(t)
	results, err := Run(context.Background(), net, nil, Options{Replicates: 4, Seed: 99, Workers: 4, TEnd: 10})
	require.NoError(t, err)

	// Replicate 2 alone, from its own stream.
	traj, err := net.Clone().Simulate(0, 10, nil, kinetics.NewSource(99, 2))
	require.NoError(t, err)
	assert.Equal(t, traj.Records, results[2].Trajectory.Records)
	assert.NotEqual(t, results[1].Trajectory.Records, results[2].Trajectory.Records)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, lemmings(t), nil, Options{Replicates: 4, TEnd: 10})
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

func TestRunValidates(t *testing.T) {
	_, err := Run(context.Background(), lemmings(t), nil, Options{Replicates: 0, TEnd: 10})
	assert.ErrorIs(t, err, kinetics.ErrConfig)

	_, err = Run(context.Background(), kinetics.NewNetwork(), nil, Options{Replicates: 1, TEnd: 10})
	assert.ErrorIs(t, err, kinetics.ErrConfig)

	_, err = Run(context.Background(), lemmings(t), nil, Options{Replicates: 2, TStart: 5, TEnd: 1})
	assert.ErrorIs(t, err, kinetics.ErrConfig)
}

func TestObserverFunc(t *testing.T) {
	var n int
	_, err := Run(context.Background(), lemmings(t), nil, Options{Replicates: 3, Workers: 1, TEnd: 5},
		ObserverFunc(func(Result) { n++ }))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, Trajectories([]Result{{}, {}}), 2)
}
