// Package ensemble runs independent replicates of a network concurrently.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/heatshock/kinetics"
)

// Options configure an ensemble run.
type Options struct {
	Replicates int
	Seed       uint64
	Workers    int // 0 means GOMAXPROCS
	TStart     float64
	TEnd       float64
}

// Result is one completed replicate. Replicate i always draws from stream i
// of Seed, so a result can be reproduced on its own.
type Result struct {
	Replicate  int
	Seed       uint64
	Stream     uint64
	Trajectory *kinetics.Trajectory
	Elapsed    time.Duration
}

// Observer receives each completed replicate. Calls are serialized but
// arrive in completion order, not replicate order.
type Observer interface {
	ObserveRun(Result)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Result)

func (f ObserverFunc) ObserveRun(r Result) { f(r) }

// Run simulates opts.Replicates clones of net on a bounded pool and returns
// the results ordered by replicate. net itself is never simulated.
//
// Cancelling ctx stops new replicates from starting; a replicate already in
// progress runs to completion. The first simulation error cancels the rest.
func Run(ctx context.Context, net *kinetics.Network, profile kinetics.Profile, opts Options, observers ...Observer) ([]Result, error) {
	if opts.Replicates < 1 {
		return nil, &kinetics.ConfigError{Field: "replicates", Reason: fmt.Sprintf("need at least 1, got %d", opts.Replicates)}
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, opts.Replicates)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range opts.Replicates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stream := uint64(i)
			start := time.Now()
			traj, err := net.Clone().Simulate(opts.TStart, opts.TEnd, profile, kinetics.NewSource(opts.Seed, stream))
			if err != nil {
				return fmt.Errorf("replicate %d: %w", i, err)
			}
			res := Result{
				Replicate:  i,
				Seed:       opts.Seed,
				Stream:     stream,
				Trajectory: traj,
				Elapsed:    time.Since(start),
			}
			results[i] = res

			slog.Debug("replicate finished",
				"replicate", i,
				"steps", traj.Steps,
				"termination", traj.Termination,
				"elapsed", res.Elapsed,
			)

			mu.Lock()
			defer mu.Unlock()
			for _, o := range observers {
				o.ObserveRun(res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancellation that stopped scheduling early leaves gaps.
	for _, r := range results {
		if r.Trajectory == nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, context.Canceled
		}
	}
	return results, nil
}

// Trajectories returns the trajectories of results in order.
func Trajectories(results []Result) []*kinetics.Trajectory {
	out := make([]*kinetics.Trajectory, len(results))
	for i, r := range results {
		out[i] = r.Trajectory
	}
	return out
}

// IsCanceled reports whether err came from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
