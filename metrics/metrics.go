// Package metrics exports ensemble progress as prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm-cable/heatshock/ensemble"
)

// Recorder counts completed replicates. It implements ensemble.Observer.
type Recorder struct {
	runs          *prometheus.CounterVec
	steps         prometheus.Counter
	duration      prometheus.Histogram
	simulatedTime prometheus.Counter
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heatshock_ssa_runs_total",
				Help: "Completed trajectories by termination reason.",
			},
			[]string{"termination"},
		),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heatshock_ssa_steps_total",
			Help: "Reaction events fired across all trajectories.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heatshock_ssa_run_duration_seconds",
			Help:    "Wall-clock time per trajectory.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		simulatedTime: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heatshock_ssa_simulated_time",
			Help: "Simulated time covered by completed trajectories.",
		}),
	}
	for _, c := range []prometheus.Collector{r.runs, r.steps, r.duration, r.simulatedTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveRun records one completed replicate.
func (r *Recorder) ObserveRun(res ensemble.Result) {
	traj := res.Trajectory
	r.runs.WithLabelValues(string(traj.Termination)).Inc()
	r.steps.Add(float64(traj.Steps))
	r.duration.Observe(res.Elapsed.Seconds())
	if n := traj.Len(); n > 0 {
		r.simulatedTime.Add(traj.Records[n-1].Time - traj.Records[0].Time)
	}
}

// Handler serves the metrics of g at /metrics.
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	srv := &http.Server{Addr: addr, Handler: Handler(g), ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		slog.Info("metrics listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
