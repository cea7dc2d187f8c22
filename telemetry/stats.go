package telemetry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/heatshock/kinetics"
)

// ErrNoData is returned when a window holds no simulated time.
var ErrNoData = errors.New("telemetry: no data in window")

// Moments are dwell-time weighted statistics of one species count.
type Moments struct {
	Mean     float64
	Variance float64
	Weight   float64 // total simulated time covered
}

// Fano returns the variance-to-mean ratio, or 0 when the mean is 0.
func (m Moments) Fano() float64 {
	if m.Mean == 0 {
		return 0
	}
	return m.Variance / m.Mean
}

// Dwell returns the count of species id in each record together with the
// simulated time it was held inside [from, until]. A record's state holds
// until the next record; the last state holds until `until`.
func Dwell(traj *kinetics.Trajectory, id kinetics.SpeciesID, from, until float64) (values, weights []float64) {
	n := len(traj.Records)
	for i, rec := range traj.Records {
		start := rec.Time
		end := until
		if i+1 < n {
			end = traj.Records[i+1].Time
		}
		start = max(start, from)
		end = min(end, until)
		if end <= start {
			continue
		}
		values = append(values, float64(rec.Counts[id]))
		weights = append(weights, end-start)
	}
	return values, weights
}

// TimeWeighted returns the dwell-weighted moments of one species in [from, until].
func TimeWeighted(traj *kinetics.Trajectory, name string, from, until float64) (Moments, error) {
	return Pool([]*kinetics.Trajectory{traj}, name, from, until)
}

// Pool combines the dwell samples of several trajectories and returns their
// weighted moments. Variance is the weighted population variance.
func Pool(trajs []*kinetics.Trajectory, name string, from, until float64) (Moments, error) {
	var xs, ws []float64
	for i, traj := range trajs {
		id, ok := traj.SpeciesIndex(name)
		if !ok {
			return Moments{}, fmt.Errorf("telemetry: trajectory %d has no species %q", i, name)
		}
		x, w := Dwell(traj, id, from, until)
		xs = append(xs, x...)
		ws = append(ws, w...)
	}
	if len(xs) == 0 {
		return Moments{}, fmt.Errorf("species %q in [%g, %g]: %w", name, from, until, ErrNoData)
	}
	return Moments{
		Mean:     stat.Mean(xs, ws),
		Variance: stat.Moment(2, xs, ws),
		Weight:   floats.Sum(ws),
	}, nil
}

// SpeciesSummary is one row of summary.csv.
type SpeciesSummary struct {
	Replicate int     `csv:"replicate"`
	Seed      uint64  `csv:"seed"`
	Species   string  `csv:"species"`
	Mean      float64 `csv:"mean"`
	Variance  float64 `csv:"variance"`
	Fano      float64 `csv:"fano"`
	Min       float64 `csv:"min"`
	Max       float64 `csv:"max"`
	Final     int64   `csv:"final"`
	Steps     int     `csv:"steps"`
	EndTime   float64 `csv:"end_time"`
	Outcome   string  `csv:"termination"`
}

// Summarize computes one SpeciesSummary per species over [from, until].
// Species with no dwell time in the window are reported with zero moments.
func Summarize(traj *kinetics.Trajectory, replicate int, seed uint64, from, until float64) []SpeciesSummary {
	final := traj.Final()
	out := make([]SpeciesSummary, len(traj.Species))
	for i, name := range traj.Species {
		s := SpeciesSummary{
			Replicate: replicate,
			Seed:      seed,
			Species:   name,
			Final:     final.Counts[i],
			Steps:     traj.Steps,
			EndTime:   final.Time,
			Outcome:   string(traj.Termination),
		}
		x, w := Dwell(traj, kinetics.SpeciesID(i), from, until)
		if len(x) > 0 {
			s.Mean = stat.Mean(x, w)
			s.Variance = stat.Moment(2, x, w)
			s.Fano = Moments{Mean: s.Mean, Variance: s.Variance}.Fano()
			s.Min = floats.Min(x)
			s.Max = floats.Max(x)
		}
		out[i] = s
	}
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s SpeciesSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("replicate", s.Replicate),
		slog.String("species", s.Species),
		slog.Float64("mean", s.Mean),
		slog.Float64("variance", s.Variance),
		slog.Float64("fano", s.Fano),
		slog.Int64("final", s.Final),
	)
}

// EnsembleSummary aggregates one species across replicates.
type EnsembleSummary struct {
	Species    string  `csv:"species"`
	Replicates int     `csv:"replicates"`
	Mean       float64 `csv:"mean"`
	Variance   float64 `csv:"variance"`
	Fano       float64 `csv:"fano"`
	FinalMean  float64 `csv:"final_mean"`
	FinalStd   float64 `csv:"final_std"`
	FinalP10   float64 `csv:"final_p10"`
	FinalP50   float64 `csv:"final_p50"`
	FinalP90   float64 `csv:"final_p90"`
}

// Ensemble pools every species across trajectories that share a species list.
func Ensemble(trajs []*kinetics.Trajectory, from, until float64) ([]EnsembleSummary, error) {
	if len(trajs) == 0 {
		return nil, ErrNoData
	}
	species := trajs[0].Species
	out := make([]EnsembleSummary, 0, len(species))
	for i, name := range species {
		m, err := Pool(trajs, name, from, until)
		if err != nil {
			return nil, err
		}

		finals := make([]float64, len(trajs))
		for j, traj := range trajs {
			finals[j] = float64(traj.Final().Counts[i])
		}
		sort.Float64s(finals)

		e := EnsembleSummary{
			Species:    name,
			Replicates: len(trajs),
			Mean:       m.Mean,
			Variance:   m.Variance,
			Fano:       m.Fano(),
			FinalP10:   stat.Quantile(0.10, stat.Empirical, finals, nil),
			FinalP50:   stat.Quantile(0.50, stat.Empirical, finals, nil),
			FinalP90:   stat.Quantile(0.90, stat.Empirical, finals, nil),
		}
		if len(finals) > 1 {
			e.FinalMean, e.FinalStd = stat.MeanStdDev(finals, nil)
		} else {
			e.FinalMean = finals[0]
		}
		out = append(out, e)
	}
	return out, nil
}

// LogValue implements slog.LogValuer for structured logging.
func (e EnsembleSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("species", e.Species),
		slog.Int("replicates", e.Replicates),
		slog.Float64("mean", e.Mean),
		slog.Float64("fano", e.Fano),
		slog.Float64("final_p50", e.FinalP50),
	)
}
