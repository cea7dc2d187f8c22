package kinetics

import "log/slog"

// Termination records why a run stopped.
type Termination string

const (
	// TerminatedHorizon means simulated time passed the end of the interval.
	TerminatedHorizon Termination = "horizon"
	// TerminatedAbsorbed means every propensity reached zero.
	TerminatedAbsorbed Termination = "absorbed"
)

// Record is one row of a trajectory.
type Record struct {
	Time        float64
	Temperature float64
	Counts      []int64
}

// Trajectory is the append-only output of one simulation run. Column order is
// time, temperature, then species in network registration order.
type Trajectory struct {
	Species     []string
	Records     []Record
	Steps       int
	Termination Termination
}

func newTrajectory(species []string) *Trajectory {
	return &Trajectory{
		Species: species,
		Records: make([]Record, 0, 1024),
	}
}

func (tr *Trajectory) append(t, temperature float64, counts []int64) {
	tr.Records = append(tr.Records, Record{Time: t, Temperature: temperature, Counts: counts})
}

// Len returns the number of records.
func (tr *Trajectory) Len() int { return len(tr.Records) }

// Header returns the column names.
func (tr *Trajectory) Header() []string {
	h := make([]string, 0, len(tr.Species)+2)
	h = append(h, "time", "temperature")
	return append(h, tr.Species...)
}

// Row returns record i as a flat numeric row matching Header.
func (tr *Trajectory) Row(i int) []float64 {
	rec := tr.Records[i]
	row := make([]float64, 0, len(rec.Counts)+2)
	row = append(row, rec.Time, rec.Temperature)
	for _, c := range rec.Counts {
		row = append(row, float64(c))
	}
	return row
}

// Times returns the time column.
func (tr *Trajectory) Times() []float64 {
	out := make([]float64, len(tr.Records))
	for i, rec := range tr.Records {
		out[i] = rec.Time
	}
	return out
}

// Temperatures returns the temperature column.
func (tr *Trajectory) Temperatures() []float64 {
	out := make([]float64, len(tr.Records))
	for i, rec := range tr.Records {
		out[i] = rec.Temperature
	}
	return out
}

// Column returns the counts of one species as floats.
func (tr *Trajectory) Column(id SpeciesID) []float64 {
	out := make([]float64, len(tr.Records))
	for i, rec := range tr.Records {
		out[i] = float64(rec.Counts[id])
	}
	return out
}

// SpeciesIndex resolves a species name to its column handle.
func (tr *Trajectory) SpeciesIndex(name string) (SpeciesID, bool) {
	for i, n := range tr.Species {
		if n == name {
			return SpeciesID(i), true
		}
	}
	return 0, false
}

// Final returns the last record. It panics on an empty trajectory, which
// Simulate never returns.
func (tr *Trajectory) Final() Record {
	return tr.Records[len(tr.Records)-1]
}

// InterEventTimes returns the waiting times between consecutive records.
func (tr *Trajectory) InterEventTimes() []float64 {
	if len(tr.Records) < 2 {
		return nil
	}
	out := make([]float64, len(tr.Records)-1)
	for i := 1; i < len(tr.Records); i++ {
		out[i-1] = tr.Records[i].Time - tr.Records[i-1].Time
	}
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (tr *Trajectory) LogValue() slog.Value {
	if len(tr.Records) == 0 {
		return slog.GroupValue(slog.Int("records", 0))
	}
	final := tr.Final()
	attrs := []slog.Attr{
		slog.Int("records", len(tr.Records)),
		slog.Int("steps", tr.Steps),
		slog.String("termination", string(tr.Termination)),
		slog.Float64("final_time", final.Time),
		slog.Float64("final_temperature", final.Temperature),
	}
	for i, name := range tr.Species {
		attrs = append(attrs, slog.Int64(name, final.Counts[i]))
	}
	return slog.GroupValue(attrs...)
}
