package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/heatshock/config"
	"github.com/pthm-cable/heatshock/kinetics"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir         string
	summaryFile *os.File

	// Track if headers have been written
	summaryHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "summary.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating summary.csv: %w", err)
	}
	return &OutputManager{dir: dir, summaryFile: f}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// TrajectoryPath returns the file a replicate's trajectory is written to.
func (om *OutputManager) TrajectoryPath(replicate int) string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, fmt.Sprintf("trajectory_%03d.csv", replicate))
}

// WriteTrajectory writes a replicate's records to trajectory_<replicate>.csv.
func (om *OutputManager) WriteTrajectory(replicate int, traj *kinetics.Trajectory) error {
	if om == nil {
		return nil
	}
	f, err := os.Create(om.TrajectoryPath(replicate))
	if err != nil {
		return fmt.Errorf("creating trajectory file: %w", err)
	}
	if err := WriteTrajectoryTo(f, traj); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTrajectoryTo writes a header of time, temperature and species names
// followed by one row per record.
func WriteTrajectoryTo(w io.Writer, traj *kinetics.Trajectory) error {
	cw := gocsv.DefaultCSVWriter(w)
	if err := cw.Write(traj.Header()); err != nil {
		return fmt.Errorf("writing trajectory header: %w", err)
	}
	row := make([]string, 0, 2+len(traj.Species))
	for _, rec := range traj.Records {
		row = row[:0]
		row = append(row, formatFloat(rec.Time), formatFloat(rec.Temperature))
		for _, c := range rec.Counts {
			row = append(row, strconv.FormatInt(c, 10))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing trajectory: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing trajectory: %w", err)
	}
	return nil
}

// WriteSummary appends per-species rows to summary.csv.
func (om *OutputManager) WriteSummary(rows []SpeciesSummary) error {
	if om == nil || len(rows) == 0 {
		return nil
	}

	if !om.summaryHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(rows, om.summaryFile); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		om.summaryHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(rows, om.summaryFile); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}
	return nil
}

// WriteEnsemble writes ensemble.csv.
func (om *OutputManager) WriteEnsemble(rows []EnsembleSummary) error {
	if om == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, "ensemble.csv"))
	if err != nil {
		return fmt.Errorf("creating ensemble.csv: %w", err)
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return fmt.Errorf("writing ensemble: %w", err)
	}
	return f.Close()
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil || om.summaryFile == nil {
		return nil
	}
	err := om.summaryFile.Close()
	om.summaryFile = nil
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
