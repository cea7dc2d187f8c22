package config

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// LoadBreakpointsCSV reads a temperature schedule from a CSV file with
// time and temperature columns.
func LoadBreakpointsCSV(path string) ([]BreakpointConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening breakpoint file: %w", err)
	}
	defer f.Close()

	var bps []BreakpointConfig
	if err := gocsv.UnmarshalFile(f, &bps); err != nil {
		return nil, fmt.Errorf("parsing breakpoint file %s: %w", path, err)
	}
	return bps, nil
}

// WriteBreakpointsCSV writes a schedule in the format LoadBreakpointsCSV reads.
func WriteBreakpointsCSV(path string, bps []BreakpointConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating breakpoint file: %w", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&bps, f); err != nil {
		return fmt.Errorf("writing breakpoint file: %w", err)
	}
	return nil
}
