package storage

import (
	"encoding/json"
	"io"
	"path/filepath"
)

type ExportData struct {
	RunMetadata
	Times     []float64    `json:"times"`
	MinY      []float64    `json:"min_y"`
	Positions [][3]float64 `json:"positions"`
}

// ExportJSON writes a run's metadata, trace and final positions as one
// document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	times, minY, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}
	positions, err := s.LoadPositions(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Times:       times,
		MinY:        minY,
		Positions:   make([][3]float64, len(positions)),
	}
	for i, p := range positions {
		data.Positions[i] = p
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV copies the run's min-height trace to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	return copyFile(w, filepath.Join(s.Dir(runID), traceFile))
}

// ExportPositionsCSV copies the run's final positions to w.
func (s *Store) ExportPositionsCSV(w io.Writer, runID string) error {
	return copyFile(w, filepath.Join(s.Dir(runID), positionsFile))
}
