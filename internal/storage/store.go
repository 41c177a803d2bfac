package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/san-kum/softsim/internal/dynamo"
)

const (
	metadataFile  = "metadata.json"
	traceFile     = "trace.csv"
	positionsFile = "positions.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir is the run directory for runID.
func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// RunInfo describes the body and step settings of a run.
type RunInfo struct {
	Name         string  `json:"name"`
	Source       string  `json:"source"`
	Dt           float64 `json:"dt"`
	Steps        int     `json:"steps"`
	Iterations   int     `json:"iterations"`
	FloorY       float64 `json:"floor_y"`
	Compliance   float64 `json:"compliance"`
	LambdaPolicy string  `json:"lambda_policy"`
	Particles    int     `json:"particles"`
	Constraints  int     `json:"constraints"`
	Triangles    int     `json:"triangles"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	StepsTaken int                `json:"steps_taken"`
	Error      string             `json:"error,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
	RunInfo
}

// Save writes the run's metadata, min-height trace and final positions under
// a new run directory and returns its id.
func (s *Store) Save(info RunInfo, result *dynamo.Result, final []mgl64.Vec3) (string, error) {
	name := info.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%s", name, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Timestamp:  time.Now(),
		StepsTaken: result.StepsTaken,
		Metrics:    finiteMetrics(result.Metrics),
		RunInfo:    info,
	}
	if len(result.Errors) > 0 {
		meta.Error = result.Errors[len(result.Errors)-1].Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	trace := [][]string{{"time", "min_y"}}
	for i := range result.Times {
		if i >= len(result.MinHeights) {
			break
		}
		trace = append(trace, []string{formatFloat(result.Times[i]), formatFloat(result.MinHeights[i])})
	}
	if err := writeCSV(filepath.Join(runDir, traceFile), trace); err != nil {
		return "", err
	}

	positions := [][]string{{"i", "x", "y", "z"}}
	for i, p := range final {
		positions = append(positions, []string{
			strconv.Itoa(i), formatFloat(p.X()), formatFloat(p.Y()), formatFloat(p.Z()),
		})
	}
	if err := writeCSV(filepath.Join(runDir, positionsFile), positions); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrace returns the sample times and lowest particle heights of a run.
func (s *Store) LoadTrace(runID string) (times, minY []float64, err error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), traceFile))
	if err != nil {
		return nil, nil, err
	}

	times = make([]float64, 0, len(records))
	minY = make([]float64, 0, len(records))
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		t, err1 := strconv.ParseFloat(record[0], 64)
		y, err2 := strconv.ParseFloat(record[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		times = append(times, t)
		minY = append(minY, y)
	}
	return times, minY, nil
}

// LoadPositions returns the final particle positions of a run.
func (s *Store) LoadPositions(runID string) ([]mgl64.Vec3, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), positionsFile))
	if err != nil {
		return nil, err
	}

	out := make([]mgl64.Vec3, 0, len(records))
	for _, record := range records {
		if len(record) < 4 {
			continue
		}
		var p mgl64.Vec3
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(record[k+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: bad coordinate %q: %w", positionsFile, record[k+1], err)
			}
			p[k] = v
		}
		out = append(out, p)
	}
	return out, nil
}

// finiteMetrics drops NaN and Inf values, which JSON cannot encode.
func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

// readCSV returns all rows after the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
