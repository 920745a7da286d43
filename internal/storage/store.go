// Package storage persists runs: metadata, per-frame metrics and exported
// frames, one directory per run.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	metricsFile  = "metrics.csv"
)

// ErrRunNotFound is returned when a run ID has no stored metadata.
var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	FPS       float64            `json:"fps"`
	Frames    int                `json:"frames"`
	Faults    int                `json:"faults"`
	Params    map[string]float64 `json:"params"`
	Colors    map[string]string  `json:"colors"`
	Flags     map[string]bool    `json:"flags"`
	Metrics   map[string]float64 `json:"metrics"`
	Images    int                `json:"images"`
}

// Run is a run directory being written.
type Run struct {
	ID  string
	Dir string
}

// NewRun creates a fresh run directory named after name and the current
// time.
func (s *Store) NewRun(name string) (*Run, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	base := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	id := base
	for i := 1; ; i++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return &Run{ID: id, Dir: dir}, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
}

func (r *Run) WriteMetadata(meta RunMetadata) error {
	meta.ID = r.ID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	f, err := os.Create(filepath.Join(r.Dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func (r *Run) WriteSamples(samples []metrics.Sample) error {
	f, err := os.Create(filepath.Join(r.Dir, metricsFile))
	if err != nil {
		return err
	}
	defer f.Close()

	if len(samples) == 0 {
		return nil
	}
	if err := gocsv.Marshal(samples, f); err != nil {
		return fmt.Errorf("write %s: %w", metricsFile, err)
	}
	dynamo.Logger().Debug("metrics written", "run", r.ID, "rows", len(samples))
	return nil
}

// List returns stored runs, oldest first. Directories without readable
// metadata are skipped.
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
			dynamo.Logger().Debug("skipping run", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) LoadSamples(runID string) ([]metrics.Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, metricsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	samples := []metrics.Sample{}
	if st.Size() == 0 {
		return samples, nil
	}
	if err := gocsv.UnmarshalFile(f, &samples); err != nil {
		return nil, fmt.Errorf("read %s: %w", metricsFile, err)
	}
	return samples, nil
}

// MetricsPath is the CSV file of a run.
func (s *Store) MetricsPath(runID string) string {
	return filepath.Join(s.baseDir, runID, metricsFile)
}
