// Package storage persists runs on disk: one directory per run holding the
// position log as CSV and a metadata.json summary.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

const (
	metadataFile  = "metadata.json"
	positionsFile = "positions.csv"
)

var positionHeader = []string{"step", "time", "ident", "label", "x", "y", "z", "vx", "vy", "vz", "mass"}

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
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       uint64             `json:"seed"`
	Bodies     int                `json:"bodies"`
	G          float64            `json:"g"`
	Dt         float64            `json:"dt"`
	Softening  float64            `json:"softening"`
	Policy     string             `json:"policy"`
	Integrator string             `json:"integrator"`
	Every      int                `json:"every"`
	Steps      int                `json:"steps"`
	SimTime    float64            `json:"sim_time"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Run is an open position log. It satisfies sim.Observer.
type Run struct {
	mu     sync.Mutex
	dir    string
	meta   RunMetadata
	file   *os.File
	w      *csv.Writer
	err    error
	closed bool
}

// Create opens a new run directory. Every, when above 1, keeps only every
// n-th step in the log.
func (s *Store) Create(meta RunMetadata) (*Run, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Scenario, meta.Timestamp.UnixNano())
	}
	if meta.Every < 1 {
		meta.Every = 1
	}

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, positionsFile))
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(positionHeader); err != nil {
		f.Close()
		return nil, err
	}
	return &Run{dir: dir, meta: meta, file: f, w: w}, nil
}

func (r *Run) ID() string { return r.meta.ID }

// Observe appends one row per record.
func (r *Run) Observe(records []dynamo.PositionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return dynamo.ErrClosed
	}
	if r.err != nil {
		return r.err
	}

	for _, rec := range records {
		if err := r.w.Write(formatRecord(rec)); err != nil {
			r.err = err
			return err
		}
		r.meta.Steps = rec.Step
		r.meta.SimTime = rec.Time
	}
	return nil
}

// OnStep logs a committed step. Every step advances the run's step count
// and time, logged or not. Write failures are kept and reported by Close.
func (r *Run) OnStep(bodies []dynamo.Body, step int, t float64) {
	r.mu.Lock()
	if !r.closed {
		r.meta.Steps = step
		r.meta.SimTime = t
	}
	r.mu.Unlock()

	if step%r.meta.Every != 0 {
		return
	}
	records := make([]dynamo.PositionRecord, len(bodies))
	for i, b := range bodies {
		records[i] = dynamo.PositionRecord{
			Step: step, Time: t, ID: b.ID, Label: b.Label,
			Position: b.Position, Velocity: b.Velocity, Mass: b.Mass,
		}
	}
	_ = r.Observe(records)
}

// Close flushes the log and writes metadata.json with the final metrics.
func (r *Run) Close(metrics map[string]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	r.w.Flush()
	err := errors.Join(r.err, r.w.Error(), r.file.Close())

	r.meta.Metrics = metrics
	if werr := writeMetadata(filepath.Join(r.dir, metadataFile), r.meta); werr != nil {
		err = errors.Join(err, werr)
	}
	return err
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func formatRecord(rec dynamo.PositionRecord) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []string{
		strconv.Itoa(rec.Step),
		f(rec.Time),
		strconv.Itoa(int(rec.ID)),
		rec.Label,
		f(rec.Position[0]), f(rec.Position[1]), f(rec.Position[2]),
		f(rec.Velocity[0]), f(rec.Velocity[1]), f(rec.Velocity[2]),
		f(rec.Mass),
	}
}

// List returns the completed runs, oldest first.
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

	slices.SortFunc(runs, func(a, b RunMetadata) int { return a.Timestamp.Compare(b.Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadPositions(runID string) ([]dynamo.PositionRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadPositions(file)
}

// ReadPositions parses a position log written by Run.
func ReadPositions(r io.Reader) ([]dynamo.PositionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(positionHeader)

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return []dynamo.PositionRecord{}, nil
		}
		return nil, err
	}

	out := make([]dynamo.PositionRecord, 0)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseRecord(row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%s line %d: %w", positionsFile, line, err)
		}
		out = append(out, rec)
	}
}

func parseRecord(row []string) (dynamo.PositionRecord, error) {
	step, err := strconv.Atoi(row[0])
	if err != nil {
		return dynamo.PositionRecord{}, err
	}
	id, err := strconv.Atoi(row[2])
	if err != nil {
		return dynamo.PositionRecord{}, err
	}

	var vals [8]float64
	for i, col := range []int{1, 4, 5, 6, 7, 8, 9, 10} {
		v, err := strconv.ParseFloat(row[col], 64)
		if err != nil {
			return dynamo.PositionRecord{}, err
		}
		vals[i] = v
	}

	return dynamo.PositionRecord{
		Step:     step,
		Time:     vals[0],
		ID:       dynamo.BodyID(id),
		Label:    row[3],
		Position: dynamo.Vec3{vals[1], vals[2], vals[3]},
		Velocity: dynamo.Vec3{vals[4], vals[5], vals[6]},
		Mass:     vals[7],
	}, nil
}
