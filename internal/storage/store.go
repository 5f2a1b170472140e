package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/biodyn/internal/dynamo"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Field       string             `json:"field"`
	Preset      string             `json:"preset,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Method      string             `json:"method"`
	RelTol      float64            `json:"rtol"`
	AbsTol      float64            `json:"atol"`
	Params      map[string]float64 `json:"params"`
	Initial     []float64          `json:"initial"`
	Vars        []string           `json:"vars"`
	Samples     int                `json:"samples"`
	Start       float64            `json:"start"`
	End         float64            `json:"end"`
	Stats       dynamo.Stats       `json:"stats"`
	Diagnostics map[string]float64 `json:"diagnostics,omitempty"`
	// Error is set when the integration stopped early; the stored states are
	// the partial trajectory.
	Error string `json:"error,omitempty"`
}

// NewRunID returns a fresh identifier of the form <field>_<uuid>.
func NewRunID(field string) string {
	return fmt.Sprintf("%s_%s", field, uuid.New().String())
}

// Save writes metadata.json and states.csv under a new run directory. ID,
// Timestamp, Vars, Samples and Stats are filled from tr when unset.
func (s *Store) Save(meta RunMetadata, tr *dynamo.Trajectory) (string, error) {
	if meta.Field == "" {
		meta.Field = tr.Field
	}
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Field)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = s.now()
	}
	if len(meta.Vars) == 0 {
		meta.Vars = varNames(tr)
	}
	meta.Samples = tr.Len()
	meta.Stats = tr.Stats

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, tr); err != nil {
		return "", err
	}
	return meta.ID, csvFile.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func varNames(tr *dynamo.Trajectory) []string {
	n := 0
	if len(tr.States) > 0 {
		n = len(tr.States[0])
	}
	names := make([]string, n)
	for i := range names {
		names[i] = tr.VarName(i)
	}
	return names
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes a time column followed by one column per state variable.
func WriteCSV(out io.Writer, tr *dynamo.Trajectory) error {
	w := csv.NewWriter(out)

	header := append([]string{"time"}, varNames(tr)...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range tr.States {
		row := make([]string, 0, len(tr.States[i])+1)
		row = append(row, formatFloat(tr.Times[i]))
		for _, val := range tr.States[i] {
			row = append(row, formatFloat(val))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns stored runs, newest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory reads a stored run back into a trajectory.
func (s *Store) LoadTrajectory(runID string) (*dynamo.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	tr, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	tr.Field = meta.Field
	tr.Stats = meta.Stats
	if len(meta.Vars) > 0 {
		tr.Vars = meta.Vars
	}
	return tr, nil
}

// ReadCSV parses the layout written by WriteCSV.
func ReadCSV(in io.Reader) (*dynamo.Trajectory, error) {
	r := csv.NewReader(in)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("missing header")
	}

	tr := &dynamo.Trajectory{Vars: records[0][1:]}
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		state := make(dynamo.State, len(record)-1)
		for j := range state {
			if state[j], err = strconv.ParseFloat(record[j+1], 64); err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
		}
		tr.Append(t, state)
	}
	return tr, nil
}
