package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/biodyn/internal/dynamo"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Vars   []string    `json:"vars"`
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

func NewExportData(meta RunMetadata, tr *dynamo.Trajectory) ExportData {
	data := ExportData{
		Run:    meta,
		Vars:   varNames(tr),
		Times:  tr.Times,
		States: make([][]float64, len(tr.States)),
	}
	for i, s := range tr.States {
		data.States[i] = s
	}
	return data
}

func ExportJSON(w io.Writer, meta RunMetadata, tr *dynamo.Trajectory) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, tr))
}

// ExportRun writes a stored run as JSON.
func (s *Store) ExportRun(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	return ExportJSON(w, *meta, tr)
}
