package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run       RunMetadata   `json:"run"`
	Positions []ExportPoint `json:"positions,omitempty"`
}

type ExportPoint struct {
	Step     int        `json:"step"`
	Time     float64    `json:"time"`
	ID       int        `json:"id"`
	Label    string     `json:"label"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

// ExportJSON writes the metadata of runID and, when withPositions is set,
// its whole position log.
func (s *Store) ExportJSON(w io.Writer, runID string, withPositions bool) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	data := ExportData{Run: *meta}

	if withPositions {
		records, err := s.LoadPositions(runID)
		if err != nil {
			return err
		}
		data.Positions = make([]ExportPoint, len(records))
		for i, r := range records {
			data.Positions[i] = ExportPoint{
				Step:     r.Step,
				Time:     r.Time,
				ID:       int(r.ID),
				Label:    r.Label,
				Position: r.Position,
				Velocity: r.Velocity,
			}
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
