package storage

import (
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/wavesim/internal/sim"
)

// Float is a float64 that encodes Inf and NaN as JSON null, so diverged runs
// still export. null decodes back to NaN.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

func floats(v []float64) []Float {
	out := make([]Float, len(v))
	for i, x := range v {
		out[i] = Float(x)
	}
	return out
}

type ExportData struct {
	Run       RunMetadata    `json:"run"`
	Energy    []EnergyRecord `json:"energy"`
	Snapshots []SnapshotData `json:"snapshots,omitempty"`
}

type EnergyRecord struct {
	Step   int   `json:"step"`
	Time   Float `json:"time"`
	Energy Float `json:"energy"`
}

type SnapshotData struct {
	Step int     `json:"step"`
	X    []Float `json:"x"`
	U    []Float `json:"u"`
}

func energyRecords(samples []sim.EnergySample) []EnergyRecord {
	out := make([]EnergyRecord, len(samples))
	for i, s := range samples {
		out[i] = EnergyRecord{Step: s.Step, Time: Float(s.Time), Energy: Float(s.Energy)}
	}
	return out
}

// Export collects a run's metadata, energy log and, optionally, every
// snapshot.
func (s *Store) Export(runID string, withSnapshots bool) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	samples, err := s.LoadEnergy(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{Run: *meta, Energy: energyRecords(samples)}
	if !withSnapshots {
		return data, nil
	}

	steps, err := s.Snapshots(runID)
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		x, u, err := s.LoadSnapshot(runID, step)
		if err != nil {
			return nil, err
		}
		data.Snapshots = append(data.Snapshots, SnapshotData{Step: step, X: floats(x), U: floats(u)})
	}
	return data, nil
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
