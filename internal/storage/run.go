package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/wavesim/internal/sim"
)

// Run is one run directory. It is both the snapshot and the energy sink of
// the driver.
type Run struct {
	dir    string
	meta   RunMetadata
	energy *os.File
	ew     *csv.Writer
}

func (r *Run) ID() string            { return r.meta.ID }
func (r *Run) Dir() string           { return r.dir }
func (r *Run) Metadata() RunMetadata { return r.meta }

func snapshotName(step int) string {
	return fmt.Sprintf("snapshot_%d.csv", step)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteSnapshot writes snapshot_<step>.csv with an x,u header.
func (r *Run) WriteSnapshot(step int, x, u []float64) error {
	f, err := os.Create(filepath.Join(r.dir, snapshotName(step)))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"x", "u"}); err != nil {
		return err
	}
	for i := range u {
		if err := w.Write([]string{formatFloat(x[i]), formatFloat(u[i])}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// WriteEnergy appends one record to energy.csv, creating it with a
// step,time,energy header on first use.
func (r *Run) WriteEnergy(s sim.EnergySample) error {
	if r.ew == nil {
		f, err := os.Create(filepath.Join(r.dir, energyFile))
		if err != nil {
			return err
		}
		r.energy = f
		r.ew = csv.NewWriter(f)
		if err := r.ew.Write([]string{"step", "time", "energy"}); err != nil {
			return err
		}
	}

	if err := r.ew.Write([]string{strconv.Itoa(s.Step), formatFloat(s.Time), formatFloat(s.Energy)}); err != nil {
		return err
	}
	r.ew.Flush()
	return r.ew.Error()
}

// Close finalizes the energy log and metadata. res is nil for failed runs.
func (r *Run) Close(res *sim.Result) error {
	if r.energy == nil {
		// runs with no cadence point still get a header-only log
		f, err := os.Create(filepath.Join(r.dir, energyFile))
		if err != nil {
			return err
		}
		r.energy = f
		r.ew = csv.NewWriter(f)
		if err := r.ew.Write([]string{"step", "time", "energy"}); err != nil {
			return err
		}
	}
	r.ew.Flush()
	if err := r.ew.Error(); err != nil {
		r.energy.Close()
		return err
	}
	if err := r.energy.Close(); err != nil {
		return err
	}

	if res == nil {
		r.meta.Status = StatusFailed
	} else {
		r.meta.Status = StatusFinished
		r.meta.Steps = res.Steps
		r.meta.Snapshots = res.Snapshots
		r.meta.Courant = res.Courant
		metrics := map[string]float64{
			"initial_energy": res.InitialEnergy,
			"final_energy":   res.FinalEnergy,
			"energy_drift":   res.MaxDrift,
			"stability":      res.Stability,
			"elapsed_ms":     float64(res.Elapsed.Microseconds()) / 1000,
		}
		// JSON has no Inf or NaN; a blown up run keeps its finite metrics
		for k, v := range metrics {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				delete(metrics, k)
				r.meta.Diverged = true
			}
		}
		r.meta.Metrics = metrics
	}
	return r.writeMetadata()
}

// writeMetadata replaces metadata.json through a rename so a failed write
// never leaves a truncated file behind.
func (r *Run) writeMetadata() error {
	data, err := json.MarshalIndent(r.meta, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(r.dir, "metadata-*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filepath.Join(r.dir, metadataFile)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
