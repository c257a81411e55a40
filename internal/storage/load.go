package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/wavesim/internal/sim"
)

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func parseFloats(record []string, path string, line int) ([]float64, error) {
	out := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, filepath.Base(path), line, err)
		}
		out[i] = v
	}
	return out, nil
}

// LoadEnergy reads energy.csv in step order.
func (s *Store) LoadEnergy(runID string) ([]sim.EnergySample, error) {
	path := filepath.Join(s.baseDir, runID, energyFile)
	records, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	samples := make([]sim.EnergySample, 0, len(records))
	for i := 1; i < len(records); i++ {
		if len(records[i]) < 3 {
			return nil, fmt.Errorf("%w: %s line %d", ErrMalformed, energyFile, i+1)
		}
		vals, err := parseFloats(records[i][:3], path, i+1)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sim.EnergySample{Step: int(vals[0]), Time: vals[1], Energy: vals[2]})
	}
	return samples, nil
}

// Snapshots lists the step numbers of the saved snapshots in ascending order.
func (s *Store) Snapshots(runID string) ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, runID, "snapshot_*.csv"))
	if err != nil {
		return nil, err
	}

	steps := make([]int, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "snapshot_"), ".csv")
		step, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		steps = append(steps, step)
	}
	sort.Ints(steps)
	return steps, nil
}

// LoadSnapshot reads the x and u columns of one snapshot.
func (s *Store) LoadSnapshot(runID string, step int) ([]float64, []float64, error) {
	path := filepath.Join(s.baseDir, runID, snapshotName(step))
	records, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s step %d", ErrSnapshotNotFound, runID, step)
		}
		return nil, nil, err
	}

	x := make([]float64, 0, len(records))
	u := make([]float64, 0, len(records))
	for i := 1; i < len(records); i++ {
		if len(records[i]) < 2 {
			return nil, nil, fmt.Errorf("%w: %s line %d", ErrMalformed, filepath.Base(path), i+1)
		}
		vals, err := parseFloats(records[i][:2], path, i+1)
		if err != nil {
			return nil, nil, err
		}
		x = append(x, vals[0])
		u = append(u, vals[1])
	}
	return x, u, nil
}

// LoadFinalSnapshot returns the highest-step snapshot of a run.
func (s *Store) LoadFinalSnapshot(runID string) (int, []float64, []float64, error) {
	steps, err := s.Snapshots(runID)
	if err != nil {
		return 0, nil, nil, err
	}
	if len(steps) == 0 {
		return 0, nil, nil, fmt.Errorf("%w: %s has no snapshots", ErrSnapshotNotFound, runID)
	}
	step := steps[len(steps)-1]
	x, u, err := s.LoadSnapshot(runID, step)
	return step, x, u, err
}
