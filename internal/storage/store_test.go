package storage_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/sim"
	"github.com/san-kum/wavesim/internal/storage"
)

// StoreSuite runs real simulations into a temporary store.
type StoreSuite struct {
	suite.Suite
	dir   string
	store *storage.Store
}

func (s *StoreSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.store = storage.New(s.dir)
	require.NoError(s.T(), s.store.Init())
}

func (s *StoreSuite) runDefault(mutate func(*config.Config)) (*storage.Run, *sim.Result) {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	cfg.Resolve()

	run, err := s.store.NewRun(cfg)
	require.NoError(s.T(), err)

	d, err := sim.NewDriver(cfg.Sim(), sim.WithSnapshotSink(run), sim.WithEnergySink(run))
	require.NoError(s.T(), err)
	res, err := d.Run(context.Background())
	require.NoError(s.T(), err)
	require.NoError(s.T(), run.Close(res))
	return run, res
}

// TestLabel: key numerics form a filename-safe label.
func (s *StoreSuite) TestLabel() {
	cfg := config.DefaultConfig()
	cfg.Resolve()
	require.Equal(s.T(), "s1-nx201-dx0p01-dt0p005-f50", storage.Label(cfg))
}

// TestRunLayout: one snapshot per cadence point plus energy, metadata and input.
func (s *StoreSuite) TestRunLayout() {
	run, res := s.runDefault(nil)
	require.Equal(s.T(), 4, res.Snapshots)
	require.True(s.T(), strings.HasPrefix(run.ID(), "run-s1-nx201"))

	for _, name := range []string{"metadata.json", "input.yaml", "energy.csv", "snapshot_50.csv", "snapshot_200.csv"} {
		_, err := os.Stat(filepath.Join(run.Dir(), name))
		require.NoError(s.T(), err, name)
	}

	data, err := os.ReadFile(filepath.Join(run.Dir(), "snapshot_50.csv"))
	require.NoError(s.T(), err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(s.T(), "x,u", lines[0])
	require.Len(s.T(), lines, 202)

	data, err = os.ReadFile(filepath.Join(run.Dir(), "energy.csv"))
	require.NoError(s.T(), err)
	lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(s.T(), "step,time,energy", lines[0])
	require.Len(s.T(), lines, 5)
}

// TestLoadBack: stored values round-trip exactly.
func (s *StoreSuite) TestLoadBack() {
	run, res := s.runDefault(nil)

	meta, err := s.store.Load(run.ID())
	require.NoError(s.T(), err)
	require.Equal(s.T(), storage.StatusFinished, meta.Status)
	require.Equal(s.T(), 200, meta.Steps)
	require.NotEmpty(s.T(), meta.UUID)
	require.Equal(s.T(), 201, meta.Config.Nx)

	samples, err := s.store.LoadEnergy(run.ID())
	require.NoError(s.T(), err)
	require.Equal(s.T(), res.Samples, samples)

	steps, err := s.store.Snapshots(run.ID())
	require.NoError(s.T(), err)
	require.Equal(s.T(), []int{50, 100, 150, 200}, steps)

	step, x, u, err := s.store.LoadFinalSnapshot(run.ID())
	require.NoError(s.T(), err)
	require.Equal(s.T(), 200, step)
	require.Len(s.T(), x, 201)
	require.Len(s.T(), u, 201)
	require.Equal(s.T(), 0.0, u[0])
}

// TestListAndLatest: runs appear in timestamp order.
func (s *StoreSuite) TestListAndLatest() {
	runs, err := s.store.List()
	require.NoError(s.T(), err)
	require.Empty(s.T(), runs)

	_, err = s.store.Latest()
	require.ErrorIs(s.T(), err, storage.ErrRunNotFound)

	first, _ := s.runDefault(nil)
	second, _ := s.runDefault(nil)
	require.NotEqual(s.T(), first.ID(), second.ID())

	runs, err = s.store.List()
	require.NoError(s.T(), err)
	require.Len(s.T(), runs, 2)

	latest, err := s.store.Latest()
	require.NoError(s.T(), err)
	require.Equal(s.T(), second.ID(), latest)
}

// TestMissing: unknown runs and steps map to sentinels.
func (s *StoreSuite) TestMissing() {
	_, err := s.store.Load("nope")
	require.ErrorIs(s.T(), err, storage.ErrRunNotFound)

	run, _ := s.runDefault(nil)
	_, _, err = s.store.LoadSnapshot(run.ID(), 7)
	require.ErrorIs(s.T(), err, storage.ErrSnapshotNotFound)
}

// TestNoCadencePoints: a header-only energy log is still written.
func (s *StoreSuite) TestNoCadencePoints() {
	run, res := s.runDefault(func(c *config.Config) { c.SnapshotFreq = 1000 })
	require.Zero(s.T(), res.Snapshots)

	samples, err := s.store.LoadEnergy(run.ID())
	require.NoError(s.T(), err)
	require.Empty(s.T(), samples)
}

// TestFailedRun: closing without a result marks the run failed.
func (s *StoreSuite) TestFailedRun() {
	cfg := config.DefaultConfig()
	run, err := s.store.NewRun(cfg)
	require.NoError(s.T(), err)
	require.NoError(s.T(), run.Close(nil))

	meta, err := s.store.Load(run.ID())
	require.NoError(s.T(), err)
	require.Equal(s.T(), storage.StatusFailed, meta.Status)
}

// TestExportJSON: export carries metadata, energy and snapshots.
func (s *StoreSuite) TestExportJSON() {
	run, _ := s.runDefault(nil)

	data, err := s.store.Export(run.ID(), true)
	require.NoError(s.T(), err)
	require.Len(s.T(), data.Snapshots, 4)

	var buf bytes.Buffer
	require.NoError(s.T(), storage.ExportJSON(&buf, data))

	var decoded storage.ExportData
	require.NoError(s.T(), json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(s.T(), run.ID(), decoded.Run.ID)
	require.Len(s.T(), decoded.Energy, 4)
	require.Equal(s.T(), data.Snapshots[3].U, decoded.Snapshots[3].U)
}

// TestDivergedRun: a run past the Courant limit still lands in the store.
func (s *StoreSuite) TestDivergedRun() {
	run, res := s.runDefault(func(c *config.Config) {
		c.Dt, c.TFinal = 0.02, 20
	})
	require.True(s.T(), math.IsNaN(res.FinalEnergy) || math.IsInf(res.FinalEnergy, 0))

	meta, err := s.store.Load(run.ID())
	require.NoError(s.T(), err)
	require.Equal(s.T(), storage.StatusFinished, meta.Status)
	require.True(s.T(), meta.Diverged)
	require.NotContains(s.T(), meta.Metrics, "final_energy")
	require.Contains(s.T(), meta.Metrics, "initial_energy")

	runs, err := s.store.List()
	require.NoError(s.T(), err)
	require.Len(s.T(), runs, 1)
	require.Equal(s.T(), run.ID(), runs[0].ID)

	data, err := s.store.Export(run.ID(), true)
	require.NoError(s.T(), err)
	var buf bytes.Buffer
	require.NoError(s.T(), storage.ExportJSON(&buf, data))
	require.Contains(s.T(), buf.String(), "null")

	var decoded storage.ExportData
	require.NoError(s.T(), json.Unmarshal(buf.Bytes(), &decoded))
	require.True(s.T(), decoded.Run.Diverged)

	entries, err := os.ReadDir(run.Dir())
	require.NoError(s.T(), err)
	for _, e := range entries {
		require.False(s.T(), strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}
