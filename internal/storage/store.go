package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/wavesim/internal/config"
)

const (
	metadataFile = "metadata.json"
	inputFile    = "input.yaml"
	energyFile   = "energy.csv"
)

var (
	ErrRunNotFound      = errors.New("storage: run not found")
	ErrSnapshotNotFound = errors.New("storage: snapshot not found")
	ErrMalformed        = errors.New("storage: malformed file")
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

func (s *Store) Dir() string { return s.baseDir }

type Status string

const (
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

type RunMetadata struct {
	ID            string             `json:"id"`
	UUID          string             `json:"uuid"`
	Label         string             `json:"label"`
	Timestamp     time.Time          `json:"timestamp"`
	SchemaVersion string             `json:"schema_version"`
	Status        Status             `json:"status"`
	Config        *config.Config     `json:"config"`
	Steps         int                `json:"steps"`
	Snapshots     int                `json:"snapshots"`
	Courant       float64            `json:"courant"`
	Metrics       map[string]float64 `json:"metrics"`
	Diverged      bool               `json:"diverged,omitempty"`
}

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	dashRuns    = regexp.MustCompile(`-{2,}`)
)

func floatToken(v float64) string {
	text := strconv.FormatFloat(v, 'g', 4, 64)
	return strings.NewReplacer(".", "p", "-", "m").Replace(text)
}

func sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(s, "-")
	s = strings.Trim(dashRuns.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "run"
	}
	return s
}

// Label is a short filename-safe summary of the key numerics, e.g.
// s1-nx201-dx0p01-dt0p005-f50.
func Label(cfg *config.Config) string {
	parts := make([]string, 0, 5)
	if cfg.ScenarioID != 0 {
		parts = append(parts, fmt.Sprintf("s%d", cfg.ScenarioID))
	}
	if cfg.Nx != 0 {
		parts = append(parts, fmt.Sprintf("nx%d", cfg.Nx))
	}
	parts = append(parts, "dx"+floatToken(cfg.Dx), "dt"+floatToken(cfg.Dt))
	if cfg.SnapshotFreq != 0 {
		parts = append(parts, fmt.Sprintf("f%d", cfg.SnapshotFreq))
	}
	return sanitize(strings.Join(parts, "-"))
}

// NewRun creates run-<label>-<timestamp> under the store and saves the input
// configuration into it.
func (s *Store) NewRun(cfg *config.Config) (*Run, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	now := time.Now()
	label := Label(cfg)
	id := fmt.Sprintf("run-%s-%s", label, now.Format("20060102-150405"))
	runUUID := uuid.NewString()

	dir := filepath.Join(s.baseDir, id)
	if err := os.Mkdir(dir, 0755); err != nil {
		if !os.IsExist(err) {
			return nil, err
		}
		id = id + "-" + runUUID[:8]
		dir = filepath.Join(s.baseDir, id)
		if err := os.Mkdir(dir, 0755); err != nil {
			return nil, err
		}
	}

	if err := config.Save(filepath.Join(dir, inputFile), cfg); err != nil {
		return nil, err
	}

	r := &Run{
		dir: dir,
		meta: RunMetadata{
			ID:            id,
			UUID:          runUUID,
			Label:         label,
			Timestamp:     now,
			SchemaVersion: config.SchemaVersion,
			Status:        StatusRunning,
			Config:        cfg,
			Courant:       cfg.Courant(),
			Metrics:       map[string]float64{},
		},
	}
	if err := r.writeMetadata(); err != nil {
		return nil, err
	}
	return r, nil
}

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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
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
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, metadataFile, err)
	}
	return &meta, nil
}

// Latest returns the id of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrRunNotFound
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}
