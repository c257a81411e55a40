package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/san-kum/wavesim/internal/boundary"
	"github.com/san-kum/wavesim/internal/initial"
	"github.com/san-kum/wavesim/internal/sim"
	"github.com/san-kum/wavesim/internal/wave"
	"gopkg.in/yaml.v3"
)

const SchemaVersion = "1.0.0"

const (
	DefaultNx           = 201
	DefaultDx           = 0.01
	DefaultDt           = 0.005
	DefaultTFinal       = 1.0
	DefaultWaveSpeed    = 1.0
	DefaultSnapshotFreq = 50
	DefaultOutputDir    = "outputs"
)

var (
	ErrInvalidSnapshotFreq = errors.New("config: snapshot_freq must be >= 1")
	ErrScenarioMismatch    = errors.New("config: scenario_id and boundary disagree")
)

type Config struct {
	SchemaVersion string        `yaml:"schema_version" json:"schema_version"`
	ScenarioID    int           `yaml:"scenario_id,omitempty" json:"scenario_id,omitempty"`
	Nx            int           `yaml:"nx" json:"nx"`
	Dx            float64       `yaml:"dx" json:"dx"`
	Dt            float64       `yaml:"dt" json:"dt"`
	CFL           float64       `yaml:"cfl,omitempty" json:"cfl,omitempty"`
	WaveSpeed     float64       `yaml:"wave_speed" json:"wave_speed"`
	TFinal        float64       `yaml:"t_final" json:"t_final"`
	SnapshotFreq  int           `yaml:"snapshot_freq" json:"snapshot_freq"`
	Boundary      boundary.Kind `yaml:"boundary" json:"boundary"`
	Initial       initial.Spec  `yaml:"initial" json:"initial"`
	Workers       int           `yaml:"workers,omitempty" json:"workers,omitempty"`
	OutputDir     string        `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		SchemaVersion: SchemaVersion,
		Nx:            DefaultNx,
		Dx:            DefaultDx,
		Dt:            DefaultDt,
		WaveSpeed:     DefaultWaveSpeed,
		TFinal:        DefaultTFinal,
		SnapshotFreq:  DefaultSnapshotFreq,
		Boundary:      boundary.KindDirichlet,
		Initial:       initial.Spec{Shape: "sine", Mode: 1, Amplitude: 1},
		Workers:       1,
		OutputDir:     DefaultOutputDir,
	}
}

// Load reads a YAML or JSON file over the defaults, so absent keys keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := DefaultConfig()
	if err := Overlay(cfg, &doc); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay decodes a YAML/JSON mapping onto cfg. Keys that are present decide
// how derived fields are treated:
//   - cfl without dt clears dt so that Resolve derives it from cfl
//   - scenario_id without boundary selects the boundary (1 dirichlet, 2 neumann)
//   - boundary without scenario_id clears the scenario id
//   - both present must agree, otherwise ErrScenarioMismatch
func Overlay(cfg *Config, node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	if node.IsZero() {
		return nil
	}
	if err := node.Decode(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	has := func(key string) bool {
		if node.Kind != yaml.MappingNode {
			return false
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				return true
			}
		}
		return false
	}

	if has("cfl") && !has("dt") && cfg.CFL > 0 {
		cfg.Dt = 0
	}

	switch {
	case has("scenario_id") && has("boundary"):
		if cfg.ScenarioID != cfg.Boundary.ScenarioID() {
			return fmt.Errorf("%w: scenario_id %d, boundary %s", ErrScenarioMismatch, cfg.ScenarioID, cfg.Boundary)
		}
	case has("scenario_id"):
		k, err := boundary.KindForScenario(cfg.ScenarioID)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg.Boundary = k
	case has("boundary"):
		cfg.ScenarioID = 0
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ComputeDt is the time step for a target Courant number.
func ComputeDt(dx, cfl, waveSpeed float64) float64 {
	return cfl * dx / waveSpeed
}

// Resolve derives dt from cfl when a cfl is given. An explicit dt wins
// unless it is zero.
func (c *Config) Resolve() {
	if c.CFL > 0 && c.Dt <= 0 && c.WaveSpeed > 0 {
		c.Dt = ComputeDt(c.Dx, c.CFL, c.WaveSpeed)
	}
	if c.ScenarioID == 0 {
		c.ScenarioID = c.Boundary.ScenarioID()
	}
	if c.SchemaVersion == "" {
		c.SchemaVersion = SchemaVersion
	}
}

// CoerceFinalTime snaps t_final to the nearest multiple of dt and reports
// whether it changed.
func (c *Config) CoerceFinalTime() bool {
	if c.Dt <= 0 {
		return false
	}
	adjusted := math.Round(c.TFinal/c.Dt) * c.Dt
	if math.Abs(adjusted-c.TFinal) > 1e-12 && adjusted > 0 {
		c.TFinal = adjusted
		return true
	}
	return false
}

func (c *Config) Courant() float64 {
	return c.WaveSpeed * c.Dt / c.Dx
}

// Validate runs the same checks the driver does at construction.
func (c *Config) Validate() error {
	if err := c.Sim().Params().Validate(); err != nil {
		return err
	}
	if c.SnapshotFreq < 1 {
		return ErrInvalidSnapshotFreq
	}
	if _, err := sim.NSteps(c.TFinal, c.Dt); err != nil {
		return err
	}
	if _, err := initial.New(c.Initial); err != nil {
		return err
	}
	return nil
}

// CheckCourant reports wave.ErrCourantViolation for unstable parameters.
func (c *Config) CheckCourant() error {
	if l := c.Courant(); l > 1 {
		return &wave.ParamError{Field: "courant", Value: l, Wrapped: wave.ErrCourantViolation}
	}
	return nil
}

func (c *Config) Sim() sim.Config {
	return sim.Config{
		Nx:           c.Nx,
		Dx:           c.Dx,
		Dt:           c.Dt,
		WaveSpeed:    c.WaveSpeed,
		TFinal:       c.TFinal,
		SnapshotFreq: c.SnapshotFreq,
		Boundary:     c.Boundary,
		Initial:      c.Initial,
	}
}
