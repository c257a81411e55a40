package sim

import (
	"time"

	"github.com/san-kum/wavesim/internal/boundary"
	"github.com/san-kum/wavesim/internal/initial"
	"github.com/san-kum/wavesim/internal/wave"
)

// Config is everything the driver needs for one run. Parsing and defaults
// live in the config package.
type Config struct {
	Nx           int
	Dx           float64
	Dt           float64
	WaveSpeed    float64
	TFinal       float64
	SnapshotFreq int
	Boundary     boundary.Kind
	Initial      initial.Spec
}

func (c Config) Params() wave.Params {
	return wave.Params{Nx: c.Nx, Dx: c.Dx, Dt: c.Dt, C: c.WaveSpeed}
}

// EnergySample is one energy log record.
type EnergySample struct {
	Step   int     `json:"step"`
	Time   float64 `json:"time"`
	Energy float64 `json:"energy"`
}

// SnapshotSink persists the layer at a cadence point; x[i] = i*dx.
type SnapshotSink interface {
	WriteSnapshot(step int, x, u []float64) error
}

// EnergySink appends one record per cadence point.
type EnergySink interface {
	WriteEnergy(s EnergySample) error
}

// Observer sees every step. The layer must be treated as read only and not
// retained.
type Observer interface {
	OnStep(step int, t float64, cur wave.Layer)
}

type SnapshotFunc func(step int, x, u []float64) error

func (f SnapshotFunc) WriteSnapshot(step int, x, u []float64) error { return f(step, x, u) }

type EnergyFunc func(s EnergySample) error

func (f EnergyFunc) WriteEnergy(s EnergySample) error { return f(s) }

type Phase int

const (
	Uninitialized Phase = iota
	Initialized
	Running
	Finished
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Finished:
		return "finished"
	}
	return "unknown"
}

type Result struct {
	Steps         int            `json:"steps"`
	Snapshots     int            `json:"snapshots"`
	Samples       []EnergySample `json:"samples"`
	InitialEnergy float64        `json:"initial_energy"`
	FinalEnergy   float64        `json:"final_energy"`
	MaxDrift      float64        `json:"max_drift"`
	Stability     float64        `json:"stability"`
	Courant       float64        `json:"courant"`
	Elapsed       time.Duration  `json:"elapsed"`
}
