package config

import (
	"sort"

	"github.com/san-kum/wavesim/internal/boundary"
	"github.com/san-kum/wavesim/internal/initial"
)

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	c.Resolve()
	return c
}

var Presets = map[string]*Config{
	"dirichlet": preset(func(c *Config) {
		c.ScenarioID, c.Nx, c.CFL, c.Dt, c.SnapshotFreq = 1, 200, 0.9, 0, 10
	}),
	"neumann": preset(func(c *Config) {
		c.ScenarioID, c.Nx, c.CFL, c.Dt, c.SnapshotFreq = 2, 200, 0.9, 0, 10
		c.Boundary = boundary.KindNeumann
	}),
	"standing": preset(func(c *Config) {
		c.Initial = initial.Spec{Shape: "sine", Mode: 2, Amplitude: 1}
		c.TFinal = 4.0
	}),
	"pulse": preset(func(c *Config) {
		c.Nx, c.Dx, c.Dt, c.TFinal, c.SnapshotFreq = 401, 0.005, 0.0025, 2.0, 40
		c.Initial = initial.Spec{Shape: "gaussian", Center: 0.25, Width: 0.03, Amplitude: 1}
	}),
	"pluck": preset(func(c *Config) {
		c.Initial = initial.Spec{Shape: "pluck", Center: 0.3, Amplitude: 0.5}
		c.TFinal = 2.0
	}),
	"coarse": preset(func(c *Config) {
		c.Nx, c.Dx, c.Dt, c.SnapshotFreq = 21, 0.1, 0.05, 2
	}),
}

// GetPreset returns a copy of the named preset or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
