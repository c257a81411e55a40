// Package initial provides starting layers for a run.
package initial

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/wavesim/internal/wave"
)

var ErrUnknownShape = errors.New("initial: unknown shape")

// Provider fills the previous and current layers. Both have the grid length.
type Provider interface {
	Fill(prev, cur wave.Layer, dx float64)
}

// Sine is the standing mode A*sin(mode*pi*x/L) at rest.
type Sine struct {
	Mode      int
	Amplitude float64
}

func (s Sine) Fill(prev, cur wave.Layer, dx float64) {
	nx := len(cur)
	l := dx * float64(nx-1)
	mode := s.Mode
	if mode < 1 {
		mode = 1
	}
	for i := range cur {
		x := float64(i) * dx
		cur[i] = s.Amplitude * math.Sin(float64(mode)*math.Pi*x/l)
	}
	copy(prev, cur)
}

// Pluck is a triangle peaking at Center (fraction of the domain).
type Pluck struct {
	Center    float64
	Amplitude float64
}

func (p Pluck) Fill(prev, cur wave.Layer, _ float64) {
	n := len(cur)
	c := int(math.Round(p.Center * float64(n-1)))
	if c < 1 {
		c = 1
	}
	if c > n-2 {
		c = n - 2
	}
	for i := 0; i < n; i++ {
		if i <= c {
			cur[i] = p.Amplitude * float64(i) / float64(c)
		} else {
			cur[i] = p.Amplitude * float64(n-1-i) / float64(n-1-c)
		}
	}
	copy(prev, cur)
}

// Gaussian is a pulse at Center with standard deviation Width, both as
// fractions of the domain.
type Gaussian struct {
	Center    float64
	Width     float64
	Amplitude float64
}

func (g Gaussian) Fill(prev, cur wave.Layer, dx float64) {
	l := dx * float64(len(cur)-1)
	x0, w := g.Center*l, g.Width*l
	if w <= 0 {
		w = 0.05 * l
	}
	for i := range cur {
		d := (float64(i)*dx - x0) / w
		cur[i] = g.Amplitude * math.Exp(-0.5*d*d)
	}
	copy(prev, cur)
}

// Fixed copies explicit layers. Shorter inputs leave the tail at zero.
type Fixed struct {
	Prev, Cur wave.Layer
}

func (f Fixed) Fill(prev, cur wave.Layer, _ float64) {
	clear(prev)
	clear(cur)
	copy(prev, f.Prev)
	copy(cur, f.Cur)
}

// Spec selects a provider by name; unset fields fall back to defaults.
type Spec struct {
	Shape     string  `yaml:"shape" json:"shape"`
	Mode      int     `yaml:"mode,omitempty" json:"mode,omitempty"`
	Amplitude float64 `yaml:"amplitude,omitempty" json:"amplitude,omitempty"`
	Center    float64 `yaml:"center,omitempty" json:"center,omitempty"`
	Width     float64 `yaml:"width,omitempty" json:"width,omitempty"`
}

var shapes = map[string]func(Spec) Provider{
	"sine": func(s Spec) Provider {
		return Sine{Mode: max(s.Mode, 1), Amplitude: orDefault(s.Amplitude, 1)}
	},
	"pluck": func(s Spec) Provider {
		return Pluck{Center: orDefault(s.Center, 0.5), Amplitude: orDefault(s.Amplitude, 0.5)}
	},
	"gaussian": func(s Spec) Provider {
		return Gaussian{Center: orDefault(s.Center, 0.5), Width: orDefault(s.Width, 0.05), Amplitude: orDefault(s.Amplitude, 1)}
	},
}

func New(s Spec) (Provider, error) {
	name := s.Shape
	if name == "" {
		name = "sine"
	}
	fn, ok := shapes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, name)
	}
	return fn(s), nil
}

func Shapes() []string {
	out := make([]string, 0, len(shapes))
	for name := range shapes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
