package metrics

import (
	"math"

	"github.com/san-kum/wavesim/internal/wave"
)

// Stability counts observed layers whose peak amplitude exceeds threshold
// times the first observed peak. It never stops a run.
type Stability struct {
	threshold  float64
	reference  float64
	peak       float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(layer wave.Layer) {
	amp := 0.0
	for _, v := range layer {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			amp = math.Inf(1)
			break
		}
		amp = math.Max(amp, math.Abs(v))
	}
	if s.samples == 0 {
		s.reference = amp
	}
	s.samples++
	s.peak = math.Max(s.peak, amp)
	if s.reference > 0 && amp > s.threshold*s.reference {
		s.violations++
	}
}

// Value is the fraction of observed layers within bounds.
func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Peak() float64 { return s.peak }

func (s *Stability) Reset() {
	s.reference, s.peak, s.violations, s.samples = 0, 0, 0, 0
}
