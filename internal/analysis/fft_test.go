package analysis

import (
	"math"
	"testing"
)

func TestDominantModeOfSine(t *testing.T) {
	for _, mode := range []int{1, 2, 5} {
		u := StandingWave(101, 0.01, 1, 0, mode)
		if got := DominantMode(u); got != mode {
			t.Errorf("mode %d: got %d", mode, got)
		}
	}
}

func TestModeSpectrumAmplitude(t *testing.T) {
	u := StandingWave(65, 1.0/64, 1, 0, 3)
	for i := range u {
		u[i] *= 0.7
	}
	spec := ModeSpectrum(u)
	if math.Abs(spec[3]-0.7) > 1e-9 {
		t.Errorf("expected amplitude 0.7 in bin 3, got %v", spec[3])
	}
	if spec[2] > 1e-9 || spec[4] > 1e-9 {
		t.Errorf("neighbouring bins should be empty: %v %v", spec[2], spec[4])
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 100))
	if len(ps) != 64 {
		t.Errorf("expected 64 bins, got %d", len(ps))
	}
	if PowerSpectrum(nil) != nil {
		t.Error("expected nil for empty input")
	}
}

func TestStandingWaveTime(t *testing.T) {
	// half a period of mode 1 on L=1, c=1 flips the sign
	u := StandingWave(11, 0.1, 1, 1, 1)
	if math.Abs(u[5]+1) > 1e-12 {
		t.Errorf("expected -1 at the midpoint, got %v", u[5])
	}
}
