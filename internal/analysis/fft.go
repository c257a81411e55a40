package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// PowerSpectrum returns |FFT| of u zero-padded to a power of two, first
// half only.
func PowerSpectrum(u []float64) []float64 {
	if len(u) == 0 {
		return nil
	}
	padded := make([]float64, nextPow2(len(u)))
	copy(padded, u)

	spec := fft.FFTReal(padded)
	ps := make([]float64, max(len(spec)/2, 1))
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// OddExtension mirrors u as [u, -reverse(u[1:n-1])], a 2(n-1)-periodic
// signal whose FFT bin m is the amplitude of sin(m*pi*x/L).
func OddExtension(u []float64) []float64 {
	n := len(u)
	if n < 2 {
		return append([]float64(nil), u...)
	}
	out := make([]float64, 0, 2*(n-1))
	out = append(out, u[:n-1]...)
	for i := n - 1; i > 0; i-- {
		out = append(out, -u[i])
	}
	return out
}

// ModeSpectrum is the sine-mode amplitude spectrum of a layer on [0, L].
func ModeSpectrum(u []float64) []float64 {
	ext := OddExtension(u)
	if len(ext) == 0 {
		return nil
	}
	spec := fft.FFTReal(ext)
	half := len(spec) / 2
	out := make([]float64, half)
	scale := 2 / float64(len(spec))
	for i := range out {
		out[i] = cmplx.Abs(spec[i]) * scale
	}
	return out
}

// DominantMode is the index of the largest non-constant mode.
func DominantMode(u []float64) int {
	spec := ModeSpectrum(u)
	best, idx := 0.0, 0
	for i := 1; i < len(spec); i++ {
		if spec[i] > best {
			best, idx = spec[i], i
		}
	}
	return idx
}

// StandingWave evaluates sin(m*pi*x/L)*cos(m*pi*c*t/L) on the grid.
func StandingWave(nx int, dx, c, t float64, mode int) []float64 {
	l := dx * float64(nx-1)
	k := float64(mode) * math.Pi / l
	temporal := math.Cos(k * c * t)
	out := make([]float64, nx)
	for i := range out {
		out[i] = math.Sin(k*float64(i)*dx) * temporal
	}
	return out
}
