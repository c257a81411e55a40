package sim

import (
	"errors"
	"math"
	"testing"
)

func TestIsCadencePoint(t *testing.T) {
	tests := []struct {
		step, stride int
		want         bool
	}{
		{0, 5, true},
		{5, 5, true},
		{6, 5, false},
		{7, 0, true},
		{7, -3, true},
		{9, 1, true},
	}
	for _, tt := range tests {
		if got := IsCadencePoint(tt.step, tt.stride); got != tt.want {
			t.Errorf("IsCadencePoint(%d, %d) = %v, want %v", tt.step, tt.stride, got, tt.want)
		}
	}
}

func TestSchedulerCount(t *testing.T) {
	tests := []struct {
		nsteps, stride, want int
	}{
		{200, 50, 4},
		{199, 50, 3},
		{10, 0, 10},
		{3, 7, 0},
		{0, 1, 0},
	}
	for _, tt := range tests {
		s := NewScheduler(tt.stride)
		if got := s.Count(tt.nsteps); got != tt.want {
			t.Errorf("Count(%d) stride %d = %d, want %d", tt.nsteps, tt.stride, got, tt.want)
		}
		n := 0
		for step := 1; step <= tt.nsteps; step++ {
			if s.Due(step) {
				n++
			}
		}
		if n != tt.want {
			t.Errorf("stride %d over %d steps: %d due, want %d", tt.stride, tt.nsteps, n, tt.want)
		}
	}
}

func TestNSteps(t *testing.T) {
	tests := []struct {
		tFinal, dt float64
		want       int
	}{
		{1.0, 0.3, 3},
		{1.0, 0.005, 200},
		{0.3, 0.1, 3},
		{1.0, 0.1, 10},
		{1.0, 1.0, 1},
	}
	for _, tt := range tests {
		got, err := NSteps(tt.tFinal, tt.dt)
		if err != nil {
			t.Errorf("NSteps(%v, %v): unexpected error %v", tt.tFinal, tt.dt, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NSteps(%v, %v) = %d, want %d", tt.tFinal, tt.dt, got, tt.want)
		}
	}
}

func TestNStepsRejects(t *testing.T) {
	tests := []struct {
		name       string
		tFinal, dt float64
		want       error
	}{
		{"shorter than dt", 0.1, 0.3, ErrNoStepsToRun},
		{"just below dt", 0.1 * (1 - 5e-10), 0.1, ErrNoStepsToRun},
		{"zero", 0, 0.1, ErrNoStepsToRun},
		{"negative", -1, 0.1, ErrNoStepsToRun},
		{"zero dt", 1, 0, ErrNoStepsToRun},
		{"beyond int32", 1e10, 1, ErrTooManySteps},
		{"infinite", math.Inf(1), 0.1, ErrTooManySteps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NSteps(tt.tFinal, tt.dt)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got n=%d err=%v", tt.want, n, err)
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{
		Uninitialized: "uninitialized",
		Initialized:   "initialized",
		Running:       "running",
		Finished:      "finished",
	} {
		if p.String() != want {
			t.Errorf("expected %s, got %s", want, p.String())
		}
	}
}
