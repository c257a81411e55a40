package wave

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func TestNewGridValidation(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want error
	}{
		{"ok", Params{Nx: 3, Dx: 1, Dt: 0.5, C: 1}, nil},
		{"nx two", Params{Nx: 2, Dx: 1, Dt: 0.5, C: 1}, ErrInvalidGridSize},
		{"nx zero", Params{Nx: 0, Dx: 1, Dt: 0.5, C: 1}, ErrInvalidGridSize},
		{"zero dx", Params{Nx: 5, Dx: 0, Dt: 0.5, C: 1}, ErrInvalidParameter},
		{"negative dt", Params{Nx: 5, Dx: 1, Dt: -0.1, C: 1}, ErrInvalidParameter},
		{"zero speed", Params{Nx: 5, Dx: 1, Dt: 0.1, C: 0}, ErrInvalidParameter},
		{"nan dx", Params{Nx: 5, Dx: math.NaN(), Dt: 0.1, C: 1}, ErrInvalidParameter},
		{"inf speed", Params{Nx: 5, Dx: 1, Dt: 0.1, C: math.Inf(1)}, ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.p)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(g.Previous()) != tt.p.Nx || len(g.Current()) != tt.p.Nx || len(g.Next()) != tt.p.Nx {
					t.Error("all layers must have length nx")
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGridRotate(t *testing.T) {
	g, err := NewGrid(Params{Nx: 4, Dx: 1, Dt: 0.25, C: 1})
	if err != nil {
		t.Fatal(err)
	}

	prev, cur, next := g.Previous(), g.Current(), g.Next()
	g.Rotate()

	if &g.Previous()[0] != &cur[0] {
		t.Error("previous should be the old current buffer")
	}
	if &g.Current()[0] != &next[0] {
		t.Error("current should be the old next buffer")
	}
	if &g.Next()[0] != &prev[0] {
		t.Error("next should reuse the old previous buffer")
	}
	if g.Step != 1 || g.Time != 0.25 {
		t.Errorf("expected step 1 at t=0.25, got step %d at t=%v", g.Step, g.Time)
	}

	g.Rotate()
	g.Rotate()
	if &g.Previous()[0] != &prev[0] {
		t.Error("three rotations should restore the original roles")
	}
}

func TestGridSeed(t *testing.T) {
	g, _ := NewGrid(Params{Nx: 3, Dx: 1, Dt: 1, C: 1})
	g.Rotate()

	if err := g.Seed(Layer{1, 2, 3}, Layer{4, 5, 6}); err != nil {
		t.Fatal(err)
	}
	if g.Step != 0 || g.Time != 0 {
		t.Error("seed should reset the clock")
	}
	if g.Previous()[1] != 2 || g.Current()[2] != 6 {
		t.Error("seed did not copy layers")
	}

	if err := g.Seed(Layer{1}, Layer{1, 2, 3}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
}

func TestCheckCourant(t *testing.T) {
	g, _ := NewGrid(Params{Nx: 5, Dx: 1, Dt: 0.5, C: 1})
	if g.Courant() != 0.5 {
		t.Errorf("expected courant 0.5, got %v", g.Courant())
	}
	if err := g.CheckCourant(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	g, _ = NewGrid(Params{Nx: 5, Dx: 1, Dt: 1.5, C: 1})
	if err := g.CheckCourant(); !errors.Is(err, ErrCourantViolation) {
		t.Errorf("expected courant violation, got %v", err)
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, n)
		ParallelFor(n, 8, 4, func(s, e int) {
			for i := s; i < e; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}
