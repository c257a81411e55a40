package metrics

import (
	"errors"
	"math"
)

var (
	ErrLengthMismatch = errors.New("metrics: solution and reference lengths differ")
	ErrTooFewPoints   = errors.New("metrics: need at least two points for a convergence rate")
	ErrNonPositive    = errors.New("metrics: errors and spacings must be positive")
)

// Norms are the L1 (mean), L2 (RMS) and max-norm errors against a reference.
type Norms struct {
	L1   float64 `json:"l1"`
	L2   float64 `json:"l2"`
	Linf float64 `json:"linf"`
}

func ErrorNorms(u, ref []float64) (Norms, error) {
	if len(u) != len(ref) {
		return Norms{}, ErrLengthMismatch
	}
	if len(u) == 0 {
		return Norms{}, nil
	}
	var n Norms
	sq := 0.0
	for i := range u {
		d := math.Abs(u[i] - ref[i])
		n.L1 += d
		sq += d * d
		n.Linf = math.Max(n.Linf, d)
	}
	count := float64(len(u))
	n.L1 /= count
	n.L2 = math.Sqrt(sq / count)
	return n, nil
}

// ConvergenceRate is the log-log slope between the last two (dx, error)
// points.
func ConvergenceRate(dx, errs []float64) (float64, error) {
	if len(dx) < 2 || len(errs) < 2 {
		return 0, ErrTooFewPoints
	}
	x1, x2 := dx[len(dx)-2], dx[len(dx)-1]
	e1, e2 := errs[len(errs)-2], errs[len(errs)-1]
	if e1 <= 0 || e2 <= 0 || x1 <= 0 || x2 <= 0 || x1 == x2 {
		return 0, ErrNonPositive
	}
	return (math.Log(e2) - math.Log(e1)) / (math.Log(x2) - math.Log(x1)), nil
}
