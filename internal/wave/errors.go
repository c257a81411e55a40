package wave

import (
	"errors"
	"fmt"
)

// Domain errors for grid construction.
var (
	// ErrInvalidGridSize indicates fewer than three grid points.
	ErrInvalidGridSize = errors.New("wave: grid needs at least 3 points")

	// ErrInvalidParameter indicates a non-positive spacing, time step or wave speed.
	ErrInvalidParameter = errors.New("wave: parameter must be positive and finite")

	// ErrDimensionMismatch indicates a layer whose length differs from Nx.
	ErrDimensionMismatch = errors.New("wave: layer length does not match grid size")

	// ErrCourantViolation indicates c*dt/dx > 1.
	ErrCourantViolation = errors.New("wave: courant number exceeds 1")
)

// ParamError wraps a sentinel with the offending field.
type ParamError struct {
	Field   string
	Value   float64
	Wrapped error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s (%s=%g)", e.Wrapped.Error(), e.Field, e.Value)
}

func (e *ParamError) Unwrap() error {
	return e.Wrapped
}
