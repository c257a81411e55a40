package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrNoStepsToRun indicates floor(t_final/dt) < 1.
	ErrNoStepsToRun = errors.New("sim: t_final/dt yields no steps")

	// ErrTooManySteps indicates t_final/dt exceeds the step counter range.
	ErrTooManySteps = errors.New("sim: t_final/dt yields too many steps")

	// ErrAlreadyRun indicates Run was called on a driver that already ran.
	ErrAlreadyRun = errors.New("sim: driver already ran")

	// ErrCanceled indicates the run was interrupted between steps.
	ErrCanceled = errors.New("sim: run canceled")
)

// StepError wraps a sink failure with the step it happened on.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
