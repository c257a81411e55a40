package sim

// IsCadencePoint reports whether step is an emission step for stride.
// Strides below one are treated as one so that a run always emits.
func IsCadencePoint(step, stride int) bool {
	if stride < 1 {
		stride = 1
	}
	return step%stride == 0
}

// Scheduler decides when snapshots and energy samples are emitted. The
// stride is fixed for a run.
type Scheduler struct {
	stride int
}

func NewScheduler(stride int) Scheduler {
	return Scheduler{stride: max(stride, 1)}
}

func (s Scheduler) Stride() int { return max(s.stride, 1) }

func (s Scheduler) Due(step int) bool { return IsCadencePoint(step, s.stride) }

// Count is the number of cadence points in steps 1..nsteps.
func (s Scheduler) Count(nsteps int) int {
	if nsteps < 1 {
		return 0
	}
	return nsteps / s.Stride()
}
