package sim

import (
	"time"

	"github.com/san-kum/vortex2d/internal/field"
)

// SolveResult is the immutable output of one solve. EndTime is the time
// actually integrated to, Steps*Dt; it differs from Config.TFinal when
// TFinal is not a multiple of Dt.
type SolveResult struct {
	Config      SimulationConfig
	Snapshots   []field.Snapshot
	Final       *field.Field
	Diagnostics field.Diagnostics
	Steps       int
	EndTime     float64
	Elapsed     time.Duration
}

// StepInfo is handed to progress observers after each completed step.
// MaxSpeed is the largest velocity component magnitude of the current
// field, derived from the same streamfunction as the diagnostics.
type StepInfo struct {
	Step        int
	Time        float64
	Diagnostics field.Diagnostics
	MaxSpeed    float64
}

// Observer receives per-step progress. Implementations must tolerate being
// called from the solver goroutine; the solver tolerates a nil observer.
type Observer interface {
	OnStep(info StepInfo)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(info StepInfo)

func (f ObserverFunc) OnStep(info StepInfo) { f(info) }

// Notify is the nil-safe dispatch used by solvers.
func Notify(o Observer, info StepInfo) {
	if o != nil {
		o.OnStep(info)
	}
}
