package sim

import "fmt"

// InvalidConfigError reports a configuration rejected before any stepping:
// non-positive sizes, unknown initial-condition profiles, incompatible
// method selections.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...any) *InvalidConfigError {
	return &InvalidConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// StabilityViolationError reports a dt/nu/grid combination that violates the
// advective or diffusive stability bound. Detected from the configuration
// alone, before any field is allocated.
type StabilityViolationError struct {
	Kind    string // "advective" or "diffusive"
	Dt      float64
	Limit   float64
	Message string
}

func (e *StabilityViolationError) Error() string {
	return fmt.Sprintf("stability violation (%s): dt=%g exceeds limit %g: %s",
		e.Kind, e.Dt, e.Limit, e.Message)
}

// NumericalBlowupError reports a non-finite field value mid-run. It carries
// the failing step so a trial can be reported precisely instead of letting
// NaNs propagate.
type NumericalBlowupError struct {
	Step int
	Time float64
}

func (e *NumericalBlowupError) Error() string {
	return fmt.Sprintf("numerical blowup at step %d (t=%g): non-finite vorticity", e.Step, e.Time)
}
