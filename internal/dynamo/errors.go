package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors. Callers select behavior with errors.Is.
var (
	// ErrInvalidParameters indicates a request rejected before any computation.
	ErrInvalidParameters = errors.New("dynamo: invalid parameters")

	// ErrIntegrationFailure indicates the solver could not produce a trajectory.
	ErrIntegrationFailure = errors.New("dynamo: integration failed")

	// ErrExpression indicates a vector-field expression that does not parse.
	ErrExpression = errors.New("dynamo: invalid expression")

	// ErrFitFailure indicates the least-squares fit did not converge.
	ErrFitFailure = errors.New("dynamo: curve fit failed")

	// ErrUnknownModel indicates a model or preset name with no registration.
	ErrUnknownModel = errors.New("dynamo: unknown model")
)

// Causes carried by IntegrationError.
var (
	// ErrNonFinite indicates a NaN or Inf component in the state.
	ErrNonFinite = errors.New("state is not finite (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive step fell below the minimum.
	ErrStepTooSmall = errors.New("adaptive timestep below minimum")

	// ErrStepBudget indicates the solver took more steps than allowed.
	ErrStepBudget = errors.New("step budget exceeded")
)

// ParameterError names the offending input of a rejected request.
type ParameterError struct {
	Name   string
	Value  any
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Name, e.Reason, e.Value)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameters
}

// InvalidParameter is shorthand for building a *ParameterError.
func InvalidParameter(name string, value any, reason string) error {
	return &ParameterError{Name: name, Value: value, Reason: reason}
}

// IntegrationError wraps a solver failure with the point where it happened.
type IntegrationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%s: step %d (t=%.4f): %s", ErrIntegrationFailure, e.Step, e.Time, e.Wrapped)
}

// Is reports both the integration sentinel and the wrapped cause.
func (e *IntegrationError) Is(target error) bool {
	return target == ErrIntegrationFailure
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}
