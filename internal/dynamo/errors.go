package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a field containing NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParameter indicates a parameter or preset name that is not declared.
	ErrUnknownParameter = errors.New("dynamo: unknown parameter")

	// ErrAllocation indicates a field buffer could not be allocated at the requested size.
	ErrAllocation = errors.New("dynamo: field allocation failed")

	// ErrDimensionMismatch indicates mismatched field dimensions between buffers.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between fields")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// FrameError wraps an error with frame context.
type FrameError struct {
	Frame   uint64
	Time    float64
	Wrapped error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %v", e.Frame, e.Time, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
