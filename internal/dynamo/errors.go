package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for body construction and stepping.
var (
	// ErrMeshLoad indicates the mesh source could not be read or parsed.
	ErrMeshLoad = errors.New("dynamo: mesh load failed")

	// ErrEmptyMesh indicates a mesh source produced no usable faces.
	ErrEmptyMesh = errors.New("dynamo: mesh has no faces")

	// ErrInvalidConfig indicates a step or body configuration is out of range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnstable indicates a particle position became NaN or Inf.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrUnknownKind indicates a scene component carries an unhandled kind tag.
	ErrUnknownKind = errors.New("dynamo: unknown component kind")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
