package spin

import "errors"

// Domain errors for model construction and sampling.
var (
	// ErrSelfWrap indicates a bond whose displacement wraps the periodic
	// lattice back onto its own origin site.
	ErrSelfWrap = errors.New("spin: bond wraps the system")

	// ErrSymmetryViolation indicates a coupling tensor inconsistent with the
	// crystal symmetry of its bond orbit.
	ErrSymmetryViolation = errors.New("spin: coupling violates bond symmetry")

	// ErrDimensionMismatch indicates a state or tensor whose dimension does
	// not match the model's channel count.
	ErrDimensionMismatch = errors.New("spin: dimension mismatch")

	// ErrSiteOutOfRange indicates a sublattice or site index outside the
	// lattice.
	ErrSiteOutOfRange = errors.New("spin: site index out of range")

	// ErrIncompleteDiagonal indicates a structure-factor tensor missing
	// diagonal channel pairs required by a trace contraction.
	ErrIncompleteDiagonal = errors.New("spin: incomplete diagonal channel set")

	// ErrInvalidState indicates a configuration containing NaN or Inf.
	ErrInvalidState = errors.New("spin: invalid state (NaN or Inf detected)")
)

// ValidationError wraps a construction-time failure with the context a
// caller needs to fix the model definition.
type ValidationError struct {
	Detail  string
	Wrapped error
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Wrapped.Error()
	}
	return e.Wrapped.Error() + ": " + e.Detail
}

func (e *ValidationError) Unwrap() error {
	return e.Wrapped
}
