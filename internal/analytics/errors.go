package analytics

import "errors"

var (
	// ErrInvalidInput is returned when a series is too short or malformed
	// for the requested operation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidArgument is returned for a bad window kind or value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrArithmeticDegenerate is returned by strict computations that would
	// otherwise divide by a zero variance.
	ErrArithmeticDegenerate = errors.New("arithmetic degenerate")
)
