package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrConfiguration = errors.New("invalid decoding configuration")
	ErrNoUsableROI   = fmt.Errorf("%w: no usable ROI mask", ErrConfiguration)
	ErrEmptyMask     = errors.New("mask contains no voxels")

	// Data errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrShapeMismatch    = errors.New("voxel grid shape mismatch")
	ErrLengthMismatch   = errors.New("input length mismatch")
	ErrInvalidLabel     = errors.New("invalid valence label")

	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrHashMismatch     = errors.New("hash mismatch")
)

// Error constructors with context
func NewInsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

func NewShapeMismatchError(what string, got, want fmt.Stringer) error {
	return fmt.Errorf("%w: %s has shape %s, expected %s", ErrShapeMismatch, what, got, want)
}

func NewLengthMismatchError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has %d entries, expected %d", ErrLengthMismatch, what, got, want)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrInvalidLabel)
}
