package readings

import "errors"

var (
	// ErrReadingNotFound is returned when no reading matches an id.
	ErrReadingNotFound = errors.New("readings: not found")
	// ErrInvalidSystolic is returned when systolic is out of range.
	ErrInvalidSystolic = errors.New("readings: systolic must be between 1 and 400")
	// ErrInvalidDiastolic is returned when diastolic is out of range.
	ErrInvalidDiastolic = errors.New("readings: diastolic must be between 1 and 400")
	// ErrMissingMeasuredAt is returned when the measurement time is zero.
	ErrMissingMeasuredAt = errors.New("readings: measured_at required")
	// ErrNilRepository is returned when a service is built without a store.
	ErrNilRepository = errors.New("readings: nil repository")
)
