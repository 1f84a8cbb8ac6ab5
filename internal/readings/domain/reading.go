package readings

import (
	"context"
	"errors"
	"time"
)

const (
	// MinPressure is the lowest accepted pressure value in mmHg.
	MinPressure = 1
	// MaxPressure is the highest accepted pressure value in mmHg.
	MaxPressure = 400
)

// Reading is one blood-pressure measurement.
type Reading struct {
	ID         int64     `json:"id"`
	Systolic   int       `json:"systolic"`
	Diastolic  int       `json:"diastolic"`
	MeasuredAt time.Time `json:"measured_at"`
}

// NewReading validates the values and returns a reading with a naive timestamp.
func NewReading(systolic, diastolic int, measuredAt time.Time) (Reading, error) {
	r := Reading{Systolic: systolic, Diastolic: diastolic, MeasuredAt: StripZone(measuredAt)}
	if err := r.Validate(); err != nil {
		return Reading{}, err
	}
	return r, nil
}

// Validate checks type/range constraints.
func (r Reading) Validate() error {
	var errs []error
	if r.Systolic < MinPressure || r.Systolic > MaxPressure {
		errs = append(errs, ErrInvalidSystolic)
	}
	if r.Diastolic < MinPressure || r.Diastolic > MaxPressure {
		errs = append(errs, ErrInvalidDiastolic)
	}
	if r.MeasuredAt.IsZero() {
		errs = append(errs, ErrMissingMeasuredAt)
	}
	return errors.Join(errs...)
}

// StripZone keeps the wall clock of t and drops its zone.
// The result carries the UTC location only as a label; no conversion happens.
func StripZone(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Repository is the reading store port.
type Repository interface {
	Insert(ctx context.Context, r Reading) (Reading, error)
	ListOrdered(ctx context.Context) ([]Reading, error)
	Get(ctx context.Context, id int64) (Reading, error)
	Delete(ctx context.Context, id int64) error
}

// Snapshot is an immutable, ascending-by-time copy of the stored readings.
type Snapshot struct {
	readings []Reading
	takenAt  time.Time
}

// NewSnapshot copies list as-is. Ordering is the store query's job.
func NewSnapshot(list []Reading, takenAt time.Time) Snapshot {
	copied := make([]Reading, len(list))
	copy(copied, list)
	return Snapshot{readings: copied, takenAt: takenAt}
}

// IsOrdered reports whether the readings ascend by MeasuredAt.
func (s Snapshot) IsOrdered() bool {
	for i := 1; i < len(s.readings); i++ {
		if s.readings[i].MeasuredAt.Before(s.readings[i-1].MeasuredAt) {
			return false
		}
	}
	return true
}

// Readings returns a copy of the snapshot contents.
func (s Snapshot) Readings() []Reading {
	out := make([]Reading, len(s.readings))
	copy(out, s.readings)
	return out
}

// Len returns the number of readings.
func (s Snapshot) Len() int { return len(s.readings) }

// TakenAt returns when the snapshot was materialised.
func (s Snapshot) TakenAt() time.Time { return s.takenAt }
