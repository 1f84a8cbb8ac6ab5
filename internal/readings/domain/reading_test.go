package readings

import (
	"errors"
	"testing"
	"time"
)

func TestNewReading_StripsZoneKeepsWallClock(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*3600)
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, zone)

	r, err := NewReading(120, 80, at)
	if err != nil {
		t.Fatalf("new reading: %v", err)
	}
	if r.MeasuredAt.Location() != time.UTC {
		t.Fatalf("expected UTC label, got %v", r.MeasuredAt.Location())
	}
	if r.MeasuredAt.Hour() != 8 || r.MeasuredAt.Day() != 1 {
		t.Fatalf("wall clock changed: %v", r.MeasuredAt)
	}
}

func TestNewReading_Validation(t *testing.T) {
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		systolic  int
		diastolic int
		at        time.Time
		want      error
	}{
		{name: "zero systolic", systolic: 0, diastolic: 80, at: at, want: ErrInvalidSystolic},
		{name: "negative diastolic", systolic: 120, diastolic: -1, at: at, want: ErrInvalidDiastolic},
		{name: "too high", systolic: 401, diastolic: 80, at: at, want: ErrInvalidSystolic},
		{name: "missing time", systolic: 120, diastolic: 80, at: time.Time{}, want: ErrMissingMeasuredAt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReading(tc.systolic, tc.diastolic, tc.at)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	list := []Reading{
		{ID: 1, Systolic: 120, Diastolic: 80, MeasuredAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		{ID: 2, Systolic: 130, Diastolic: 85, MeasuredAt: time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)},
	}
	snap := NewSnapshot(list, time.Now())
	list[0].Systolic = 999

	got := snap.Readings()
	if got[0].Systolic != 120 {
		t.Fatalf("snapshot shares backing array with caller")
	}
	got[1].Systolic = 999
	if snap.Readings()[1].Systolic != 130 {
		t.Fatalf("snapshot exposes internal slice")
	}
	if !snap.IsOrdered() {
		t.Fatalf("expected ordered snapshot")
	}
	if snap.Len() != 2 {
		t.Fatalf("expected 2 readings, got %d", snap.Len())
	}
}
