package chart

import (
	"bytes"
	"image/png"
	"reflect"
	"testing"
	"time"

	readings "bptracker/internal/readings/domain"
	reporting "bptracker/internal/reporting/domain"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func twoReadings() readings.Snapshot {
	return readings.NewSnapshot([]readings.Reading{
		{ID: 1, Systolic: 120, Diastolic: 80, MeasuredAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		{ID: 2, Systolic: 130, Diastolic: 85, MeasuredAt: time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)},
	}, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
}

func TestPlot_SeriesAndReferenceLines(t *testing.T) {
	fig := NewRenderer().Plot(twoReadings(), InlineOptions())

	if len(fig.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(fig.Series))
	}
	for _, s := range fig.Series {
		if len(s.Points) != 2 {
			t.Fatalf("series %s: expected 2 points, got %d", s.Name, len(s.Points))
		}
	}
	if fig.Series[0].Points[1].Value != 130 || fig.Series[1].Points[0].Value != 80 {
		t.Fatalf("unexpected values %+v", fig.Series)
	}
	if len(fig.References) != 2 || fig.References[0].Value != reporting.SystolicThreshold || fig.References[1].Value != reporting.DiastolicThreshold {
		t.Fatalf("unexpected references %+v", fig.References)
	}
	if fig.YMin > 80 || fig.YMax < 140 {
		t.Fatalf("range %v..%v does not cover data and thresholds", fig.YMin, fig.YMax)
	}

	labels := fig.TickLabels()
	if len(labels) < 2 {
		t.Fatalf("expected date ticks, got %v", labels)
	}
	if labels[0] != "2024-01-01" && labels[0] != "2024-01-02" {
		t.Fatalf("unexpected first tick %q", labels[0])
	}
}

func TestPlot_DocumentTicksAreBiweekly(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	var list []readings.Reading
	for i := 0; i < 90; i++ {
		list = append(list, readings.Reading{ID: int64(i + 1), Systolic: 125, Diastolic: 82, MeasuredAt: base.AddDate(0, 0, i)})
	}
	fig := NewRenderer().Plot(readings.NewSnapshot(list, base), DocumentOptions())

	if len(fig.Ticks) < 2 {
		t.Fatalf("expected several ticks, got %d", len(fig.Ticks))
	}
	for i := 1; i < len(fig.Ticks); i++ {
		if gap := fig.Ticks[i].Sub(fig.Ticks[i-1]); gap != 14*24*time.Hour {
			t.Fatalf("tick gap %v, want 14 days", gap)
		}
	}
}

func TestPlot_ShortDocumentTicksStayInsideData(t *testing.T) {
	fig := NewRenderer().Plot(twoReadings(), DocumentOptions())

	want := []string{"2024-01-01", "2024-01-08"}
	if got := fig.TickLabels(); !reflect.DeepEqual(got, want) {
		t.Fatalf("tick labels %v, want %v", got, want)
	}
	for _, tick := range fig.Ticks {
		if tick.Before(fig.XMin) || tick.After(fig.XMax) {
			t.Fatalf("tick %v outside %v..%v", tick, fig.XMin, fig.XMax)
		}
	}
}

func TestPlot_SingleReadingHasOneTick(t *testing.T) {
	snap := readings.NewSnapshot([]readings.Reading{
		{ID: 1, Systolic: 120, Diastolic: 80, MeasuredAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
	}, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	fig := NewRenderer().Plot(snap, DocumentOptions())

	if got := fig.TickLabels(); !reflect.DeepEqual(got, []string{"2024-01-01"}) {
		t.Fatalf("unexpected tick labels %v", got)
	}
}

func TestPlot_EmptyAnchorsOnSnapshotTime(t *testing.T) {
	taken := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	fig := NewRenderer().Plot(readings.NewSnapshot(nil, taken), InlineOptions())

	if len(fig.Series[0].Points) != 0 || len(fig.Series[1].Points) != 0 {
		t.Fatalf("expected empty series")
	}
	if !fig.XMin.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)) || fig.XMax.Sub(fig.XMin) != 24*time.Hour {
		t.Fatalf("unexpected empty range %v..%v", fig.XMin, fig.XMax)
	}
	if len(fig.References) != 2 {
		t.Fatalf("reference lines must be drawn on empty charts")
	}
}

func TestRender_PNGSize(t *testing.T) {
	r := NewRenderer()
	opts := Options{WidthInches: 4, HeightInches: 3, DPI: 50}

	out, err := r.Render(twoReadings(), opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out.PNG))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 150 {
		t.Fatalf("unexpected size %dx%d", cfg.Width, cfg.Height)
	}
	if out.WidthPx != 200 || out.HeightPx != 150 {
		t.Fatalf("chart metadata %dx%d", out.WidthPx, out.HeightPx)
	}
	if out.Base64() == "" {
		t.Fatalf("expected base64 payload")
	}
}

func TestRender_EmptySnapshot(t *testing.T) {
	r := NewRenderer(WithClock(fixedClock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}))

	out, err := r.Render(readings.NewSnapshot(nil, time.Time{}), Options{WidthInches: 4, HeightInches: 3, DPI: 50})
	if err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(out.PNG)); err != nil {
		t.Fatalf("empty chart is not a valid png: %v", err)
	}
}
