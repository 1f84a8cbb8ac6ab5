// Package chart renders reading snapshots as PNG line charts.
//
// Each Render call builds its own chart value; there is no shared figure
// state, so concurrent requests never observe each other's drawing.
package chart

import (
	"bytes"
	"fmt"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	readings "bptracker/internal/readings/domain"
	reporting "bptracker/internal/reporting/domain"
)

const (
	baseDPI      = 92.0
	maxAutoTicks = 10
	day          = 24 * time.Hour

	defaultTitle = "Blood Pressure Over Time"
	xAxisName    = "Date"
	yAxisName    = "Blood Pressure (mmHg)"
)

var (
	systolicColor  = drawing.ColorFromHex("1f77b4")
	diastolicColor = drawing.ColorFromHex("ff7f0e")
	referenceColor = []drawing.Color{drawing.ColorFromHex("d62728"), drawing.ColorFromHex("9467bd")}
)

// Options controls the rendered size and tick density.
type Options struct {
	Title        string  `yaml:"title"`
	WidthInches  float64 `yaml:"width_inches"`
	HeightInches float64 `yaml:"height_inches"`
	DPI          float64 `yaml:"dpi"`
	// TickDays spaces date ticks; zero picks a spacing that keeps about ten labels.
	TickDays int `yaml:"tick_days"`
}

// InlineOptions is the low-resolution variant embedded in the HTML list page.
func InlineOptions() Options {
	return Options{Title: defaultTitle, WidthInches: 10, HeightInches: 6, DPI: 100}
}

// DocumentOptions is the print variant embedded in the PDF, with biweekly ticks.
func DocumentOptions() Options {
	return Options{Title: defaultTitle, WidthInches: 10, HeightInches: 6, DPI: 800, TickDays: 14}
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = defaultTitle
	}
	if o.WidthInches <= 0 {
		o.WidthInches = 10
	}
	if o.HeightInches <= 0 {
		o.HeightInches = 6
	}
	if o.DPI <= 0 {
		o.DPI = 100
	}
	return o
}

// Pixels returns the image size implied by the inches and DPI.
func (o Options) Pixels() (int, int) {
	o = o.withDefaults()
	return int(math.Round(o.WidthInches * o.DPI)), int(math.Round(o.HeightInches * o.DPI))
}

// Clock provides time for anchoring empty charts.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Renderer draws charts. The zero value is not usable; use NewRenderer.
type Renderer struct {
	clock Clock
}

// Option configures the renderer.
type Option func(*Renderer)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(r *Renderer) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRenderer constructs a renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{clock: systemClock{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Figure is the resolved plot before rasterisation.
type Figure struct {
	Title      string
	Series     []reporting.Series
	References []reporting.ReferenceLine
	XMin       time.Time
	XMax       time.Time
	YMin       float64
	YMax       float64
	Ticks      []time.Time
}

// TickLabels returns the x-axis labels.
func (f Figure) TickLabels() []string {
	labels := make([]string, 0, len(f.Ticks))
	for _, t := range f.Ticks {
		labels = append(labels, t.Format(reporting.DateLayout))
	}
	return labels
}

// Plot resolves series, reference lines, ranges and ticks. Readings are used
// in snapshot order.
func (r *Renderer) Plot(snap readings.Snapshot, opts Options) Figure {
	opts = opts.withDefaults()
	list := snap.Readings()

	systolic := reporting.Series{Name: "Systolic", Points: make([]reporting.Point, 0, len(list))}
	diastolic := reporting.Series{Name: "Diastolic", Points: make([]reporting.Point, 0, len(list))}
	for _, reading := range list {
		systolic.Points = append(systolic.Points, reporting.Point{At: reading.MeasuredAt, Value: float64(reading.Systolic)})
		diastolic.Points = append(diastolic.Points, reporting.Point{At: reading.MeasuredAt, Value: float64(reading.Diastolic)})
	}

	fig := Figure{
		Title:      opts.Title,
		Series:     []reporting.Series{systolic, diastolic},
		References: reporting.ReferenceLines(),
	}
	fig.XMin, fig.XMax = r.timeRange(snap, list)
	fig.YMin, fig.YMax = valueRange(list)
	fig.Ticks = dateTicks(fig.XMin, fig.XMax, opts.TickDays)
	return fig
}

// Render plots the snapshot and encodes it as PNG.
func (r *Renderer) Render(snap readings.Snapshot, opts Options) (reporting.Chart, error) {
	opts = opts.withDefaults()
	fig := r.Plot(snap, opts)
	width, height := opts.Pixels()
	scale := opts.DPI / baseDPI

	series := make([]gochart.Series, 0, len(fig.Series)+len(fig.References))
	colors := []drawing.Color{systolicColor, diastolicColor}
	for i, s := range fig.Series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]time.Time, 0, len(s.Points))
		ys := make([]float64, 0, len(s.Points))
		for _, p := range s.Points {
			xs = append(xs, p.At)
			ys = append(ys, p.Value)
		}
		series = append(series, gochart.TimeSeries{
			Name: s.Name,
			Style: gochart.Style{
				StrokeColor: colors[i%len(colors)],
				StrokeWidth: 2 * scale,
				DotColor:    colors[i%len(colors)],
				DotWidth:    3 * scale,
			},
			XValues: xs,
			YValues: ys,
		})
	}
	for i, ref := range fig.References {
		series = append(series, gochart.TimeSeries{
			Name: ref.Label,
			Style: gochart.Style{
				StrokeColor:     referenceColor[i%len(referenceColor)],
				StrokeWidth:     1.5 * scale,
				StrokeDashArray: []float64{6 * scale, 4 * scale},
			},
			XValues: []time.Time{fig.XMin, fig.XMax},
			YValues: []float64{ref.Value, ref.Value},
		})
	}

	xTicks := make([]gochart.Tick, 0, len(fig.Ticks))
	for _, t := range fig.Ticks {
		xTicks = append(xTicks, gochart.Tick{Value: gochart.TimeToFloat64(t), Label: t.Format(reporting.DateLayout)})
	}
	pad := int(math.Round(20 * scale))
	graph := gochart.Chart{
		Title:      fig.Title,
		Width:      width,
		Height:     height,
		DPI:        opts.DPI,
		Background: gochart.Style{Padding: gochart.Box{Top: 2 * pad, Left: pad, Right: pad, Bottom: pad}},
		XAxis: gochart.XAxis{
			Name:  xAxisName,
			Ticks: xTicks,
			Range: &gochart.ContinuousRange{Min: gochart.TimeToFloat64(fig.XMin), Max: gochart.TimeToFloat64(fig.XMax)},
		},
		YAxis: gochart.YAxis{
			Name:  yAxisName,
			Ticks: valueTicks(fig.YMin, fig.YMax),
			Range: &gochart.ContinuousRange{Min: fig.YMin, Max: fig.YMax},
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return reporting.Chart{}, fmt.Errorf("%w: %v", reporting.ErrChartEncode, err)
	}
	return reporting.Chart{PNG: buf.Bytes(), WidthPx: width, HeightPx: height}, nil
}

func (r *Renderer) timeRange(snap readings.Snapshot, list []readings.Reading) (time.Time, time.Time) {
	if len(list) == 0 {
		anchor := snap.TakenAt()
		if anchor.IsZero() {
			anchor = r.clock.Now()
		}
		start := truncateDay(anchor)
		return start, start.Add(day)
	}
	minT, maxT := list[0].MeasuredAt, list[0].MeasuredAt
	for _, reading := range list[1:] {
		if reading.MeasuredAt.Before(minT) {
			minT = reading.MeasuredAt
		}
		if reading.MeasuredAt.After(maxT) {
			maxT = reading.MeasuredAt
		}
	}
	span := maxT.Sub(minT)
	if span <= 0 {
		return minT.Add(-day / 2), maxT.Add(day / 2)
	}
	pad := span / 20
	return minT.Add(-pad), maxT.Add(pad)
}

func valueRange(list []readings.Reading) (float64, float64) {
	lo := float64(reporting.DiastolicThreshold)
	hi := float64(reporting.SystolicThreshold)
	for _, reading := range list {
		lo = math.Min(lo, float64(reading.Diastolic))
		lo = math.Min(lo, float64(reading.Systolic))
		hi = math.Max(hi, float64(reading.Systolic))
		hi = math.Max(hi, float64(reading.Diastolic))
	}
	lo = math.Max(0, math.Floor((lo-10)/10)*10)
	hi = math.Ceil((hi+10)/10) * 10
	return lo, hi
}

func valueTicks(lo, hi float64) []gochart.Tick {
	step := 10.0
	if hi-lo > 200 {
		step = 20
	}
	ticks := make([]gochart.Tick, 0, int((hi-lo)/step)+1)
	for v := lo; v <= hi; v += step {
		ticks = append(ticks, gochart.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return ticks
}

func dateTicks(from, to time.Time, stepDays int) []time.Time {
	if stepDays <= 0 {
		days := int(math.Ceil(to.Sub(from).Hours() / 24))
		stepDays = int(math.Ceil(float64(days) / maxAutoTicks))
		if stepDays < 1 {
			stepDays = 1
		}
	}
	start := truncateDay(from)
	if start.Before(from) {
		start = start.AddDate(0, 0, 1)
	}
	var ticks []time.Time
	for t := start; !t.After(to); t = t.AddDate(0, 0, stepDays) {
		ticks = append(ticks, t)
	}
	if len(ticks) >= 2 {
		return ticks
	}
	// step wider than the range: label the first and last midnight inside it
	last := truncateDay(to)
	switch {
	case last.After(start):
		return []time.Time{start, last}
	case !start.After(to):
		return []time.Time{start}
	}
	return []time.Time{from, to}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
