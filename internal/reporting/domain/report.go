package reporting

import (
	"encoding/base64"
	"strconv"
	"time"
)

const (
	// MeasuredAtLayout formats timestamps in tables and spreadsheets.
	MeasuredAtLayout = "2006-01-02 15:04:05"
	// DateLayout formats chart axis labels.
	DateLayout = "2006-01-02"

	// SystolicThreshold is the fixed systolic reference line.
	SystolicThreshold = 140
	// DiastolicThreshold is the fixed diastolic reference line.
	DiastolicThreshold = 90
)

// Format identifies a rendered document kind.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	FilenamePDF  = "blood_pressure_data.pdf"
	FilenameXLSX = "blood_pressure_data.xlsx"
)

// Point is one (timestamp, value) pair.
type Point struct {
	At    time.Time
	Value float64
}

// Series is one metric plotted against time.
type Series struct {
	Name   string
	Points []Point
}

// ReferenceLine is a fixed horizontal threshold marker.
type ReferenceLine struct {
	Label string
	Value float64
}

// ReferenceLines returns the clinical threshold markers drawn on every chart.
func ReferenceLines() []ReferenceLine {
	return []ReferenceLine{
		{Label: "Systolic threshold (" + strconv.Itoa(SystolicThreshold) + ")", Value: SystolicThreshold},
		{Label: "Diastolic threshold (" + strconv.Itoa(DiastolicThreshold) + ")", Value: DiastolicThreshold},
	}
}

// TableHeader is the first row of every table.
var TableHeader = [3]string{"Systolic", "Diastolic", "Measured At"}

// TableRow is one formatted reading.
type TableRow struct {
	Systolic   int
	Diastolic  int
	MeasuredAt string
}

// Table is the normalized row-set shared by the PDF and spreadsheet.
type Table struct {
	Header [3]string
	Rows   []TableRow
}

// Len returns the row count including the header.
func (t Table) Len() int { return len(t.Rows) + 1 }

// Cells returns the stringified grid, header first.
func (t Table) Cells() [][]string {
	cells := make([][]string, 0, t.Len())
	cells = append(cells, []string{t.Header[0], t.Header[1], t.Header[2]})
	for _, row := range t.Rows {
		cells = append(cells, []string{strconv.Itoa(row.Systolic), strconv.Itoa(row.Diastolic), row.MeasuredAt})
	}
	return cells
}

// Chart is an encoded PNG chart.
type Chart struct {
	PNG      []byte
	WidthPx  int
	HeightPx int
}

// Base64 returns the PNG as standard base64 text for inline HTML.
func (c Chart) Base64() string {
	return base64.StdEncoding.EncodeToString(c.PNG)
}

// Document is a fully rendered export artifact.
type Document struct {
	Format      Format
	ContentType string
	Filename    string
	Bytes       []byte
	Pages       int
	Rows        int
}

// Size returns the byte length of the document.
func (d Document) Size() int { return len(d.Bytes) }
