package document

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	reporting "bptracker/internal/reporting/domain"
)

const (
	chartImageName = "chart"

	fontFamily    = "Arial"
	titleSize     = 18
	headingSize   = 14
	bodySize      = 10
	rowHeight     = 8.0
	headingHeight = 10.0
)

var columnWidths = [3]float64{60, 60, 90}

// PDFOptions controls the PDF layout.
type PDFOptions struct {
	Title string `yaml:"title"`
	// ImageWidthMM is the chart width on the page; height follows the PNG aspect ratio.
	ImageWidthMM float64 `yaml:"image_width_mm"`
	// CreatedAt is stamped as both creation and modification date; a zero
	// value uses the Unix epoch.
	CreatedAt time.Time `yaml:"-"`
}

// DefaultPDFOptions returns the standard report layout.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{Title: "Blood Pressure Report", ImageWidthMM: 250}
}

// ComposePDF lays out the chart on the first page and the table on the
// following pages. Landscape Letter, millimetre units.
func ComposePDF(chart reporting.Chart, table reporting.Table, opts PDFOptions) (reporting.Document, error) {
	if len(chart.PNG) == 0 {
		return reporting.Document{}, reporting.ErrEmptyChart
	}
	defaults := DefaultPDFOptions()
	if opts.Title == "" {
		opts.Title = defaults.Title
	}
	if opts.ImageWidthMM <= 0 {
		opts.ImageWidthMM = defaults.ImageWidthMM
	}
	createdAt := opts.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Unix(0, 0).UTC()
	}

	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetCreationDate(createdAt)
	pdf.SetModificationDate(createdAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(opts.Title, true)
	pdf.SetAutoPageBreak(false, 10)
	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", titleSize)
	pdf.CellFormat(0, 12, opts.Title, "", 1, "C", false, 0, "")
	pdf.Ln(2)
	heading(pdf, "Graph")

	info := pdf.RegisterImageOptionsReader(chartImageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(chart.PNG))
	if err := pdf.Error(); err != nil {
		return reporting.Document{}, fmt.Errorf("%w: chart image: %v", reporting.ErrComposeFailed, err)
	}
	imgW := opts.ImageWidthMM
	if maxW := pageW - left - right; imgW > maxW {
		imgW = maxW
	}
	imgH := imgW * info.Height() / info.Width()
	if maxH := pageH - bottom - pdf.GetY(); imgH > maxH {
		imgW = imgW * maxH / imgH
		imgH = maxH
	}
	pdf.ImageOptions(chartImageName, (pageW-imgW)/2, pdf.GetY(), imgW, imgH, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.AddPage()
	heading(pdf, "Table Data")
	writeTable(pdf, table, pageW, pageH-bottom)

	if err := pdf.Error(); err != nil {
		return reporting.Document{}, fmt.Errorf("%w: %v", reporting.ErrComposeFailed, err)
	}
	pages := pdf.PageCount()
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return reporting.Document{}, fmt.Errorf("%w: %v", reporting.ErrComposeFailed, err)
	}
	return reporting.Document{
		Format:      reporting.FormatPDF,
		ContentType: reporting.ContentTypePDF,
		Filename:    reporting.FilenamePDF,
		Bytes:       buf.Bytes(),
		Pages:       pages,
		Rows:        table.Len(),
	}, nil
}

func heading(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont(fontFamily, "B", headingSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, headingHeight, text, "", 1, "L", false, 0, "")
}

// writeTable draws the grid, breaking pages by hand so the header row can be
// repeated at the top of every continuation page.
func writeTable(pdf *gofpdf.Fpdf, table reporting.Table, pageW, limitY float64) {
	tableW := columnWidths[0] + columnWidths[1] + columnWidths[2]
	x := (pageW - tableW) / 2
	pdf.SetDrawColor(160, 160, 160)
	pdf.SetLineWidth(0.2)

	cells := table.Cells()
	headerRow(pdf, x, cells[0])
	for i, row := range cells[1:] {
		if pdf.GetY()+rowHeight > limitY {
			pdf.AddPage()
			headerRow(pdf, x, cells[0])
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.SetFont(fontFamily, "", bodySize)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetX(x)
		for c, value := range row {
			pdf.CellFormat(columnWidths[c], rowHeight, value, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func headerRow(pdf *gofpdf.Fpdf, x float64, header []string) {
	pdf.SetFont(fontFamily, "B", bodySize)
	pdf.SetFillColor(52, 73, 94)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetX(x)
	for c, value := range header {
		pdf.CellFormat(columnWidths[c], rowHeight, value, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}
