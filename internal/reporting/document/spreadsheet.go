package document

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	reporting "bptracker/internal/reporting/domain"
)

// SheetName is the single worksheet in the export.
const SheetName = "Blood Pressure"

// ComposeSpreadsheet writes the table as header plus data rows. Pressures are
// stored as numbers, timestamps as formatted text.
func ComposeSpreadsheet(table reporting.Table) (reporting.Document, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return reporting.Document{}, fmt.Errorf("%w: %v", reporting.ErrComposeFailed, err)
	}
	header := []any{table.Header[0], table.Header[1], table.Header[2]}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return reporting.Document{}, fmt.Errorf("%w: %v", reporting.ErrComposeFailed, err)
	}
	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return reporting.Document{}, fmt.Errorf("%w: %v", reporting.ErrComposeFailed, err)
		}
		values := []any{row.Systolic, row.Diastolic, row.MeasuredAt}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return reporting.Document{}, fmt.Errorf("%w: %v", reporting.ErrComposeFailed, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return reporting.Document{}, fmt.Errorf("%w: %v", reporting.ErrComposeFailed, err)
	}
	return reporting.Document{
		Format:      reporting.FormatXLSX,
		ContentType: reporting.ContentTypeXLSX,
		Filename:    reporting.FilenameXLSX,
		Bytes:       buf.Bytes(),
		Pages:       1,
		Rows:        table.Len(),
	}, nil
}
