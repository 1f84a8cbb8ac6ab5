// Package table turns a reading snapshot into the normalized row-set used by
// both the PDF table and the spreadsheet export.
package table

import (
	readings "bptracker/internal/readings/domain"
	reporting "bptracker/internal/reporting/domain"
)

// Format returns the header plus one row per reading, in snapshot order.
func Format(snap readings.Snapshot) reporting.Table {
	list := snap.Readings()
	rows := make([]reporting.TableRow, 0, len(list))
	for _, r := range list {
		rows = append(rows, reporting.TableRow{
			Systolic:   r.Systolic,
			Diastolic:  r.Diastolic,
			MeasuredAt: r.MeasuredAt.Format(reporting.MeasuredAtLayout),
		})
	}
	return reporting.Table{Header: reporting.TableHeader, Rows: rows}
}
