// Package exportfile serializes tabular results into downloadable files.
// It is shared by the local current-view CSV path and the server-side
// full-dataset export paths.
package exportfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vantagedesk/vantage-console/pkg/tabular"
)

// Export formats.
const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

const sheetName = "Data"

// maxColumnWidth caps auto-fitted Excel column widths.
const maxColumnWidth = 50

// emptyHeader replaces the column set when a result has no columns at all,
// so even a completely empty export opens as a valid file.
const emptyHeader = "No Data Available"

// DefaultFilename returns the timestamped filename used when the client
// does not provide one.
func DefaultFilename(now time.Time) string {
	return "export_" + now.Format("20060102_150405")
}

// WriteCSV renders columns and rows as quoted CSV: one header line followed
// by one line per row, using the shared scalar display rule.
func WriteCSV(columns []string, rows [][]tabular.Scalar) ([]byte, error) {
	if len(columns) == 0 {
		columns = []string{emptyHeader}
		rows = nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i := range columns {
			if i < len(row) {
				record[i] = row[i].DisplayString()
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteExcel renders columns and rows as an xlsx workbook with a single
// "Data" sheet: styled header row, auto-fitted column widths capped at
// maxColumnWidth.
func WriteExcel(columns []string, rows [][]tabular.Scalar) ([]byte, error) {
	if len(columns) == 0 {
		columns = []string{emptyHeader}
		rows = nil
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	widths := make([]int, len(columns))
	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return nil, fmt.Errorf("failed to write header cell: %w", err)
		}
		widths[i] = len(name)
	}

	for rowIdx, row := range rows {
		for colIdx := range columns {
			if colIdx >= len(row) {
				continue
			}
			value := row[colIdx].DisplayString()
			if len(value) > widths[colIdx] {
				widths[colIdx] = len(value)
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D7E4BC"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, w := range widths {
		width := float64(w + 2)
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
