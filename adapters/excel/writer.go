package excel

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"roidecode/domain/decoding"
	"roidecode/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Sheet1"
	skippedSheet = "Skipped"
)

var skippedColumns = []string{"roi_name", "stage", "reason"}

// WriteResultsCSV writes the results table rows to path
func WriteResultsCSV(path string, table *decoding.ResultsTable) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.IOError(path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(decoding.Columns); err != nil {
		return errors.IOError(path, err)
	}
	for _, row := range table.Rows {
		if err := w.Write(row.Record()); err != nil {
			return errors.IOError(path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.IOError(path, err)
	}
	return f.Close()
}

// WriteResultsXLSX writes results to Sheet1 and skipped ROIs to a second
// sheet. Numeric columns are stored as numbers.
func WriteResultsXLSX(path string, table *decoding.ResultsTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeRow(f, resultsSheet, 1, toCells(decoding.Columns)); err != nil {
		return err
	}
	for i, row := range table.Rows {
		cells := []interface{}{
			row.ROIName, row.SVMAUC, row.SVMStd, row.DummyAUC, row.DummyStd,
			row.Difference, row.TStatistic, row.PValue, row.Significant,
		}
		for c, v := range cells {
			// excelize cannot store NaN or Inf as numbers
			if x, ok := v.(float64); ok && !isFinite(x) {
				cells[c] = strconv.FormatFloat(x, 'g', -1, 64)
			}
		}
		if err := writeRow(f, resultsSheet, i+2, cells); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(skippedSheet); err != nil {
		return errors.Wrap(err, "create skipped sheet")
	}
	if err := writeRow(f, skippedSheet, 1, toCells(skippedColumns)); err != nil {
		return err
	}
	for i, s := range table.Skipped {
		if err := writeRow(f, skippedSheet, i+2, []interface{}{s.ROIName, s.Stage, s.Reason}); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.IOError(path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, cells []interface{}) error {
	for c, v := range cells {
		cell, err := excelize.CoordinatesToCellName(c+1, rowIdx)
		if err != nil {
			return errors.Wrap(err, "cell coordinates")
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return errors.Wrapf(err, "set %s!%s", sheet, cell)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
