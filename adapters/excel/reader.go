// Package excel reads sample tables and writes results tables as CSV or XLSX.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"roidecode/domain/core"
	"roidecode/domain/volume"
	"roidecode/internal"
	"roidecode/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: logger.With("excel")}
}

// ReadData reads the raw table with trimmed cells and lower-cased headers
func (r *DataReader) ReadData() (*TableData, error) {
	r.logger.Debug("reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.IOError(r.filePath, err)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the first sheet of a workbook
func (r *DataReader) readExcelData() (*TableData, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.IOError(r.filePath, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s has no sheets", r.filePath))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheets[0])
	}
	r.logger.Debug("sheet %s read in %.2fms (%d rows)", sheets[0], float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*TableData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.IOError(r.filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	start := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse CSV %s", r.filePath)
	}
	r.logger.Debug("CSV read in %.2fms (%d rows)", float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// processRows converts raw string rows into TableData
func (r *DataReader) processRows(rows [][]string) (*TableData, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s must have a header row and at least one data row", r.filePath))
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	data := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		data = append(data, rowData)
	}

	return &TableData{Headers: headers, Rows: data}, nil
}

// SampleTableReader selects cohort samples from a sample table
type SampleTableReader struct {
	reader    *DataReader
	selection Selection
	baseDir   string
	logger    *internal.Logger
}

// NewSampleTableReader creates a reader for the table at path
func NewSampleTableReader(path string, selection Selection, logger *internal.Logger) *SampleTableReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SampleTableReader{
		reader:    NewDataReader(path, logger),
		selection: selection,
		baseDir:   filepath.Dir(path),
		logger:    logger.With("samples"),
	}
}

// Read returns the rows of the configured group whose target is one of the
// two valence targets, in table order. Relative beta paths resolve against
// the table's directory.
func (s *SampleTableReader) Read() ([]SampleRecord, error) {
	data, err := s.reader.ReadData()
	if err != nil {
		return nil, err
	}
	if err := checkColumns(data.Headers); err != nil {
		return nil, err
	}

	var records []SampleRecord
	dropped := 0
	for i, row := range data.Rows {
		if !strings.EqualFold(row[ColumnGroup], s.selection.Group) {
			continue
		}

		var label volume.Valence
		switch target := row[ColumnTarget]; {
		case strings.EqualFold(target, s.selection.PositiveTarget):
			label = volume.Positive
		case strings.EqualFold(target, s.selection.NegativeTarget):
			label = volume.Negative
		default:
			dropped++
			continue
		}

		subject, err := core.ParseSubjectID(row[ColumnSubject])
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: %v", i+1, err))
		}
		path := row[ColumnBetaPath]
		if path == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: empty %s", i+1, ColumnBetaPath))
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.baseDir, path)
		}

		records = append(records, SampleRecord{BetaPath: path, Subject: subject, Label: label, Row: i + 1})
	}

	s.logger.Info("selected %d samples of group %q (%d rows with other targets dropped)",
		len(records), s.selection.Group, dropped)
	return records, nil
}

func checkColumns(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return errors.InvalidInput(fmt.Sprintf("sample table is missing columns: %s", strings.Join(missing, ", ")))
	}
	return nil
}
