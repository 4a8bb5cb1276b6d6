package excel

import (
	"roidecode/domain/core"
	"roidecode/domain/volume"
)

// RawRowData represents a row of raw table data keyed by lower-cased header
type RawRowData map[string]string

// TableData represents a complete sample table
type TableData struct {
	Headers []string     // Column headers, lower-cased
	Rows    []RawRowData // Data rows
}

// SampleRecord is one selected row of the sample table
type SampleRecord struct {
	BetaPath string
	Subject  core.SubjectID
	Label    volume.Valence
	Row      int // 1-based data row in the source table
}

// Required sample table columns
const (
	ColumnBetaPath = "beta_path"
	ColumnGroup    = "group"
	ColumnTarget   = "target"
	ColumnSubject  = "subject"
)

// RequiredColumns lists the columns every sample table must carry
var RequiredColumns = []string{ColumnBetaPath, ColumnGroup, ColumnTarget, ColumnSubject}
