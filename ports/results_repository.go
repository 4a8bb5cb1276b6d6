package ports

import (
	"context"

	"roidecode/domain/core"
	"roidecode/domain/decoding"
	"roidecode/domain/run"
)

// StoredRun is a persisted decoding run
type StoredRun struct {
	Manifest *run.Manifest          `json:"manifest"`
	Table    *decoding.ResultsTable `json:"table"`
}

// ResultsRepository persists decoding runs and their results tables
type ResultsRepository interface {
	SaveRun(ctx context.Context, manifest *run.Manifest, table *decoding.ResultsTable) error
	GetRun(ctx context.Context, runID core.RunID) (*StoredRun, error)
	ListRuns(ctx context.Context, limit int) ([]*run.Manifest, error)
}
