package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"roidecode/adapters/db/postgres/migrations"
	"roidecode/domain/core"
	"roidecode/domain/decoding"
	"roidecode/domain/run"
	"roidecode/internal"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedTable() *decoding.ResultsTable {
	warnings := []decoding.Warning{{Kind: decoding.WarningDegenerateFold, Fold: 1, Subject: "s2", Message: "test fold has one class"}}
	eval := &decoding.Evaluation{
		HeldOut:  []core.SubjectID{"s1", "s2", "s3"},
		SVM:      []decoding.FoldScore{decoding.Defined(1), decoding.Undefined("single class"), decoding.Defined(0.5)},
		Dummy:    []decoding.FoldScore{decoding.Defined(0.5), decoding.Undefined("single class"), decoding.Defined(0.25)},
		Warnings: warnings,
	}
	return &decoding.ResultsTable{
		Rows: []decoding.ROIResult{{
			ROIName: "amygdala_left", SVMAUC: 0.75, SVMStd: 0.25, DummyAUC: 0.375, DummyStd: 0.125,
			Difference: 0.375, TStatistic: 2.5, PValue: 0.2, DefinedFolds: 2, TotalFolds: 3,
			Evaluation: eval, Warnings: warnings,
		}},
		Skipped: []decoding.SkippedROI{{ROIName: "vmpfc", Stage: "extraction", Reason: "mask is empty"}},
	}
}

func TestFoldRows_NullForUndefined(t *testing.T) {
	rows := foldRows("run-1", storedTable().Rows[0])
	require.Len(t, rows, 3)

	assert.Equal(t, "s2", rows[1].HeldOut)
	assert.False(t, rows[1].SVMAUC.Valid)
	assert.Equal(t, "single class", rows[1].SVMReason)
	assert.True(t, rows[2].DummyAUC.Valid)
	assert.Equal(t, 0.25, rows[2].DummyAUC.Float64)
}

func TestAssembleTable_RebuildsStoredTable(t *testing.T) {
	want := storedTable()
	row := want.Rows[0]

	warnings, err := json.Marshal(row.Warnings)
	require.NoError(t, err)
	stripped := row
	stripped.Evaluation, stripped.Warnings = nil, nil

	got, err := assembleTable(
		[]resultRow{{ROIResult: stripped, RunID: "run-1", Warnings: warnings}},
		foldRows("run-1", row),
		[]skippedRow{{SkippedROI: want.Skipped[0], RunID: "run-1"}},
	)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAssembleTable_EmptyWarnings(t *testing.T) {
	got, err := assembleTable([]resultRow{{ROIResult: decoding.ROIResult{ROIName: "a"}, Warnings: []byte("[]")}}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, got.Rows[0].Warnings)
	assert.Nil(t, got.Rows[0].Evaluation)
}

// TestResultsRepository_Postgres needs a scratch database in TEST_DATABASE_URL
func TestResultsRepository_Postgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, migrations.NewMigrator(db.DB, internal.Discard).Up(ctx))

	repo := NewResultsRepository(db)
	manifest := run.NewManifest("cfg", "cohort", 42, 6, 3, []string{"amygdala_left", "vmpfc"})
	table := storedTable()

	require.NoError(t, repo.SaveRun(ctx, manifest, table))
	assert.Error(t, repo.SaveRun(ctx, manifest, table))

	stored, err := repo.GetRun(ctx, manifest.RunID)
	require.NoError(t, err)
	assert.Equal(t, table, stored.Table)
	assert.Equal(t, manifest.Fingerprint, stored.Manifest.Fingerprint)
	assert.Equal(t, manifest.ROIs, stored.Manifest.ROIs)
	assert.NoError(t, stored.Manifest.Validate())

	_, err = repo.GetRun(ctx, core.NewRunID())
	assert.True(t, core.IsNotFoundError(err))

	runs, err := repo.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
