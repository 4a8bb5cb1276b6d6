package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"roidecode/domain/core"
	"roidecode/domain/decoding"
	"roidecode/domain/run"
	"roidecode/internal/errors"
	"roidecode/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const defaultListLimit = 50

// runRow is a decoding_runs row
type runRow struct {
	run.Manifest
	ROINames pq.StringArray `db:"rois"`
	Created  time.Time      `db:"created_at"`
}

// resultRow is a roi_results row
type resultRow struct {
	decoding.ROIResult
	RunID    string `db:"run_id"`
	Position int    `db:"position"`
	Warnings []byte `db:"warnings"`
}

// foldRow is a roi_fold_scores row; undefined scores are NULL
type foldRow struct {
	RunID       string          `db:"run_id"`
	ROIName     string          `db:"roi_name"`
	Fold        int             `db:"fold"`
	HeldOut     string          `db:"held_out"`
	SVMAUC      sql.NullFloat64 `db:"svm_auc"`
	DummyAUC    sql.NullFloat64 `db:"dummy_auc"`
	SVMReason   string          `db:"svm_reason"`
	DummyReason string          `db:"dummy_reason"`
}

// skippedRow is a skipped_rois row
type skippedRow struct {
	decoding.SkippedROI
	RunID    string `db:"run_id"`
	Position int    `db:"position"`
}

// ResultsRepositoryImpl implements ports.ResultsRepository for PostgreSQL
type ResultsRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultsRepository creates a new PostgreSQL results repository
func NewResultsRepository(db *sqlx.DB) ports.ResultsRepository {
	return &ResultsRepositoryImpl{db: db}
}

// SaveRun stores a manifest with its results table in one transaction
func (r *ResultsRepositoryImpl) SaveRun(ctx context.Context, manifest *run.Manifest, table *decoding.ResultsTable) error {
	if err := manifest.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO decoding_runs (
			run_id, config_hash, cohort_hash, seed, code_version, fingerprint,
			samples, subjects, rois, created_at
		) VALUES (
			:run_id, :config_hash, :cohort_hash, :seed, :code_version, :fingerprint,
			:samples, :subjects, :rois, :created_at
		)`, runRow{Manifest: *manifest, ROINames: manifest.ROIs, Created: manifest.CreatedAt.Time()})
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return errors.InvalidInput(fmt.Sprintf("run %s already stored", manifest.RunID))
		}
		return errors.DatabaseError("failed to insert run", err)
	}

	for i, row := range table.Rows {
		warnings, err := json.Marshal(nonNilWarnings(row.Warnings))
		if err != nil {
			return fmt.Errorf("failed to marshal warnings for %s: %w", row.ROIName, err)
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO roi_results (
				run_id, position, roi_name, svm_auc, svm_std, dummy_auc, dummy_std,
				difference, t_statistic, p_value, significant, defined_folds, total_folds, warnings
			) VALUES (
				:run_id, :position, :roi_name, :svm_auc, :svm_std, :dummy_auc, :dummy_std,
				:difference, :t_statistic, :p_value, :significant, :defined_folds, :total_folds, :warnings
			)`, resultRow{ROIResult: row, RunID: manifest.RunID.String(), Position: i, Warnings: warnings})
		if err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to insert result for %s", row.ROIName), err)
		}

		for _, f := range foldRows(manifest.RunID.String(), row) {
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO roi_fold_scores (
					run_id, roi_name, fold, held_out, svm_auc, dummy_auc, svm_reason, dummy_reason
				) VALUES (
					:run_id, :roi_name, :fold, :held_out, :svm_auc, :dummy_auc, :svm_reason, :dummy_reason
				)`, f)
			if err != nil {
				return errors.DatabaseError(fmt.Sprintf("failed to insert fold %d for %s", f.Fold, row.ROIName), err)
			}
		}
	}

	for i, s := range table.Skipped {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO skipped_rois (run_id, position, roi_name, stage, reason)
			VALUES (:run_id, :position, :roi_name, :stage, :reason)`,
			skippedRow{SkippedROI: s, RunID: manifest.RunID.String(), Position: i})
		if err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to insert skipped ROI %s", s.ROIName), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run", err)
	}
	return nil
}

// GetRun loads a stored run with its rows in processing order
func (r *ResultsRepositoryImpl) GetRun(ctx context.Context, runID core.RunID) (*ports.StoredRun, error) {
	var rr runRow
	err := r.db.GetContext(ctx, &rr, `
		SELECT run_id, config_hash, cohort_hash, seed, code_version, fingerprint,
		       samples, subjects, rois, created_at
		FROM decoding_runs
		WHERE run_id = $1
	`, runID.String())
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
		}
		return nil, errors.DatabaseError("failed to get run", err)
	}

	var results []resultRow
	err = r.db.SelectContext(ctx, &results, `
		SELECT run_id, position, roi_name, svm_auc, svm_std, dummy_auc, dummy_std,
		       difference, t_statistic, p_value, significant, defined_folds, total_folds, warnings
		FROM roi_results
		WHERE run_id = $1
		ORDER BY position
	`, runID.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to get results", err)
	}

	var folds []foldRow
	err = r.db.SelectContext(ctx, &folds, `
		SELECT run_id, roi_name, fold, held_out, svm_auc, dummy_auc, svm_reason, dummy_reason
		FROM roi_fold_scores
		WHERE run_id = $1
		ORDER BY roi_name, fold
	`, runID.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to get fold scores", err)
	}

	var skipped []skippedRow
	err = r.db.SelectContext(ctx, &skipped, `
		SELECT run_id, position, roi_name, stage, reason
		FROM skipped_rois
		WHERE run_id = $1
		ORDER BY position
	`, runID.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to get skipped ROIs", err)
	}

	table, err := assembleTable(results, folds, skipped)
	if err != nil {
		return nil, err
	}
	return &ports.StoredRun{Manifest: rr.manifest(), Table: table}, nil
}

// ListRuns returns the most recent manifests, newest first
func (r *ResultsRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*run.Manifest, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, config_hash, cohort_hash, seed, code_version, fingerprint,
		       samples, subjects, rois, created_at
		FROM decoding_runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}

	manifests := make([]*run.Manifest, len(rows))
	for i := range rows {
		manifests[i] = rows[i].manifest()
	}
	return manifests, nil
}

func (rr runRow) manifest() *run.Manifest {
	m := rr.Manifest
	m.ROIs = []string(rr.ROINames)
	m.CreatedAt = core.NewTimestamp(rr.Created)
	return &m
}

// foldRows flattens a row's per-fold scores
func foldRows(runID string, row decoding.ROIResult) []foldRow {
	if row.Evaluation == nil {
		return nil
	}
	e := row.Evaluation
	out := make([]foldRow, len(e.SVM))
	for i := range e.SVM {
		out[i] = foldRow{
			RunID:       runID,
			ROIName:     row.ROIName,
			Fold:        i,
			HeldOut:     e.HeldOut[i].String(),
			SVMAUC:      sql.NullFloat64{Float64: e.SVM[i].Value, Valid: e.SVM[i].Defined},
			DummyAUC:    sql.NullFloat64{Float64: e.Dummy[i].Value, Valid: e.Dummy[i].Defined},
			SVMReason:   e.SVM[i].Reason,
			DummyReason: e.Dummy[i].Reason,
		}
	}
	return out
}

// assembleTable rebuilds a results table from its stored rows; folds must be
// ordered by fold index within each ROI
func assembleTable(results []resultRow, folds []foldRow, skipped []skippedRow) (*decoding.ResultsTable, error) {
	evals := make(map[string]*decoding.Evaluation)
	for _, f := range folds {
		e, ok := evals[f.ROIName]
		if !ok {
			e = &decoding.Evaluation{}
			evals[f.ROIName] = e
		}
		e.HeldOut = append(e.HeldOut, core.SubjectID(f.HeldOut))
		e.SVM = append(e.SVM, storedScore(f.SVMAUC, f.SVMReason))
		e.Dummy = append(e.Dummy, storedScore(f.DummyAUC, f.DummyReason))
	}

	table := &decoding.ResultsTable{Rows: make([]decoding.ROIResult, 0, len(results))}
	for _, rr := range results {
		row := rr.ROIResult
		if len(rr.Warnings) > 0 {
			if err := json.Unmarshal(rr.Warnings, &row.Warnings); err != nil {
				return nil, fmt.Errorf("failed to unmarshal warnings for %s: %w", row.ROIName, err)
			}
		}
		if len(row.Warnings) == 0 {
			row.Warnings = nil
		}
		if e, ok := evals[row.ROIName]; ok {
			e.Warnings = row.Warnings
			row.Evaluation = e
		}
		table.Rows = append(table.Rows, row)
	}
	for _, s := range skipped {
		table.Skipped = append(table.Skipped, s.SkippedROI)
	}
	return table, nil
}

func storedScore(v sql.NullFloat64, reason string) decoding.FoldScore {
	if v.Valid {
		return decoding.Defined(v.Float64)
	}
	return decoding.Undefined(reason)
}

func nonNilWarnings(w []decoding.Warning) []decoding.Warning {
	if w == nil {
		return []decoding.Warning{}
	}
	return w
}
