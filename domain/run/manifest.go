package run

import (
	"fmt"

	"roidecode/domain/core"
)

// CodeVersion identifies the decoding implementation in run fingerprints
const CodeVersion = "roidecode-1.0.0"

// Manifest describes one decoding run well enough to replay it.
// Two runs with the same fingerprint must produce identical result tables.
type Manifest struct {
	RunID       core.RunID      `json:"run_id" db:"run_id"`
	ConfigHash  core.ConfigHash `json:"config_hash" db:"config_hash"`
	CohortHash  core.CohortHash `json:"cohort_hash" db:"cohort_hash"`
	Seed        int64           `json:"seed" db:"seed"`
	CodeVersion string          `json:"code_version" db:"code_version"`
	Fingerprint core.Hash       `json:"fingerprint" db:"fingerprint"`
	Samples     int             `json:"samples" db:"samples"`
	Subjects    int             `json:"subjects" db:"subjects"`
	ROIs        []string        `json:"rois" db:"-"`
	CreatedAt   core.Timestamp  `json:"created_at" db:"-"`
}

// NewManifest creates a manifest with a fresh run id and computed fingerprint
func NewManifest(configHash core.ConfigHash, cohortHash core.CohortHash, seed int64, samples, subjects int, rois []string) *Manifest {
	return &Manifest{
		RunID:       core.NewRunID(),
		ConfigHash:  configHash,
		CohortHash:  cohortHash,
		Seed:        seed,
		CodeVersion: CodeVersion,
		Fingerprint: ComputeFingerprint(configHash, cohortHash, seed, CodeVersion),
		Samples:     samples,
		Subjects:    subjects,
		ROIs:        rois,
		CreatedAt:   core.Now(),
	}
}

// ComputeFingerprint generates a deterministic hash from all determinism parameters
func ComputeFingerprint(configHash core.ConfigHash, cohortHash core.CohortHash, seed int64, codeVersion string) core.Hash {
	data := fmt.Sprintf("config:%s|cohort:%s|seed:%d|code:%s", configHash, cohortHash, seed, codeVersion)
	return core.NewHash([]byte(data))
}

// Validate checks if the manifest is complete and self-consistent
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.ConfigHash == "" {
		return core.NewValidationError("run_manifest", "config_hash cannot be empty")
	}
	if m.CohortHash == "" {
		return core.NewValidationError("run_manifest", "cohort_hash cannot be empty")
	}
	if m.CodeVersion == "" {
		return core.NewValidationError("run_manifest", "code_version cannot be empty")
	}
	if m.Fingerprint != ComputeFingerprint(m.ConfigHash, m.CohortHash, m.Seed, m.CodeVersion) {
		return fmt.Errorf("%w: run_manifest fingerprint", core.ErrHashMismatch)
	}
	return nil
}
