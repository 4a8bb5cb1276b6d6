package config

import (
	"path/filepath"
	"testing"

	"roidecode/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"ROI_MASKS", "SEED", "SVM_C", "ALPHA", "COHORT_GROUP", "WORKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Classifier.Seed)
	assert.Equal(t, 1.0, cfg.Classifier.C)
	assert.Equal(t, 0.05, cfg.Stats.Alpha)
	assert.Equal(t, "depression", cfg.Data.CohortGroup)
	assert.Equal(t, DefaultROIMasks, cfg.Data.ROIMasks)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ROI_MASKS", "b=b.nii, a=/abs/a.nii.gz")
	t.Setenv("SEED", "7")
	t.Setenv("SVM_MAX_ITER", "500")
	t.Setenv("ALPHA", "0.01")
	t.Setenv("MASK_DIR", "/masks")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []ROIMask{{Name: "b", File: "b.nii"}, {Name: "a", File: "/abs/a.nii.gz"}}, cfg.Data.ROIMasks)
	assert.Equal(t, int64(7), cfg.Classifier.Seed)
	assert.Equal(t, 500, cfg.Classifier.MaxIter)
	assert.Equal(t, 0.01, cfg.Stats.Alpha)
	assert.Equal(t, filepath.Join("/masks", "b.nii"), cfg.MaskPath(cfg.Data.ROIMasks[0]))
	assert.Equal(t, "/abs/a.nii.gz", cfg.MaskPath(cfg.Data.ROIMasks[1]))
}

func TestFromEnv_InvalidValues(t *testing.T) {
	t.Setenv("ALPHA", "1.5")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestParseROIMasks(t *testing.T) {
	_, err := ParseROIMasks("amygdala")
	assert.Error(t, err)

	_, err = ParseROIMasks(" , ")
	assert.Error(t, err)

	masks, err := ParseROIMasks("x=x.nii,,y=y.nii")
	require.NoError(t, err)
	assert.Len(t, masks, 2)
}

func TestValidate_DuplicateNames(t *testing.T) {
	cfg := Default()
	cfg.Data.ROIMasks = []ROIMask{{Name: "a", File: "1"}, {Name: "a", File: "2"}}
	assert.Error(t, cfg.Validate())
}
