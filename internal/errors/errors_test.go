package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"roidecode/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestGetCode_DomainSentinels(t *testing.T) {
	assert.Equal(t, CodeConfigInvalid, GetCode(core.ErrNoUsableROI))
	assert.Equal(t, CodeInsufficientData, GetCode(core.NewInsufficientDataError("one subject")))
	assert.Equal(t, CodeInvalidInput, GetCode(core.ErrShapeMismatch))
	assert.Equal(t, CodeNotFound, GetCode(core.ErrRunNotFound))
	assert.Equal(t, CodeInternalError, GetCode(stderrors.New("boom")))
}

func TestWrap_PreservesCodeAndChain(t *testing.T) {
	err := Wrap(core.ErrNoUsableROI, "extraction failed")
	assert.Equal(t, CodeConfigInvalid, GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrNoUsableROI))
	assert.Equal(t, "extraction failed: invalid decoding configuration: no usable ROI mask", err.Error())

	outer := Wrapf(fmt.Errorf("ctx: %w", err), "run %d", 7)
	assert.Equal(t, CodeConfigInvalid, GetCode(outer))
	assert.True(t, IsAppError(outer))

	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(core.ErrNoUsableROI))
	assert.Equal(t, 3, ExitCode(core.ErrInsufficientData))
	assert.Equal(t, 4, ExitCode(NotFound("run")))
	assert.Equal(t, 1, ExitCode(IOError("x.nii", stderrors.New("eof"))))
}
