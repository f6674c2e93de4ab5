package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mufs/fat/errors"
)

func TestErrno_IsMatchesAfterWithMessage(t *testing.T) {
	wrapped := errors.ErrNoSpace.WithMessage("volume is full")
	assert.True(t, stderrors.Is(wrapped, errors.ErrNoSpace))
	assert.Contains(t, wrapped.Error(), "volume is full")
}

func TestErrno_IsMatchesAfterWrapError(t *testing.T) {
	cause := stderrors.New("disk read failed")
	wrapped := errors.ErrIO.WrapError(cause)
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.Contains(t, wrapped.Error(), cause.Error())
}

func TestErrno_DistinctSentinelsAreNotEqual(t *testing.T) {
	assert.False(t, stderrors.Is(errors.ErrNotFile, errors.ErrNotDirectory))
}
