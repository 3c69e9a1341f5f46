package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageError_WrapsSentinel(t *testing.T) {
	err := EmptyResult("loader", 0, "no rows with abv > %.1f", 3.0)
	wrapped := fmt.Errorf("running pipeline: %w", err)

	assert.True(t, errors.Is(wrapped, ErrEmptyResult))
	assert.False(t, errors.Is(wrapped, ErrAlignment))

	stage, ok := Stage(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "loader", stage)
	assert.Contains(t, err.Error(), "records=0")
	assert.Contains(t, err.Error(), "abv > 3.0")
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("opening review file: %w", fs.ErrNotExist)
	err := Wrap("loader", 0, cause)

	assert.ErrorIs(t, err, fs.ErrNotExist)
	stage, ok := Stage(err)
	assert.True(t, ok)
	assert.Equal(t, "loader", stage)
	assert.Equal(t, "stage loader (records=0): opening review file: file does not exist", err.Error())
	assert.Equal(t, ExitInternal, ExitCode(err))

	typed := Alignment("matrix", 4, "document 7 has no metadata row")
	already := fmt.Errorf("splitting: %w", typed)
	assert.Same(t, already, Wrap("split", 9, already), "existing stage is kept")
	stage, _ = Stage(Wrap("split", 9, already))
	assert.Equal(t, "matrix", stage)
	assert.Nil(t, Wrap("loader", 0, nil))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{DataFormat("loader", 3, "bad header"), ExitDataFormat},
		{EmptyResult("vocabulary", 1000, "nothing left"), ExitEmptyResult},
		{Alignment("matrix", 10, "doc 4 missing"), ExitAlignment},
		{fmt.Errorf("%w: bad", ErrInvalidConfig), ExitConfig},
		{fmt.Errorf("%w: postgres", ErrExport), ExitExport},
		{Export("redis", 12, DataFormat("matrixfile", 0, "bad magic")), ExitExport},
		{errors.New("boom"), ExitInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}
