package errors

import (
	"errors"
	"fmt"
)

var (
	ErrDataFormat    = errors.New("data format error")
	ErrEmptyResult   = errors.New("empty result")
	ErrAlignment     = errors.New("alignment error")
	ErrInvalidConfig = errors.New("invalid config")
	ErrExport        = errors.New("export failed")
)

// Exit codes returned by the CLI for each error kind.
const (
	ExitOK          = 0
	ExitInternal    = 1
	ExitConfig      = 2
	ExitDataFormat  = 3
	ExitEmptyResult = 4
	ExitAlignment   = 5
	ExitExport      = 6
)

// StageError records which pipeline stage failed and how many records it
// held at the time.
type StageError struct {
	Err     error
	Stage   string
	Records int
	Message string
}

func (e *StageError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("stage %s (records=%d): %s", e.Stage, e.Records, e.Err.Error())
	}
	return fmt.Sprintf("%s: stage %s (records=%d): %s", e.Err.Error(), e.Stage, e.Records, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func New(sentinel error, stage string, records int, message string) *StageError {
	return &StageError{
		Err:     sentinel,
		Stage:   stage,
		Records: records,
		Message: message,
	}
}

func Newf(sentinel error, stage string, records int, format string, args ...any) *StageError {
	return &StageError{
		Err:     sentinel,
		Stage:   stage,
		Records: records,
		Message: fmt.Sprintf(format, args...),
	}
}

// DataFormat reports malformed or missing input columns.
func DataFormat(stage string, records int, format string, args ...any) *StageError {
	return Newf(ErrDataFormat, stage, records, format, args...)
}

// EmptyResult reports a step that removed every record.
func EmptyResult(stage string, records int, format string, args ...any) *StageError {
	return Newf(ErrEmptyResult, stage, records, format, args...)
}

// Alignment reports a matrix row without a metadata row.
func Alignment(stage string, records int, format string, args ...any) *StageError {
	return Newf(ErrAlignment, stage, records, format, args...)
}

// Export reports a sink that could not take the run's results. The cause is
// kept as text so the error classifies as ErrExport whatever the sink hit.
func Export(sink string, records int, cause error) *StageError {
	return Newf(ErrExport, "export/"+sink, records, "%v", cause)
}

// Wrap attaches stage and record count to an error raised outside the
// typed helpers, such as an I/O failure. The cause stays in the chain and
// an existing StageError is returned as is.
func Wrap(stage string, records int, err error) error {
	if err == nil {
		return nil
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return err
	}
	return &StageError{Err: err, Stage: stage, Records: records}
}

// Stage returns the failing stage recorded in err, if any.
func Stage(err error) (string, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}

func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfig
	case errors.Is(err, ErrDataFormat):
		return ExitDataFormat
	case errors.Is(err, ErrEmptyResult):
		return ExitEmptyResult
	case errors.Is(err, ErrAlignment):
		return ExitAlignment
	case errors.Is(err, ErrExport):
		return ExitExport
	default:
		return ExitInternal
	}
}
