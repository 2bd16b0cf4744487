package errdefs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig matches every ConfigError with errors.Is
	ErrConfig = errors.New("configuration error")

	// ErrUnitMismatch matches every UnitMismatchError with errors.Is
	ErrUnitMismatch = errors.New("unit mismatch")

	// ErrDataLoad matches every DataLoadError with errors.Is
	ErrDataLoad = errors.New("data load error")
)

// ConfigError is returned for invalid model configuration: unknown parameters,
// malformed bandpass grids, inconsistent field shapes.
type ConfigError struct {
	msg string
}

func NewConfigError(msg string) *ConfigError {
	return &ConfigError{msg}
}

func ConfigErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return e.msg
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// UnitMismatchError is returned when quantities of incompatible dimensions
// are combined or converted.
type UnitMismatchError struct {
	From, To string
	Op       string
}

func NewUnitMismatchError(op, from, to string) *UnitMismatchError {
	return &UnitMismatchError{From: from, To: to, Op: op}
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf("unit mismatch in %s: %s is not compatible with %s", e.Op, e.From, e.To)
}

func (e *UnitMismatchError) Is(target error) bool {
	return target == ErrUnitMismatch
}

// DataLoadError is returned when a reference dataset is missing or corrupt.
type DataLoadError struct {
	Dataset string
	err     error
}

func NewDataLoadError(dataset string, err error) *DataLoadError {
	return &DataLoadError{Dataset: dataset, err: err}
}

func (e *DataLoadError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("loading dataset '%s'", e.Dataset)
	}
	return fmt.Sprintf("loading dataset '%s': %s", e.Dataset, e.err.Error())
}

func (e *DataLoadError) Unwrap() error {
	return e.err
}

func (e *DataLoadError) Is(target error) bool {
	return target == ErrDataLoad
}
