package ledger

import (
	"errors"

	"github.com/diewo77/stock-ledger/internal/validation"
)

// Sentinel errors. Stores wrap these with fmt.Errorf("...: %w") so the
// engine can classify failures without knowing the backing driver.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrValidation         = errors.New("validation_failed")
	ErrNotFound           = errors.New("not_found")
	ErrPersistence        = errors.New("persistence_failure")
	ErrConflict           = errors.New("conflict")
	ErrInsufficientStock  = errors.New("insufficient_stock")
	ErrQuantityOutOfRange = errors.New("quantity_out_of_range")
)

// Code classifies an engine failure.
type Code uint8

const (
	CodeUnknown Code = iota
	CodeUnauthenticated
	CodeValidation
	CodeNotFound
	CodePersistence
	CodeConflict
)

func (c Code) String() string {
	switch c {
	case CodeUnauthenticated:
		return "unauthenticated"
	case CodeValidation:
		return "validation_failed"
	case CodeNotFound:
		return "not_found"
	case CodePersistence:
		return "persistence_failure"
	case CodeConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

func (c Code) sentinel() error {
	switch c {
	case CodeUnauthenticated:
		return ErrUnauthenticated
	case CodeValidation:
		return ErrValidation
	case CodeNotFound:
		return ErrNotFound
	case CodePersistence:
		return ErrPersistence
	case CodeConflict:
		return ErrConflict
	}
	return nil
}

// Error is the only error type returned by Engine methods.
type Error struct {
	Op         string
	Code       Code
	Violations validation.Violations
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Code.String()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) match on the code even when Err is a driver error.
func (e *Error) Is(target error) bool {
	s := e.Code.sentinel()
	return s != nil && target == s
}

// CodeOf returns the code of err, or CodeUnknown when err is not an *Error.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return CodeUnknown
}

func classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	code := CodePersistence
	switch {
	case errors.Is(err, ErrUnauthenticated):
		code = CodeUnauthenticated
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrQuantityOutOfRange):
		code = CodeValidation
	case errors.Is(err, ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, ErrConflict):
		code = CodeConflict
	}
	return &Error{Op: op, Code: code, Err: err}
}

func unauthenticated(op string) *Error {
	return &Error{Op: op, Code: CodeUnauthenticated, Err: ErrUnauthenticated}
}

func invalid(op string, v validation.Violations) *Error {
	return &Error{Op: op, Code: CodeValidation, Violations: v, Err: ErrValidation}
}
