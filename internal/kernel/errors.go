package kernel

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of error kinds the core raises, per the error
// handling design: numeric-kernel errors propagate unchanged because the
// kernel's functions are pure, so they carry their Kind directly rather
// than being wrapped with fmt.Errorf("...: %w", err) the way the teacher's
// request-scoped service errors are. Dispatcher-level components (engine,
// tearsheet) reuse the same closed set instead of inventing their own.
type ErrorKind string

const (
	EmptyInput            ErrorKind = "EmptyInput"
	InsufficientData      ErrorKind = "InsufficientData"
	InvalidTradingDays    ErrorKind = "InvalidTradingDays"
	UndefinedEnum         ErrorKind = "UndefinedEnum"
	NullOrEmptyCollection ErrorKind = "NullOrEmptyCollection"
	UnknownStrategy       ErrorKind = "UnknownStrategy"
	UnsupportedEvent      ErrorKind = "UnsupportedEvent"
	MissingMarketData     ErrorKind = "MissingMarketData"
	MissingFxRate         ErrorKind = "MissingFxRate"
	OutOfOrderBar         ErrorKind = "OutOfOrderBar"
	InvalidQuantity       ErrorKind = "InvalidQuantity"
	MisalignedCurves      ErrorKind = "MisalignedCurves"
	FetcherFailure        ErrorKind = "FetcherFailure"
)

// Error is the core's structured error type. Dispatcher errors attach
// diagnostic context (date, event kind, strategy name) via Context.
type Error struct {
	Kind    ErrorKind
	Message string
	Context map[string]any
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Kind, e.Message, e.Context)
}

// NewError constructs a core Error with no diagnostic context.
func NewError(kind ErrorKind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// NewErrorWithContext constructs a core Error carrying dispatcher diagnostic
// context, per §7: "Dispatcher errors... abort the current bar and the run
// with a structured diagnostic (date, event kind, strategy name)."
func NewErrorWithContext(kind ErrorKind, message string, context map[string]any) error {
	return &Error{Kind: kind, Message: message, Context: context}
}

// KindOf extracts the ErrorKind from err, if it (or something it wraps) is
// a *Error. Mirrors the teacher's sentinel-error comparison idiom
// (alphavantage.ErrRateLimited) but for a structured kind instead of a
// single sentinel value.
func KindOf(err error) (ErrorKind, bool) {
	type kinder interface{ coreErrorKind() ErrorKind }
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind, true
	}
	if ke, ok := err.(kinder); ok {
		return ke.coreErrorKind(), true
	}
	return "", false
}

func (e *Error) coreErrorKind() ErrorKind { return e.Kind }
