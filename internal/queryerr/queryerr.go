// Package queryerr holds the error taxonomy shared by plugins, strategies and
// the pipeline executor.
package queryerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidFilter
	KindInvalidAggregation
	KindInvalidTimeGrouping
	KindEmptyMetricStream
	KindOperationFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidFilter:
		return "InvalidFilter"
	case KindInvalidAggregation:
		return "InvalidAggregation"
	case KindInvalidTimeGrouping:
		return "InvalidTimeGrouping"
	case KindEmptyMetricStream:
		return "EmptyMetricStream"
	case KindOperationFailed:
		return "OperationFailed"
	default:
		return "Unknown"
	}
}

// Error is returned by every engine operation that can fail.
type Error struct {
	Kind      Kind
	Operation string // set for KindOperationFailed
	Reason    string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidFilter:
		return "Invalid filter: " + e.Reason
	case KindInvalidAggregation:
		return "Invalid aggregation: " + e.Reason
	case KindInvalidTimeGrouping:
		return "Invalid time grouping: " + e.Reason
	case KindEmptyMetricStream:
		return "Operation on empty metric stream"
	case KindOperationFailed:
		return fmt.Sprintf("Operation '%s' failed: %s", e.Operation, e.Reason)
	default:
		return e.Reason
	}
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidFilter       = &Error{Kind: KindInvalidFilter}
	ErrInvalidAggregation  = &Error{Kind: KindInvalidAggregation}
	ErrInvalidTimeGrouping = &Error{Kind: KindInvalidTimeGrouping}
	ErrEmptyMetricStream   = &Error{Kind: KindEmptyMetricStream}
	ErrOperationFailed     = &Error{Kind: KindOperationFailed}
)

func InvalidFilter(format string, args ...any) error {
	return &Error{Kind: KindInvalidFilter, Reason: fmt.Sprintf(format, args...)}
}

func InvalidAggregation(format string, args ...any) error {
	return &Error{Kind: KindInvalidAggregation, Reason: fmt.Sprintf(format, args...)}
}

func InvalidTimeGrouping(format string, args ...any) error {
	return &Error{Kind: KindInvalidTimeGrouping, Reason: fmt.Sprintf(format, args...)}
}

func EmptyMetricStream() error {
	return &Error{Kind: KindEmptyMetricStream}
}

func OperationFailed(operation, reason string) error {
	return &Error{Kind: KindOperationFailed, Operation: operation, Reason: reason}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
