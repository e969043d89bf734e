package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way the host runtime expects: configuration
// problems are invalid-argument, scheduler/allocation problems are internal,
// optional lookups report not-found.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindInternal
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindInternal:
		return "INTERNAL"
	case KindNotFound:
		return "NOT_FOUND"
	case KindUnavailable:
		return "UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// Status is an error value carrying a classification and message. It follows
// ordinary error propagation; there is no manual lifetime management.
type Status struct {
	Kind Kind
	Msg  string
}

func (s *Status) Error() string {
	return s.Msg
}

func New(kind Kind, msg string) *Status {
	return &Status{Kind: kind, Msg: msg}
}

func InvalidArgumentf(format string, args ...interface{}) *Status {
	return &Status{Kind: KindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func Internalf(format string, args ...interface{}) *Status {
	return &Status{Kind: KindInternal, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Status {
	return &Status{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Unavailablef(format string, args ...interface{}) *Status {
	return &Status{Kind: KindUnavailable, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from err, or KindUnknown when err was
// not built by this package.
func KindOf(err error) Kind {
	var s *Status
	if errors.As(err, &s) {
		return s.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a not-found status. Optional parameter
// lookups treat this as "keep the default".
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
