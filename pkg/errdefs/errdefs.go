package errdefs

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Kind classifies a failure for reporting and exit code selection.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNetwork
	KindNotFound
	KindIntegrity
	KindToolingMissing
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not found"
	case KindIntegrity:
		return "integrity"
	case KindToolingMissing:
		return "tooling missing"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Op names the step that produced it.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s %s error: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Format prints the message for %s and %v. %+v also prints the cause with
// its stack trace when one was recorded.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.Err != nil {
			io.WriteString(s, e.Error())
			fmt.Fprintf(s, "\ncaused by: %+v", e.Err)
			return
		}
		io.WriteString(s, e.Error())
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

func newf(kind Kind, op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Validationf reports input that was rejected before any network call.
func Validationf(op, format string, args ...any) error {
	return newf(KindValidation, op, nil, format, args...)
}

// Networkf wraps a transport or HTTP status failure.
func Networkf(op string, cause error, format string, args ...any) error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return newf(KindNetwork, op, cause, format, args...)
}

func NotFoundf(op, format string, args ...any) error {
	return newf(KindNotFound, op, nil, format, args...)
}

func Integrityf(op, format string, args ...any) error {
	return newf(KindIntegrity, op, nil, format, args...)
}

// ToolingMissingf reports a soft failure: the run continues after a warning.
func ToolingMissingf(op, format string, args ...any) error {
	return newf(KindToolingMissing, op, nil, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsValidation(err error) bool     { return KindOf(err) == KindValidation }
func IsNetwork(err error) bool        { return KindOf(err) == KindNetwork }
func IsNotFound(err error) bool       { return KindOf(err) == KindNotFound }
func IsIntegrity(err error) bool      { return KindOf(err) == KindIntegrity }
func IsToolingMissing(err error) bool { return KindOf(err) == KindToolingMissing }

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil || IsToolingMissing(err) {
		return 0
	}
	return 1
}
