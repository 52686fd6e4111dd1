// Package errors provides structured error types and exit codes for the harness.
//
// Two families of failure exist. Harness errors (bad flags, bad configuration,
// unreadable test directory) abort the run before any module executes and map
// to ExitHarnessError. Module errors describe a single module that did not run
// to completion (it could not start, was killed by a signal, timed out or was
// interrupted); they are recorded in that module's result, count as one
// failure, and the run continues.
package errors

import (
	"errors"
	"fmt"

	"github.com/lainproliant/runtests/pkg/runtests"
)

// Exit codes used by the harness itself. Failure counts occupy the range
// between them.
const (
	ExitSuccess      = runtests.ExitSuccess
	ExitHarnessError = runtests.ExitHarnessError
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
	KindModule
)

// String returns a short lowercase name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	case KindEnvironment:
		return "environment"
	case KindModule:
		return "module"
	default:
		return "runtime"
	}
}

// HarnessError is the base error type for runtests.
type HarnessError struct {
	Kind      ErrorKind
	Message   string
	Candidate string // Test candidate if applicable
	Cause     error  // Underlying error
}

func (e *HarnessError) Error() string {
	if e.Candidate != "" {
		return fmt.Sprintf("[%s] %s", e.Candidate, e.Detail())
	}
	return e.Detail()
}

// Detail returns the message and cause without the candidate prefix.
func (e *HarnessError) Detail() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *HarnessError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
// A module error stands for one module that did not complete, so it counts as
// a single failure.
func (e *HarnessError) ExitCode() int {
	if e.Kind == KindModule {
		return 1
	}
	return ExitHarnessError
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *HarnessError {
	return &HarnessError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// WrapKind wraps an error with additional context and an explicit kind.
func WrapKind(kind ErrorKind, err error, message string) *HarnessError {
	return &HarnessError{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// Module creates an error for a candidate that did not run to completion.
func Module(candidate, message string, cause error) *HarnessError {
	return &HarnessError{
		Kind:      KindModule,
		Candidate: candidate,
		Message:   message,
		Cause:     cause,
	}
}

// NotFound creates a not found error.
func NotFound(what, name string) *HarnessError {
	return &HarnessError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// Detail returns err's description without a candidate prefix when err is a
// HarnessError, and err.Error() otherwise.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var he *HarnessError
	if errors.As(err, &he) {
		return he.Detail()
	}
	return err.Error()
}

// IsKind reports whether err is or wraps a HarnessError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var he *HarnessError
	if errors.As(err, &he) {
		return he.Kind == kind
	}
	return false
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var he *HarnessError
	if errors.As(err, &he) {
		return he.ExitCode()
	}
	return ExitHarnessError
}
