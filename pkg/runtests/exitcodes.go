// Package runtests provides public constants for external tools integrating
// with the runtests harness.
package runtests

// Exit codes returned by the runtests CLI.
//
// Any status from 1 to MaxFailureExitCode is a failure count: the number of
// failed tests summed over all modules, plus one for every module that could
// not be run to completion. Callers that only care about pass/fail can test
// for ExitSuccess.
const (
	// ExitSuccess indicates every executed module passed.
	ExitSuccess = 0

	// MaxFailureExitCode is the largest failure count that can be reported.
	// Larger counts are clamped so they never wrap around to ExitSuccess.
	MaxFailureExitCode = 254

	// ExitHarnessError indicates the harness itself failed (invalid flags,
	// invalid configuration, unreadable test directory) before any module
	// was run.
	ExitHarnessError = 255
)

// ClampFailures converts a failure count into a process exit status.
func ClampFailures(n int) int {
	switch {
	case n <= 0:
		return ExitSuccess
	case n > MaxFailureExitCode:
		return MaxFailureExitCode
	default:
		return n
	}
}
