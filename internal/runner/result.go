package runner

import "time"

// Outcome classifies how a module finished.
type Outcome string

const (
	// OutcomePassed means the module exited with status 0.
	OutcomePassed Outcome = "passed"
	// OutcomeFailed means the module exited with a positive status, which is
	// its count of failed tests.
	OutcomeFailed Outcome = "failed"
	// OutcomeErrored means the module did not run to completion: it could
	// not be started, was killed by a signal, timed out, or was interrupted.
	OutcomeErrored Outcome = "errored"
)

// noExitCode marks a result without an exit status.
const noExitCode = -1

// Result is the outcome of executing one candidate.
type Result struct {
	Candidate string
	Outcome   Outcome

	// Failures is the module's failed test count: its exit status when
	// Outcome is OutcomeFailed, zero otherwise.
	Failures int

	// ExitCode is the raw exit status, or -1 when the module has none.
	ExitCode int

	Duration time.Duration

	// Err describes why an errored module did not complete.
	Err error
}
