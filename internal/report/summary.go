// Package report aggregates module results into a run summary and renders it
// to the console, a JSON document, and a Prometheus textfile.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/lainproliant/runtests/internal/errors"
	"github.com/lainproliant/runtests/internal/runner"
	"github.com/lainproliant/runtests/pkg/runtests"
)

// Summary holds the totals for one run.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Dir       string
	Pattern   string

	// Discovered counts every candidate matched in the directory, excluded
	// ones included.
	Discovered int
	Excluded   []string
	Executed   int

	// Passed, failed and errored modules sum to Executed. Excluded
	// candidates are in none of them.
	ModulesPassed  int
	ModulesFailed  int
	ModulesErrored int
	TestsFailed    int

	Results []runner.Result
}

// Aggregate folds results into a Summary. discovered is the number of
// candidates found before exclusions were applied.
func Aggregate(discovered int, excluded []string, results []runner.Result) *Summary {
	s := &Summary{
		RunID:      uuid.NewString(),
		Discovered: discovered,
		Excluded:   excluded,
		Executed:   len(results),
		Results:    results,
	}

	for _, r := range results {
		switch r.Outcome {
		case runner.OutcomeFailed:
			s.ModulesFailed++
			s.TestsFailed += r.Failures
		case runner.OutcomeErrored:
			s.ModulesErrored++
		}
	}
	s.ModulesPassed = s.Executed - s.ModulesFailed - s.ModulesErrored
	return s
}

// ExitCode returns the process exit status for s: the failed test count plus
// the exit code of each errored module's error (one for a module error),
// clamped so that it never wraps to success.
func ExitCode(s *Summary) int {
	failures := s.TestsFailed
	for _, r := range s.Results {
		if r.Outcome == runner.OutcomeErrored {
			failures += errors.GetExitCode(r.Err)
		}
	}
	return runtests.ClampFailures(failures)
}
