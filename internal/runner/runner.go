// Package runner executes test candidates one at a time and classifies how
// each of them finished.
//
// A candidate communicates only through its exit status: 0 means every test
// in it passed, n > 0 means n tests failed. Its output streams are the
// harness's own and are never parsed.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/lainproliant/runtests/internal/discover"
	harnesserrors "github.com/lainproliant/runtests/internal/errors"
	"github.com/lainproliant/runtests/internal/output"
)

// waitDelay bounds how long Wait keeps copying output after a module has been
// killed, in case a grandchild still holds its pipes open.
const waitDelay = 2 * time.Second

// Options configures execution behavior.
type Options struct {
	// Dir is the test directory. Candidates are resolved and run inside it.
	Dir string

	// Timeout bounds each module's run time. Zero means no limit.
	Timeout time.Duration

	// Standard streams handed to each module. Nil means the harness's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Runner executes candidates sequentially.
type Runner struct {
	opts Options
	out  *output.Writer
}

// New creates a new Runner. A nil writer uses the default console writer.
func New(opts Options, out *output.Writer) *Runner {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	// The command's path is resolved against its working directory, so
	// anchor both at the same absolute location.
	if abs, err := filepath.Abs(opts.Dir); err == nil {
		opts.Dir = abs
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if out == nil {
		out = output.New()
	}
	return &Runner{opts: opts, out: out}
}

// RunAll executes candidates in order, one at a time, and returns one result
// per candidate. Once ctx is canceled no further module is started; the
// remaining candidates are recorded as errored.
func (r *Runner) RunAll(ctx context.Context, candidates []string) []Result {
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			res := Result{
				Candidate: c,
				Outcome:   OutcomeErrored,
				ExitCode:  noExitCode,
				Err:       harnesserrors.Module(c, "not started", err),
			}
			r.out.ModuleErrored(c, harnesserrors.Detail(res.Err))
			results = append(results, res)
			continue
		}

		r.out.ModuleStart(c)
		res := r.Execute(ctx, c)
		if res.Outcome == OutcomeErrored {
			r.out.ModuleErrored(c, harnesserrors.Detail(res.Err))
		} else {
			r.out.Debug("[%s] %s with status %d in %s", c, res.Outcome, res.ExitCode, res.Duration.Round(time.Millisecond))
		}
		results = append(results, res)
	}
	return results
}

// Execute runs a single candidate and blocks until it exits.
func (r *Runner) Execute(ctx context.Context, candidate string) Result {
	runCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, discover.Path(r.opts.Dir, candidate))
	cmd.Dir = r.opts.Dir
	cmd.Stdin = r.opts.Stdin
	cmd.Stdout = r.opts.Stdout
	cmd.Stderr = r.opts.Stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	res := r.classify(ctx, runCtx, candidate, err)
	res.Duration = time.Since(start)
	return res
}

// classify maps the error returned by exec.Cmd.Run to a Result.
func (r *Runner) classify(ctx, runCtx context.Context, candidate string, err error) Result {
	res := Result{Candidate: candidate, ExitCode: noExitCode}

	if err == nil {
		res.Outcome = OutcomePassed
		res.ExitCode = 0
		return res
	}

	// A canceled or expired context kills the module, so check it before
	// looking at the exit status.
	switch {
	case ctx.Err() != nil:
		res.Outcome = OutcomeErrored
		res.Err = harnesserrors.Module(candidate, "interrupted", ctx.Err())
		return res
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Outcome = OutcomeErrored
		res.Err = harnesserrors.Module(candidate, fmt.Sprintf("timed out after %s", r.opts.Timeout), nil)
		return res
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		res.Outcome = OutcomeErrored
		res.Err = harnesserrors.Module(candidate, "could not start", err)
		return res
	}

	code := exitErr.ExitCode()
	if code < 0 {
		res.Outcome = OutcomeErrored
		res.Err = harnesserrors.Module(candidate, exitErr.ProcessState.String(), nil)
		return res
	}

	res.Outcome = OutcomeFailed
	res.ExitCode = code
	res.Failures = code
	return res
}
