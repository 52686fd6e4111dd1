package report

import (
	"fmt"
	"time"

	"github.com/lainproliant/runtests/internal/output"
	"github.com/lainproliant/runtests/internal/runner"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const excludedLabel = "excluded"

var titleCaser = cases.Title(language.English)

// Report prints the run summary. In verbose mode a per-module table precedes
// it.
func Report(w *output.Writer, s *Summary) {
	if w.Verbose() {
		printDetails(w, s)
	}

	w.SummaryHeader("SUMMARY")
	w.SummaryPassed("%d modules PASSED.", s.ModulesPassed)
	if s.ModulesFailed > 0 {
		w.SummaryFailed("%d modules FAILED, %d overall tests FAILED.", s.ModulesFailed, s.TestsFailed)
	}
	if s.ModulesErrored > 0 {
		w.SummaryErrored("%d modules ERRORED.", s.ModulesErrored)
	}
}

func printDetails(w *output.Writer, s *Summary) {
	if len(s.Results) == 0 && len(s.Excluded) == 0 {
		return
	}

	rows := make([][]string, 0, len(s.Results)+len(s.Excluded))
	for _, r := range s.Results {
		failures := "-"
		if r.Outcome == runner.OutcomeFailed {
			failures = fmt.Sprintf("%d", r.Failures)
		}
		rows = append(rows, []string{
			r.Candidate,
			titleCaser.String(string(r.Outcome)),
			failures,
			r.Duration.Round(time.Millisecond).String(),
		})
	}
	for _, c := range s.Excluded {
		rows = append(rows, []string{c, titleCaser.String(excludedLabel), "-", "-"})
	}

	w.Println("")
	w.Table([]string{"Module", "Outcome", "Failures", "Duration"}, rows, 2, 3)
	w.Println("")
}
