package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lainproliant/runtests/internal/errors"
)

type jsonReport struct {
	RunID     string       `json:"run_id"`
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
	Dir       string       `json:"dir"`
	Pattern   string       `json:"pattern"`
	ExitCode  int          `json:"exit_code"`
	Counts    jsonCounts   `json:"counts"`
	Excluded  []string     `json:"excluded"`
	Results   []jsonResult `json:"results"`
}

type jsonCounts struct {
	Discovered     int `json:"discovered"`
	Excluded       int `json:"excluded"`
	Executed       int `json:"executed"`
	ModulesPassed  int `json:"modules_passed"`
	ModulesFailed  int `json:"modules_failed"`
	ModulesErrored int `json:"modules_errored"`
	TestsFailed    int `json:"tests_failed"`
}

type jsonResult struct {
	Candidate string `json:"candidate"`
	Outcome   string `json:"outcome"`
	Failures  int    `json:"failures"`
	ExitCode  int    `json:"exit_code"`
	Duration  string `json:"duration"`
	Error     string `json:"error,omitempty"`
}

// WriteJSON writes s as an indented JSON document to path, creating parent
// directories as needed.
func WriteJSON(path string, s *Summary) error {
	doc := jsonReport{
		RunID:     s.RunID,
		StartedAt: s.StartedAt,
		Duration:  s.Duration.String(),
		Dir:       s.Dir,
		Pattern:   s.Pattern,
		ExitCode:  ExitCode(s),
		Counts: jsonCounts{
			Discovered:     s.Discovered,
			Excluded:       len(s.Excluded),
			Executed:       s.Executed,
			ModulesPassed:  s.ModulesPassed,
			ModulesFailed:  s.ModulesFailed,
			ModulesErrored: s.ModulesErrored,
			TestsFailed:    s.TestsFailed,
		},
		Excluded: s.Excluded,
		Results:  make([]jsonResult, 0, len(s.Results)),
	}
	if doc.Excluded == nil {
		doc.Excluded = []string{}
	}

	for _, r := range s.Results {
		jr := jsonResult{
			Candidate: r.Candidate,
			Outcome:   string(r.Outcome),
			Failures:  r.Failures,
			ExitCode:  r.ExitCode,
			Duration:  r.Duration.String(),
		}
		if r.Err != nil {
			jr.Error = errors.Detail(r.Err)
		}
		doc.Results = append(doc.Results, jr)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode report")
	}
	if err := ensureParent(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.WrapKind(errors.KindEnvironment, err, fmt.Sprintf("failed to write report %s", path))
	}
	return nil
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WrapKind(errors.KindEnvironment, err, fmt.Sprintf("failed to create %s", dir))
	}
	return nil
}
