package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/lainproliant/runtests/internal/config"
	"github.com/lainproliant/runtests/internal/discover"
	"github.com/lainproliant/runtests/internal/errors"
	"github.com/lainproliant/runtests/internal/report"
	"github.com/lainproliant/runtests/internal/runner"
)

// runTests discovers, filters and executes the candidates, prints the
// summary, and returns the exit code.
func runTests(ctx context.Context, opts *Options) int {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	cfg, err := loadConfig(dir, opts.ConfigPath)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	exclude := config.ParseExcludeList(os.Getenv(config.ExcludeEnvVar))
	exclude = append(exclude, opts.Exclude...)
	cfg.Apply(config.Overrides{
		Pattern:     opts.Pattern,
		Exclude:     exclude,
		Timeout:     opts.Timeout,
		Report:      opts.Report,
		MetricsFile: opts.Metrics,
	})
	if err := config.Validate(cfg); err != nil {
		herr := errors.WrapKind(errors.KindValidation, err, "invalid settings")
		out.ErrorPrefix("%v", herr)
		return errors.GetExitCode(herr)
	}

	started := time.Now()

	candidates, err := discover.Discover(dir, cfg.Pattern)
	if err != nil {
		herr := errors.WrapKind(errors.KindEnvironment, err, "cannot list test directory")
		out.ErrorPrefix("%v", herr)
		return errors.GetExitCode(herr)
	}
	kept, excluded := discover.Filter(candidates, cfg.Exclude)
	out.Debug("%d candidates in %s, %d excluded", len(candidates), dir, len(excluded))

	r := runner.New(runner.Options{Dir: dir, Timeout: cfg.Timeout.Std()}, out)
	results := r.RunAll(ctx, kept)

	summary := report.Aggregate(len(candidates), excluded, results)
	summary.StartedAt = started
	summary.Duration = time.Since(started)
	summary.Pattern = cfg.Pattern
	summary.Dir = dir
	if abs, err := filepath.Abs(dir); err == nil {
		summary.Dir = abs
	}

	report.Report(out, summary)

	if cfg.Report != "" {
		if err := report.WriteJSON(cfg.Report, summary); err != nil {
			out.Warning("%v", err)
		} else {
			out.Debug("report written to %s", cfg.Report)
		}
	}
	if cfg.MetricsFile != "" {
		if err := report.WriteMetrics(cfg.MetricsFile, summary); err != nil {
			out.Warning("%v", err)
		} else {
			out.Debug("metrics written to %s", cfg.MetricsFile)
		}
	}

	return report.ExitCode(summary)
}

// loadConfig resolves and loads the configuration. An explicit path comes from
// the flag or the environment; otherwise a default config file in dir is used
// if present, and built-in defaults if not.
func loadConfig(dir, flagPath string) (*config.Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(config.DefaultEnvVar)
	}
	if path == "" {
		path = config.Find(dir)
	}
	if path == "" {
		return config.Default(), nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, errors.NotFound("config file", path)
	}

	cfg, warnings, err := config.LoadAndValidate(path)
	for _, w := range warnings {
		out.Warning("%s: %s", path, w)
	}
	if err != nil {
		return nil, errors.WrapKind(errors.KindConfig, err, "invalid configuration")
	}
	out.Debug("using config %s", path)
	return cfg, nil
}
