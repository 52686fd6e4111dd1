package report

import (
	"fmt"

	"github.com/lainproliant/runtests/internal/errors"
	"github.com/lainproliant/runtests/internal/runner"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "runtests"

// newRegistry builds a private registry describing s.
func newRegistry(s *Summary) *prometheus.Registry {
	modules := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "modules_total",
		Help:      "Number of test modules in the last run by outcome.",
	}, []string{"outcome"})
	testsFailed := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "tests_failed",
		Help:      "Sum of failed tests reported by all modules in the last run.",
	})
	moduleFailures := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "module_failures",
		Help:      "Failed tests reported by each executed module.",
	}, []string{"candidate"})
	moduleDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "module_duration_seconds",
		Help:      "Wall time of each executed module.",
	}, []string{"candidate"})
	runDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the whole run.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time at which the last run started.",
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(modules, testsFailed, moduleFailures, moduleDuration, runDuration, lastRun)

	modules.WithLabelValues(string(runner.OutcomePassed)).Set(float64(s.ModulesPassed))
	modules.WithLabelValues(string(runner.OutcomeFailed)).Set(float64(s.ModulesFailed))
	modules.WithLabelValues(string(runner.OutcomeErrored)).Set(float64(s.ModulesErrored))
	modules.WithLabelValues(excludedLabel).Set(float64(len(s.Excluded)))
	testsFailed.Set(float64(s.TestsFailed))

	for _, r := range s.Results {
		moduleFailures.WithLabelValues(r.Candidate).Set(float64(r.Failures))
		moduleDuration.WithLabelValues(r.Candidate).Set(r.Duration.Seconds())
	}

	runDuration.Set(s.Duration.Seconds())
	if !s.StartedAt.IsZero() {
		lastRun.Set(float64(s.StartedAt.UnixNano()) / 1e9)
	}
	return reg
}

// WriteMetrics writes s to path in the Prometheus text exposition format, for
// pickup by a node_exporter textfile collector. The file is replaced
// atomically.
func WriteMetrics(path string, s *Summary) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, newRegistry(s)); err != nil {
		return errors.WrapKind(errors.KindEnvironment, err, fmt.Sprintf("failed to write metrics %s", path))
	}
	return nil
}
