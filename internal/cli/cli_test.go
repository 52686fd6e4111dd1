package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lainproliant/runtests/internal/config"
	"github.com/lainproliant/runtests/internal/errors"
	"github.com/lainproliant/runtests/internal/output"
)

// captureOutput redirects the package writer for the duration of the test.
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	prev := out
	out = output.NewWithWriters(stdout, stderr, false)
	t.Cleanup(func() { out = prev })
	return stdout, stderr
}

// isolateEnv clears the environment variables the harness reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.DefaultEnvVar, "")
	t.Setenv(config.ExcludeEnvVar, "")
}

// testDir creates a directory of shell-script modules, each exiting with the
// given status.
func testDir(t *testing.T, modules map[string]int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on Windows")
	}
	dir := t.TempDir()
	for name, code := range modules {
		writeModule(t, dir, name, "exit "+strconv.Itoa(code))
	}
	return dir
}

func writeModule(t *testing.T, dir, name, body string) {
	t.Helper()
	content := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		modules  map[string]int
		args     []string
		want     string
		wantCode int
	}{
		{
			name:    "one pass one fail",
			modules: map[string]int{"a.test": 0, "b.test": 2},
			want: "===== SUMMARY =====\n" +
				"    1 modules PASSED.\n" +
				"    1 modules FAILED, 2 overall tests FAILED.\n",
			wantCode: 2,
		},
		{
			name:    "only candidate excluded",
			modules: map[string]int{"ansi.test": 3},
			want: "===== SUMMARY =====\n" +
				"    0 modules PASSED.\n",
			wantCode: 0,
		},
		{
			name:    "no candidates",
			modules: map[string]int{},
			want: "===== SUMMARY =====\n" +
				"    0 modules PASSED.\n",
			wantCode: 0,
		},
		{
			name:    "all pass",
			modules: map[string]int{"c.test": 0, "d.test": 0},
			want: "===== SUMMARY =====\n" +
				"    2 modules PASSED.\n",
			wantCode: 0,
		},
		{
			name:    "failures summed",
			modules: map[string]int{"a.test": 3, "b.test": 4, "c.test": 0},
			want: "===== SUMMARY =====\n" +
				"    1 modules PASSED.\n" +
				"    2 modules FAILED, 7 overall tests FAILED.\n",
			wantCode: 7,
		},
		{
			name:    "exit code clamped",
			modules: map[string]int{"a.test": 200, "b.test": 100},
			want: "===== SUMMARY =====\n" +
				"    0 modules PASSED.\n" +
				"    2 modules FAILED, 300 overall tests FAILED.\n",
			wantCode: 254,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			stdout, _ := captureOutput(t)
			dir := testDir(t, tt.modules)

			code := Run(context.Background(), append([]string{"-C", dir}, tt.args...))

			if code != tt.wantCode {
				t.Errorf("Run() = %d, want %d", code, tt.wantCode)
			}
			if got := stdout.String(); got != tt.want {
				t.Errorf("stdout:\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestRun_ExcludedModuleNeverRuns(t *testing.T) {
	isolateEnv(t)
	captureOutput(t)
	dir := testDir(t, nil)
	writeModule(t, dir, "ansi.test", "touch ran\nexit 5")

	if code := Run(context.Background(), []string{"--dir", dir}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "ran")); err == nil {
		t.Error("excluded module was executed")
	}
}

func TestRun_IgnoresSubdirectories(t *testing.T) {
	isolateEnv(t)
	stdout, _ := captureOutput(t)
	dir := testDir(t, map[string]int{"top.test": 0})
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeModule(t, sub, "deep.test", "exit 9")
	writeModule(t, dir, "helper.sh", "exit 9")

	if code := Run(context.Background(), []string{"-C", dir}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "1 modules PASSED.") {
		t.Errorf("stdout = %q, want 1 module passed", stdout.String())
	}
}

func TestRun_LaunchFailureContinues(t *testing.T) {
	isolateEnv(t)
	stdout, stderr := captureOutput(t)
	dir := testDir(t, map[string]int{"a.test": 0, "c.test": 1})
	if err := os.WriteFile(filepath.Join(dir, "b.test"), []byte("not a program"), 0644); err != nil {
		t.Fatal(err)
	}

	code := Run(context.Background(), []string{"-C", dir})

	want := "===== SUMMARY =====\n" +
		"    1 modules PASSED.\n" +
		"    1 modules FAILED, 1 overall tests FAILED.\n" +
		"    1 modules ERRORED.\n"
	if got := stdout.String(); got != want {
		t.Errorf("stdout:\n%q\nwant:\n%q", got, want)
	}
	if code != 2 {
		t.Errorf("Run() = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "[./b.test] errored") {
		t.Errorf("stderr = %q, want errored line for ./b.test", stderr.String())
	}
}

func TestRun_Timeout(t *testing.T) {
	isolateEnv(t)
	stdout, stderr := captureOutput(t)
	dir := testDir(t, map[string]int{"a.test": 0})
	writeModule(t, dir, "hang.test", "exec sleep 10")

	start := time.Now()
	code := Run(context.Background(), []string{"-C", dir, "--timeout", "200ms"})

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run() took %v, want the timeout to stop the module", elapsed)
	}
	if code != 1 {
		t.Errorf("Run() = %d, want 1", code)
	}
	if !strings.Contains(stdout.String(), "1 modules ERRORED.") {
		t.Errorf("stdout = %q, want errored line", stdout.String())
	}
	if !strings.Contains(stderr.String(), "timed out after 200ms") {
		t.Errorf("stderr = %q, want timeout message", stderr.String())
	}
}

func TestRun_Canceled(t *testing.T) {
	isolateEnv(t)
	stdout, _ := captureOutput(t)
	dir := testDir(t, map[string]int{"a.test": 0, "b.test": 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if code := Run(ctx, []string{"-C", dir}); code != 2 {
		t.Errorf("Run() = %d, want 2", code)
	}
	if !strings.Contains(stdout.String(), "2 modules ERRORED.") {
		t.Errorf("stdout = %q, want both modules errored", stdout.String())
	}
}

func TestRun_Exclusions(t *testing.T) {
	modules := map[string]int{"ansi.test": 1, "slow.test": 2, "fast.test": 0}

	tests := []struct {
		name       string
		env        string
		config     string
		args       []string
		wantCode   int
		wantPassed string
	}{
		{"default", "", "", nil, 2, "1 modules PASSED."},
		{"flag bare name", "", "", []string{"-x", "slow.test"}, 0, "1 modules PASSED."},
		{"flag prefixed name", "", "", []string{"--exclude=./slow.test"}, 0, "1 modules PASSED."},
		{"short flag with equals", "", "", []string{"-x=slow.test"}, 0, "1 modules PASSED."},
		{"env list", "slow.test, other.test", "", nil, 0, "1 modules PASSED."},
		{"config clears default", "", "exclude: []\n", nil, 3, "1 modules PASSED."},
		{"config replaces default", "", "exclude: [slow.test]\n", nil, 1, "1 modules PASSED."},
		{"config plus flag", "", "exclude: [slow.test]\n", []string{"-x", "ansi.test"}, 0, "1 modules PASSED."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv(config.ExcludeEnvVar, tt.env)
			stdout, _ := captureOutput(t)
			dir := testDir(t, modules)
			if tt.config != "" {
				if err := os.WriteFile(filepath.Join(dir, ".runtests.yaml"), []byte(tt.config), 0644); err != nil {
					t.Fatal(err)
				}
			}

			code := Run(context.Background(), append([]string{"-C", dir}, tt.args...))

			if code != tt.wantCode {
				t.Errorf("Run() = %d, want %d\n%s", code, tt.wantCode, stdout.String())
			}
			if !strings.Contains(stdout.String(), tt.wantPassed) {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantPassed)
			}
		})
	}
}

func TestRun_ConfigFromEnvAndFlag(t *testing.T) {
	isolateEnv(t)
	captureOutput(t)
	dir := testDir(t, map[string]int{"a.test": 4, "b.test": 0})

	cfgPath := filepath.Join(t.TempDir(), "ci.yaml")
	if err := os.WriteFile(cfgPath, []byte("exclude: [a.test]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(config.DefaultEnvVar, cfgPath)
	if code := Run(context.Background(), []string{"-C", dir}); code != 0 {
		t.Errorf("Run() with env config = %d, want 0", code)
	}

	other := filepath.Join(t.TempDir(), "other.yaml")
	if err := os.WriteFile(other, []byte("exclude: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if code := Run(context.Background(), []string{"-C", dir, "-c", other}); code != 4 {
		t.Errorf("Run() with flag config = %d, want 4 (flag overrides env)", code)
	}
}

func TestRun_PatternOverride(t *testing.T) {
	isolateEnv(t)
	stdout, _ := captureOutput(t)
	dir := testDir(t, map[string]int{"unit_check": 3, "a.test": 1})

	if code := Run(context.Background(), []string{"-C", dir, "--pattern", "*_check"}); code != 3 {
		t.Errorf("Run() = %d, want 3", code)
	}
	if !strings.Contains(stdout.String(), "1 modules FAILED, 3 overall tests FAILED.") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRun_UnknownConfigFieldWarns(t *testing.T) {
	isolateEnv(t)
	_, stderr := captureOutput(t)
	dir := testDir(t, map[string]int{"a.test": 0})
	if err := os.WriteFile(filepath.Join(dir, ".runtests.yaml"), []byte("retries: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if code := Run(context.Background(), []string{"-C", dir}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if !strings.Contains(stderr.String(), `warning:`) || !strings.Contains(stderr.String(), `unknown field "retries"`) {
		t.Errorf("stderr = %q, want unknown field warning", stderr.String())
	}
}

func TestRun_QuietSuppressesWarnings(t *testing.T) {
	isolateEnv(t)
	stdout, stderr := captureOutput(t)
	dir := testDir(t, map[string]int{"a.test": 0})

	code := Run(context.Background(), []string{"-C", dir, "-q", "--frobnicate"})

	if code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want nothing in quiet mode", stderr.String())
	}
	if !strings.Contains(stdout.String(), "1 modules PASSED.") {
		t.Errorf("stdout = %q, want summary", stdout.String())
	}
}

func TestRun_HarnessErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		args    func(dir string) []string
		wantSub string
	}{
		{
			name:    "missing directory",
			args:    func(dir string) []string { return []string{"-C", filepath.Join(dir, "nope")} },
			wantSub: "cannot list test directory",
		},
		{
			name:    "missing explicit config",
			args:    func(dir string) []string { return []string{"-C", dir, "-c", filepath.Join(dir, "nope.yaml")} },
			wantSub: "config file not found",
		},
		{
			name:    "invalid config",
			config:  "timeout: soon\n",
			args:    func(dir string) []string { return []string{"-C", dir} },
			wantSub: "invalid configuration",
		},
		{
			name:    "pattern with separator",
			args:    func(dir string) []string { return []string{"-C", dir, "--pattern", "sub/*.test"} },
			wantSub: "invalid settings",
		},
		{
			name:    "bad timeout",
			args:    func(dir string) []string { return []string{"-C", dir, "--timeout", "soon"} },
			wantSub: "invalid --timeout",
		},
		{
			name:    "quiet and verbose",
			args:    func(dir string) []string { return []string{"-C", dir, "-q", "-v"} },
			wantSub: "mutually exclusive",
		},
		{
			name:    "missing flag value",
			args:    func(dir string) []string { return []string{"-C", dir, "--report"} },
			wantSub: "--report requires a value",
		},
		{
			name:    "empty short flag value",
			args:    func(dir string) []string { return []string{"-C", dir, "-x="} },
			wantSub: "invalid arguments: -x requires a non-empty value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			stdout, stderr := captureOutput(t)
			dir := testDir(t, map[string]int{"a.test": 1})
			if tt.config != "" {
				if err := os.WriteFile(filepath.Join(dir, ".runtests.yaml"), []byte(tt.config), 0644); err != nil {
					t.Fatal(err)
				}
			}

			code := Run(context.Background(), tt.args(dir))

			if code != errors.ExitHarnessError {
				t.Errorf("Run() = %d, want %d", code, errors.ExitHarnessError)
			}
			if !strings.HasPrefix(stderr.String(), "runtests: ") {
				t.Errorf("stderr = %q, want runtests: prefix", stderr.String())
			}
			if !strings.Contains(stderr.String(), tt.wantSub) {
				t.Errorf("stderr = %q, want to contain %q", stderr.String(), tt.wantSub)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q, want no summary on harness error", stdout.String())
			}
		})
	}
}

func TestRun_UnknownFlagsAndArgsIgnored(t *testing.T) {
	isolateEnv(t)
	stdout, stderr := captureOutput(t)
	dir := testDir(t, map[string]int{"a.test": 0})

	code := Run(context.Background(), []string{"-C", dir, "--frobnicate", "extra", "args"})

	if code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if !strings.Contains(stderr.String(), `unknown flag "--frobnicate"`) {
		t.Errorf("stderr = %q, want unknown flag warning", stderr.String())
	}
	if !strings.Contains(stdout.String(), "1 modules PASSED.") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRun_ReportAndMetrics(t *testing.T) {
	isolateEnv(t)
	captureOutput(t)
	dir := testDir(t, map[string]int{"a.test": 0, "b.test": 2})
	outDir := t.TempDir()
	reportPath := filepath.Join(outDir, "report.json")
	metricsPath := filepath.Join(outDir, "metrics", "runtests.prom")

	code := Run(context.Background(), []string{"-C", dir, "--report", reportPath, "--metrics=" + metricsPath})
	if code != 2 {
		t.Fatalf("Run() = %d, want 2", code)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var doc struct {
		ExitCode int    `json:"exit_code"`
		Pattern  string `json:"pattern"`
		Results  []struct {
			Candidate string `json:"candidate"`
			Outcome   string `json:"outcome"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if doc.ExitCode != 2 || doc.Pattern != "*.test" || len(doc.Results) != 2 {
		t.Errorf("report = %+v", doc)
	}

	metrics, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics not written: %v", err)
	}
	if !strings.Contains(string(metrics), "runtests_tests_failed 2") {
		t.Errorf("metrics missing tests_failed sample:\n%s", metrics)
	}
}

func TestRun_ReportWriteFailureIsWarning(t *testing.T) {
	isolateEnv(t)
	_, stderr := captureOutput(t)
	dir := testDir(t, map[string]int{"a.test": 1})
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	code := Run(context.Background(), []string{"-C", dir, "--report", filepath.Join(blocker, "r.json")})

	if code != 1 {
		t.Errorf("Run() = %d, want 1 (report failure must not change the exit code)", code)
	}
	if !strings.Contains(stderr.String(), "warning:") {
		t.Errorf("stderr = %q, want warning", stderr.String())
	}
}

func TestRun_Verbose(t *testing.T) {
	isolateEnv(t)
	stdout, _ := captureOutput(t)
	dir := testDir(t, map[string]int{"a.test": 0})

	Run(context.Background(), []string{"-C", dir, "-v"})

	got := stdout.String()
	for _, want := range []string{"─── [./a.test] ───", "Module", "Passed", "===== SUMMARY ====="} {
		if !strings.Contains(got, want) {
			t.Errorf("verbose stdout missing %q:\n%s", want, got)
		}
	}
}

func TestRun_HelpAndVersion(t *testing.T) {
	stdout, _ := captureOutput(t)

	if code := Run(context.Background(), []string{"--help"}); code != 0 {
		t.Errorf("Run(--help) = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "Usage:") || !strings.Contains(stdout.String(), "--exclude") {
		t.Errorf("help output = %q", stdout.String())
	}

	stdout.Reset()
	if code := Run(context.Background(), []string{"--version"}); code != 0 {
		t.Errorf("Run(--version) = %d, want 0", code)
	}
	if got := stdout.String(); got != "runtests "+Version+"\n" {
		t.Errorf("version output = %q", got)
	}
}

func TestParseFlags(t *testing.T) {
	timeout := 90 * time.Second

	tests := []struct {
		name    string
		args    []string
		want    *Options
		wantErr bool
	}{
		{
			name: "no flags",
			args: nil,
			want: &Options{},
		},
		{
			name: "short flags with values",
			args: []string{"-C", "build", "-c", "rt.yaml", "-x", "a.test", "-x", "b.test"},
			want: &Options{Dir: "build", ConfigPath: "rt.yaml", Exclude: []string{"a.test", "b.test"}},
		},
		{
			name: "long flags with equals",
			args: []string{"--dir=build", "--pattern=*.bin", "--timeout=90s", "--report=r.json", "--metrics=m.prom"},
			want: &Options{Dir: "build", Pattern: "*.bin", Timeout: &timeout, Report: "r.json", Metrics: "m.prom"},
		},
		{
			name: "flags after positional args",
			args: []string{"ignored", "-q", "--exclude", "a.test"},
			want: &Options{Quiet: true, Exclude: []string{"a.test"}, Args: []string{"ignored"}},
		},
		{
			name: "unknown flags collected",
			args: []string{"--frob", "-z", "-"},
			want: &Options{Unknown: []string{"--frob", "-z"}, Args: []string{"-"}},
		},
		{
			name: "double dash ends flags",
			args: []string{"-v", "--", "-q", "x"},
			want: &Options{Verbose: true, Args: []string{"-q", "x"}},
		},
		{
			name: "short flags with equals",
			args: []string{"-x=foo.test", "-C=build", "-c=rt.yaml"},
			want: &Options{Dir: "build", ConfigPath: "rt.yaml", Exclude: []string{"foo.test"}},
		},
		{
			name: "short flag equals keeps later equals signs",
			args: []string{"-x=a=b.test"},
			want: &Options{Exclude: []string{"a=b.test"}},
		},
		{name: "missing value", args: []string{"-C"}, wantErr: true},
		{name: "empty value", args: []string{"--pattern="}, wantErr: true},
		{name: "bad timeout", args: []string{"--timeout", "5 minutes"}, wantErr: true},
		{name: "negative timeout", args: []string{"--timeout", "-1s"}, wantErr: true},
		{name: "quiet and verbose", args: []string{"--quiet", "--verbose"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureOutput(t)

			got, err := parseFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseFlags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFlags_AppliesVerbosity(t *testing.T) {
	captureOutput(t)

	if _, err := parseFlags([]string{"-v"}); err != nil {
		t.Fatal(err)
	}
	if !out.Verbose() {
		t.Error("parseFlags(-v) did not enable verbose output")
	}

	if _, err := parseFlags(nil); err != nil {
		t.Fatal(err)
	}
	if out.Verbose() {
		t.Error("parseFlags() did not reset verbose output")
	}
}

func TestWantsFlag(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"-h"}, true},
		{[]string{"-C", "x", "--help"}, true},
		{[]string{"--", "--help"}, false},
		{[]string{"-v"}, false},
	}

	for _, tt := range tests {
		if got := wantsFlag(tt.args, "-h", "--help"); got != tt.want {
			t.Errorf("wantsFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
