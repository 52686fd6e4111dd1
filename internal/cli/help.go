package cli

import "github.com/lainproliant/runtests/internal/config"

// Width of the flag column in help output.
const widthFlagWithValue = 24

func printUsage() {
	w := out

	w.HelpTitle("runtests - run the test executables in a directory and total their failures")

	w.HelpSection("Usage:")
	w.HelpUsage("runtests [flags]")

	w.HelpSection("Description:")
	w.Println("  Runs every file matching the pattern (default *.test) in the directory,")
	w.Println("  one at a time. Each module's exit status is its failed test count. The")
	w.Println("  harness exits with the total, capped at 254; 255 means the harness itself")
	w.Println("  could not run.")

	w.HelpSection("Flags:")
	w.HelpFlag("-C, --dir <dir>", "Directory to search and run in (default .)", widthFlagWithValue)
	w.HelpFlag("-c, --config <path>", "Config file (default .runtests.yaml in the directory)", widthFlagWithValue)
	w.HelpFlag("-x, --exclude <name>", "Skip a candidate by exact name (repeatable)", widthFlagWithValue)
	w.HelpFlag("--pattern <glob>", "Candidate file pattern (default *.test)", widthFlagWithValue)
	w.HelpFlag("--timeout <dur>", "Per-module time limit, e.g. 30s or 5m", widthFlagWithValue)
	w.HelpFlag("--report <path>", "Write a JSON report", widthFlagWithValue)
	w.HelpFlag("--metrics <path>", "Write a Prometheus textfile", widthFlagWithValue)
	w.HelpFlag("-q, --quiet", "Suppress warnings", widthFlagWithValue)
	w.HelpFlag("-v, --verbose", "Per-module progress and a details table", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)
	w.HelpFlag("--version", "Show version", widthFlagWithValue)

	w.HelpSection("Environment:")
	w.HelpEnvVar(config.DefaultEnvVar, "Config file path", 18)
	w.HelpEnvVar(config.ExcludeEnvVar, "Comma-separated extra exclusions", 18)
	w.HelpEnvVar("NO_COLOR", "Disable colored output", 18)

	w.HelpSection("Examples:")
	w.HelpExample("runtests", "Run ./*.test except ./ansi.test")
	w.HelpExample("runtests -C build/tests -x slow.test", "Run in another directory and skip one module")
	w.HelpExample("runtests --timeout 2m --report out/tests.json", "Bound each module and keep a report")
	w.Println("")
}
