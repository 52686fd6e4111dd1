// Package cli provides the command-line interface for runtests.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lainproliant/runtests/internal/errors"
	"github.com/lainproliant/runtests/internal/output"
)

// Version is set at build time.
var Version = "dev"

var out = output.New()

// wantsFlag returns true if args contain one of names before any -- separator.
func wantsFlag(args []string, names ...string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		for _, name := range names {
			if arg == name {
				return true
			}
		}
	}
	return false
}

// Run executes the harness with the given arguments and returns an exit code.
func Run(ctx context.Context, args []string) int {
	if wantsFlag(args, "-h", "--help") {
		printUsage()
		return errors.ExitSuccess
	}
	if wantsFlag(args, "--version") {
		out.Println("runtests %s", Version)
		return errors.ExitSuccess
	}

	opts, err := parseFlags(args)
	if err != nil {
		herr := errors.WrapKind(errors.KindValidation, err, "invalid arguments")
		out.ErrorPrefix("%v", herr)
		return errors.GetExitCode(herr)
	}

	for _, flag := range opts.Unknown {
		out.Warning("unknown flag %q (ignored)", flag)
	}
	if len(opts.Args) > 0 {
		out.Debug("ignoring arguments: %s", strings.Join(opts.Args, " "))
	}

	return runTests(ctx, opts)
}

// Options holds parsed command-line flags.
type Options struct {
	Dir        string
	ConfigPath string
	Exclude    []string
	Pattern    string
	Timeout    *time.Duration
	Report     string
	Metrics    string
	Quiet      bool
	Verbose    bool

	// Unknown holds unrecognized flags. Args holds positional arguments.
	// Both are accepted and ignored.
	Unknown []string
	Args    []string
}

// parseFlags manually parses flags from arguments.
//
// Flags may appear anywhere in the argument list, and unrecognized flags are
// warnings rather than errors, which the flag package does not support.
func parseFlags(args []string) (*Options, error) {
	opts := &Options{}

	i := 0
	for i < len(args) {
		arg := args[i]

		name, value, hasValue := strings.Cut(arg, "=")
		if !strings.HasPrefix(arg, "-") {
			name, hasValue = arg, false
		}

		switch name {
		case "-C", "--dir", "-c", "--config", "-x", "--exclude", "--pattern", "--timeout", "--report", "--metrics":
			if !hasValue {
				if i+1 >= len(args) {
					return nil, fmt.Errorf("%s requires a value", name)
				}
				value = args[i+1]
				i++
			}
			if err := opts.set(name, value); err != nil {
				return nil, err
			}
			i++
		case "-q", "--quiet":
			opts.Quiet = true
			i++
		case "-v", "--verbose":
			opts.Verbose = true
			i++
		case "--":
			opts.Args = append(opts.Args, args[i+1:]...)
			i = len(args)
		default:
			if strings.HasPrefix(arg, "-") && arg != "-" {
				opts.Unknown = append(opts.Unknown, arg)
			} else {
				opts.Args = append(opts.Args, arg)
			}
			i++
		}
	}

	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	applyVerbosityToOutput(opts)

	return opts, nil
}

// set stores the value of a flag that takes one.
func (opts *Options) set(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s requires a non-empty value", name)
	}

	switch name {
	case "-C", "--dir":
		opts.Dir = value
	case "-c", "--config":
		opts.ConfigPath = value
	case "-x", "--exclude":
		opts.Exclude = append(opts.Exclude, value)
	case "--pattern":
		opts.Pattern = value
	case "--timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid --timeout value %q\n  example: runtests --timeout 5m", value)
		}
		opts.Timeout = &d
	case "--report":
		opts.Report = value
	case "--metrics":
		opts.Metrics = value
	}
	return nil
}

// validateOptions checks that options are valid.
func validateOptions(opts *Options) error {
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	if opts.Timeout != nil && *opts.Timeout < 0 {
		return fmt.Errorf("--timeout must not be negative")
	}
	return nil
}

// applyVerbosityToOutput configures the output writer from the flags.
func applyVerbosityToOutput(opts *Options) {
	out.SetQuiet(opts.Quiet)
	out.SetVerbose(opts.Verbose)
}
