// Package output provides formatted output utilities for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

// Writer handles CLI output formatting.
type Writer struct {
	out     io.Writer
	err     io.Writer
	color   bool
	quiet   bool
	verbose bool
}

// New creates a new Writer with default settings.
func New() *Writer {
	return &Writer{
		out:   os.Stdout,
		err:   os.Stderr,
		color: colorEnabled(os.Stdout),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{
		out:   out,
		err:   err,
		color: color,
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// SetVerbose enables or disables verbose mode.
func (w *Writer) SetVerbose(verbose bool) {
	w.verbose = verbose
}

// Verbose reports whether verbose mode is enabled.
func (w *Writer) Verbose() bool {
	return w.verbose
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	fmt.Fprintf(w.err, format+"\n", args...)
}

// Debug prints a dimmed message to stderr in verbose mode only.
func (w *Writer) Debug(format string, args ...interface{}) {
	if !w.verbose {
		return
	}
	if w.color {
		w.Errorln(dim+format+reset, args...)
	} else {
		w.Errorln(format, args...)
	}
}

// Warning prints a warning message (skipped in quiet mode).
func (w *Writer) Warning(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Errorln("%swarning:%s %s", yellow, reset, msg)
	} else {
		w.Errorln("warning: %s", msg)
	}
}

// ErrorPrefix prints an error message with the runtests prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Errorln("%sruntests:%s %s", red, reset, msg)
	} else {
		w.Errorln("runtests: %s", msg)
	}
}

// ModuleStart prints the start of a test module with enhanced visibility.
// Only shown in verbose mode so the default output stays the modules' own.
func (w *Writer) ModuleStart(candidate string) {
	if w.quiet || !w.verbose {
		return
	}
	label := fmt.Sprintf("─── [%s] ───", candidate)
	if w.color {
		w.Println("%s%s%s", bold+cyan, label, reset)
	} else {
		w.Println("%s", label)
	}
}

// ModuleErrored prints a module that could not be run to completion.
func (w *Writer) ModuleErrored(candidate, reason string) {
	if w.color {
		w.Errorln("%s[%s] errored:%s %s", red, candidate, reset, reason)
	} else {
		w.Errorln("[%s] errored: %s", candidate, reason)
	}
}

// SummaryHeader prints the summary banner.
func (w *Writer) SummaryHeader(title string) {
	if w.color {
		w.Println("%s===== %s =====%s", bold, title, reset)
	} else {
		w.Println("===== %s =====", title)
	}
}

// SummaryPassed prints an indented summary line for passing modules.
func (w *Writer) SummaryPassed(format string, args ...interface{}) {
	w.summaryLine(green, format, args...)
}

// SummaryFailed prints an indented summary line for failing modules.
func (w *Writer) SummaryFailed(format string, args ...interface{}) {
	w.summaryLine(red, format, args...)
}

// SummaryErrored prints an indented summary line for errored modules.
func (w *Writer) SummaryErrored(format string, args ...interface{}) {
	w.summaryLine(yellow, format, args...)
}

func (w *Writer) summaryLine(color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Println("    %s%s%s", color, msg, reset)
	} else {
		w.Println("    %s", msg)
	}
}

// Table prints a table with right-aligned numeric columns.
// alignRight lists the zero-based indexes of columns to right-align.
func (w *Writer) Table(headers []string, rows [][]string, alignRight ...int) {
	t := table.NewWriter()
	t.SetOutputMirror(w.out)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)

	var configs []table.ColumnConfig
	for _, idx := range alignRight {
		configs = append(configs, table.ColumnConfig{Number: idx + 1, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	t.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		t.AppendRow(r)
	}

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	if !w.color {
		style.Box = table.StyleBoxDefault
	}
	t.SetStyle(style)
	t.Render()
}

// colorEnabled returns true if f is a terminal and NO_COLOR is unset.
func colorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

// Semantic color roles for help output.
const (
	colorTitle       = bold + cyan
	colorSection     = bold + yellow
	colorPlaceholder = green
	colorFlag        = yellow
	colorDescription = dim
	colorExample     = cyan
	colorEnvVar      = yellow
)

// HelpTitle formats the main help title line.
func (w *Writer) HelpTitle(title string) {
	if w.color {
		w.Println("%s%s%s", colorTitle, title, reset)
	} else {
		w.Println("%s", title)
	}
}

// HelpSection formats a section header (e.g., "Flags:").
func (w *Writer) HelpSection(title string) {
	w.Println("")
	if w.color {
		w.Println("%s%s%s", colorSection, title, reset)
	} else {
		w.Println("%s", title)
	}
}

// HelpFlag formats a flag with its description.
func (w *Writer) HelpFlag(name, description string, width int) {
	if w.color {
		coloredName := w.colorPlaceholders(name)
		padding := width - len(name)
		if padding < 0 {
			padding = 0
		}
		w.Println("  %s%s%s%s  %s%s%s", colorFlag, coloredName, reset, strings.Repeat(" ", padding), colorDescription, description, reset)
	} else {
		w.Println("  %-*s  %s", width, name, description)
	}
}

// HelpExample formats an example command with description.
func (w *Writer) HelpExample(command, description string) {
	if w.color {
		w.Println("  %s%s%s", colorExample, command, reset)
		if description != "" {
			w.Println("      %s%s%s", colorDescription, description, reset)
		}
	} else {
		w.Println("  %s", command)
		if description != "" {
			w.Println("      %s", description)
		}
	}
}

// HelpUsage formats usage lines.
func (w *Writer) HelpUsage(usage string) {
	if w.color {
		w.Println("  %s", w.colorPlaceholders(usage))
	} else {
		w.Println("  %s", usage)
	}
}

// HelpEnvVar formats an environment variable.
func (w *Writer) HelpEnvVar(name, description string, width int) {
	if w.color {
		w.Println("  %s%-*s%s  %s%s%s", colorEnvVar, width, name, reset, colorDescription, description, reset)
	} else {
		w.Println("  %-*s  %s", width, name, description)
	}
}

// colorPlaceholders highlights <placeholder> patterns in text.
func (w *Writer) colorPlaceholders(text string) string {
	var result strings.Builder
	i := 0
	for i < len(text) {
		if text[i] == '<' {
			end := strings.Index(text[i:], ">")
			if end != -1 {
				placeholder := text[i : i+end+1]
				result.WriteString(reset)
				result.WriteString(colorPlaceholder)
				result.WriteString(placeholder)
				result.WriteString(reset)
				i += end + 1
				continue
			}
		}
		result.WriteByte(text[i])
		i++
	}
	return result.String()
}
