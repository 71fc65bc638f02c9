// Package output provides consistent CLI status output, checking
// NO_COLOR and terminal-ness before emitting ANSI, the way the
// teacher's internal/ui package gates its own renderer choice.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ansi color codes used by Writer when color is enabled.
const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// Writer formats status lines for the docbert CLI.
type Writer struct {
	out      io.Writer
	useColor bool
}

// New creates a Writer, auto-detecting color support from out and the
// environment (NO_COLOR, isatty).
func New(out io.Writer) *Writer {
	return &Writer{out: out, useColor: shouldUseColor(out)}
}

// shouldUseColor mirrors the teacher's IsTTY/DetectNoColor checks: a
// real terminal and NO_COLOR unset.
func shouldUseColor(w io.Writer) bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (w *Writer) colorize(code, msg string) string {
	if !w.useColor {
		return msg
	}
	return code + msg + ansiReset
}

// Status prints a plain status line.
func (w *Writer) Status(msg string) {
	_, _ = fmt.Fprintf(w.out, "%s\n", msg)
}

// Statusf prints a formatted status line.
func (w *Writer) Statusf(format string, args ...any) {
	w.Status(fmt.Sprintf(format, args...))
}

// Success prints a success message, green when color is enabled.
func (w *Writer) Success(msg string) {
	_, _ = fmt.Fprintf(w.out, "%s\n", w.colorize(ansiGreen, msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message, yellow when color is enabled.
func (w *Writer) Warning(msg string) {
	_, _ = fmt.Fprintf(w.out, "%s\n", w.colorize(ansiYellow, msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message, red when color is enabled.
func (w *Writer) Error(msg string) {
	_, _ = fmt.Fprintf(w.out, "%s\n", w.colorize(ansiRed, msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Table prints rows of equal-length columns, each cell padded on the
// right to the widest value in its column.
func (w *Writer) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	w.Status(formatRow(header, widths))
	sep := make([]string, len(header))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	w.Status(formatRow(sep, widths))
	for _, row := range rows {
		w.Status(formatRow(row, widths))
	}
}

func formatRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		width := 0
		if i < len(widths) {
			width = widths[i]
		}
		padded[i] = cell + strings.Repeat(" ", width-len(cell))
	}
	return strings.Join(padded, "  ")
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
