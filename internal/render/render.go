// Package render prints colorized progress and summary output for
// cmd/depgraph-bench. It exists so the core depgraph package never needs
// to import a terminal-formatting library: depgraph logs structured
// events through log/slog (see ▶️/✅/🔥 lines in Context's discovery and
// build paths), and render is what turns a summary of those events into
// something pleasant to read in a terminal.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/gookit/color"
)

// Summary is the aggregate result of one benchmark scenario run.
type Summary struct {
	Queue      string
	Workers    int
	TopKey     int
	Built      int
	Failed     int
	NoBuilder  int
	Elapsed    time.Duration
	Throughput float64 // built keys per second
}

// Scenario prints a one-line banner announcing the scenario about to run.
func Scenario(w io.Writer, queueKind string, workers, topKey int) {
	fmt.Fprintln(w, color.Cyan.Sprintf("▶️  running scenario: queue=%s workers=%d top_key=%d", queueKind, workers, topKey))
}

// Table prints a final ASCII summary table for s.
func Table(w io.Writer, s Summary) {
	fmt.Fprintln(w, color.Bold.Sprint("—— depgraph-bench summary ——"))
	fmt.Fprintf(w, "%s %s\n", color.Gray.Sprint("queue:"), s.Queue)
	fmt.Fprintf(w, "%s %d\n", color.Gray.Sprint("workers:"), s.Workers)
	fmt.Fprintf(w, "%s %d\n", color.Gray.Sprint("top_key:"), s.TopKey)
	fmt.Fprintf(w, "%s %s\n", color.Green.Sprint("built:"), color.Green.Sprintf("%d", s.Built))
	if s.Failed > 0 {
		fmt.Fprintf(w, "%s %s\n", color.Red.Sprint("failed:"), color.Red.Sprintf("%d", s.Failed))
	}
	if s.NoBuilder > 0 {
		fmt.Fprintf(w, "%s %s\n", color.Yellow.Sprint("no_builder:"), color.Yellow.Sprintf("%d", s.NoBuilder))
	}
	fmt.Fprintf(w, "%s %s\n", color.Gray.Sprint("elapsed:"), s.Elapsed)
	fmt.Fprintf(w, "%s %.1f keys/sec\n", color.Gray.Sprint("throughput:"), s.Throughput)
}

// Failure prints a single red failure line for key's error.
func Failure(w io.Writer, key any, err error) {
	fmt.Fprintln(w, color.Red.Sprintf("🔥 key %v failed: %v", key, err))
}
