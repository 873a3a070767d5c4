// Package debuglog is a minimal file-based logger for the harness and
// host wiring. The real-time core never calls this package: Tick must
// stay allocation-free and non-blocking, and writing to a file is
// neither. The category-specific helpers below (LogTick, LogPortOpen,
// LogTransportEdge) carry the step/port/transport context a sequencer
// session needs; the raw Log/LogEvery primitives remain available for
// one-off categories.
package debuglog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Categories used by the domain-specific helpers below. Callers that
// need a one-off category not covered here can still call Log/LogEvery
// directly.
const (
	categoryTick      = "tick"
	categoryPort      = "port"
	categoryTransport = "transport"
)

// tickLogInterval throttles LogTick: a buffer-sized Tick call can fire
// hundreds of times per second, far too fast to log every call without
// drowning out everything else in the file.
const tickLogInterval = 200

var (
	file    *os.File
	mu      sync.Mutex
	enabled bool
)

// Enable starts logging to ~/.config/gridseq/debug.log, truncating any
// prior contents.
func Enable() error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, ".config", "gridseq")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	enabled = true

	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(file, "[%s] %-10s %s\n", ts, "debug", "=== gridseq session started ===")
	file.Sync()
	return nil
}

// Disable closes the log file, if open.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
}

// Log writes one formatted line under category, flushed immediately
// so a crash does not lose the last entries.
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || file == nil {
		return
	}

	ts := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(file, "[%s] %-10s %s\n", ts, category, msg)
	file.Sync()
}

// counters backs LogEvery's per-key call count.
var counters = make(map[string]int)

// LogEvery logs only every n-th call under the given category+format
// key, for a high-frequency caller like a per-tick diagnostic.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

// LogTick records the current playhead position and the event volume
// a Tick call produced, at most once every tickLogInterval calls — a
// host driving Tick at audio-buffer rates would otherwise fill the log
// with thousands of lines per second of silence.
func LogTick(step, sequenceLength, primaryEvents, hardwareEvents int) {
	LogEvery(tickLogInterval, categoryTick, "step=%d/%d primary_events=%d hardware_events=%d",
		step, sequenceLength, primaryEvents, hardwareEvents)
}

// LogPortOpen records a MIDI port the harness opened for input or
// output, so a session log shows exactly which hardware it bound to.
func LogPortOpen(role, portName string) {
	Log(categoryPort, "opened %s port %q", role, portName)
}

// LogTransportEdge records a start/stop/tempo transition the harness
// observed between ticks, keyed off the same edge concept the
// Transport Decoder detects inside the core.
func LogTransportEdge(kind string, tempo float64) {
	Log(categoryTransport, "%s tempo=%.1f", kind, tempo)
}
