// ============================================================================
// AuditLog — append-only event log
// ============================================================================
//
// Package: internal/auditlog
// File: auditlog.go
//
// AuditLog is the single append-only record of everything the pool does:
// startup, pause/resume, task completion/failure, controller expansion,
// and shutdown. It is truncated on open (each run starts a fresh log) and
// every write is serialized by one mutex — the "log lock" spec.md §5
// names — so interleaved writers never tear a line in half.
//
// ============================================================================

package auditlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// stamp formats t the way every entry in the log is timestamped:
// HH:MM:SS, DD.MM.YY, local time.
func stamp(t time.Time) string {
	return t.Format("15:04:05, 02.01.06")
}

// ider is satisfied by pool.TaskID (and anything else with a numeric
// String form); kept minimal here so this package never needs to import
// internal/pool.
type ider interface {
	String() string
}

// AuditLog serializes event writes to a single truncate-on-open file.
type AuditLog struct {
	mu      sync.Mutex
	w       io.WriteCloser
	enabled bool
}

// Open truncates (or creates) the file at path and returns an AuditLog
// ready to accept events. Logging starts enabled.
func Open(path string) (*AuditLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("auditlog: open %s: %w", path, err)
	}
	return &AuditLog{w: f, enabled: true}, nil
}

// SetLogging enables or disables future writes without closing the file,
// backing the REPL's `log on` / `log off` command.
func (a *AuditLog) SetLogging(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Close releases the underlying file handle.
func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.w.Close()
}

func (a *AuditLog) writeLine(line string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.enabled {
		return
	}
	fmt.Fprintf(a.w, "%s\n", line)
}

// Startup records the pool coming up with the given initial worker count.
func (a *AuditLog) Startup(workers int, at time.Time) {
	a.writeLine(fmt.Sprintf("%s - server started with %d workers", stamp(at), workers))
}

// Submitted records a task entering the submission queue.
func (a *AuditLog) Submitted(id ider, description string, at time.Time) {
	a.writeLine(fmt.Sprintf("%s - task %s submitted: %s", stamp(at), id.String(), description))
}

// TaskCompleted records a successful Execute, including its wall-clock span.
func (a *AuditLog) TaskCompleted(id ider, description string, start, end time.Time) {
	a.writeLine(fmt.Sprintf("%s - task %s completed in %s: %s",
		stamp(end), id.String(), end.Sub(start).Round(time.Millisecond), description))
}

// TaskFailed records a task whose Execute returned or panicked with an error.
func (a *AuditLog) TaskFailed(id ider, description string, cause error) {
	a.writeLine(fmt.Sprintf("%s - task %s failed: %s (%v)", stamp(time.Now()), id.String(), description, cause))
}

// Paused records dispatch being gated off.
func (a *AuditLog) Paused(at time.Time) {
	a.writeLine(fmt.Sprintf("%s - dispatch paused", stamp(at)))
}

// Resumed records dispatch being gated back on.
func (a *AuditLog) Resumed(at time.Time) {
	a.writeLine(fmt.Sprintf("%s - dispatch resumed", stamp(at)))
}

// DeadlockExpansion records the controller observing every worker
// simultaneously blocked and growing the roster, alongside a diagnostic
// system-load snapshot taken at detection time.
func (a *AuditLog) DeadlockExpansion(at time.Time, from, to int, loadNote string) {
	a.writeLine(fmt.Sprintf("%s - deadlock detected (%d workers stalled): expanded to %d workers; %s",
		stamp(at), from, to, loadNote))
}

// ExpansionRefused records a detected stall that could not be relieved
// because the roster already sits at MaxWorkers.
func (a *AuditLog) ExpansionRefused(at time.Time, current int) {
	a.writeLine(fmt.Sprintf("%s - deadlock detected at %d workers: cap reached, not expanded", stamp(at), current))
}

// Shutdown records the pool draining and stopping.
func (a *AuditLog) Shutdown(at time.Time) {
	a.writeLine(fmt.Sprintf("%s - server shut down", stamp(at)))
}
