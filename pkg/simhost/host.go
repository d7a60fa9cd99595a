/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: host.go
Description: A minimal, runnable implementation of core.Host: a single-threaded
cooperative discrete-event queue standing in for the real simulator's event loop,
clock, and log-file creation, so the CHAOS engines are runnable and testable
without a real gem5 process attached. Owns its own logger and runs to
completion without panicking the caller; the event-loop body is written fresh
against core.Host's contract.
*/

package simhost

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kleascm/chaos-faultinjector/pkg/core"
	"github.com/kleascm/chaos-faultinjector/pkg/logging"
	"github.com/sirupsen/logrus"
)

// Host is a cooperative discrete-event simulator host. It owns one
// EventQueue, a monotonic tick counter, a core-clock ratio for the
// REG-path ClockEdge/CurCycle calls, and a directory where CreateLog opens
// append-only log files.
type Host struct {
	queue    *EventQueue
	now      core.Tick
	ratio    int64 // ticks per cycle for ClockEdge/CurCycle (CPU clock domain)
	logDir   string
	logger   *logrus.Logger
	logMgr   *logging.LogManager
	draining bool
	panicked []string
}

// NewHost builds a Host. ratio is the CPU clock's ticks-per-cycle, used by
// ClockEdge/CurCycle; logDir is where CreateLog opens per-engine log files
// (created if missing). logger receives Warn/Panic messages; nil is fine
// for headless tests.
func NewHost(ratio int64, logDir string, logger *logrus.Logger) *Host {
	if ratio <= 0 {
		ratio = 1
	}
	return &Host{
		queue:  NewEventQueue(),
		ratio:  ratio,
		logDir: logDir,
		logger: logger,
	}
}

func (h *Host) Now() core.Tick { return h.now }

// Schedule places ev at tick at. Per the gem5 reference model's event
// queue, placing an event in the past is silently dropped rather than
// firing immediately or erroring (spec.md §4.1 failure semantics).
func (h *Host) Schedule(ev *core.Event, at core.Tick) {
	if at < h.now {
		return
	}
	h.queue.Push(ev, at)
}

// SetLogManager attaches a LogManager that CreateLog consults before
// opening each per-engine audit log, rotating oversized files and
// pruning old ones left over from a previous run the same way the
// operational logger (pkg/logging.Logger) rotates its own files.
func (h *Host) SetLogManager(lm *logging.LogManager) { h.logMgr = lm }

func (h *Host) Squash(ev *core.Event) { h.queue.Remove(ev) }

func (h *Host) Scheduled(ev *core.Event) bool { return h.queue.Contains(ev) }

func (h *Host) ClockEdge(c core.Cycles) core.Tick { return core.Tick(int64(c) * h.ratio) }

func (h *Host) CurCycle() core.Cycles { return core.Cycles(int64(h.now) / h.ratio) }

func (h *Host) Warn(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Warnf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, "warn: "+format+"\n", args...)
}

// Panic mirrors the gem5 reference's fatal() for construction errors: it
// logs and calls panic(), matching spec.md §7's "signal via panic" policy
// for the one error kind the engine does not try to survive.
func (h *Host) Panic(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	h.panicked = append(h.panicked, msg)
	if h.logger != nil {
		h.logger.Error(msg)
	}
	panic(msg)
}

// CreateLog opens name (relative to the host's log directory) for
// append-only writing, creating the directory and file as needed. This
// stands in for the gem5 reference's simout.create().
func (h *Host) CreateLog(name string) (io.WriteCloser, error) {
	dir := h.logDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("simhost: create log dir %s: %w", dir, err)
	}
	if h.logMgr != nil {
		if err := h.logMgr.RotateLogs(); err != nil {
			h.Warn("simhost: injection log rotation failed: %v", err)
		}
		if err := h.logMgr.CleanupOldLogs(); err != nil {
			h.Warn("simhost: injection log cleanup failed: %v", err)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("simhost: open log %s: %w", path, err)
	}
	return f, nil
}

func (h *Host) Draining() bool { return h.draining }

// SetDraining flips the host into (or out of) a draining state; engines
// observing core.Host.Draining() stop scheduling new injections while
// draining is true (spec.md §6's supplemented halted/drained shutdown
// detection).
func (h *Host) SetDraining(d bool) { h.draining = d }

// Step pops and fires the single earliest-scheduled pending event, if any,
// advancing Now() to its tick. Returns false if the queue is empty.
func (h *Host) Step() bool {
	ev, at, ok := h.queue.Pop()
	if !ok {
		return false
	}
	h.now = at
	if ev.Fn != nil {
		ev.Fn()
	}
	return true
}

// Run steps the event loop until either the queue drains or until is
// reached (exclusive); it never fires an event scheduled at or after
// until. Returns the number of events fired.
func (h *Host) Run(until core.Tick) int {
	fired := 0
	for {
		h.queue.mu.Lock()
		done := len(h.queue.heap) == 0 || h.queue.heap[0].at >= until
		h.queue.mu.Unlock()
		if done {
			return fired
		}
		ev, at, _ := h.queue.Pop()
		h.now = at
		if ev.Fn != nil {
			ev.Fn()
		}
		fired++
	}
}

// Pending reports the number of events currently scheduled.
func (h *Host) Pending() int { return h.queue.Len() }
