package core

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// InjectionRecord describes one firing for the auditor's log line and for
// Reporter notification.
type InjectionRecord struct {
	ID         string // uuid.New().String(), fresh for every firing and every re-assert; passed to Reporters, not written to the audit log line
	EngineName string
	Tick       Tick
	Cycle      Cycles
	Target     string // human-readable location, e.g. "CPU/Thread[0]/int[5]" or "target addr: 0x1000"
	Mask       uint64
	MaskBits   int // width the mask is rendered at: 8 (cache/mem) or 32 (registers)
	FaultType  FaultType
	Permanent  bool
}

// binaryLiteral renders mask as a fixed-width binary string, the format
// spec.md §4.5/§6 mandates ("Mask" rendered as an 8- or 32-bit binary
// literal), replacing C++'s std::bitset<N> stream operator.
func binaryLiteral(mask uint64, bits int) string {
	if bits <= 0 {
		bits = 8
	}
	s := strconv.FormatUint(mask, 2)
	if len(s) < bits {
		s = strings.Repeat("0", bits-len(s)) + s
	}
	return s
}

// Reporter receives telemetry for each firing and ledger sweep, the same
// hook shape the engine's stats reporting used for test-case execution.
type Reporter interface {
	OnFaultInjected(rec InjectionRecord)
	OnPermanentReassert(engineName string, key string, rec InjectionRecord)
	OnWindowClosed(engineName string, tick Tick)
	OnTargetError(engineName string, target string, err error)
}

// LoggerReporter logs every event through a structured logger. Adapted
// from the logrus.Fields idiom used for execution/crash/coverage events.
type LoggerReporter struct {
	Logger *logrus.Logger
}

func (r *LoggerReporter) OnFaultInjected(rec InjectionRecord) {
	if r.Logger == nil {
		return
	}
	r.Logger.WithFields(logrus.Fields{
		"engine":     rec.EngineName,
		"tick":       rec.Tick,
		"cycle":      rec.Cycle,
		"target":     rec.Target,
		"mask":       fmt.Sprintf("%#x", rec.Mask),
		"fault_type": rec.FaultType.String(),
		"permanent":  rec.Permanent,
	}).Info("fault injected")
}

func (r *LoggerReporter) OnPermanentReassert(engineName string, key string, rec InjectionRecord) {
	if r.Logger == nil {
		return
	}
	r.Logger.WithFields(logrus.Fields{
		"engine": engineName,
		"key":    key,
		"mask":   fmt.Sprintf("%#x", rec.Mask),
	}).Info("permanent fault re-asserted")
}

func (r *LoggerReporter) OnWindowClosed(engineName string, tick Tick) {
	if r.Logger == nil {
		return
	}
	r.Logger.WithFields(logrus.Fields{"engine": engineName, "tick": tick}).Info("injection window closed")
}

func (r *LoggerReporter) OnTargetError(engineName string, target string, err error) {
	if r.Logger == nil {
		return
	}
	r.Logger.WithFields(logrus.Fields{"engine": engineName, "target": target}).Warn("target error: " + err.Error())
}

// Auditor writes the per-firing audit log line (spec §4.5/§6 format) to a
// host-provided stream, increments the shared Stats block, and fans out
// to Reporters. One Auditor is shared by an engine's inject and
// permanent-check paths.
type Auditor struct {
	EngineName string
	Stats      *Stats
	log        io.WriteCloser
	writeLog   bool
	reporters  []Reporter
}

// NewAuditor builds an Auditor. log may be nil when writeLog is false.
func NewAuditor(engineName string, log io.WriteCloser, writeLog bool, stats *Stats) *Auditor {
	return &Auditor{EngineName: engineName, Stats: stats, log: log, writeLog: writeLog}
}

// AddReporter registers an additional telemetry sink.
func (a *Auditor) AddReporter(r Reporter) { a.reporters = append(a.reporters, r) }

// RecordInjection writes the audit line, bumps counters, and notifies
// reporters for one firing.
func (a *Auditor) RecordInjection(rec InjectionRecord) {
	atomic.AddInt64(&a.Stats.NumFaultsInjected, 1)
	switch rec.FaultType {
	case BitFlip:
		atomic.AddInt64(&a.Stats.NumBitFlips, 1)
	case StuckAtZero:
		atomic.AddInt64(&a.Stats.NumStuckAtZero, 1)
	case StuckAtOne:
		atomic.AddInt64(&a.Stats.NumStuckAtOne, 1)
	}
	if rec.Permanent {
		atomic.AddInt64(&a.Stats.NumPermanentFaults, 1)
	}

	if a.writeLog && a.log != nil {
		fmt.Fprintf(a.log, "Tick: %d, Cycle: %d, %s, FaultType: %s, Mask: %s\n",
			rec.Tick, rec.Cycle, rec.Target, rec.FaultType, binaryLiteral(rec.Mask, rec.MaskBits))
		flushIfPossible(a.log)
	}
	for _, r := range a.reporters {
		r.OnFaultInjected(rec)
	}
}

// WriteError appends an Error: line for a target-access fault (spec.md
// §4.5/§7 error kind 3): caught per firing, logged with the target
// identifier and the error's message, no counters touched.
func (a *Auditor) WriteError(target string, err error) {
	if a.writeLog && a.log != nil {
		fmt.Fprintf(a.log, "Error: target %s, %s\n", target, err.Error())
		flushIfPossible(a.log)
	}
	for _, r := range a.reporters {
		r.OnTargetError(a.EngineName, target, err)
	}
}

// flushIfPossible flushes w if it exposes a Flush() error method (spec.md
// §4.5's "flushed at least per injection"); plain *os.File needs no
// buffering so this is a no-op for the common host.CreateLog() case.
func flushIfPossible(w io.Writer) {
	if f, ok := w.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
}

// RecordReassert notifies reporters of a permanent-fault re-assertion
// sweep hit; it does not bump NumFaultsInjected since re-assertion is not
// a new injection event.
func (a *Auditor) RecordReassert(key string, rec InjectionRecord) {
	for _, r := range a.reporters {
		r.OnPermanentReassert(a.EngineName, key, rec)
	}
}

// RecordWindowClosed notifies reporters that the injection window ended.
func (a *Auditor) RecordWindowClosed(tick Tick) {
	for _, r := range a.reporters {
		r.OnWindowClosed(a.EngineName, tick)
	}
}

// Close releases the underlying log stream, if any.
func (a *Auditor) Close() error {
	if a.log != nil {
		return a.log.Close()
	}
	return nil
}
