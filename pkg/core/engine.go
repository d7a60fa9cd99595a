/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine.go
Description: The generic CHAOS fault-injection engine: ties the injector
scheduler, an Adapter[L,K] target selector, the FaultPolicy, the permanent-
fault Ledger, and the Auditor into one orchestration loop, parameterized over
target kind. One Engine[L,K] instantiation per engine kind (REG, CACHE, MEM);
pkg/targets supplies the type parameters and adapters. Owns its own state,
processes one firing at a time, updates stats, and never escalates a target
error to the caller; telemetry fans out through the Reporter interface.
*/

package core

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// HaltAware is an optional capability an Adapter may implement to stop the
// engine from scheduling further injections once the underlying target is
// permanently gone (e.g. every CPU thread halted or the CPU drained). The
// REG adapter implements it; CACHE/MEM do not need to.
type HaltAware interface {
	Halted() bool
}

// Engine is the shared core of all three CHAOS fault-injection engines.
// L is a target location handle, K is its permanent-fault ledger key.
type Engine[L comparable, K comparable] struct {
	Name string

	cfg     Config
	adapter Adapter[L, K]
	policy  *FaultPolicy
	ledger  *Ledger[K]
	auditor *Auditor
	rng     *RNG
	host    Host

	ratio             int64
	firstTick         Tick
	lastTick          Tick // 0 == open-ended
	permCheckInterval Tick

	injectEvent    *Event
	permCheckEvent *Event

	windowClosed bool
}

// NewEngine constructs an Engine for one target kind. logName is the
// host-relative log file CHAOS writes per-injection audit lines to
// (spec.md §6); it is only opened if cfg.WriteLog is true. stats is the
// counter block the auditor updates; callers that want to expose it as a
// host stats group (spec.md §6) hold onto the same pointer.
func NewEngine[L comparable, K comparable](name string, cfg Config, adapter Adapter[L, K], host Host, logName string, stats *Stats) (*Engine[L, K], error) {
	e := &Engine[L, K]{
		Name:    name,
		cfg:     cfg,
		adapter: adapter,
		ledger:  NewLedger[K](),
		rng:     NewRNG(cfg.Seed),
		host:    host,
		ratio:   cfg.TickToClockRatio,
	}
	if e.ratio <= 0 {
		e.ratio = 1
	}
	policy, err := NewFaultPolicy(cfg, adapter.CellBits(), e.rng, host.Warn)
	if err != nil {
		host.Panic("core: %s: %v", name, err)
		return nil, fmt.Errorf("core: %s: %w", name, err)
	}
	e.policy = policy

	var log io.WriteCloser
	if cfg.WriteLog && cfg.Probability > 0 {
		var err error
		log, err = host.CreateLog(logName)
		if err != nil {
			return nil, fmt.Errorf("core: %s: %w", name, err)
		}
	}
	e.auditor = NewAuditor(name, log, cfg.WriteLog, stats)
	return e, nil
}

// AddReporter registers a telemetry sink with the engine's auditor.
func (e *Engine[L, K]) AddReporter(r Reporter) { e.auditor.AddReporter(r) }

// Start performs the construction-time scheduling of spec.md §4.1. It is
// idempotent: calling it more than once has no further effect once the
// first call has scheduled (or declined to schedule, for a disabled
// engine) the initial events.
func (e *Engine[L, K]) Start() {
	if e.injectEvent != nil || e.permCheckEvent != nil {
		return
	}
	e.injectEvent = &Event{Name: e.Name + ".inject", Fn: e.onInject}
	e.permCheckEvent = &Event{Name: e.Name + ".permCheck", Fn: e.onPermCheck}

	if e.cfg.Probability <= 0 {
		return
	}

	e.firstTick = Tick(int64(e.cfg.FirstClock) * e.ratio)
	e.lastTick = Tick(int64(e.cfg.LastClock) * e.ratio)
	e.permCheckInterval = Tick(e.cfg.CyclesPermanentFaultCheck * e.ratio)

	delta0 := e.rng.Geometric(e.cfg.Probability)
	e.scheduleInjectAt(e.firstTick + Tick(delta0)*Tick(e.ratio))

	if e.permCheckInterval > 0 {
		e.host.Schedule(e.permCheckEvent, e.firstTick+e.permCheckInterval)
	}
}

// scheduleInjectAt schedules the next injectEvent at tick, unless the
// injection window has closed (spec.md §4.1/§7.4), in which case no event
// is scheduled and the window-closed transition is reported exactly once.
func (e *Engine[L, K]) scheduleInjectAt(tick Tick) {
	if e.lastTick != 0 && tick > e.lastTick {
		if !e.windowClosed {
			e.windowClosed = true
			e.auditor.RecordWindowClosed(e.host.Now())
		}
		return
	}
	e.host.Schedule(e.injectEvent, tick)
}

// onInject is the injectEvent callback: select a target, apply a fault,
// record it, and schedule the next firing. A firing with no selectable
// target or a target-access error never aborts the simulation (spec.md
// §4.1 failure semantics, §7 error kind 3); the next firing is always
// considered via the deferred reschedule.
func (e *Engine[L, K]) onInject() {
	defer e.rescheduleAfterInject()

	if e.host.Draining() {
		return
	}
	if ha, ok := any(e.adapter).(HaltAware); ok && ha.Halted() {
		return
	}

	locs, err := e.adapter.Select(e.rng)
	if err != nil {
		e.auditor.WriteError("<select>", err)
		return
	}
	if len(locs) == 0 {
		e.host.Warn("core: %s: no selectable target this firing", e.Name)
		return
	}

	mutated := false
	for _, loc := range locs {
		ft := e.policy.ResolveFaultType(e.rng)
		mask := e.policy.GenerateMask(e.rng)
		if mask == 0 {
			e.host.Warn("core: %s: generated mask is zero at %s, skipping sub-firing", e.Name, e.adapter.Describe(loc))
			continue
		}

		cur, err := e.adapter.ReadCell(loc)
		if err != nil {
			e.auditor.WriteError(e.adapter.Describe(loc), err)
			continue
		}
		next := Apply(cur, ft, mask)
		if err := e.adapter.WriteCell(loc, next); err != nil {
			e.auditor.WriteError(e.adapter.Describe(loc), err)
			continue
		}

		permanent := ft != BitFlip
		if permanent {
			e.ledger.Record(e.adapter.Key(loc), ft, mask)
		}
		e.auditor.RecordInjection(InjectionRecord{
			ID:         uuid.New().String(),
			EngineName: e.Name,
			Tick:       e.host.Now(),
			Cycle:      e.host.CurCycle(),
			Target:     e.adapter.Describe(loc),
			Mask:       mask,
			MaskBits:   e.adapter.CellBits(),
			FaultType:  ft,
			Permanent:  permanent,
		})
		mutated = true
	}

	if mutated {
		e.adapter.MarkDirty(locs[0])
	}
}

// rescheduleAfterInject computes and schedules the next injection per
// spec.md §4.1: next = now + Geometric(probability)*ratio, scheduled only
// if it falls inside the configured window.
func (e *Engine[L, K]) rescheduleAfterInject() {
	if e.host.Draining() {
		return
	}
	if ha, ok := any(e.adapter).(HaltAware); ok && ha.Halted() {
		if !e.windowClosed {
			e.windowClosed = true
			e.auditor.RecordWindowClosed(e.host.Now())
		}
		return
	}
	delta := e.rng.Geometric(e.cfg.Probability)
	next := e.host.Now() + Tick(delta)*Tick(e.ratio)
	e.scheduleInjectAt(next)
}

// onPermCheck is the permanent-check callback: re-asserts every dirty
// stuck-at ledger entry whose location is still reachable, then
// reschedules itself once, at the end of the callback, independent of how
// many entries it touched (spec.md §9's resolved Open Question).
func (e *Engine[L, K]) onPermCheck() {
	e.ledger.ReAssert(func(key K, pf *PermanentFault) bool {
		loc, ok := e.adapter.Locate(key)
		if !ok || !e.adapter.Reachable(loc) {
			return false
		}
		cur, err := e.adapter.ReadCell(loc)
		if err != nil {
			return false
		}
		next := Apply(cur, pf.FaultType, pf.Mask)
		if err := e.adapter.WriteCell(loc, next); err != nil {
			return false
		}
		pf.Dirty = false
		e.auditor.RecordReassert(fmt.Sprintf("%v", key), InjectionRecord{
			ID:         uuid.New().String(),
			EngineName: e.Name,
			Tick:       e.host.Now(),
			Cycle:      e.host.CurCycle(),
			Mask:       pf.Mask,
			MaskBits:   e.adapter.CellBits(),
			FaultType:  pf.FaultType,
			Permanent:  true,
		})
		return true
	})

	if !e.host.Draining() {
		e.host.Schedule(e.permCheckEvent, e.host.Now()+e.permCheckInterval)
	}
}

// Stop squashes both pending events, matching spec.md §5's "on host
// drain/halt, both events are squashed."
func (e *Engine[L, K]) Stop() {
	if e.injectEvent != nil {
		e.host.Squash(e.injectEvent)
	}
	if e.permCheckEvent != nil {
		e.host.Squash(e.permCheckEvent)
	}
}

// Close releases the engine's audit log stream, if any.
func (e *Engine[L, K]) Close() error { return e.auditor.Close() }

// Ledger exposes the permanent-fault ledger for inspection (tests, stats).
func (e *Engine[L, K]) Ledger() *Ledger[K] { return e.ledger }
