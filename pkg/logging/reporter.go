/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Adapts Logger's typed CHAOS logging methods to core.Reporter,
so engine telemetry flows through the same rotated, structured operational
log chaosctl's other commands read instead of a bare logrus.Logger.
*/

package logging

import (
	"github.com/kleascm/chaos-faultinjector/pkg/core"
)

// EngineReporter routes core.Reporter callbacks through a Logger's
// LogInjection/LogPermanentReassert/LogTargetError/LogWindowClosed
// methods, giving every firing, re-assert, target error, and window
// closure a line in chaosctl's operational log alongside the end-of-run
// counter snapshots LogStats writes.
type EngineReporter struct {
	Logger *Logger
}

// NewEngineReporter builds an EngineReporter over l.
func NewEngineReporter(l *Logger) *EngineReporter {
	return &EngineReporter{Logger: l}
}

func (r *EngineReporter) OnFaultInjected(rec core.InjectionRecord) {
	if r.Logger == nil {
		return
	}
	r.Logger.LogInjection(rec.EngineName, rec.Target, rec.FaultType.String(), rec.Mask, rec.Permanent, map[string]interface{}{
		"id":    rec.ID,
		"tick":  int64(rec.Tick),
		"cycle": int64(rec.Cycle),
	})
}

func (r *EngineReporter) OnPermanentReassert(engineName string, key string, rec core.InjectionRecord) {
	if r.Logger == nil {
		return
	}
	r.Logger.LogPermanentReassert(engineName, key, rec.FaultType.String(), rec.Mask, map[string]interface{}{
		"id":   rec.ID,
		"tick": int64(rec.Tick),
	})
}

func (r *EngineReporter) OnWindowClosed(engineName string, tick core.Tick) {
	if r.Logger == nil {
		return
	}
	r.Logger.LogWindowClosed(engineName, int64(tick), nil)
}

func (r *EngineReporter) OnTargetError(engineName string, target string, err error) {
	if r.Logger == nil {
		return
	}
	r.Logger.LogTargetError(engineName, target, err, nil)
}
