package simhost_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kleascm/chaos-faultinjector/pkg/core"
	"github.com/kleascm/chaos-faultinjector/pkg/simhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scheduling an event in the past is a silent no-op (spec.md §4.1
// failure semantics: "the host event queue rejects stale times").
func TestHostScheduleInThePastIsSilentNoop(t *testing.T) {
	host := simhost.NewHost(1, t.TempDir(), nil)
	fired := false
	ev := &core.Event{Name: "ev", Fn: func() { fired = true }}

	host.Schedule(ev, 100)
	host.Run(200)
	assert.True(t, fired)
	fired = false

	// Now "now" has advanced to 100; scheduling at tick 50 is stale.
	host.Schedule(ev, 50)
	assert.False(t, host.Scheduled(ev))
	host.Run(1000)
	assert.False(t, fired)
}

func TestHostSquashRemovesPendingEvent(t *testing.T) {
	host := simhost.NewHost(1, t.TempDir(), nil)
	fired := false
	ev := &core.Event{Name: "ev", Fn: func() { fired = true }}

	host.Schedule(ev, 10)
	require.True(t, host.Scheduled(ev))
	host.Squash(ev)
	assert.False(t, host.Scheduled(ev))

	host.Run(100)
	assert.False(t, fired)
}

func TestHostClockEdgeAndCurCycle(t *testing.T) {
	host := simhost.NewHost(1000, t.TempDir(), nil)
	assert.Equal(t, core.Tick(5000), host.ClockEdge(5))

	ev := &core.Event{Name: "advance"}
	host.Schedule(ev, 3000)
	host.Run(3001)
	assert.Equal(t, core.Cycles(3), host.CurCycle())
}

func TestHostCreateLogOpensAppendOnlyFile(t *testing.T) {
	dir := t.TempDir()
	host := simhost.NewHost(1, dir, nil)

	w, err := host.CreateLog("test.log")
	require.NoError(t, err)
	_, err = w.Write([]byte("line one\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w2, err := host.CreateLog("test.log")
	require.NoError(t, err)
	_, err = w2.Write([]byte("line two\n"))
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))
}

func TestHostRunStopsBeforeUntil(t *testing.T) {
	host := simhost.NewHost(1, t.TempDir(), nil)
	count := 0
	for _, tk := range []core.Tick{1, 2, 3, 10, 11} {
		tk := tk
		host.Schedule(&core.Event{Name: "ev", Fn: func() { count++ }}, tk)
	}

	fired := host.Run(10)
	assert.Equal(t, 3, fired, "only ticks strictly before 10 should fire")
	assert.Equal(t, 2, host.Pending())
}

func TestHostPanicInvokesPanic(t *testing.T) {
	host := simhost.NewHost(1, t.TempDir(), nil)
	assert.Panics(t, func() { host.Panic("boom: %s", "bad config") })
}

func TestHostDraining(t *testing.T) {
	host := simhost.NewHost(1, t.TempDir(), nil)
	assert.False(t, host.Draining())
	host.SetDraining(true)
	assert.True(t, host.Draining())
}
