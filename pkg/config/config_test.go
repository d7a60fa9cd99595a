package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kleascm/chaos-faultinjector/pkg/config"
	"github.com/kleascm/chaos-faultinjector/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadRegDefaults(t *testing.T) {
	cfg, err := config.LoadReg("")
	require.NoError(t, err)

	assert.Zero(t, cfg.Probability)
	assert.Equal(t, 1, cfg.BitsToChange)
	assert.Equal(t, core.BitFlip, cfg.FaultType)
	assert.Equal(t, core.RegClassBoth, cfg.RegTargetClass)
	assert.Equal(t, core.InstAll, cfg.InstTarget)
	assert.Equal(t, int64(1000), cfg.TickToClockRatio)
}

func TestLoadRegFromYAML(t *testing.T) {
	path := writeYAML(t, `
probability: 0.05
bits_to_change: 3
fault_type: stuck_at_one
reg_target_class: integer
pc_target: 3735928559
first_clock: 10
last_clock: 200
`)
	cfg, err := config.LoadReg(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.05, cfg.Probability, 1e-9)
	assert.Equal(t, 3, cfg.BitsToChange)
	assert.Equal(t, core.StuckAtOne, cfg.FaultType)
	assert.Equal(t, core.RegClassInteger, cfg.RegTargetClass)
	assert.Equal(t, uint64(0xDEADBEEF), cfg.PCTarget)
	assert.Equal(t, core.Cycles(10), cfg.FirstClock)
	assert.Equal(t, core.Cycles(200), cfg.LastClock)
}

func TestLoadCacheDefaultsCorruptionSize(t *testing.T) {
	cfg, err := config.LoadCache("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.CorruptionSize)
}

func TestLoadMemAddrEndDefaultsToZero(t *testing.T) {
	cfg, err := config.LoadMem("")
	require.NoError(t, err)
	assert.Zero(t, cfg.AddrEnd)
	assert.Zero(t, cfg.AddrStart)
}

func TestLoadRegRejectsUnknownFaultType(t *testing.T) {
	path := writeYAML(t, "fault_type: not_a_real_type\n")
	_, err := config.LoadReg(path)
	assert.Error(t, err)
}

func TestLoadRegRejectsUnknownRegClass(t *testing.T) {
	path := writeYAML(t, "reg_target_class: quantum\n")
	_, err := config.LoadReg(path)
	assert.Error(t, err)
}

func TestLoadRegRejectsMissingFile(t *testing.T) {
	_, err := config.LoadReg(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
