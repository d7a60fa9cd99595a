/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Loads RegConfig/CacheConfig/MemConfig from YAML/JSON/env via
viper. One viper instance per engine config file/prefix; struct tags on
core.Config/RegConfig/CacheConfig/MemConfig (mapstructure) name every
configuration field the three engines accept.
*/

package config

import (
	"fmt"
	"strings"

	"github.com/kleascm/chaos-faultinjector/pkg/core"
	"github.com/spf13/viper"
)

// defaults mirrors the gem5 reference model's SimObject parameter
// defaults so a config file only needs to override what it cares about.
func defaults(v *viper.Viper) {
	v.SetDefault("probability", 0.0)
	v.SetDefault("bits_to_change", 1)
	v.SetDefault("first_clock", 0)
	v.SetDefault("last_clock", 0)
	v.SetDefault("fault_type", "bit_flip")
	v.SetDefault("fault_mask", "")
	v.SetDefault("tick_to_clock_ratio", 1000)
	v.SetDefault("cycles_permanent_fault_check", 1000)
	v.SetDefault("write_log", true)
	v.SetDefault("bit_flip_prob", 0.9)
	v.SetDefault("stuck_at_zero_prob", 0.05)
	v.SetDefault("stuck_at_one_prob", 0.05)
	v.SetDefault("seed", 0)
}

// newViper builds a viper instance that reads path (if non-empty).
// Environment variables named <ENVPREFIX>_<KEY> (e.g. CHAOS_REG_PROBABILITY)
// override both the file and the defaults, via AutomaticEnv.
func newViper(path, envPrefix string) (*viper.Viper, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return v, nil
}

func decodeFaultType(v *viper.Viper) (core.FaultType, error) {
	return core.ParseFaultType(v.GetString("fault_type"))
}

func decodeBase(v *viper.Viper) (core.Config, error) {
	ft, err := decodeFaultType(v)
	if err != nil {
		return core.Config{}, err
	}
	return core.Config{
		Probability:               v.GetFloat64("probability"),
		BitsToChange:              v.GetInt("bits_to_change"),
		FirstClock:                core.Cycles(v.GetInt64("first_clock")),
		LastClock:                 core.Cycles(v.GetInt64("last_clock")),
		FaultType:                 ft,
		FaultMask:                 v.GetString("fault_mask"),
		TickToClockRatio:          v.GetInt64("tick_to_clock_ratio"),
		CyclesPermanentFaultCheck: v.GetInt64("cycles_permanent_fault_check"),
		WriteLog:                  v.GetBool("write_log"),
		BitFlipProb:               v.GetFloat64("bit_flip_prob"),
		StuckAtZeroProb:           v.GetFloat64("stuck_at_zero_prob"),
		StuckAtOneProb:            v.GetFloat64("stuck_at_one_prob"),
		Seed:                      v.GetInt64("seed"),
	}, nil
}

// LoadReg reads a RegConfig from path ("" for defaults/env only).
func LoadReg(path string) (core.RegConfig, error) {
	v, err := newViper(path, "chaos_reg")
	if err != nil {
		return core.RegConfig{}, err
	}
	v.SetDefault("reg_target_class", "both")
	v.SetDefault("pc_target", 0)
	v.SetDefault("inst_target", "all")

	base, err := decodeBase(v)
	if err != nil {
		return core.RegConfig{}, err
	}

	class, err := parseRegClass(v.GetString("reg_target_class"))
	if err != nil {
		return core.RegConfig{}, err
	}

	return core.RegConfig{
		Config:         base,
		RegTargetClass: class,
		PCTarget:       v.GetUint64("pc_target"),
		InstTarget:     core.InstKind(v.GetString("inst_target")),
	}, nil
}

// LoadCache reads a CacheConfig from path.
func LoadCache(path string) (core.CacheConfig, error) {
	v, err := newViper(path, "chaos_cache")
	if err != nil {
		return core.CacheConfig{}, err
	}
	v.SetDefault("corruption_size", 1)

	base, err := decodeBase(v)
	if err != nil {
		return core.CacheConfig{}, err
	}

	return core.CacheConfig{
		Config:         base,
		CorruptionSize: v.GetInt("corruption_size"),
	}, nil
}

// LoadMem reads a MemConfig from path.
func LoadMem(path string) (core.MemConfig, error) {
	v, err := newViper(path, "chaos_mem")
	if err != nil {
		return core.MemConfig{}, err
	}
	v.SetDefault("addr_start", 0)
	v.SetDefault("addr_end", 0)

	base, err := decodeBase(v)
	if err != nil {
		return core.MemConfig{}, err
	}

	return core.MemConfig{
		Config:    base,
		AddrStart: v.GetUint64("addr_start"),
		AddrEnd:   v.GetUint64("addr_end"),
	}, nil
}

func parseRegClass(s string) (core.RegClassTarget, error) {
	switch s {
	case "both", "":
		return core.RegClassBoth, nil
	case "integer":
		return core.RegClassInteger, nil
	case "floating_point":
		return core.RegClassFloatingPoint, nil
	default:
		return 0, fmt.Errorf("config: unknown reg_target_class %q", s)
	}
}
