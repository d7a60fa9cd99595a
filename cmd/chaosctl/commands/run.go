/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: run.go
Description: `chaosctl run` drives one pkg/simhost.Host with all three CHAOS
engines attached against the bundled demo CPU/Cache/Memory, for a configurable
number of cycles, then logs the counters and, when asked, writes a JSON stats
snapshot: load config, build the engine, run, report.
*/

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kleascm/chaos-faultinjector/demo"
	"github.com/kleascm/chaos-faultinjector/pkg/config"
	"github.com/kleascm/chaos-faultinjector/pkg/core"
	"github.com/kleascm/chaos-faultinjector/pkg/logging"
	"github.com/kleascm/chaos-faultinjector/pkg/simhost"
	"github.com/kleascm/chaos-faultinjector/pkg/targets"
	"github.com/kleascm/chaos-faultinjector/pkg/utils"
	"github.com/spf13/cobra"
)

type runOptions struct {
	regConfig   string
	cacheConfig string
	memConfig   string
	cycles      int64
	ratio       int64
	logDir      string
	statsOut    string
	metricsTag  string

	numThreads, numIntRegs, numFPRegs int
	cacheBlockSize, memSize           int
}

// NewRunCommand builds the `run` subcommand.
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the REG/CACHE/MEM engines against the bundled demo host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngines(opts)
		},
	}

	cmd.Flags().StringVar(&opts.regConfig, "reg-config", "", "RegConfig file (YAML/JSON); omitted disables REG")
	cmd.Flags().StringVar(&opts.cacheConfig, "cache-config", "", "CacheConfig file; omitted disables CACHE")
	cmd.Flags().StringVar(&opts.memConfig, "mem-config", "", "MemConfig file; omitted disables MEM")
	cmd.Flags().Int64Var(&opts.cycles, "cycles", 1000, "Number of CPU clock cycles to simulate")
	cmd.Flags().Int64Var(&opts.ratio, "host-ratio", 1000, "Host CPU clock ticks-per-cycle (REG's ClockEdge/CurCycle)")
	cmd.Flags().StringVar(&opts.logDir, "injection-log-dir", "./logs", "Directory for the per-engine audit log files")
	cmd.Flags().StringVar(&opts.statsOut, "stats-out", "", "Write the final Stats snapshot as JSON to this path")
	cmd.Flags().StringVar(&opts.metricsTag, "metrics-version", "", "Also drop a copy of the stats snapshot under metrics/run/, tagged with this version")

	cmd.Flags().IntVar(&opts.numThreads, "threads", 4, "Demo CPU thread count")
	cmd.Flags().IntVar(&opts.numIntRegs, "int-regs", 16, "Demo CPU integer registers per thread")
	cmd.Flags().IntVar(&opts.numFPRegs, "fp-regs", 16, "Demo CPU floating-point registers per thread")
	cmd.Flags().IntVar(&opts.cacheBlockSize, "cache-block-size", 64, "Demo cache block size in bytes")
	cmd.Flags().IntVar(&opts.memSize, "mem-size", 1<<20, "Demo memory size in bytes")

	return cmd
}

type runResult struct {
	Reg   *core.Stats `json:"reg,omitempty"`
	Cache *core.Stats `json:"cache,omitempty"`
	Mem   *core.Stats `json:"mem,omitempty"`
}

func runEngines(opts *runOptions) error {
	logger := Logger.GetLogger()
	host := simhost.NewHost(opts.ratio, opts.logDir, logger)
	host.SetLogManager(logging.NewLogManager(opts.logDir, "*_injections.log", 10, 10*1024*1024, true))

	cpu := demo.NewCPU(opts.numThreads, opts.numIntRegs, opts.numFPRegs)
	cache := demo.NewCache(opts.cacheBlockSize)
	for i := 0; i < 64; i++ {
		cache.Allocate(uint64(i * opts.cacheBlockSize))
	}
	mem := demo.NewMemory(opts.memSize)

	result := &runResult{}

	{
		// REG always attempts to run; Probability==0 (the zero-value
		// default when no --reg-config is given) disables it per
		// spec.md §3, matching scenario 4's "disabled engine".
		cfg, err := config.LoadReg(opts.regConfig)
		if err != nil {
			return fmt.Errorf("run: reg config: %w", err)
		}
		adapter := targets.NewRegAdapter(cpu, cfg.RegTargetClass, cfg.PCTarget, cfg.InstTarget)
		effective := cfg.Config
		if cfg.PCTarget != 0 {
			effective.Probability = 1.0 // spec.md §4.2 poll-every-cycle contract
		}
		stats := &core.Stats{}
		eng, err := core.NewEngine("reg", effective, adapter, host, "fault_injections.log", stats)
		if err != nil {
			return fmt.Errorf("run: reg engine: %w", err)
		}
		eng.AddReporter(logging.NewEngineReporter(Logger))
		eng.Start()
		result.Reg = stats
	}

	{
		cfg, err := config.LoadCache(opts.cacheConfig)
		if err != nil {
			return fmt.Errorf("run: cache config: %w", err)
		}
		adapter := targets.NewCacheAdapter(cache, cfg.CorruptionSize)
		stats := &core.Stats{}
		eng, err := core.NewEngine("cache", cfg.Config, adapter, host, "cache_injections.log", stats)
		if err != nil {
			return fmt.Errorf("run: cache engine: %w", err)
		}
		eng.AddReporter(logging.NewEngineReporter(Logger))
		eng.Start()
		result.Cache = stats
	}

	{
		cfg, err := config.LoadMem(opts.memConfig)
		if err != nil {
			return fmt.Errorf("run: mem config: %w", err)
		}
		adapter := targets.NewMemAdapter(mem, cfg.AddrStart, cfg.AddrEnd, host.Warn)
		stats := &core.Stats{}
		eng, err := core.NewEngine("mem", cfg.Config, adapter, host, "main_mem_injections.log", stats)
		if err != nil {
			return fmt.Errorf("run: mem engine: %w", err)
		}
		eng.AddReporter(logging.NewEngineReporter(Logger))
		eng.Start()
		result.Mem = stats
	}

	fired := host.Run(host.ClockEdge(core.Cycles(opts.cycles)))

	Logger.LogStats("reg", result.Reg.NumFaultsInjected, result.Reg.NumBitFlips, result.Reg.NumStuckAtZero, result.Reg.NumStuckAtOne, result.Reg.NumPermanentFaults, nil)
	Logger.LogStats("cache", result.Cache.NumFaultsInjected, result.Cache.NumBitFlips, result.Cache.NumStuckAtZero, result.Cache.NumStuckAtOne, result.Cache.NumPermanentFaults, nil)
	Logger.LogStats("mem", result.Mem.NumFaultsInjected, result.Mem.NumBitFlips, result.Mem.NumStuckAtZero, result.Mem.NumStuckAtOne, result.Mem.NumPermanentFaults, nil)

	if opts.statsOut != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("run: marshal stats: %w", err)
		}
		if err := os.WriteFile(opts.statsOut, data, 0o644); err != nil {
			return fmt.Errorf("run: write stats: %w", err)
		}
	}

	if opts.metricsTag != "" {
		path, err := utils.WriteMetricsResult("run", opts.metricsTag, result)
		if err != nil {
			return fmt.Errorf("run: write metrics snapshot: %w", err)
		}
		logger.Infof("stats snapshot written to %s", path)
	}

	logger.Infof("run complete: %d cycles, %d events fired", opts.cycles, fired)
	return nil
}
