/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logs.go
Description: `chaosctl logs` rotates/prunes and summarizes chaosctl's own
operational log files (or, via --pattern, the per-engine injection logs
`run` writes) using pkg/logging's LogManager/LogAnalyzer.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/chaos-faultinjector/pkg/logging"
	"github.com/spf13/cobra"
)

// NewLogsCommand builds the `logs` subcommand.
func NewLogsCommand() *cobra.Command {
	var dir, pattern string
	var maxFiles int
	var maxSize int64
	var compress, rotate bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Rotate/prune and summarize chaosctl's log files",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := logging.NewLogManager(dir, pattern, maxFiles, maxSize, compress)
			if rotate {
				if err := mgr.RotateLogs(); err != nil {
					return fmt.Errorf("logs: rotate: %w", err)
				}
			}
			if err := mgr.CleanupOldLogs(); err != nil {
				return fmt.Errorf("logs: cleanup: %w", err)
			}
			fileStats, err := mgr.GetLogStats()
			if err != nil {
				return fmt.Errorf("logs: stats: %w", err)
			}
			fmt.Printf("%d files on disk, %d bytes (%d compressed, %d uncompressed)\n",
				fileStats.TotalFiles, fileStats.TotalSize, fileStats.CompressedFiles, fileStats.UncompressedFiles)

			analysis, err := logging.NewLogAnalyzer(dir, pattern).AnalyzeLogs()
			if err != nil {
				return fmt.Errorf("logs: analyze: %w", err)
			}
			fmt.Println(analysis.GetLogSummary())
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "log-dir", "./logs", "Directory holding the log files to manage")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob pattern (relative to --log-dir) selecting files; default matches chaosctl's own operational logs. Pass \"*_injections.log\" for run's per-engine audit logs")
	cmd.Flags().IntVar(&maxFiles, "max-files", 10, "Maximum number of matching files to retain")
	cmd.Flags().Int64Var(&maxSize, "max-size", 100*1024*1024, "Rotate a log once it exceeds this many bytes")
	cmd.Flags().BoolVar(&compress, "compress", false, "Gzip rotated files")
	cmd.Flags().BoolVar(&rotate, "rotate", false, "Rotate oversized files before pruning and summarizing")

	return cmd
}
