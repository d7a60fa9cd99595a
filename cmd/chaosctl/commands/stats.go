/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stats.go
Description: `chaosctl stats` pretty-prints a Stats snapshot JSON file
previously written by `run --stats-out`.
*/

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewStatsCommand builds the `stats` subcommand.
func NewStatsCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a counter snapshot written by `run --stats-out`",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			var pretty interface{}
			if err := json.Unmarshal(data, &pretty); err != nil {
				return fmt.Errorf("stats: parse %s: %w", path, err)
			}
			out, err := json.MarshalIndent(pretty, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "Path to a stats JSON file (required)")
	cmd.MarkFlagRequired("file")
	return cmd
}
