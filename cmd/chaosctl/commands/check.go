/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: check.go
Description: `chaosctl check` validates a config file without running any
engine: loads it (failing on an unreadable file, an unknown fault type or
an unknown register class) and prints the loaded configuration as JSON.
The fault-type probability sum is not checked here.
*/

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/kleascm/chaos-faultinjector/pkg/config"
	"github.com/spf13/cobra"
)

// NewCheckCommand builds the `check` subcommand.
func NewCheckCommand() *cobra.Command {
	var kind, path string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a CHAOS config file without running an engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				out interface{}
				err error
			)
			switch kind {
			case "reg":
				out, err = config.LoadReg(path)
			case "cache":
				out, err = config.LoadCache(path)
			case "mem":
				out, err = config.LoadMem(path)
			default:
				return fmt.Errorf("check: unknown --kind %q, want reg|cache|mem", kind)
			}
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Config kind: reg, cache, or mem (required)")
	cmd.Flags().StringVar(&path, "config", "", "Config file path")
	cmd.MarkFlagRequired("kind")
	return cmd
}
