/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared state for chaosctl subcommands: holds the package-level
logger every command RunE closes over.
*/

package commands

import "github.com/kleascm/chaos-faultinjector/pkg/logging"

// Logger is set by main's PersistentPreRunE before any subcommand runs.
var Logger *logging.Logger
