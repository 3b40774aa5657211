// Package cmd implements rdicomweb's command surface: "serve" runs the
// DICOMweb HTTP server, "version" reports the build's git sha.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rdicomweb/logging"
)

// NewRoot builds the rdicomweb root command, wiring structured logging via
// PersistentPreRun before any subcommand runs.
func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	root := &cobra.Command{
		Use:   "rdicomweb",
		Short: "DICOMweb QIDO-RS/STOW-RS server over a directory of DICOM files",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevelStr, _ := cmd.Flags().GetString("log-level")
			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevelStr))); err != nil {
				level = slog.LevelInfo
			}

			var w = os.Stdout
			logFile, _ := cmd.Flags().GetString("log-file")
			logger := logging.Logger(w, false, level)
			if logFile != "" {
				logger = logging.Logger(logging.RotatingWriter(logFile, 100, 3), false, level)
			}
			slog.SetDefault(logger)
		},
	}

	pf := root.PersistentFlags()
	pf.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "rotate logs to this file instead of stdout")

	root.AddCommand(NewServeCmd(ctx), NewVersionCmd(gitsha))
	return root
}

// NewVersionCmd reports the build's git sha.
func NewVersionCmd(gitsha string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the build's git sha",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(gitsha)
		},
	}
}
