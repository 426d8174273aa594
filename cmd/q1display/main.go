package main

import (
	"fmt"
	"os"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/openq1/q1display/internal/state"
	"github.com/openq1/q1display/log2"
	"github.com/spf13/cobra"
)

var BuildVersion string = "unknown" // set by ldflags -X

var flagConfig string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "q1display",
		Short:         "touchscreen controller for Klipper/Moonraker printers",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runMain,
	}
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "q1display.hcl", "config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "run controller (default)",
		Args:  cobra.NoArgs,
		RunE:  runMain,
	})
	rootCmd.AddCommand(newConsoleCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), BuildVersion)
		},
	})
	return rootCmd
}

// startLog picks flags, systemd journal adds timestamps itself.
func startLog() *log2.Log {
	log := log2.NewStderr(log2.LDebug)
	switch {
	case sdnotify("start"):
		log.SetFlags(log2.LServiceFlags)
	case isatty.IsTerminal(os.Stderr.Fd()):
		log.SetFlags(log2.LInteractiveFlags)
	default:
		log.SetFlags(log2.LStdFlags)
	}
	return log
}

// configureLog applies log config block, may switch to rotated file.
func configureLog(log *log2.Log, config *state.Config) *log2.Log {
	level, _ := log2.ParseLevel(config.Log.Level) // validated
	if config.Log.File != "" {
		log = log2.NewRotate(log2.RotateConfig{
			Filename:   config.Log.File,
			MaxSizeMB:  config.Log.MaxSizeMB,
			MaxBackups: config.Log.MaxBackups,
			MaxAgeDays: config.Log.MaxAgeDays,
			Tee:        isatty.IsTerminal(os.Stderr.Fd()),
		}, level)
		log.SetFlags(log2.LInteractiveFlags)
		return log
	}
	log.SetLevel(level)
	return log
}

func readConfig(log *log2.Log) (*state.Config, error) {
	config, err := state.ReadConfig(log, state.NewOsFullReader(), flagConfig)
	if err != nil {
		return nil, errors.Annotatef(err, "config=%s", flagConfig)
	}
	return config, nil
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log2.NewStderr(log2.LError).Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
