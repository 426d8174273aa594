package main

import (
	"context"
	"fmt"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/openq1/q1display/hardware/nextion"
	"github.com/openq1/q1display/helpers/cli"
	"github.com/openq1/q1display/internal/types"
	"github.com/spf13/cobra"
)

var consoleSuggests = []prompt.Suggest{
	{Text: "page boot", Description: "show boot page"},
	{Text: "page main", Description: "show main page"},
	{Text: "page files", Description: "show files page"},
	{Text: "sendme", Description: "report current page id"},
	{Text: "get dp", Description: "query current page id"},
	{Text: "sleep=1", Description: "screen sleep"},
	{Text: "sleep=0", Description: "screen wake"},
	{Text: "dim=", Description: "brightness 0-100"},
	{Text: "bkcmd=3", Description: "report every instruction result"},
	{Text: "rest", Description: "reset panel"},
}

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "send raw instructions to display and print events",
		Args:  cobra.NoArgs,
		RunE:  runConsole,
	}
}

func runConsole(cmd *cobra.Command, _ []string) error {
	log := startLog()
	config, err := readConfig(log)
	if err != nil {
		log.Error(errors.ErrorStack(err))
		return err
	}
	log = configureLog(log, config)
	defer log.Close()

	out := cmd.OutOrStdout()
	ctx := context.Background()
	display, err := nextion.NewDisplay(log, nextion.NewFileUart(), nextion.Options{
		Device:   config.Display.Device,
		Baud:     config.Display.Baud,
		Codepage: config.Display.Codepage,
		LogDebug: true,
	}, func(ctx context.Context, e types.DisplayEvent) {
		fmt.Fprintln(out, e.String())
	})
	if err != nil {
		return errors.Trace(err)
	}
	if err := display.Connect(ctx); err != nil {
		return errors.Trace(err)
	}
	defer display.Close()

	exec := func(line string) {
		if err := display.Command(ctx, line); err != nil {
			log.Error(err)
		}
	}
	complete := func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterHasPrefix(consoleSuggests, d.TextBeforeCursor(), true)
	}
	return cli.MainLoop("q1display", exec, complete)
}
