package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xPolygon/edge-xcc/command/calibrate"
	"github.com/0xPolygon/edge-xcc/command/decode"
	"github.com/0xPolygon/edge-xcc/command/encode"
	"github.com/0xPolygon/edge-xcc/command/helper"
	"github.com/0xPolygon/edge-xcc/command/key"
	"github.com/0xPolygon/edge-xcc/command/routerid"
	"github.com/0xPolygon/edge-xcc/command/simulate"
	"github.com/0xPolygon/edge-xcc/command/version"
)

type RootCommand struct {
	baseCmd *cobra.Command
}

func NewRootCommand() *RootCommand {
	rootCommand := &RootCommand{
		baseCmd: &cobra.Command{
			Use:           "edge-xcc",
			Short:         "Tooling for cross contract calls from the EVM engine to the host chain",
			SilenceUsage:  true,
			SilenceErrors: true,
		},
	}

	helper.RegisterJSONOutputFlag(rootCommand.baseCmd)

	rootCommand.registerSubCommands()

	return rootCommand
}

func (rc *RootCommand) registerSubCommands() {
	rc.baseCmd.AddCommand(
		version.GetCommand(),
		encode.GetCommand(),
		decode.GetCommand(),
		key.GetCommand(),
		routerid.GetCommand(),
		calibrate.GetCommand(),
		simulate.GetCommand(),
	)
}

func (rc *RootCommand) Execute() {
	if err := rc.baseCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}
