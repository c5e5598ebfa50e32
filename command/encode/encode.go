package encode

import (
	"github.com/spf13/cobra"

	"github.com/0xPolygon/edge-xcc/command"
	"github.com/0xPolygon/edge-xcc/command/helper"
	"github.com/0xPolygon/edge-xcc/helper/hex"
	"github.com/0xPolygon/edge-xcc/xcc"
)

var params helper.PromiseFlags

// GetCommand returns the encode command
func GetCommand() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Builds the input of the cross contract call precompile",
		Run:   runCommand,
	}

	params.Register(encodeCmd)

	return encodeCmd
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	args, err := params.Build()
	if err != nil {
		outputter.SetError(err)

		return
	}

	input, err := args.Encode()
	if err != nil {
		outputter.SetError(err)

		return
	}

	outputter.SetCommandResult(&EncodeResult{
		Input:        hex.EncodeToHex(input),
		InputLen:     len(input),
		EVMGas:       uint64(xcc.Cost(len(input))),
		TotalGas:     uint64(args.Promise.TotalGas()),
		TotalBalance: args.Promise.TotalBalance().Dec(),
	})
}
