package routerid

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xPolygon/edge-xcc/command"
	"github.com/0xPolygon/edge-xcc/command/helper"
	"github.com/0xPolygon/edge-xcc/sandbox"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

const engineFlag = "engine"

var engineAccount string

// GetCommand returns the router-id command
func GetCommand() *cobra.Command {
	routerIDCmd := &cobra.Command{
		Use:   "router-id <address>",
		Short: "Derives the router account of an EVM address",
		Args:  cobra.ExactArgs(1),
		Run:   runCommand,
	}

	routerIDCmd.Flags().StringVar(
		&engineAccount,
		engineFlag,
		string(sandbox.DefaultConfig().EngineAccount),
		"the account the engine runs in",
	)

	return routerIDCmd
}

func runCommand(cmd *cobra.Command, args []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	addr, err := types.ParseAddress(args[0])
	if err != nil {
		outputter.SetError(err)

		return
	}

	engine, err := types.ParseAccountID(engineAccount)
	if err != nil {
		outputter.SetError(fmt.Errorf("invalid engine account: %w", err))

		return
	}

	id, err := xcc.RouterAccountID(addr, engine)
	if err != nil {
		outputter.SetError(err)

		return
	}

	outputter.SetCommandResult(&RouterIDResult{Address: addr.String(), Engine: string(engine), Router: string(id)})
}

type RouterIDResult struct {
	Address string `json:"address"`
	Engine  string `json:"engine"`
	Router  string `json:"router"`
}

func (r *RouterIDResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[ROUTER]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Address|%s", r.Address),
		fmt.Sprintf("Engine|%s", r.Engine),
		fmt.Sprintf("Router account|%s", r.Router),
	}))
	buffer.WriteString("\n")

	return buffer.String()
}
