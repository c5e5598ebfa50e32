package helper

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"

	"github.com/0xPolygon/edge-xcc/command"
	"github.com/0xPolygon/edge-xcc/helper/hex"
)

// RegisterJSONOutputFlag registers the --json output setting for all child commands
func RegisterJSONOutputFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool(
		command.JSONOutputFlag,
		false,
		"get all outputs in json format (default false)",
	)
}

// RegisterConfigFlag registers the --config file flag on a command
func RegisterConfigFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(
		target,
		command.ConfigFlag,
		"",
		"the path to the CLI config file (.hcl, .json, .yaml or .yml), defaults are used if omitted",
	)
}

// RegisterLogLevelFlag registers the --log-level override on a command
func RegisterLogLevelFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(
		target,
		command.LogLevelFlag,
		"",
		"overrides the log level of the config (DEBUG, INFO, WARN, ERROR)",
	)
}

// FormatList formats a list, using a specific blank value replacement
func FormatList(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"

	return columnize.Format(in, columnConf)
}

// FormatKV formats key value pairs:
//
// Key = Value
//
// Key = <none>
func FormatKV(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"
	columnConf.Glue = " = "

	return columnize.Format(in, columnConf)
}

// DecodeHexInput decodes a hex argument, with or without the 0x prefix
func DecodeHexInput(name, value string) ([]byte, error) {
	b, err := hex.DecodeHex(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}

	return b, nil
}

// GetTerminationSignalCh returns a channel to emit signals by ctrl + c
func GetTerminationSignalCh() <-chan os.Signal {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	return signalCh
}
