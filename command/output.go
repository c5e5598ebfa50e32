package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// OutputFormatter is the standardized interface all output formatters
// should use
type OutputFormatter interface {
	// SetError sets the encountered error
	SetError(err error)

	// SetCommandResult sets the result of the command execution
	SetCommandResult(result CommandResult)

	// WriteOutput writes the result / error output
	WriteOutput()
}

type CommandResult interface {
	GetOutput() string
}

// Results renders several results one after the other
type Results []CommandResult

func (r Results) GetOutput() string {
	var b strings.Builder

	for _, res := range r {
		b.WriteString(res.GetOutput())
	}

	return b.String()
}

func shouldOutputJSON(baseCmd *cobra.Command) bool {
	flag := baseCmd.Flag(JSONOutputFlag)

	return flag != nil && flag.Changed
}

// InitializeOutputter picks the formatter requested on the command line
func InitializeOutputter(cmd *cobra.Command) OutputFormatter {
	out := &formatter{stdout: cmd.OutOrStdout(), stderr: cmd.ErrOrStderr()}

	if shouldOutputJSON(cmd) {
		out.json = true
	}

	return out
}

type formatter struct {
	json   bool
	stdout io.Writer
	stderr io.Writer

	errorOutput   error
	commandOutput CommandResult
}

func (f *formatter) SetError(err error) {
	f.errorOutput = err
}

func (f *formatter) SetCommandResult(result CommandResult) {
	f.commandOutput = result
}

func (f *formatter) WriteOutput() {
	if f.errorOutput != nil {
		_, _ = fmt.Fprintln(f.stderr, f.getErrorOutput())

		return
	}

	if f.commandOutput == nil {
		return
	}

	_, _ = fmt.Fprintln(f.stdout, f.getCommandOutput())
}

func (f *formatter) getErrorOutput() string {
	if !f.json {
		return f.errorOutput.Error()
	}

	return marshalJSONToString(
		struct {
			Err string `json:"error"`
		}{
			Err: f.errorOutput.Error(),
		},
	)
}

func (f *formatter) getCommandOutput() string {
	if !f.json {
		return f.commandOutput.GetOutput()
	}

	return marshalJSONToString(f.commandOutput)
}

func marshalJSONToString(input interface{}) string {
	bytes, err := json.Marshal(input)
	if err != nil {
		return err.Error()
	}

	return string(bytes)
}
