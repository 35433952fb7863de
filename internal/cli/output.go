package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// Output writes either aligned text or indented JSON.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && cmd.OutOrStdout() == os.Stdout && isatty.IsTerminal(os.Stdout.Fd()),
	}
}

func (o *Output) IsJSON() bool { return o.jsonMode }

func (o *Output) JSON(data interface{}) error {
	enc := json.NewEncoder(o.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Row prints one label/value line.
func (o *Output) Row(label, format string, args ...interface{}) {
	fmt.Fprintf(o.writer, "  %-22s %s\n", label, fmt.Sprintf(format, args...))
}

func (o *Output) Title(text string) {
	fmt.Fprintln(o.writer, o.colored(colorBold, text))
}

func (o *Output) Warning(format string, args ...interface{}) {
	fmt.Fprintln(o.writer, o.colored(colorYellow, fmt.Sprintf(format, args...)))
}

func (o *Output) Dim(text string) string { return o.colored(colorDim, text) }

// Band colors a classification: hot values red, cheap ones green.
func (o *Output) Band(text string) string {
	switch text {
	case "overheated", "weak", "equity_like":
		return o.colored(colorRed, text)
	case "cheap", "near_parity", "strong", "bond_like":
		return o.colored(colorGreen, text)
	}
	return text
}

func (o *Output) colored(color, text string) string {
	if !o.colorEnabled {
		return text
	}
	return color + text + colorReset
}
