package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	labelColor   = color.New(color.FgCyan)
)

func disableColor() {
	color.NoColor = true
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, format+"\n", args...)
}

func printError(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, format+"\n", args...)
}

// printField prints "label: value" with a colored label.
func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelColor.Sprint(label+":"), value)
}
