// projgen - upload a source file to the project generator and unpack the
// generated project.
//
// - No args + display available → GUI mode
// - No args + no display → CLI help
// - --gui → GUI mode
// - --cli → CLI mode (force)
// - CLI subcommands/flags → CLI mode
package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/projgen/projgen/internal/cli"
	"github.com/projgen/projgen/internal/gui"
)

func main() {
	cli.GUILauncher = gui.LaunchGUI

	if isCLIMode(os.Args, gui.HasDisplay()) {
		if err := cli.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := gui.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliPatterns are the subcommands and flags that select CLI mode.
var cliPatterns = []string{
	// Subcommands
	"generate", "gen", "send", "config", "completion", "gui", "help",
	// Flags
	"--help", "-h", "--version",
}

// isCLIMode decides between CLI and GUI from the arguments.
//
// CLI mode when:
// - --cli is present
// - a CLI subcommand or flag is present
// - there are no arguments and no display
// - the arguments are unknown, so the CLI can print help
//
// GUI mode when --gui is present, or with no arguments on a desktop.
func isCLIMode(args []string, hasDisplay bool) bool {
	if slices.Contains(args, "--cli") {
		return true
	}
	if slices.Contains(args, "--gui") {
		return false
	}

	if len(args) <= 1 {
		return !hasDisplay
	}

	for _, arg := range args[1:] {
		if slices.Contains(cliPatterns, arg) {
			return true
		}
	}

	// "--config x" alone still means the GUI
	if onlyConfigFlag(args[1:]) {
		return !hasDisplay
	}

	return true
}

func onlyConfigFlag(args []string) bool {
	return len(args) == 2 && (args[0] == "--config" || args[0] == "-c")
}
