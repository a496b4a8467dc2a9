package gui

import (
	"fmt"
	"os"
	"runtime"
)

// ErrNoDisplay is returned on Linux when neither X11 nor Wayland is available.
var ErrNoDisplay = fmt.Errorf("GUI mode requires a display: DISPLAY and WAYLAND_DISPLAY are not set\n" +
	"Use 'projgen generate <file>' for CLI mode")

// HasDisplay reports whether a GUI can be opened in this environment.
func HasDisplay() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// Run launches GUI mode. args may carry "--config <path>" or "-c <path>".
func Run(args []string) error {
	if !HasDisplay() {
		return ErrNoDisplay
	}

	configFile := ""
	for i, arg := range args {
		if (arg == "--config" || arg == "-c") && i+1 < len(args) {
			configFile = args[i+1]
			break
		}
	}

	return LaunchGUI(configFile)
}
