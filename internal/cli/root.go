// Package cli provides the command-line interface for projgen.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/projgen/projgen/internal/config"
	"github.com/projgen/projgen/internal/logging"
	"github.com/projgen/projgen/internal/version"
)

// EnvDebug enables debug logging, same as --debug.
const EnvDebug = "PROJGEN_DEBUG"

var (
	// Global flags
	cfgFile     string
	endpoint    string
	outputDir   string
	verbose     bool
	debug       bool
	noColor     bool
	forceNotify bool

	// Mode selection, read by main before cobra runs
	forceCLI bool
	forceGUI bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// GUILauncher opens the desktop window. Set by main so this package does not
// depend on the GUI toolkit.
var GUILauncher func(configFile string) error

// NewRootCmd creates the root command for CLI mode.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "projgen",
		Short: "Generate a project from a source file",
		Long: `projgen ` + version.Version + ` - Built: ` + version.BuildTime + `
Uploads a file to the project generator and unpacks the returned archive
into ~/Downloads/generated_project.

CLI Mode:
  projgen generate <file>

GUI Mode (--gui flag, or no arguments on a desktop):
  Single window with a path field, Browse and Send.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceGUI && !forceCLI {
				return launchGUI()
			}
			return cmd.Help()
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewWithWriter("cli", cmd.ErrOrStderr())
			if verbose || debug || os.Getenv(EnvDebug) != "" {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
			if noColor {
				disableColor()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Generation endpoint URL (overrides config and "+config.EnvEndpoint+")")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Extraction root (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&forceCLI, "cli", false, "Force CLI mode")
	rootCmd.PersistentFlags().BoolVar(&forceGUI, "gui", false, "Open the desktop window")
	_ = rootCmd.PersistentFlags().MarkHidden("cli")
	_ = rootCmd.PersistentFlags().MarkHidden("gui")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// newCompletionCmd generates shell completion scripts.
func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate a shell completion script for projgen.

  bash:        source <(projgen completion bash)
  zsh:         projgen completion zsh > "${fpath[1]}/_projgen"
  fish:        projgen completion fish | source
  powershell:  projgen completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletion(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling upload...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGUICmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context, cancelled on Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// configPath returns --config or the default location.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file and applies, in order, the environment
// and the command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if outputDir != "" {
		cfg.ExtractionRoot = outputDir
	}
	if forceNotify {
		cfg.NotificationsEnabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newGUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return launchGUI()
		},
	}
}

func launchGUI() error {
	if GUILauncher == nil {
		return fmt.Errorf("GUI is not available in this build")
	}
	return GUILauncher(cfgFile)
}
