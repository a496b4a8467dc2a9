package cli

import (
	"bufio"
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/projgen/projgen/internal/config"
	"github.com/projgen/projgen/internal/http"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage projgen configuration",
		Long: `Configuration management commands for projgen.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Check that the endpoint is reachable
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force, defaults bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for projgen.

The configuration is saved to ` + config.DefaultConfigPath() + `
unless --config is given.

Use --force to overwrite an existing configuration and --defaults to skip
the questions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg := config.Default()
			if endpoint != "" {
				cfg.Endpoint = endpoint
			}
			if outputDir != "" {
				cfg.ExtractionRoot = outputDir
			}

			if !defaults {
				askConfig(cmd, cfg)
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			GetLogger().Info().Str("path", path).Msg("Configuration saved")
			printSuccess(out, "Configuration saved to: %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Write default values without prompting")

	return cmd
}

// askConfig prompts for the commonly changed settings, keeping cfg's values
// as defaults.
func askConfig(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprintln(out, "projgen Configuration Setup")
	fmt.Fprintln(out, "===========================")
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Endpoint [%s]: ", cfg.Endpoint)
	cfg.Endpoint = readLine(reader, cfg.Endpoint)

	fmt.Fprintf(out, "Retries [%d]: ", cfg.Retries)
	if v, err := strconv.Atoi(readLine(reader, strconv.Itoa(cfg.Retries))); err == nil && v >= 0 {
		cfg.Retries = v
	}

	fmt.Fprint(out, "Extraction root [~/Downloads/generated_project]: ")
	cfg.ExtractionRoot = readLine(reader, cfg.ExtractionRoot)

	fmt.Fprint(out, "Configure proxy? [y/N]: ")
	answer := strings.ToLower(readLine(reader, "n"))
	if answer == "y" || answer == "yes" {
		fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
		fmt.Fprint(out, "Proxy mode [system]: ")
		cfg.ProxyMode = strings.ToLower(readLine(reader, "system"))

		if cfg.ProxyMode == "basic" || cfg.ProxyMode == "ntlm" {
			fmt.Fprint(out, "Proxy host: ")
			cfg.ProxyHost = readLine(reader, "")

			fmt.Fprint(out, "Proxy port [8080]: ")
			cfg.ProxyPort = 8080
			if v, err := strconv.Atoi(readLine(reader, "8080")); err == nil && v > 0 {
				cfg.ProxyPort = v
			}

			fmt.Fprint(out, "Proxy user (blank for none): ")
			cfg.ProxyUser = readLine(reader, "")

			fmt.Fprint(out, "Bypass hosts (comma-separated, blank for none): ")
			cfg.NoProxy = readLine(reader, "")
		}
	}

	fmt.Fprint(out, "Desktop notifications? [y/N]: ")
	answer = strings.ToLower(readLine(reader, "n"))
	cfg.NotificationsEnabled = answer == "y" || answer == "yes"
	fmt.Fprintln(out)
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the effective configuration: the config file with environment
and command-line overrides applied. The proxy password is masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			root, err := cfg.ResolveExtractionRoot()
			if err != nil {
				return err
			}

			path := configPath()
			printField(out, "Configuration file", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "  (file does not exist - using defaults)")
			}
			printField(out, "Extraction root", root)
			fmt.Fprintln(out)

			return cfg.WriteINI(out, true)
		},
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check that the endpoint is reachable",
		Long: `Send a HEAD request to the configured endpoint through the configured
proxy. Any HTTP response counts as reachable; the generator may answer
HEAD with 404 or 405.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := promptProxyPassword(cfg, os.Stdin, cmd.ErrOrStderr()); err != nil {
				return err
			}

			status, err := probeEndpoint(GetContext(), cfg)
			if err != nil {
				printError(out, "Endpoint unreachable: %v", err)
				cmd.SilenceErrors = true
				return ErrGenerationFailed
			}

			printSuccess(out, "Endpoint reachable: %s (HTTP %d)", cfg.Endpoint, status)
			return nil
		},
	}
}

// probeEndpoint sends a HEAD request and returns the status code.
func probeEndpoint(ctx context.Context, cfg *config.Config) (int, error) {
	client, err := http.NewClient(cfg, GetLogger())
	if err != nil {
		return 0, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodHead, cfg.Endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), configPath())
			return nil
		},
	}
}
