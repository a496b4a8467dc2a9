package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/projgen/projgen/internal/config"
	"github.com/projgen/projgen/internal/http"
	"github.com/projgen/projgen/internal/progress"
	"github.com/projgen/projgen/internal/state"
	"github.com/projgen/projgen/internal/workflow"
)

// ErrGenerationFailed is returned after the failure message has been printed.
var ErrGenerationFailed = errors.New("generation failed")

// runner is the part of workflow.Runner the generate command needs.
type runner interface {
	Run(ctx context.Context, sourcePath string) workflow.Result
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate <file>",
		Aliases: []string{"gen", "send"},
		Short:   "Upload a file and extract the generated project",
		Long: `Upload <file> to the generation endpoint and extract the returned archive
into the extraction root (default ~/Downloads/generated_project).

Existing files in the extraction root are overwritten when the archive
contains the same path; nothing else is removed.

Examples:
  projgen generate ./design.mp4
  projgen generate ./brief.pdf --endpoint http://gen.internal:8080/generate
  projgen generate ./brief.pdf -o ./out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if err := promptProxyPassword(cfg, os.Stdin, cmd.ErrOrStderr()); err != nil {
				return err
			}

			r, err := workflow.FromConfig(cfg, GetLogger())
			if err != nil {
				return err
			}

			spinner := progress.NewSpinner(cmd.ErrOrStderr(), "Generating project")
			err = runGenerate(GetContext(), r, args[0], cmd.OutOrStdout(), spinner)
			if errors.Is(err, ErrGenerationFailed) {
				cmd.SilenceErrors = true
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&forceNotify, "notify", false, "Show a desktop notification when done")

	return cmd
}

// runGenerate validates source, runs the workflow and prints one result line.
func runGenerate(ctx context.Context, r runner, source string, out io.Writer, spinner *progress.Spinner) error {
	path, err := state.Validate(source)
	if err != nil {
		printError(out, "%s", state.EmptyPathMessage)
		return ErrGenerationFailed
	}

	spinner.Start()
	res := r.Run(ctx, path)
	spinner.Stop()

	if res.State != workflow.StateSucceeded {
		printError(out, "%s", res.Message)
		return ErrGenerationFailed
	}

	printSuccess(out, "%s%s", state.SuccessPrefix, res.Path)
	return nil
}

// promptProxyPassword asks for the proxy password when the config names a
// proxy user without one. Without a terminal the upload goes ahead and the
// proxy decides.
func promptProxyPassword(cfg *config.Config, in *os.File, out io.Writer) error {
	if !http.NeedsProxyPassword(cfg) {
		return nil
	}
	if !progress.IsTerminal(in) {
		GetLogger().Warn().Msg("Proxy password not set and stdin is not a terminal, continuing without it")
		return nil
	}

	fmt.Fprintf(out, "Proxy password for %s@%s: ", cfg.ProxyUser, cfg.ProxyHost)
	pw, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("failed to read proxy password: %w", err)
	}
	cfg.ProxyPassword = strings.TrimSpace(string(pw))
	return nil
}

// readLine reads one trimmed line, returning def when it is blank.
func readLine(reader *bufio.Reader, def string) string {
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}
