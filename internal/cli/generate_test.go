package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projgen/projgen/internal/progress"
	"github.com/projgen/projgen/internal/workflow"
)

type fakeRunner struct {
	result workflow.Result
	paths  []string
}

func (f *fakeRunner) Run(ctx context.Context, path string) workflow.Result {
	f.paths = append(f.paths, path)
	return f.result
}

func silentSpinner() *progress.Spinner {
	return progress.NewSpinner(io.Discard, "")
}

func TestRunGenerate_Success(t *testing.T) {
	disableColor()
	r := &fakeRunner{result: workflow.Result{State: workflow.StateSucceeded, Path: "/home/u/Downloads/generated_project"}}
	var out bytes.Buffer

	err := runGenerate(context.Background(), r, " /data/in.mp4 ", &out, silentSpinner())
	require.NoError(t, err)

	assert.Equal(t, []string{"/data/in.mp4"}, r.paths)
	assert.Equal(t, "Project saved to: /home/u/Downloads/generated_project\n", out.String())
}

func TestRunGenerate_Failure(t *testing.T) {
	disableColor()
	r := &fakeRunner{result: workflow.Result{State: workflow.StateFailed, Message: "Upload error: network error: refused"}}
	var out bytes.Buffer

	err := runGenerate(context.Background(), r, "/data/in.mp4", &out, silentSpinner())
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.Equal(t, "Upload error: network error: refused\n", out.String())
}

func TestRunGenerate_BlankPath(t *testing.T) {
	disableColor()
	r := &fakeRunner{}
	var out bytes.Buffer

	err := runGenerate(context.Background(), r, "   ", &out, silentSpinner())
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Contains(t, out.String(), "Please enter a file path.")
	assert.Empty(t, r.paths)
}

func TestGenerateCommand_EndToEnd(t *testing.T) {
	resetFlags(t)
	disableColor()

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	_, err := zw.Create("a/")
	require.NoError(t, err)
	w, err := zw.Create("a/b.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _, err := r.FormFile("file")
		if err != nil {
			nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
			return
		}
		_, _ = w.Write(archive.Bytes())
	}))
	defer srv.Close()

	source := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(source, []byte("source"), 0644))
	root := filepath.Join(t.TempDir(), "generated_project")

	out, errOut, err := executeRootStreams(t, "", "generate", source,
		"--config", filepath.Join(t.TempDir(), "none"),
		"--endpoint", srv.URL+"/generate",
		"--output", root)
	require.NoError(t, err)
	assert.Equal(t, "Project saved to: "+root+"\n", out, "stdout carries only the result line")
	assert.Contains(t, errOut, "Uploading source file")

	data, err := os.ReadFile(filepath.Join(root, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestGenerateCommand_MissingFile(t *testing.T) {
	resetFlags(t)
	disableColor()

	out, err := executeRoot(t, "", "generate", filepath.Join(t.TempDir(), "missing.mp4"),
		"--config", filepath.Join(t.TempDir(), "none"),
		"--output", t.TempDir())
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.True(t, strings.HasPrefix(out, "Upload error: file not found"), out)
}

func TestCLIFlagIsAccepted(t *testing.T) {
	resetFlags(t)
	disableColor()

	out, err := executeRoot(t, "", "--cli", "generate", filepath.Join(t.TempDir(), "missing.mp4"),
		"--config", filepath.Join(t.TempDir(), "none"),
		"--output", t.TempDir())
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.True(t, strings.HasPrefix(out, "Upload error: file not found"), out)
}

func TestGUIFlagOpensWindow(t *testing.T) {
	resetFlags(t)
	var opened []string
	GUILauncher = func(configFile string) error {
		opened = append(opened, configFile)
		return nil
	}

	path := filepath.Join(t.TempDir(), "config")
	_, err := executeRoot(t, "", "--gui", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, opened)
}

func TestCLIFlagAloneShowsHelp(t *testing.T) {
	resetFlags(t)
	GUILauncher = func(string) error {
		t.Error("GUI must not open with --cli")
		return nil
	}

	out, err := executeRoot(t, "", "--cli", "--gui")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := NewRootCmd()
	AddCommands(root)

	for _, name := range []string{"generate", "config", "gui", "completion"} {
		cmd, _, err := root.Find([]string{name})
		if assert.NoError(t, err) {
			assert.Equal(t, name, cmd.Name())
		}
	}
	for _, flag := range []string{"config", "endpoint", "output", "verbose", "debug", "cli", "gui"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
	assert.True(t, root.PersistentFlags().Lookup("cli").Hidden)
}
