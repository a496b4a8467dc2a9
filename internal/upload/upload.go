// Package upload posts a source file to the generation endpoint and stores
// the returned archive in a temporary file.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/projgen/projgen/internal/config"
	"github.com/projgen/projgen/internal/constants"
	"github.com/projgen/projgen/internal/diskspace"
	"github.com/projgen/projgen/internal/failure"
	"github.com/projgen/projgen/internal/http"
	"github.com/projgen/projgen/internal/logging"
)

const op = "upload"

// Client uploads files to the configured endpoint. It holds no connection
// state: every Upload builds and closes its own HTTP client.
type Client struct {
	cfg     *config.Config
	logger  *logging.Logger
	tempDir string // "" = os.TempDir()
}

// Option configures a Client.
type Option func(*Client)

// WithTempDir stores response archives in dir instead of the system temp dir.
func WithTempDir(dir string) Option {
	return func(c *Client) { c.tempDir = dir }
}

// NewClient creates an upload client. cfg is read on every Upload, so later
// changes to it take effect on the next call.
func NewClient(cfg *config.Config, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Client{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload posts sourcePath as the "file" part of a multipart form and writes
// the response body to a new temporary file, returning its absolute path.
//
// Errors are *failure.Error:
//   - KindFileNotFound when sourcePath is missing or not a regular file; no
//     request is made
//   - KindNetwork when the exchange fails at the transport level
//   - KindServer for non-2xx responses when RequireSuccessStatus is set
//   - KindIO for local read/write failures
func (c *Client) Upload(ctx context.Context, sourcePath string) (string, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return "", failure.FileNotFound(op, sourcePath, err)
	}
	if !info.Mode().IsRegular() {
		return "", failure.FileNotFound(op, sourcePath, fmt.Errorf("not a regular file"))
	}

	body, contentType, err := buildForm(sourcePath)
	if err != nil {
		return "", err
	}

	client, err := http.NewClient(c.cfg, c.logger)
	if err != nil {
		return "", failure.Network(op, err)
	}
	defer client.Close()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, c.cfg.Endpoint, body)
	if err != nil {
		return "", failure.Network(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.Info().
		Str("source", sourcePath).
		Int64("size", info.Size()).
		Str("endpoint", c.cfg.Endpoint).
		Msg("Uploading source file")

	resp, err := client.Do(req)
	if err != nil {
		return "", failure.Network(op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", failure.Network(op, fmt.Errorf("failed to read response body: %w", err))
	}

	if c.cfg.RequireSuccessStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return "", failure.Server(op, resp.StatusCode, fmt.Errorf("%s", summarize(payload)))
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(payload)).
		Msg("Response received")

	return c.writeArchive(payload)
}

// buildForm reads sourcePath fully and encodes it as the single "file" part.
// The part's Content-Type is the generic form type, not the file's own MIME type.
func buildForm(sourcePath string) (*bytes.Buffer, string, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, "", failure.IO(op, sourcePath, err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		constants.UploadFieldName, escapeQuotes(filepath.Base(sourcePath))))
	header.Set("Content-Type", constants.UploadPartContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", failure.IO(op, sourcePath, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", failure.IO(op, sourcePath, err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", failure.IO(op, sourcePath, err)
	}

	return body, writer.FormDataContentType(), nil
}

// writeArchive persists payload to a uniquely named temp file. The file is
// closed before the path is returned so readers always see the full content.
func (c *Client) writeArchive(payload []byte) (string, error) {
	dir := c.tempDir
	if dir == "" {
		dir = os.TempDir()
	}

	if err := diskspace.CheckAvailableSpace(dir, int64(len(payload)), constants.DiskSpaceSafetyMargin); err != nil {
		return "", failure.IO(op, dir, err)
	}

	f, err := os.CreateTemp(dir, constants.ArchiveTempPattern)
	if err != nil {
		return "", failure.IO(op, dir, err)
	}

	if _, err := f.Write(payload); err != nil {
		f.Close()
		return "", failure.IO(op, f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return "", failure.IO(op, f.Name(), err)
	}

	path, err := filepath.Abs(f.Name())
	if err != nil {
		return "", failure.IO(op, f.Name(), err)
	}

	c.logger.Info().Str("archive", path).Int("bytes", len(payload)).Msg("Archive saved")
	return path, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// summarize trims a server error body for display.
func summarize(payload []byte) string {
	const maxLen = 200
	s := string(bytes.TrimSpace(payload))
	if s == "" {
		return "empty response body"
	}
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
