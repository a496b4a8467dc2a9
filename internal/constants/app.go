package constants

import (
	"time"
)

// Generation endpoint
const (
	// DefaultEndpoint is where source files are posted for project generation.
	DefaultEndpoint = "http://localhost:8080/generate"

	// UploadFieldName is the multipart form field carrying the source file.
	UploadFieldName = "file"

	// UploadPartContentType is declared on the file part. The server expects the
	// generic form content type here rather than the file's own MIME type.
	UploadPartContentType = "multipart/form-data"
)

// Local filesystem layout
const (
	// ExtractionSubpath is joined to the user's home directory to form the
	// Extraction Root.
	ExtractionSubpath = "Downloads/generated_project"

	// ArchiveTempPattern names the temporary file holding the server response.
	// os.CreateTemp replaces the "*" with a random string.
	ArchiveTempPattern = "generated_project*.zip"

	// AppDirName is the per-user directory name for config and logs.
	AppDirName = "projgen"

	// ConfigFileName is the INI file inside the per-user config directory.
	ConfigFileName = "config"

	// LogFileName is the rotating GUI log file.
	LogFileName = "projgen.log"
)

// HTTP Client Configuration
const (
	// HTTPDialTimeout - timeout for establishing TCP connections (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for active connections (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPIdleConnTimeout - how long idle connections remain in pool (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue responses (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPProxyWarmupTimeout bounds the optional proxy warmup request.
	HTTPProxyWarmupTimeout = 15 * time.Second
)

// Retry configuration (only used when retries are enabled in config)
const (
	RetryWaitMin = 1 * time.Second
	RetryWaitMax = 30 * time.Second
)

// Disk space safety margin
const (
	// DiskSpaceSafetyMargin - multiplier applied to required bytes (15% extra)
	DiskSpaceSafetyMargin = 1.15
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size
	EventBusMaxBuffer = 5000
)

// UI
const (
	// WindowWidth and WindowHeight size the main window.
	WindowWidth  = 640
	WindowHeight = 260

	// NotificationMaxLen caps desktop notification bodies.
	NotificationMaxLen = 100
)
