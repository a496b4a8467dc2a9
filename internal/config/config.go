// Package config provides configuration management for projgen.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/projgen/projgen/internal/constants"
)

// EnvEndpoint overrides the configured endpoint when set.
const EnvEndpoint = "PROJGEN_ENDPOINT"

// Config holds every user-tunable setting. The zero value is not usable; start
// from Default or Load.
//
// INI format:
//
//	[server]
//	endpoint = http://localhost:8080/generate
//	require_success_status = true
//	retries = 0
//	timeout_seconds = 0
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	password =
//	no_proxy =
//	warmup = false
//
//	[extract]
//	root =
//	allow_unsafe_paths = false
//
//	[notifications]
//	enabled = false
type Config struct {
	// Server settings
	Endpoint             string
	RequireSuccessStatus bool // treat non-2xx responses as ServerError
	Retries              int  // extra attempts for the upload POST, 0 = single attempt
	TimeoutSeconds       int  // whole-request timeout, 0 = none

	// Proxy settings
	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool

	// Extraction settings
	ExtractionRoot   string // empty = <home>/Downloads/generated_project
	AllowUnsafePaths bool   // accept archive entries that resolve outside the root

	// Desktop notifications on completion
	NotificationsEnabled bool
}

// Validation errors
var (
	ErrMissingEndpoint  = errors.New("endpoint is required")
	ErrInvalidEndpoint  = errors.New("endpoint must be an absolute http or https URL")
	ErrInvalidRetries   = errors.New("retries must be between 0 and 10")
	ErrInvalidTimeout   = errors.New("timeout_seconds must not be negative")
	ErrInvalidProxyMode = errors.New("proxy mode must be one of no-proxy, system, basic, ntlm")
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Endpoint:             constants.DefaultEndpoint,
		RequireSuccessStatus: true,
		ProxyMode:            "no-proxy",
	}
}

// Load reads configuration from an INI file.
// An empty path means DefaultConfigPath(). A missing file yields defaults and
// no error; a file that exists but cannot be parsed is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	server := iniFile.Section("server")
	cfg.Endpoint = server.Key("endpoint").MustString(cfg.Endpoint)
	cfg.RequireSuccessStatus = server.Key("require_success_status").MustBool(cfg.RequireSuccessStatus)
	cfg.Retries = server.Key("retries").MustInt(cfg.Retries)
	cfg.TimeoutSeconds = server.Key("timeout_seconds").MustInt(cfg.TimeoutSeconds)

	proxy := iniFile.Section("proxy")
	cfg.ProxyMode = strings.ToLower(proxy.Key("mode").MustString(cfg.ProxyMode))
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(0)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.ProxyPassword = proxy.Key("password").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()
	cfg.ProxyWarmup = proxy.Key("warmup").MustBool(false)

	extract := iniFile.Section("extract")
	cfg.ExtractionRoot = extract.Key("root").String()
	cfg.AllowUnsafePaths = extract.Key("allow_unsafe_paths").MustBool(false)

	cfg.NotificationsEnabled = iniFile.Section("notifications").Key("enabled").MustBool(false)

	return cfg, nil
}

// Save writes cfg to path as INI, creating parent directories.
// The file may contain a proxy password, so it is written 0600.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	return cfg.WriteINI(f, false)
}

// WriteINI writes the configuration in the same format Load reads. With
// maskSecrets the proxy password is replaced by asterisks.
func (c *Config) WriteINI(w io.Writer, maskSecrets bool) error {
	iniFile := ini.Empty()

	server := iniFile.Section("server")
	server.Key("endpoint").SetValue(c.Endpoint)
	server.Key("require_success_status").SetValue(strconv.FormatBool(c.RequireSuccessStatus))
	server.Key("retries").SetValue(strconv.Itoa(c.Retries))
	server.Key("timeout_seconds").SetValue(strconv.Itoa(c.TimeoutSeconds))

	password := c.ProxyPassword
	if maskSecrets && password != "" {
		password = "********"
	}

	proxy := iniFile.Section("proxy")
	proxy.Key("mode").SetValue(c.ProxyMode)
	proxy.Key("host").SetValue(c.ProxyHost)
	proxy.Key("port").SetValue(strconv.Itoa(c.ProxyPort))
	proxy.Key("user").SetValue(c.ProxyUser)
	proxy.Key("password").SetValue(password)
	proxy.Key("no_proxy").SetValue(c.NoProxy)
	proxy.Key("warmup").SetValue(strconv.FormatBool(c.ProxyWarmup))

	extract := iniFile.Section("extract")
	extract.Key("root").SetValue(c.ExtractionRoot)
	extract.Key("allow_unsafe_paths").SetValue(strconv.FormatBool(c.AllowUnsafePaths))

	iniFile.Section("notifications").Key("enabled").SetValue(strconv.FormatBool(c.NotificationsEnabled))

	if _, err := iniFile.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv applies environment overrides on top of file values.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvEndpoint)); v != "" {
		c.Endpoint = v
	}
}

// Validate checks the configuration for values the workflow cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return ErrMissingEndpoint
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidEndpoint
	}
	if c.Retries < 0 || c.Retries > 10 {
		return ErrInvalidRetries
	}
	if c.TimeoutSeconds < 0 {
		return ErrInvalidTimeout
	}
	switch c.ProxyMode {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrInvalidProxyMode
	}
	return nil
}

// ResolveExtractionRoot returns the absolute Extraction Root: the configured
// root if set, otherwise the default under the user's home directory.
func (c *Config) ResolveExtractionRoot() (string, error) {
	if c.ExtractionRoot == "" {
		return DefaultExtractionRoot()
	}
	return ResolveAbsolutePath(c.ExtractionRoot)
}
