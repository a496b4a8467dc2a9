// Package http builds the single-use HTTP clients used for uploads.
package http

import (
	"crypto/tls"
	"fmt"
	nethttp "net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/publicsuffix"

	"github.com/projgen/projgen/internal/config"
	"github.com/projgen/projgen/internal/constants"
	"github.com/projgen/projgen/internal/logging"
)

// Client is an HTTP client that owns its transport. Close must be called
// once the exchange is over, whether it succeeded or not.
type Client struct {
	*nethttp.Client
	transport *nethttp.Transport
}

// Close releases the transport's pooled connections.
func (c *Client) Close() {
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
}

// retryLogger implements the retryablehttp.LeveledLogger interface on top of zerolog.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

// acceptJSON asks the server for JSON unless the request already chose an
// Accept header. Error bodies from the generator are JSON; archives are not
// affected by the header.
type acceptJSON struct {
	next nethttp.RoundTripper
}

func (a acceptJSON) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	if req.Header.Get("Accept") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept", "application/json, application/zip;q=0.9, */*;q=0.8")
	}
	return a.next.RoundTrip(req)
}

// NewClient creates a client for one upload exchange:
//   - proxy support (no-proxy, system, basic, ntlm) with NoProxy bypass
//   - cookie jar kept for the lifetime of the client
//   - JSON content negotiation header
//   - optional retries via go-retryablehttp (cfg.Retries, 0 = single attempt)
//   - HTTP/2 when no proxy is in the path, disabled with DISABLE_HTTP2=true
//
// Non-2xx responses are handed back to the caller untouched; deciding what a
// status means is the caller's job.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	rt, transport, err := configureTransport(cfg, logger)
	if err != nil {
		return nil, err
	}

	proxyActive := transport.Proxy != nil
	if !proxyActive && os.Getenv("DISABLE_HTTP2") != "true" {
		transport.ForceAttemptHTTP2 = true
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Debug().Err(err).Msg("HTTP/2 configuration skipped")
		}
	} else {
		// Proxies often break HTTP/2 multiplexing
		transport.ForceAttemptHTTP2 = false
		transport.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &nethttp.Client{Transport: rt}
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.Logger = &retryLogger{logger: logger}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	std := retryClient.StandardClient()
	std.Transport = acceptJSON{next: std.Transport}
	std.Jar = jar
	if cfg.TimeoutSeconds > 0 {
		std.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	client := &Client{Client: std, transport: transport}

	if cfg.ProxyWarmup && proxyActive && !NeedsProxyPassword(cfg) {
		if err := warmupProxy(std, cfg.Endpoint); err != nil {
			client.Close()
			return nil, fmt.Errorf("proxy warmup failed: %w", err)
		}
	}

	return client, nil
}
