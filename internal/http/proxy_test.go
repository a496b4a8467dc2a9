package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/projgen/projgen/internal/config"
	"github.com/projgen/projgen/internal/logging"
)

// TestProxyFuncWithBypass_EmptyNoProxy verifies that an empty noProxy always routes through proxy.
func TestProxyFuncWithBypass_EmptyNoProxy(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "", logging.NewNopLogger())

	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_WildcardDomain verifies *.example.com bypasses api.example.com.
func TestProxyFuncWithBypass_WildcardDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com", logging.NewNopLogger())

	// Subdomain should bypass proxy
	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result)
	}
}

// TestProxyFuncWithBypass_ExactDomain verifies example.com bypasses root and subdomains.
func TestProxyFuncWithBypass_ExactDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "example.com", logging.NewNopLogger())

	// Root domain should bypass
	req, _ := http.NewRequest("GET", "https://example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for example.com, got %v", result)
	}

	// Subdomain should also bypass (a domain without a leading dot matches subdomains)
	req2, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result2, err := proxyFunc(req2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result2 != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result2)
	}
}

// TestProxyFuncWithBypass_CIDR verifies IP/CIDR range matching.
func TestProxyFuncWithBypass_CIDR(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "10.0.0.0/8", logging.NewNopLogger())

	// IP in range should bypass
	req, _ := http.NewRequest("GET", "http://10.1.2.3:8080/api", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for 10.1.2.3, got %v", result)
	}
}

// TestProxyFuncWithBypass_NonMatchingHost verifies non-matching hosts route through proxy.
func TestProxyFuncWithBypass_NonMatchingHost(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.internal.corp,10.0.0.0/8", logging.NewNopLogger())

	// External host should use proxy
	req, _ := http.NewRequest("GET", "https://gen.example.org/generate", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL for gen.example.org, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_MultiplePatterns verifies comma-separated patterns work.
func TestProxyFuncWithBypass_MultiplePatterns(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com, 192.168.0.0/16, internal.corp", logging.NewNopLogger())

	tests := []struct {
		name       string
		url        string
		wantBypass bool
	}{
		{"wildcard match", "https://api.example.com/data", true},
		{"cidr match", "http://192.168.1.100/api", true},
		{"exact domain match", "https://internal.corp/status", true},
		{"non-match", "https://gen.example.org/generate", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", tt.url, nil)
			result, err := proxyFunc(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantBypass && result != nil {
				t.Errorf("expected bypass (nil) for %s, got %v", tt.url, result)
			}
			if !tt.wantBypass && result == nil {
				t.Errorf("expected proxy for %s, got nil (bypass)", tt.url)
			}
		})
	}
}

func TestBuildProxyURL(t *testing.T) {
	cfg := config.Default()
	cfg.ProxyHost = "proxy.corp"

	u := buildProxyURL(cfg)
	if u.Host != "proxy.corp:8080" {
		t.Errorf("expected default port 8080, got %s", u.Host)
	}
	if u.User != nil {
		t.Error("expected no credentials without user and password")
	}

	cfg.ProxyPort = 3128
	cfg.ProxyUser = "alice"
	u = buildProxyURL(cfg)
	if u.User != nil {
		t.Error("expected no credentials when password is missing")
	}

	cfg.ProxyPassword = "secret"
	u = buildProxyURL(cfg)
	if u.Host != "proxy.corp:3128" {
		t.Errorf("expected proxy.corp:3128, got %s", u.Host)
	}
	if pw, ok := u.User.Password(); !ok || pw != "secret" || u.User.Username() != "alice" {
		t.Errorf("unexpected credentials %v", u.User)
	}
}

func TestNeedsProxyPassword(t *testing.T) {
	tests := []struct {
		mode, user, password string
		want                 bool
	}{
		{"no-proxy", "alice", "", false},
		{"system", "alice", "", false},
		{"basic", "alice", "", true},
		{"NTLM", "alice", "", true},
		{"basic", "alice", "secret", false},
		{"basic", "", "", false},
	}

	for _, tt := range tests {
		cfg := config.Default()
		cfg.ProxyMode = tt.mode
		cfg.ProxyUser = tt.user
		cfg.ProxyPassword = tt.password
		if got := NeedsProxyPassword(cfg); got != tt.want {
			t.Errorf("NeedsProxyPassword(%s, %q, %q) = %v, want %v", tt.mode, tt.user, tt.password, got, tt.want)
		}
	}
}

func TestConfigureTransportModes(t *testing.T) {
	logger := logging.NewNopLogger()

	cfg := config.Default()
	rt, tr, err := configureTransport(cfg, logger)
	if err != nil {
		t.Fatalf("no-proxy: %v", err)
	}
	if tr.Proxy != nil || rt != http.RoundTripper(tr) {
		t.Error("no-proxy: expected plain transport without proxy")
	}

	cfg.ProxyMode = "basic"
	_, tr, err = configureTransport(cfg, logger)
	if err != nil {
		t.Fatalf("basic without host: %v", err)
	}
	if tr.Proxy != nil {
		t.Error("basic without host: expected fallback to direct connection")
	}

	cfg.ProxyMode = "ntlm"
	cfg.ProxyHost = "proxy.corp"
	rt, tr, err = configureTransport(cfg, logger)
	if err != nil {
		t.Fatalf("ntlm: %v", err)
	}
	if tr.Proxy == nil {
		t.Error("ntlm: expected proxy function")
	}
	if rt == http.RoundTripper(tr) {
		t.Error("ntlm: expected transport to be wrapped by the negotiator")
	}

	cfg.ProxyMode = "socks"
	if _, _, err := configureTransport(cfg, logger); err == nil {
		t.Error("expected error for unsupported proxy mode")
	}
}
