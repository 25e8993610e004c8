package http

import (
	"net/http"
	"net/url"
	"testing"

	ntlmssp "github.com/Azure/go-ntlmssp"

	"github.com/pipelinekit/sgdesk/internal/config"
	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/logging"
)

func TestProxyFuncWithBypass(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")

	tests := []struct {
		name       string
		noProxy    string
		url        string
		wantBypass bool
	}{
		{"empty list proxies everything", "", "https://studio.shotgrid.autodesk.com/api/v1", false},
		{"wildcard subdomain", "*.autodesk.com", "https://studio.shotgrid.autodesk.com/api/v1", true},
		{"bare domain matches subdomains", "autodesk.com", "https://studio.shotgrid.autodesk.com/", true},
		{"cidr", "10.0.0.0/8", "http://10.1.2.3:8080/api", true},
		{"non-matching host", "*.internal.corp,10.0.0.0/8", "https://studio.shotgrid.autodesk.com/", false},
		{"list with spaces", "*.example.com, 192.168.0.0/16, sg.internal", "https://sg.internal/status", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxyFunc := proxyFuncWithBypass(proxyURL, tt.noProxy, logging.NewNopLogger())
			req, _ := http.NewRequest("GET", tt.url, nil)
			result, err := proxyFunc(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantBypass && result != nil {
				t.Errorf("expected bypass (nil) for %s, got %v", tt.url, result)
			}
			if !tt.wantBypass {
				if result == nil {
					t.Fatalf("expected proxy for %s, got nil (bypass)", tt.url)
				}
				if result.Host != "proxy.corp:8080" {
					t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
				}
			}
		})
	}
}

func TestBuildProxyURL(t *testing.T) {
	s := config.DefaultSettings()
	s.ProxyHost = "proxy.corp"

	u := buildProxyURL(s)
	if u.Host != "proxy.corp:8080" {
		t.Errorf("Host = %q, want default port 8080", u.Host)
	}
	if u.User != nil {
		t.Error("expected no userinfo without credentials")
	}

	s.ProxyPort = 3128
	s.ProxyUser = "alice"
	u = buildProxyURL(s)
	if u.User != nil {
		t.Error("expected no userinfo when password is missing")
	}

	s.ProxyPassword = "pw"
	u = buildProxyURL(s)
	if u.Host != "proxy.corp:3128" {
		t.Errorf("Host = %q, want proxy.corp:3128", u.Host)
	}
	if pw, _ := u.User.Password(); u.User.Username() != "alice" || pw != "pw" {
		t.Errorf("User = %v, want alice:pw", u.User)
	}
}

func TestConfigureHTTPClient(t *testing.T) {
	t.Run("no proxy", func(t *testing.T) {
		client, err := ConfigureHTTPClient(config.DefaultSettings(), nil)
		if err != nil {
			t.Fatal(err)
		}
		tr, ok := client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("Transport = %T, want *http.Transport", client.Transport)
		}
		if tr.Proxy != nil {
			t.Error("expected no proxy func")
		}
		if client.Timeout != constants.HTTPAPITimeout {
			t.Errorf("Timeout = %v, want %v", client.Timeout, constants.HTTPAPITimeout)
		}
	})

	t.Run("ntlm wraps transport", func(t *testing.T) {
		s := config.DefaultSettings()
		s.ProxyMode = config.ProxyModeNTLM
		s.ProxyHost = "proxy.corp"
		client, err := ConfigureHTTPClient(s, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := client.Transport.(ntlmssp.Negotiator); !ok {
			t.Errorf("Transport = %T, want ntlmssp.Negotiator", client.Transport)
		}
	})

	t.Run("ntlm without host falls back", func(t *testing.T) {
		s := config.DefaultSettings()
		s.ProxyMode = config.ProxyModeNTLM
		client, err := ConfigureHTTPClient(s, nil)
		if err != nil {
			t.Fatal(err)
		}
		if tr, ok := client.Transport.(*http.Transport); !ok || tr.Proxy != nil {
			t.Errorf("expected direct transport, got %T", client.Transport)
		}
	})

	t.Run("unsupported mode", func(t *testing.T) {
		s := config.DefaultSettings()
		s.ProxyMode = "socks5"
		if _, err := ConfigureHTTPClient(s, nil); err == nil {
			t.Error("expected error for unsupported mode")
		}
	})
}

func TestNewTransferClientHasNoTimeout(t *testing.T) {
	client, err := NewTransferClient(config.DefaultSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if client.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", client.Timeout)
	}
}
