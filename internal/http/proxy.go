// Package http builds the HTTP clients used for ShotGrid API calls and file transfers.
package http

import (
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"

	"github.com/pipelinekit/sgdesk/internal/config"
	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/logging"
)

// ConfigureHTTPClient configures an HTTP client with proxy settings.
// The returned client carries constants.HTTPAPITimeout as its overall timeout.
func ConfigureHTTPClient(s *config.Settings, logger *logging.Logger) (*nethttp.Client, error) {
	if s == nil {
		s = config.DefaultSettings()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	transport := newBaseTransport()

	switch strings.ToLower(s.ProxyMode) {
	case config.ProxyModeNone, "":
		transport.Proxy = nil

	case config.ProxyModeSystem:
		transport.Proxy = nethttp.ProxyFromEnvironment

	case config.ProxyModeNTLM:
		// Missing host falls back to direct so the app still starts
		if s.ProxyHost == "" {
			logger.Warn().Msg("Proxy mode is NTLM but host is missing - falling back to no-proxy mode")
			break
		}
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(s), s.NoProxy, logger)

		return &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
			Timeout: constants.HTTPAPITimeout,
		}, nil

	case config.ProxyModeBasic:
		if s.ProxyHost == "" {
			logger.Warn().Msg("Proxy mode is basic but host is missing - falling back to no-proxy mode")
			break
		}
		if s.ProxyUser != "" && s.ProxyPassword == "" {
			logger.Warn().Msg("Proxy user configured but password missing - proxy auth disabled")
		}
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(s), s.NoProxy, logger)

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", s.ProxyMode)
	}

	return &nethttp.Client{
		Transport: transport,
		Timeout:   constants.HTTPAPITimeout,
	}, nil
}

func newBaseTransport() *nethttp.Transport {
	return &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
		ResponseHeaderTimeout: constants.HTTPResponseHeaderTimeout,
	}
}

// buildProxyURL constructs a proxy URL from settings
func buildProxyURL(s *config.Settings) *url.URL {
	port := s.ProxyPort
	if port == 0 {
		port = 8080 // Default proxy port
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(s.ProxyHost, fmt.Sprint(port)),
	}

	// Only embed credentials if both user AND password are provided.
	// An empty password in the URL breaks auth on some proxies.
	if s.ProxyUser != "" && s.ProxyPassword != "" {
		proxyURL.User = url.UserPassword(s.ProxyUser, s.ProxyPassword)
	}

	return proxyURL
}

// proxyFuncWithBypass returns a proxy function that respects the NoProxy bypass list.
// If noProxy is empty, behaves identically to nethttp.ProxyURL.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string, logger *logging.Logger) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := proxyFunc(req.URL)
		if result == nil {
			logger.Debug().Str("host", req.URL.Host).Msg("proxy bypass (direct connection)")
		} else {
			logger.Debug().Str("host", req.URL.Host).Str("proxy", result.Host).Msg("proxied")
		}
		return result, err
	}
}
