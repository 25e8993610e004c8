package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/pipelinekit/sgdesk/internal/config"
	"github.com/pipelinekit/sgdesk/internal/logging"
)

// NewTransferClient creates the HTTP client used for attachment downloads and
// signed-URL uploads. It shares the proxy configuration of the API client but has
// no overall timeout; transfers are bounded by their context instead.
//
// HTTP/2 is attempted unless DISABLE_HTTP2=true or a proxy is active
// (FORCE_HTTP2=true overrides the proxy check).
func NewTransferClient(s *config.Settings, logger *logging.Logger) (*nethttp.Client, error) {
	if s == nil {
		s = config.DefaultSettings()
	}

	baseClient, err := ConfigureHTTPClient(s, logger)
	if err != nil {
		return nil, err
	}
	baseClient.Timeout = 0

	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM wraps the transport in a negotiator; leave it as-is
		return baseClient, nil
	}

	tr.MaxIdleConns = 64
	tr.MaxIdleConnsPerHost = 16
	// Large media may stream slowly from the storage backend before headers arrive
	tr.ResponseHeaderTimeout = 0

	// No benefit for already-compressed media
	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" || (s.ProxyActive() && os.Getenv("FORCE_HTTP2") != "true") {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	baseClient.Transport = tr
	return baseClient, nil
}
