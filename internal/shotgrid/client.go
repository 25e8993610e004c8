// Package shotgrid is a small typed adapter over the ShotGrid REST API.
package shotgrid

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/pipelinekit/sgdesk/internal/config"
	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/http"
	"github.com/pipelinekit/sgdesk/internal/logging"
	"github.com/pipelinekit/sgdesk/internal/ratelimit"
)

// Client holds the transports shared by every session.
type Client struct {
	apiClient      *nethttp.Client      // proxy-aware, single attempt, used for token requests
	retryTransport nethttp.RoundTripper // apiClient plus retries for idempotent requests
	transfer       *nethttp.Client      // no overall timeout, for attachment bytes
	limiter        *ratelimit.RateLimiter
	logger         *logging.Logger
}

// NewClient creates a client from runtime settings.
func NewClient(s *config.Settings, logger *logging.Logger) (*Client, error) {
	if s == nil {
		s = config.DefaultSettings()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("shotgrid")

	apiClient, err := http.ConfigureHTTPClient(s, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	transfer, err := http.NewTransferClient(s, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure transfer client: %w", err)
	}

	return &Client{
		apiClient:      apiClient,
		retryTransport: http.NewRetryTransport(apiClient, logger),
		transfer:       transfer,
		limiter:        ratelimit.NewRateLimiter(s.RequestsPerSecond, s.RequestBurst, logger),
		logger:         logger,
	}, nil
}

// NormalizeSiteURL parses a site URL and strips everything after the host.
func NormalizeSiteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid site URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("invalid site URL %q: scheme must be https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid site URL %q: missing host", raw)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// Authenticate exchanges a login and password for a session using the OAuth2
// password grant. Bad credentials and an unreachable site both surface as the
// returned error.
func (c *Client) Authenticate(ctx context.Context, creds config.Credentials) (*Session, error) {
	site, err := NormalizeSiteURL(creds.URL)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}

	oauthCfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  site.String() + constants.TokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	authCtx, cancel := context.WithTimeout(ctx, constants.AuthTimeout)
	defer cancel()
	authCtx = context.WithValue(authCtx, oauth2.HTTPClient, c.apiClient)

	c.logger.Debug().Str("site", site.Host).Str("user", creds.Username).Msg("requesting access token")
	token, err := oauthCfg.PasswordCredentialsToken(authCtx, creds.Username, creds.Password)
	if err != nil {
		return nil, authError(err)
	}

	// Refreshes outlive the login request, so they get their own context.
	refreshCtx := context.WithValue(context.Background(), oauth2.HTTPClient, c.apiClient)
	tokens := oauthCfg.TokenSource(refreshCtx, token)

	c.logger.Info().Str("site", site.Host).Str("user", creds.Username).Msg("logged in")
	return newSession(c, site, creds.Username, tokens), nil
}

// authError turns a token endpoint failure into an APIError when the site sent one.
func authError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return fmt.Errorf("authentication failed: %w", parseAPIError(re.Response.StatusCode, re.Body))
	}
	return fmt.Errorf("authentication failed: %w", err)
}
