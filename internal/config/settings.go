package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pipelinekit/sgdesk/internal/constants"
)

// Environment variable names read by LoadSettings.
const (
	EnvProxyMode         = "SGDESK_PROXY_MODE"
	EnvProxyHost         = "SGDESK_PROXY_HOST"
	EnvProxyPort         = "SGDESK_PROXY_PORT"
	EnvProxyUser         = "SGDESK_PROXY_USER"
	EnvProxyPassword     = "SGDESK_PROXY_PASSWORD"
	EnvNoProxy           = "SGDESK_NO_PROXY"
	EnvWorkers           = "SGDESK_WORKERS"
	EnvRequestsPerSecond = "SGDESK_REQUESTS_PER_SECOND"
	EnvRequestBurst      = "SGDESK_REQUEST_BURST"
	EnvDesktopNotify     = "SGDESK_DESKTOP_NOTIFY"
	EnvDebug             = "SGDESK_DEBUG"
)

// Proxy modes
const (
	ProxyModeNone   = "no-proxy"
	ProxyModeSystem = "system"
	ProxyModeNTLM   = "ntlm"
	ProxyModeBasic  = "basic"
)

// Settings holds runtime configuration that is not part of the saved login.
type Settings struct {
	// Proxy settings
	ProxyMode     string // "no-proxy", "system", "ntlm", "basic"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy

	// Job dispatcher worker count
	Workers int

	// Client-side API pacing
	RequestsPerSecond float64
	RequestBurst      int

	// DesktopNotify raises an OS notification when a transfer finishes
	DesktopNotify bool

	Debug bool

	// CredentialsPath overrides constants.CredentialsFileName (set from --config)
	CredentialsPath string
}

// DefaultSettings returns settings with every field at its default.
func DefaultSettings() *Settings {
	return &Settings{
		ProxyMode:         ProxyModeNone,
		Workers:           constants.DefaultJobWorkers,
		RequestsPerSecond: constants.DefaultRequestsPerSecond,
		RequestBurst:      constants.DefaultRequestBurst,
		DesktopNotify:     true,
	}
}

// LoadSettings reads an optional .env file from the working directory and then
// the SGDESK_* environment. Values from the real environment win over .env.
func LoadSettings() (*Settings, error) {
	// Missing .env is normal
	_ = godotenv.Load()
	return SettingsFromEnv(os.Getenv)
}

// SettingsFromEnv builds settings from a lookup function (os.Getenv in production).
func SettingsFromEnv(getenv func(string) string) (*Settings, error) {
	s := DefaultSettings()

	if v := strings.TrimSpace(getenv(EnvProxyMode)); v != "" {
		s.ProxyMode = strings.ToLower(v)
	}
	s.ProxyHost = strings.TrimSpace(getenv(EnvProxyHost))
	s.ProxyUser = strings.TrimSpace(getenv(EnvProxyUser))
	s.ProxyPassword = getenv(EnvProxyPassword)
	s.NoProxy = strings.TrimSpace(getenv(EnvNoProxy))

	var err error
	if s.ProxyPort, err = intFromEnv(getenv, EnvProxyPort, 0); err != nil {
		return nil, err
	}
	if s.Workers, err = intFromEnv(getenv, EnvWorkers, s.Workers); err != nil {
		return nil, err
	}
	if s.RequestBurst, err = intFromEnv(getenv, EnvRequestBurst, s.RequestBurst); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(getenv(EnvRequestsPerSecond)); v != "" {
		s.RequestsPerSecond, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number, got %q", EnvRequestsPerSecond, v)
		}
	}
	if s.DesktopNotify, err = boolFromEnv(getenv, EnvDesktopNotify, s.DesktopNotify); err != nil {
		return nil, err
	}
	if s.Debug, err = boolFromEnv(getenv, EnvDebug, false); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks ranges and proxy mode.
func (s *Settings) Validate() error {
	switch s.ProxyMode {
	case ProxyModeNone, ProxyModeSystem, ProxyModeNTLM, ProxyModeBasic:
	default:
		return fmt.Errorf("unsupported proxy mode: %s", s.ProxyMode)
	}
	if s.ProxyPort < 0 || s.ProxyPort > 65535 {
		return fmt.Errorf("proxy port must be between 0 (unset) and 65535, got %d", s.ProxyPort)
	}
	if s.Workers < 1 || s.Workers > constants.MaxJobWorkers {
		return fmt.Errorf("workers must be between 1 and %d, got %d", constants.MaxJobWorkers, s.Workers)
	}
	if s.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive, got %v", s.RequestsPerSecond)
	}
	if s.RequestBurst < 1 {
		return fmt.Errorf("request burst must be at least 1, got %d", s.RequestBurst)
	}
	return nil
}

// ProxyActive reports whether API traffic goes through a proxy.
// In system mode the standard proxy variables decide.
func (s *Settings) ProxyActive() bool {
	switch s.ProxyMode {
	case ProxyModeNone, "":
		return false
	case ProxyModeSystem:
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}

func intFromEnv(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return n, nil
}

func boolFromEnv(getenv func(string) string, key string, def bool) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, v)
	}
	return b, nil
}
