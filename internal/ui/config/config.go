// Package config loads the ChatApp UI server settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultListenAddr            = "127.0.0.1:4173"
	defaultAPIBaseURL            = "http://127.0.0.1:8000"
	defaultTemplatesDir          = "ui/templates"
	defaultAssetsDir             = "ui"
	defaultLogDir                = "data/logs"
	defaultLogLevel              = "INFO"
	defaultSiteName              = "ChatApp"
	defaultAPITimeout            = 12 * time.Second
	defaultLoginMessageTTL       = 3000 * time.Millisecond
	defaultRegisterMessageTTL    = 1500 * time.Millisecond
	defaultRegisterRedirectDelay = 1500 * time.Millisecond
	defaultPostLoginPath         = "/hero"
	defaultVisitorTTL            = 30 * time.Minute
	defaultMaxVisitors           = 10000

	envListenAddr            = "LISTEN_ADDR"
	envPort                  = "PORT"
	envAPIBaseURL            = "CHATAPP_API_URL"
	envTemplatesDir          = "CHATAPP_TEMPLATES_DIR"
	envAssetsDir             = "CHATAPP_ASSETS_DIR"
	envLogDir                = "CHATAPP_LOG_DIR"
	envLogLevel              = "CHATAPP_LOG_LEVEL"
	envSiteName              = "CHATAPP_SITE_NAME"
	envAPITimeout            = "CHATAPP_API_TIMEOUT"
	envLoginMessageTTL       = "CHATAPP_LOGIN_MESSAGE_TTL"
	envRegisterMessageTTL    = "CHATAPP_REGISTER_MESSAGE_TTL"
	envRegisterRedirectDelay = "CHATAPP_REGISTER_REDIRECT_DELAY"
	envPostLoginPath         = "CHATAPP_POST_LOGIN_PATH"
	envVisitorTTL            = "CHATAPP_VISITOR_TTL"
	envMaxVisitors           = "CHATAPP_MAX_VISITORS"
	envAllowedOrigins        = "CHATAPP_ALLOWED_ORIGINS"
)

// Config captures runtime settings for the ChatApp UI server. APIBaseURL is
// the single place both forms take the auth API location from.
type Config struct {
	ListenAddr            string
	APIBaseURL            string
	TemplatesDir          string
	AssetsDir             string
	LogDir                string
	LogLevel              string
	SiteName              string
	APITimeout            time.Duration
	LoginMessageTTL       time.Duration
	RegisterMessageTTL    time.Duration
	RegisterRedirectDelay time.Duration
	PostLoginPath         string
	VisitorTTL            time.Duration
	MaxVisitors           int
	AllowedOrigins        []string
}

// Default returns the configuration used when no environment overrides are set.
func Default() Config {
	return Config{
		ListenAddr:            defaultListenAddr,
		APIBaseURL:            defaultAPIBaseURL,
		TemplatesDir:          defaultTemplatesDir,
		AssetsDir:             defaultAssetsDir,
		LogDir:                defaultLogDir,
		LogLevel:              defaultLogLevel,
		SiteName:              defaultSiteName,
		APITimeout:            defaultAPITimeout,
		LoginMessageTTL:       defaultLoginMessageTTL,
		RegisterMessageTTL:    defaultRegisterMessageTTL,
		RegisterRedirectDelay: defaultRegisterRedirectDelay,
		PostLoginPath:         defaultPostLoginPath,
		VisitorTTL:            defaultVisitorTTL,
		MaxVisitors:           defaultMaxVisitors,
	}
}

// FromEnv constructs a Config by reading environment variables with defaults.
func FromEnv() (Config, error) {
	cfg := Default()

	if v := env(envListenAddr); v != "" {
		cfg.ListenAddr = v
	} else if port := env(envPort); port != "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", port)
	}

	setString(&cfg.APIBaseURL, envAPIBaseURL)
	setString(&cfg.TemplatesDir, envTemplatesDir)
	setString(&cfg.AssetsDir, envAssetsDir)
	setString(&cfg.LogDir, envLogDir)
	setString(&cfg.LogLevel, envLogLevel)
	setString(&cfg.SiteName, envSiteName)
	setString(&cfg.PostLoginPath, envPostLoginPath)

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{envAPITimeout, &cfg.APITimeout},
		{envLoginMessageTTL, &cfg.LoginMessageTTL},
		{envRegisterMessageTTL, &cfg.RegisterMessageTTL},
		{envRegisterRedirectDelay, &cfg.RegisterRedirectDelay},
		{envVisitorTTL, &cfg.VisitorTTL},
	}
	for _, d := range durations {
		raw := env(d.key)
		if raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", d.key, err)
		}
		*d.target = parsed
	}

	if raw := env(envMaxVisitors); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", envMaxVisitors, err)
		}
		cfg.MaxVisitors = n
	}

	cfg.AllowedOrigins = SplitList(env(envAllowedOrigins))

	return cfg, nil
}

// Validate ensures the configuration is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("config: api base url is required")
	}
	parsed, err := url.Parse(c.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: invalid api base url %q", c.APIBaseURL)
	}
	if strings.TrimSpace(c.TemplatesDir) == "" {
		return fmt.Errorf("config: templates directory is required")
	}
	if strings.TrimSpace(c.AssetsDir) == "" {
		return fmt.Errorf("config: assets directory is required")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("config: api timeout must be positive")
	}
	if c.LoginMessageTTL <= 0 || c.RegisterMessageTTL <= 0 {
		return fmt.Errorf("config: message clear delays must be positive")
	}
	if c.RegisterRedirectDelay < 0 {
		return fmt.Errorf("config: register redirect delay must not be negative")
	}
	if !strings.HasPrefix(c.PostLoginPath, "/") {
		return fmt.Errorf("config: post-login path must start with /")
	}
	if c.VisitorTTL <= 0 {
		return fmt.Errorf("config: visitor ttl must be positive")
	}
	if c.MaxVisitors <= 0 {
		return fmt.Errorf("config: max visitors must be positive")
	}
	return nil
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(target *string, key string) {
	if v := env(key); v != "" {
		*target = v
	}
}
