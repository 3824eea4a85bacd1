package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for the pager bridge.
type Config struct {
	General   GeneralConfig   `json:"general"`
	Telegram  TelegramConfig  `json:"telegram"`
	Pager     PagerConfig     `json:"pager"`
	Server    ServerConfig    `json:"server"`
	Media     MediaConfig     `json:"media"`
	Avatar    AvatarConfig    `json:"avatar"`
	Bootstrap BootstrapConfig `json:"bootstrap"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"` // "debug" | "info" | "warn" | "error"
}

type TelegramConfig struct {
	Token          string `json:"token"`
	PollTimeoutSec int    `json:"pollTimeoutSeconds"`
}

// PagerConfig configures the helpdesk side: where inbound payloads are
// POSTed and the shared secret both directions authenticate with.
type PagerConfig struct {
	InboundURL         string `json:"inboundUrl"`
	ChannelKey         string `json:"channelKey"`
	DispatchTimeoutSec int    `json:"dispatchTimeoutSeconds"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// MediaConfig configures the media transfer pipeline and its on-disk store.
type MediaConfig struct {
	Dir             string `json:"dir"`
	PublicBaseURL   string `json:"publicBaseUrl"`
	FetchTimeoutSec int    `json:"fetchTimeoutSeconds"`
	MaxSizeBytes    int64  `json:"maxSizeBytes"`
	IndexDBPath     string `json:"indexDbPath"`
	RetentionDays   int    `json:"retentionDays"`
}

type AvatarConfig struct {
	Dir             string `json:"dir"`
	CacheTTLMinutes int    `json:"cacheTtlMinutes"`
	CacheMaxEntries int    `json:"cacheMaxEntries"`
}

type BootstrapConfig struct {
	TemplatesPath   string `json:"templatesPath,omitempty"`
	DefaultTemplate string `json:"defaultTemplate,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.pagerbridge).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pagerbridge"
	}
	return filepath.Join(home, ".pagerbridge")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Media.Dir = ExpandPath(cfg.Media.Dir)
	cfg.Media.IndexDBPath = ExpandPath(cfg.Media.IndexDBPath)
	cfg.Avatar.Dir = ExpandPath(cfg.Avatar.Dir)
	cfg.Bootstrap.TemplatesPath = ExpandPath(cfg.Bootstrap.TemplatesPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Telegram.Token == "" {
		errs = append(errs, "telegram.token is required")
	}
	if cfg.Pager.ChannelKey == "" {
		errs = append(errs, "pager.channelKey is required")
	}
	if cfg.Pager.InboundURL == "" {
		errs = append(errs, "pager.inboundUrl is required")
	} else if u, err := url.Parse(cfg.Pager.InboundURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "pager.inboundUrl must be an absolute URL")
	}
	if cfg.Media.PublicBaseURL == "" {
		errs = append(errs, "media.publicBaseUrl is required")
	} else if u, err := url.Parse(cfg.Media.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "media.publicBaseUrl must be an absolute URL")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if cfg.Pager.DispatchTimeoutSec < 1 {
		errs = append(errs, "pager.dispatchTimeoutSeconds must be >= 1")
	}
	if cfg.Media.FetchTimeoutSec < 1 {
		errs = append(errs, "media.fetchTimeoutSeconds must be >= 1")
	}
	if cfg.Media.MaxSizeBytes < 1 {
		errs = append(errs, "media.maxSizeBytes must be >= 1")
	}
	if cfg.Media.RetentionDays < 1 {
		errs = append(errs, "media.retentionDays must be >= 1")
	}
	if cfg.Avatar.CacheTTLMinutes < 1 {
		errs = append(errs, "avatar.cacheTtlMinutes must be >= 1")
	}
	if cfg.Avatar.CacheMaxEntries < 1 {
		errs = append(errs, "avatar.cacheMaxEntries must be >= 1")
	}
	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
