package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Telegram.Token = "123:abc"
	cfg.Pager.ChannelKey = "secret"
	cfg.Media.PublicBaseURL = "https://bridge.example.com"
	return cfg
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("valid config should pass: %v", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	cfg.Pager.ChannelKey = ""
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "telegram.token") {
		t.Errorf("error should mention telegram.token: %v", err)
	}
	if !strings.Contains(err.Error(), "pager.channelKey") {
		t.Errorf("error should mention pager.channelKey: %v", err)
	}
}

func TestValidate_BadURL(t *testing.T) {
	cfg := validConfig()
	cfg.Media.PublicBaseURL = "not-a-url"
	if err := Validate(cfg); err == nil {
		t.Error("relative public base URL should fail validation")
	}
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	if err := Validate(cfg); err == nil {
		t.Error("out-of-range port should fail validation")
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("PAGERBRIDGE_TEST_VAR", "hello")
	defer os.Unsetenv("PAGERBRIDGE_TEST_VAR")

	tests := []struct {
		in   string
		want string
	}{
		{"${PAGERBRIDGE_TEST_VAR}", "hello"},
		{"${PAGERBRIDGE_TEST_UNSET:-fallback}", "fallback"},
		{"${PAGERBRIDGE_TEST_UNSET}", "${PAGERBRIDGE_TEST_UNSET}"},
		{"prefix-${PAGERBRIDGE_TEST_VAR}-suffix", "prefix-hello-suffix"},
		{"no vars here", "no vars here"},
	}
	for _, tt := range tests {
		if got := ExpandEnvVars(tt.in); got != tt.want {
			t.Errorf("ExpandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := validConfig()
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Pager.InboundURL != cfg.Pager.InboundURL {
		t.Errorf("inboundUrl changed: %s", loaded.Pager.InboundURL)
	}
	if loaded.Media.RetentionDays != cfg.Media.RetentionDays {
		t.Errorf("retentionDays changed: %d", loaded.Media.RetentionDays)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("PAGERBRIDGE_TEST_KEY", "k-123")
	defer os.Unsetenv("PAGERBRIDGE_TEST_KEY")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"telegram": {"token": "123:abc"},
		"pager": {"channelKey": "${PAGERBRIDGE_TEST_KEY}"},
		"media": {"publicBaseUrl": "https://bridge.example.com"}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pager.ChannelKey != "k-123" {
		t.Errorf("expected expanded key, got %q", cfg.Pager.ChannelKey)
	}
	// Unset fields keep defaults.
	if cfg.Pager.DispatchTimeoutSec != 20 {
		t.Errorf("expected default dispatch timeout, got %d", cfg.Pager.DispatchTimeoutSec)
	}
}
