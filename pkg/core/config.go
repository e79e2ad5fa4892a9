package core

import (
	"fmt"
	"os"
	"strings"

	// Loads a local .env file into the process environment before
	// config interpolation runs.
	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

// Config represents the full application configuration.
type Config struct {
	// Server holds HTTP server runtime settings.
	Server struct {
		Port           int   `yaml:"port"`
		ReadTimeoutMS  int64 `yaml:"read_timeout_ms"`
		WriteTimeoutMS int64 `yaml:"write_timeout_ms"`
		IdleTimeoutMS  int64 `yaml:"idle_timeout_ms"`
		ReadHeaderMS   int64 `yaml:"read_header_timeout_ms"`
		MaxBodyBytes   int64 `yaml:"max_body_bytes"`
	} `yaml:"server"`
	// Contact configures the inbound form endpoint.
	Contact ContactConfig `yaml:"contact"`
	// Discord configures the outbound webhook target.
	Discord DiscordConfig `yaml:"discord"`
	// Auth configures the optional shared-secret check.
	Auth AuthConfig `yaml:"auth"`
	// Delivery configures how downstream failures are reported.
	Delivery DeliveryConfig `yaml:"delivery"`
	// CORS restricts which browser origins may call the endpoint.
	CORS CORSConfig `yaml:"cors"`
}

// ContactConfig holds settings for the contact endpoint.
type ContactConfig struct {
	Path string `yaml:"path"`
}

// DiscordConfig holds settings for the Discord webhook target.
// An empty WebhookURL puts the service in degraded mode: submissions
// are accepted and acknowledged but nothing is forwarded.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Username   string `yaml:"username"`
	TimeoutMS  int64  `yaml:"timeout_ms"`
}

// AuthConfig holds the shared-secret settings. The check only runs
// when Enforce is true; a configured but unenforced secret is ignored.
type AuthConfig struct {
	Enforce bool   `yaml:"enforce"`
	Secret  string `yaml:"secret"`
	Header  string `yaml:"header"`
}

// DeliveryConfig selects the delivery-failure policy. With
// SurfaceFailures false (the default) a failed webhook call is logged
// and the caller still receives 200; with it true the caller gets 502.
type DeliveryConfig struct {
	SurfaceFailures bool `yaml:"surface_failures"`
}

// CORSConfig holds allowed browser origins. Empty means allow all.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoadConfig loads the application configuration from a YAML file.
// Environment references such as ${DISCORD_WEBHOOK_URL} are expanded
// before parsing, and defaults are applied afterwards.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, err
	}

	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeoutMS == 0 {
		cfg.Server.ReadTimeoutMS = 5000
	}
	if cfg.Server.WriteTimeoutMS == 0 {
		cfg.Server.WriteTimeoutMS = 15000
	}
	if cfg.Server.IdleTimeoutMS == 0 {
		cfg.Server.IdleTimeoutMS = 60000
	}
	if cfg.Server.ReadHeaderMS == 0 {
		cfg.Server.ReadHeaderMS = 5000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 64 << 10
	}
	if cfg.Contact.Path == "" {
		cfg.Contact.Path = "/api/contact"
	}
	if cfg.Discord.Username == "" {
		cfg.Discord.Username = "Form Relay"
	}
	if cfg.Discord.TimeoutMS == 0 {
		cfg.Discord.TimeoutMS = 10000
	}
	if cfg.Auth.Header == "" {
		cfg.Auth.Header = "X-Secret"
	}
	cfg.Discord.WebhookURL = strings.TrimSpace(cfg.Discord.WebhookURL)
}

func validate(cfg Config) error {
	if cfg.Auth.Enforce && strings.TrimSpace(cfg.Auth.Secret) == "" {
		return fmt.Errorf("auth.enforce is set but auth.secret is empty")
	}
	if !strings.HasPrefix(cfg.Contact.Path, "/") {
		return fmt.Errorf("contact.path must start with /: %q", cfg.Contact.Path)
	}
	return nil
}
