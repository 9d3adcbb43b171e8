package config

import (
	"fmt"
	"net/url"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	// Discord Bot. Empty disables the bot; notifications are then only logged.
	DiscordToken string `env:"DISCORD_TOKEN"`

	// Discord OAuth2
	DiscordClientID     string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI  string `env:"DISCORD_REDIRECT_URI,default=http://localhost:3000/api/auth/callback"`

	// Database. Empty means the in-memory store.
	DatabaseURL string `env:"DATABASE_URL"`

	// Web Server
	WebBind      string `env:"WEB_BIND,default=0.0.0.0:3000"`
	WebUIBaseURL string

	// Session
	JWTSecret string        `env:"JWT_SECRET,default=dev-only-change-me"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=24h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogPretty bool   `env:"LOG_PRETTY,default=false"`

	// Reminders and notification delivery
	ReminderLead     time.Duration `env:"REMINDER_LEAD,default=30m"`
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL,default=1m"`
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT,default=12s"`
	NotifyAttempts   int           `env:"NOTIFY_ATTEMPTS,default=2"`
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	if cfg.ReminderInterval <= 0 {
		return nil, fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	if cfg.NotifyAttempts < 1 {
		return nil, fmt.Errorf("NOTIFY_ATTEMPTS must be at least 1")
	}
	return cfg, nil
}

// OAuthEnabled reports whether the Discord login routes can work.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}
	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
