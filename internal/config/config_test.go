package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// unset removes k for the duration of the test.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	unset(t, "DISCORD_TOKEN", "DATABASE_URL", "DISCORD_REDIRECT_URI", "DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET",
		"WEB_BIND", "JWT_TTL", "REMINDER_LEAD", "REMINDER_INTERVAL", "NOTIFY_TIMEOUT", "NOTIFY_ATTEMPTS")
	req := require.New(t)

	cfg, err := Load()
	req.NoError(err)
	req.Equal("0.0.0.0:3000", cfg.WebBind)
	req.Equal("http://localhost:3000", cfg.WebUIBaseURL)
	req.Equal(24*time.Hour, cfg.JWTTTL)
	req.Equal(30*time.Minute, cfg.ReminderLead)
	req.Equal(12*time.Second, cfg.NotifyTimeout)
	req.Equal(2, cfg.NotifyAttempts)
	req.Empty(cfg.DatabaseURL)
	req.False(cfg.OAuthEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISCORD_REDIRECT_URI", "https://study.example.com/api/auth/callback")
	t.Setenv("REMINDER_LEAD", "1h")
	t.Setenv("NOTIFY_ATTEMPTS", "3")
	t.Setenv("DISCORD_CLIENT_ID", "id")
	t.Setenv("DISCORD_CLIENT_SECRET", "secret")
	req := require.New(t)

	cfg, err := Load()
	req.NoError(err)
	req.Equal("https://study.example.com", cfg.WebUIBaseURL)
	req.Equal(time.Hour, cfg.ReminderLead)
	req.Equal(3, cfg.NotifyAttempts)
	req.True(cfg.OAuthEnabled())
}

func TestLoadRejectsZeroAttempts(t *testing.T) {
	t.Setenv("NOTIFY_ATTEMPTS", "0")
	_, err := Load()
	require.Error(t, err)
}

func TestExtractBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:3000/api/auth/callback", "http://localhost:3000"},
		{"https://example.com:8443/cb", "https://example.com:8443"},
		{"not a url", "http://localhost:3000"},
		{"", "http://localhost:3000"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, extractBaseURL(tt.in), tt.in)
	}
}
