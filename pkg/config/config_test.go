package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhaorak/taiga-mcp/pkg/domain"
)

func TestFromEnv_Defaults(t *testing.T) {
	s, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, s.Host)
	assert.Equal(t, 8*time.Hour, s.SessionExpiry)
	assert.Equal(t, 30*time.Second, s.RequestTimeout)
	assert.Equal(t, 10, s.MaxConnections)
	assert.Equal(t, 5, s.MaxIdleConnections)
	assert.Equal(t, 100, s.RateLimitPerMinute)
	assert.NoError(t, s.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TAIGA_API_URL", "https://tree.taiga.io")
	t.Setenv("SESSION_EXPIRY", "3600")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")

	s, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://tree.taiga.io", s.Host)
	assert.Equal(t, time.Hour, s.SessionExpiry)
	assert.Equal(t, 5, s.RateLimitPerMinute)
}

func TestFromEnv_BadInteger(t *testing.T) {
	t.Setenv("MAX_CONNECTIONS", "lots")

	_, err := FromEnv()
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "MAX_CONNECTIONS", cfgErr.Field)
}

func TestValidate_Minimums(t *testing.T) {
	base := func() Settings {
		s, _ := FromEnv()
		return s
	}

	cases := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"short ttl", func(s *Settings) { s.SessionExpiry = 30 * time.Second }, "session_expiry"},
		{"zero timeout", func(s *Settings) { s.RequestTimeout = 0 }, "request_timeout"},
		{"no connections", func(s *Settings) { s.MaxConnections = 0 }, "max_connections"},
		{"no idle", func(s *Settings) { s.MaxIdleConnections = 0 }, "max_idle_connections"},
		{"idle above total", func(s *Settings) { s.MaxIdleConnections = 99 }, "max_idle_connections"},
		{"zero rate", func(s *Settings) { s.RateLimitPerMinute = 0 }, "rate_limit_per_minute"},
		{"bad host", func(s *Settings) { s.Host = "tree.taiga.io" }, "host"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := base()
			tc.mutate(&s)
			err := s.Validate()
			var cfgErr *domain.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestLoad_OverlayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taiga.yaml")
	content := "host: https://taiga.internal\nrate_limit_per_minute: 42\nsession_expiry: 2h\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := FromEnv()
	require.NoError(t, err)
	require.NoError(t, s.Load(path))

	assert.Equal(t, "https://taiga.internal", s.Host)
	assert.Equal(t, 42, s.RateLimitPerMinute)
	assert.Equal(t, 2*time.Hour, s.SessionExpiry)
	// Untouched fields keep their environment defaults.
	assert.Equal(t, DefaultMaxConnections, s.MaxConnections)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	s, err := FromEnv()
	require.NoError(t, err)
	assert.NoError(t, s.Load(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestEncryptionKeys(t *testing.T) {
	s, err := FromEnv()
	require.NoError(t, err)

	// Disabled by default.
	active, fallbacks, err := s.EncryptionKeys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallbacks)

	s.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	s.EncryptionFallbackKeys = []string{base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{8}, 32))}
	active, fallbacks, err = s.EncryptionKeys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallbacks, 1)
	assert.NoError(t, s.Validate())

	s.EncryptionKey = "not!!base64"
	_, _, err = s.EncryptionKeys()
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "encryption_key", cfgErr.Field)
	assert.Error(t, s.Validate())

	s.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short"))
	_, _, err = s.EncryptionKeys()
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "32 bytes")
}

func TestMaskCredential(t *testing.T) {
	assert.Equal(t, "<empty>", MaskCredential(""))
	assert.Equal(t, "***", MaskCredential("abc"))
	assert.Equal(t, "hu****22", MaskCredential("hunter22"))
}
