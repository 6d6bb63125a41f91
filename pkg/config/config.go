package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talhaorak/taiga-mcp/pkg/domain"
)

// Defaults used when neither the environment nor a settings file says
// otherwise.
const (
	DefaultHost                 = "http://localhost:9000"
	DefaultSessionExpiry        = 8 * time.Hour
	DefaultRequestTimeout       = 30 * time.Second
	DefaultMaxConnections       = 10
	DefaultMaxIdleConnections   = 5
	DefaultRateLimitPerMinute   = 100
	DefaultSweepInterval        = 5 * time.Minute
	DefaultSweepFailureInterval = time.Minute
)

// Settings holds every externally configurable value of the bridge. Values are
// sourced from the environment, optionally overlaid by a YAML file, and
// validated once at startup.
type Settings struct {
	// Connection
	Host     string
	Username string
	Password string

	// Session lifetime and outbound budget
	SessionExpiry      time.Duration
	RequestTimeout     time.Duration
	MaxConnections     int
	MaxIdleConnections int
	RateLimitPerMinute int

	// Background sweeping
	SweepInterval        time.Duration
	SweepFailureInterval time.Duration

	// Optional durable session records
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Encryption of tokens at rest, base64-encoded 32-byte keys. Fallback
	// keys let old records survive a key rotation.
	EncryptionKey          string
	EncryptionFallbackKeys []string

	LogLevel string
}

// FromEnv builds Settings from environment variables, falling back to the
// defaults above. Durations are given in whole seconds (SESSION_EXPIRY=28800
// is eight hours).
func FromEnv() (Settings, error) {
	s := Settings{
		Host:                 envOr("TAIGA_API_URL", DefaultHost),
		Username:             os.Getenv("TAIGA_USERNAME"),
		Password:             os.Getenv("TAIGA_PASSWORD"),
		SessionExpiry:        DefaultSessionExpiry,
		RequestTimeout:       DefaultRequestTimeout,
		MaxConnections:       DefaultMaxConnections,
		MaxIdleConnections:   DefaultMaxIdleConnections,
		RateLimitPerMinute:   DefaultRateLimitPerMinute,
		SweepInterval:        DefaultSweepInterval,
		SweepFailureInterval: DefaultSweepFailureInterval,
		RedisAddr:            os.Getenv("TAIGA_REDIS_ADDR"),
		RedisPassword:        os.Getenv("TAIGA_REDIS_PASSWORD"),
		EncryptionKey:        os.Getenv("TAIGA_ENCRYPTION_KEY"),
		LogLevel:             envOr("TAIGA_LOG_LEVEL", "info"),
	}

	var err error
	if s.SessionExpiry, err = envSeconds("SESSION_EXPIRY", s.SessionExpiry); err != nil {
		return s, err
	}
	if s.RequestTimeout, err = envSeconds("REQUEST_TIMEOUT", s.RequestTimeout); err != nil {
		return s, err
	}
	if s.MaxConnections, err = envInt("MAX_CONNECTIONS", s.MaxConnections); err != nil {
		return s, err
	}
	if s.MaxIdleConnections, err = envInt("MAX_KEEPALIVE_CONNECTIONS", s.MaxIdleConnections); err != nil {
		return s, err
	}
	if s.RateLimitPerMinute, err = envInt("RATE_LIMIT_REQUESTS", s.RateLimitPerMinute); err != nil {
		return s, err
	}
	if s.RedisDB, err = envInt("TAIGA_REDIS_DB", 0); err != nil {
		return s, err
	}
	if raw := os.Getenv("TAIGA_ENCRYPTION_FALLBACK_KEYS"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				s.EncryptionFallbackKeys = append(s.EncryptionFallbackKeys, k)
			}
		}
	}

	return s, nil
}

// fileSettings is the YAML shape of the overlay file. Durations are written in
// Go notation ("2h", "90s") and parsed explicitly.
type fileSettings struct {
	Host                 string   `yaml:"host"`
	Username             string   `yaml:"username"`
	Password             string   `yaml:"password"`
	SessionExpiry        string   `yaml:"session_expiry"`
	RequestTimeout       string   `yaml:"request_timeout"`
	MaxConnections       int      `yaml:"max_connections"`
	MaxIdleConnections   int      `yaml:"max_idle_connections"`
	RateLimitPerMinute   int      `yaml:"rate_limit_per_minute"`
	SweepInterval        string   `yaml:"sweep_interval"`
	SweepFailureInterval string   `yaml:"sweep_failure_interval"`
	RedisAddr            string   `yaml:"redis_addr"`
	RedisPassword        string   `yaml:"redis_password"`
	RedisDB              int      `yaml:"redis_db"`
	EncryptionKey        string   `yaml:"encryption_key"`
	FallbackKeys         []string `yaml:"encryption_fallback_keys"`
	LogLevel             string   `yaml:"log_level"`
}

// Load reads a YAML settings file and overlays it onto the receiver. A missing
// file is not an error: the environment-derived values stand.
func (s *Settings) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	overlay := Settings{
		Host:               fs.Host,
		Username:           fs.Username,
		Password:           fs.Password,
		MaxConnections:     fs.MaxConnections,
		MaxIdleConnections: fs.MaxIdleConnections,
		RateLimitPerMinute: fs.RateLimitPerMinute,
		RedisAddr:          fs.RedisAddr,
		RedisPassword:      fs.RedisPassword,
		RedisDB:            fs.RedisDB,
		EncryptionKey:      fs.EncryptionKey,
		LogLevel:           fs.LogLevel,
	}
	overlay.EncryptionFallbackKeys = append(overlay.EncryptionFallbackKeys, fs.FallbackKeys...)
	for _, d := range []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{fs.SessionExpiry, "session_expiry", &overlay.SessionExpiry},
		{fs.RequestTimeout, "request_timeout", &overlay.RequestTimeout},
		{fs.SweepInterval, "sweep_interval", &overlay.SweepInterval},
		{fs.SweepFailureInterval, "sweep_failure_interval", &overlay.SweepFailureInterval},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return &domain.ConfigError{Field: d.name, Reason: "invalid duration: " + d.raw}
		}
		*d.dst = parsed
	}

	s.merge(overlay)
	return nil
}

func (s *Settings) merge(o Settings) {
	if o.Host != "" {
		s.Host = o.Host
	}
	if o.Username != "" {
		s.Username = o.Username
	}
	if o.Password != "" {
		s.Password = o.Password
	}
	if o.SessionExpiry != 0 {
		s.SessionExpiry = o.SessionExpiry
	}
	if o.RequestTimeout != 0 {
		s.RequestTimeout = o.RequestTimeout
	}
	if o.MaxConnections != 0 {
		s.MaxConnections = o.MaxConnections
	}
	if o.MaxIdleConnections != 0 {
		s.MaxIdleConnections = o.MaxIdleConnections
	}
	if o.RateLimitPerMinute != 0 {
		s.RateLimitPerMinute = o.RateLimitPerMinute
	}
	if o.SweepInterval != 0 {
		s.SweepInterval = o.SweepInterval
	}
	if o.SweepFailureInterval != 0 {
		s.SweepFailureInterval = o.SweepFailureInterval
	}
	if o.RedisAddr != "" {
		s.RedisAddr = o.RedisAddr
	}
	if o.RedisPassword != "" {
		s.RedisPassword = o.RedisPassword
	}
	if o.RedisDB != 0 {
		s.RedisDB = o.RedisDB
	}
	if o.EncryptionKey != "" {
		s.EncryptionKey = o.EncryptionKey
	}
	if len(o.EncryptionFallbackKeys) > 0 {
		s.EncryptionFallbackKeys = o.EncryptionFallbackKeys
	}
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
}

// Validate enforces the startup minimums. A violation is fatal.
func (s Settings) Validate() error {
	if s.Host == "" {
		return &domain.ConfigError{Field: "host", Reason: "taiga host URL cannot be empty"}
	}
	if !strings.HasPrefix(s.Host, "http://") && !strings.HasPrefix(s.Host, "https://") {
		return &domain.ConfigError{Field: "host", Reason: "must be an http(s) URL"}
	}
	if s.SessionExpiry < time.Minute {
		return &domain.ConfigError{Field: "session_expiry", Reason: "must be at least 60 seconds"}
	}
	if s.RequestTimeout < time.Second {
		return &domain.ConfigError{Field: "request_timeout", Reason: "must be at least 1 second"}
	}
	if s.MaxConnections < 1 {
		return &domain.ConfigError{Field: "max_connections", Reason: "must be at least 1"}
	}
	if s.MaxIdleConnections < 1 {
		return &domain.ConfigError{Field: "max_idle_connections", Reason: "must be at least 1"}
	}
	if s.MaxIdleConnections > s.MaxConnections {
		return &domain.ConfigError{Field: "max_idle_connections", Reason: "cannot exceed max_connections"}
	}
	if s.RateLimitPerMinute < 1 {
		return &domain.ConfigError{Field: "rate_limit_per_minute", Reason: "must be at least 1"}
	}
	if s.EncryptionKey != "" {
		if _, _, err := s.EncryptionKeys(); err != nil {
			return err
		}
	}
	return nil
}

// EncryptionKeys decodes the configured base64 keys. The active key must be
// 32 bytes; a nil active key means encryption at rest is disabled.
func (s Settings) EncryptionKeys() (active []byte, fallbacks [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = decodeKey("encryption_key", s.EncryptionKey)
	if err != nil {
		return nil, nil, err
	}
	for _, raw := range s.EncryptionFallbackKeys {
		key, err := decodeKey("encryption_fallback_keys", raw)
		if err != nil {
			return nil, nil, err
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

func decodeKey(field, raw string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, &domain.ConfigError{Field: field, Reason: "not valid base64"}
	}
	if len(key) != 32 {
		return nil, &domain.ConfigError{Field: field, Reason: fmt.Sprintf("must decode to 32 bytes, got %d", len(key))}
	}
	return key, nil
}

// HasCredentials reports whether auto-authentication can be attempted.
func (s Settings) HasCredentials() bool {
	return s.Username != "" && s.Password != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ConfigError{Field: key, Reason: "not an integer: " + v}
	}
	return n, nil
}

func envSeconds(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ConfigError{Field: key, Reason: "not a number of seconds: " + v}
	}
	return time.Duration(n) * time.Second, nil
}
