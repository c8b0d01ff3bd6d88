package config

import "time"

type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Log          LogConfig          `koanf:"log"`
	Metadata     MetadataConfig     `koanf:"metadata"`
	Notification NotificationConfig `koanf:"notification"`
	Firebase     FirebaseConfig     `koanf:"firebase"`
	RateLimit    RateLimitConfig    `koanf:"rate_limit"`
	Telemetry    TelemetryConfig    `koanf:"telemetry"`
}

type ServerConfig struct {
	Host           string    `koanf:"host"`
	Port           int       `koanf:"port"`
	PublicURL      string    `koanf:"public_url"`
	AllowedOrigins []string  `koanf:"allowed_origins"`
	StaticDir      string    `koanf:"static_dir"`
	TLS            TLSConfig `koanf:"tls"`
}

type TLSConfig struct {
	Mode     string        `koanf:"mode"`
	CertFile string        `koanf:"cert_file"`
	KeyFile  string        `koanf:"key_file"`
	Auto     AutoTLSConfig `koanf:"auto"`
}

type AutoTLSConfig struct {
	Domain   string `koanf:"domain"`
	Email    string `koanf:"email"`
	CacheDir string `koanf:"cache_dir"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type MetadataConfig struct {
	FetchTimeout  time.Duration `koanf:"fetch_timeout"`
	MaxAttempts   int           `koanf:"max_attempts"`
	MaxBodySize   int64         `koanf:"max_body_size"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`
	CacheSize     int           `koanf:"cache_size"`
	UserAgent     string        `koanf:"user_agent"`
	AllowPrivate  bool          `koanf:"allow_private"`
	UpstreamRate  float64       `koanf:"upstream_rate"`
	UpstreamBurst int           `koanf:"upstream_burst"`
}

type NotificationConfig struct {
	FallbackBody      string `koanf:"fallback_body"`
	ChannelID         string `koanf:"channel_id"`
	MaxStoredTokens   int    `koanf:"max_stored_tokens"`
	MinTokenLength    int    `koanf:"min_token_length"`
	MemberConcurrency int    `koanf:"member_concurrency"`
	CleanupQueueSize  int    `koanf:"cleanup_queue_size"`
}

// FirebaseConfig locates the service account. ServiceAccount holds raw JSON
// and takes precedence over CredentialsFile.
type FirebaseConfig struct {
	ServiceAccount  string `koanf:"service_account"`
	CredentialsFile string `koanf:"credentials_file"`
}

type RateLimitConfig struct {
	Enabled      bool              `koanf:"enabled"`
	Metadata     RateLimitEndpoint `koanf:"metadata"`
	Notification RateLimitEndpoint `koanf:"notification"`
}

type RateLimitEndpoint struct {
	Limit  int           `koanf:"limit"`
	Window time.Duration `koanf:"window"`
}

type TelemetryConfig struct {
	OTLPEndpoint   string        `koanf:"otlp_endpoint"`
	ServiceName    string        `koanf:"service_name"`
	MetricInterval time.Duration `koanf:"metric_interval"`
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			PublicURL: "http://localhost:8080",
			TLS: TLSConfig{
				Mode: "off",
				Auto: AutoTLSConfig{
					CacheDir: "./data/certs",
				},
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metadata: MetadataConfig{
			FetchTimeout: 10 * time.Second,
			MaxAttempts:  2, // one retry
			MaxBodySize:  5_000_000,
			CacheTTL:     30 * time.Minute,
			CacheSize:    100,
			UserAgent:    "Mozilla/5.0 (compatible; ShukkuListBot/1.0; +https://github.com/shukkulist)",
		},
		Notification: NotificationConfig{
			FallbackBody:      "Your family shopping list was updated",
			ChannelID:         "shukku_default",
			MaxStoredTokens:   10,
			MinTokenLength:    100,
			MemberConcurrency: 8,
			CleanupQueueSize:  64,
		},
		RateLimit: RateLimitConfig{
			Enabled:      true,
			Metadata:     RateLimitEndpoint{Limit: 60, Window: time.Minute},
			Notification: RateLimitEndpoint{Limit: 30, Window: time.Minute},
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "shukku-api",
			MetricInterval: time.Minute,
		},
	}
}
