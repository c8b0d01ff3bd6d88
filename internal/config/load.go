package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	envPrefix = "SHUKKU_"

	// ServiceAccountEnv carries the Firebase service account JSON. The name
	// predates the SHUKKU_ prefix and is kept for existing deployments.
	ServiceAccountEnv = "FIREBASE_SERVICE_ACCOUNT"
)

var defaultPaths = []string{"config.yaml", "config.yml"}

// Load layers defaults, the YAML file, environment variables and flags, in
// that order, then validates the result. A missing file is not an error.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(defaultsProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}
	if err := loadFile(k, configPath); err != nil {
		return nil, err
	}
	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, configPath string) error {
	paths := defaultPaths
	if configPath != "" {
		paths = []string{configPath}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", path, err)
		}
		return nil
	}
	return nil
}

func loadEnv(k *koanf.Koanf) error {
	serviceAccount := env.Provider(ServiceAccountEnv, ".", func(s string) string {
		if s == ServiceAccountEnv {
			return "firebase.service_account"
		}
		return ""
	})
	if err := k.Load(serviceAccount, nil); err != nil {
		return err
	}
	return k.Load(env.Provider(envPrefix, ".", envKeyMapper(k)), nil)
}

// envKeyMapper turns SHUKKU_METADATA_CACHE_TTL into metadata.cache_ttl.
// Underscores are ambiguous between nesting and leaf names, so the name is
// matched against the keys already known from defaults. Unknown names fall
// back to treating every underscore as a separator.
func envKeyMapper(k *koanf.Koanf) func(string) string {
	known := make(map[string]string)
	for _, key := range k.Keys() {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}
	return func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		if key, ok := known[name]; ok {
			return key
		}
		return strings.ReplaceAll(name, "_", ".")
	}
}

// flatProvider serves a map keyed by dotted paths.
type flatProvider map[string]any

func (p flatProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("flatProvider does not support ReadBytes")
}

func (p flatProvider) Read() (map[string]any, error) {
	return maps.Unflatten(p, "."), nil
}

func defaultsProvider(c *Config) flatProvider {
	return flatProvider{
		"server.host":                     c.Server.Host,
		"server.port":                     c.Server.Port,
		"server.public_url":               c.Server.PublicURL,
		"server.allowed_origins":          c.Server.AllowedOrigins,
		"server.static_dir":               c.Server.StaticDir,
		"server.tls.mode":                 c.Server.TLS.Mode,
		"server.tls.cert_file":            c.Server.TLS.CertFile,
		"server.tls.key_file":             c.Server.TLS.KeyFile,
		"server.tls.auto.domain":          c.Server.TLS.Auto.Domain,
		"server.tls.auto.email":           c.Server.TLS.Auto.Email,
		"server.tls.auto.cache_dir":       c.Server.TLS.Auto.CacheDir,
		"log.level":                       c.Log.Level,
		"log.format":                      c.Log.Format,
		"metadata.fetch_timeout":          c.Metadata.FetchTimeout.String(),
		"metadata.max_attempts":           c.Metadata.MaxAttempts,
		"metadata.max_body_size":          c.Metadata.MaxBodySize,
		"metadata.cache_ttl":              c.Metadata.CacheTTL.String(),
		"metadata.cache_size":             c.Metadata.CacheSize,
		"metadata.user_agent":             c.Metadata.UserAgent,
		"metadata.allow_private":          c.Metadata.AllowPrivate,
		"metadata.upstream_rate":          c.Metadata.UpstreamRate,
		"metadata.upstream_burst":         c.Metadata.UpstreamBurst,
		"notification.fallback_body":      c.Notification.FallbackBody,
		"notification.channel_id":         c.Notification.ChannelID,
		"notification.max_stored_tokens":  c.Notification.MaxStoredTokens,
		"notification.min_token_length":   c.Notification.MinTokenLength,
		"notification.member_concurrency": c.Notification.MemberConcurrency,
		"notification.cleanup_queue_size": c.Notification.CleanupQueueSize,
		"firebase.service_account":        c.Firebase.ServiceAccount,
		"firebase.credentials_file":       c.Firebase.CredentialsFile,
		"rate_limit.enabled":              c.RateLimit.Enabled,
		"rate_limit.metadata.limit":       c.RateLimit.Metadata.Limit,
		"rate_limit.metadata.window":      c.RateLimit.Metadata.Window.String(),
		"rate_limit.notification.limit":   c.RateLimit.Notification.Limit,
		"rate_limit.notification.window":  c.RateLimit.Notification.Window.String(),
		"telemetry.otlp_endpoint":         c.Telemetry.OTLPEndpoint,
		"telemetry.service_name":          c.Telemetry.ServiceName,
		"telemetry.metric_interval":       c.Telemetry.MetricInterval.String(),
	}
}

// SetupFlags declares the command-line overrides. Unset flags leave lower
// layers untouched.
func SetupFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("shukku", pflag.ContinueOnError)
	flags.String("config", "", "Path to config file")

	flags.String("server.host", "", "Server host")
	flags.Int("server.port", 0, "Server port")
	flags.String("server.public_url", "", "Public URL")
	flags.StringSlice("server.allowed_origins", nil, "Allowed CORS origins (default: any)")
	flags.String("server.static_dir", "", "Directory of static web app files to serve")
	flags.String("server.tls.mode", "", "TLS mode: off, auto, or manual")
	flags.String("server.tls.cert_file", "", "TLS certificate file (manual mode)")
	flags.String("server.tls.key_file", "", "TLS key file (manual mode)")
	flags.String("server.tls.auto.domain", "", "Domain for automatic TLS (auto mode)")
	flags.String("server.tls.auto.email", "", "Contact email for Let's Encrypt (auto mode)")
	flags.String("server.tls.auto.cache_dir", "", "Certificate cache directory (auto mode)")

	flags.String("log.level", "", "Log level: debug, info, warn, or error")
	flags.String("log.format", "", "Log format: text or json")

	flags.Duration("metadata.fetch_timeout", 0, "Per-attempt timeout for metadata fetches")
	flags.Duration("metadata.cache_ttl", 0, "How long fetched metadata stays fresh")
	flags.Bool("metadata.allow_private", false, "Allow fetching private and loopback addresses")

	flags.String("firebase.credentials_file", "", "Path to the Firebase service account JSON")
	flags.String("telemetry.otlp_endpoint", "", "OTLP/HTTP collector endpoint")
	return flags
}
