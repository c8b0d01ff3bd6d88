package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validate reports every invalid setting at once.
func Validate(cfg *Config) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	validateServer(&cfg.Server, fail)
	validateLog(&cfg.Log, fail)
	validateMetadata(&cfg.Metadata, fail)
	validateNotification(&cfg.Notification, fail)
	if cfg.RateLimit.Enabled {
		validateRateLimit("rate_limit.metadata", cfg.RateLimit.Metadata, fail)
		validateRateLimit("rate_limit.notification", cfg.RateLimit.Notification, fail)
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		if cfg.Telemetry.ServiceName == "" {
			fail("telemetry.service_name is required when otlp_endpoint is set")
		}
		if cfg.Telemetry.MetricInterval < time.Second {
			fail("telemetry.metric_interval must be at least 1s")
		}
	}

	return errors.Join(errs...)
}

type failFunc func(format string, args ...any)

func validateServer(s *ServerConfig, fail failFunc) {
	if s.Port < 1 || s.Port > 65535 {
		fail("server.port must be between 1 and 65535")
	}
	if s.PublicURL != "" {
		if _, err := url.Parse(s.PublicURL); err != nil {
			fail("server.public_url is not a valid URL: %w", err)
		}
	}
	for i, origin := range s.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			fail("server.allowed_origins[%d] %q is not a valid URL with scheme", i, origin)
		}
	}

	tls := s.TLS
	switch tls.Mode {
	case "", "off":
	case "auto":
		if tls.Auto.Domain == "" {
			fail("server.tls.auto.domain is required when tls mode is auto")
		}
		if tls.Auto.CacheDir == "" {
			fail("server.tls.auto.cache_dir is required when tls mode is auto")
		}
	case "manual":
		if tls.CertFile == "" {
			fail("server.tls.cert_file is required when tls mode is manual")
		}
		if tls.KeyFile == "" {
			fail("server.tls.key_file is required when tls mode is manual")
		}
	default:
		fail("server.tls.mode must be off, auto, or manual, got %q", tls.Mode)
	}
}

func validateLog(l *LogConfig, fail failFunc) {
	if _, ok := logLevels[l.Level]; !ok {
		fail("log.level must be debug, info, warn, or error, got %q", l.Level)
	}
	if l.Format != "text" && l.Format != "json" {
		fail("log.format must be text or json, got %q", l.Format)
	}
}

var logLevels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}

func validateMetadata(m *MetadataConfig, fail failFunc) {
	if m.FetchTimeout < 100*time.Millisecond {
		fail("metadata.fetch_timeout must be at least 100ms")
	}
	if m.MaxAttempts < 1 {
		fail("metadata.max_attempts must be at least 1")
	}
	if m.MaxBodySize < 1024 {
		fail("metadata.max_body_size must be at least 1KB")
	}
	if m.CacheTTL <= 0 {
		fail("metadata.cache_ttl must be positive")
	}
	if m.CacheSize < 1 {
		fail("metadata.cache_size must be at least 1")
	}
	if m.UpstreamRate < 0 {
		fail("metadata.upstream_rate must not be negative")
	}
	if m.UpstreamRate > 0 && m.UpstreamBurst < 1 {
		fail("metadata.upstream_burst must be at least 1 when upstream_rate is set")
	}
}

func validateNotification(n *NotificationConfig, fail failFunc) {
	for _, f := range []struct {
		key   string
		value int
	}{
		{"max_stored_tokens", n.MaxStoredTokens},
		{"min_token_length", n.MinTokenLength},
		{"member_concurrency", n.MemberConcurrency},
		{"cleanup_queue_size", n.CleanupQueueSize},
	} {
		if f.value < 1 {
			fail("notification.%s must be at least 1", f.key)
		}
	}
}

func validateRateLimit(prefix string, ep RateLimitEndpoint, fail failFunc) {
	if ep.Limit < 1 {
		fail("%s.limit must be at least 1", prefix)
	}
	if ep.Window < time.Second {
		fail("%s.window must be at least 1s", prefix)
	}
}
