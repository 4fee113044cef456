package config

import (
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bakkerme/feedscan/internal/core"
)

type EnvConfig struct {
	ConfigPath string
	FlowID     string
	Log        core.LogConfig
	Feed       FeedEnvConfig
	DedupeDSN  string
	OTel       OTelEnvConfig
	SMTP       SMTPEnvConfig
}

type FeedEnvConfig struct {
	HTTPTimeout time.Duration
	UserAgent   string
	Attempts    int
	MaxBytes    int64
}

type OTelEnvConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Protocol    string // "grpc" or "http/protobuf"
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

type SMTPEnvConfig struct {
	Host               string
	Port               int
	User               string
	Password           string
	TLSMode            string
	InsecureSkipVerify bool
}

const (
	DefaultUserAgent = "feedscan/0.1 (+https://github.com/bakkerme/feedscan)"
	DefaultMaxBytes  = 10 << 20
)

func LoadEnv() EnvConfig {
	otlpEndpoint := strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""))

	return EnvConfig{
		ConfigPath: envString("FEEDSCAN_CONFIG", "feeds.json"),
		FlowID:     envString("FLOW_ID", "feedscan"),
		Log: core.LogConfig{
			Level:      envString("LOG_LEVEL", "info"),
			File:       envString("LOG_FILE", ""),
			MaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 20),
			MaxBackups: envInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 28),
		},
		Feed: FeedEnvConfig{
			HTTPTimeout: envDuration("FEED_HTTP_TIMEOUT", 20*time.Second),
			UserAgent:   envString("FEED_USER_AGENT", DefaultUserAgent),
			Attempts:    envInt("FEED_FETCH_ATTEMPTS", 3),
			MaxBytes:    int64(envInt("FEED_MAX_BYTES", DefaultMaxBytes)),
		},
		DedupeDSN: envString("DEDUPE_DSN", "feedscan.db"),
		OTel: OTelEnvConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			ServiceName: strings.TrimSpace(envString("OTEL_SERVICE_NAME", "feedscan")),
			Endpoint:    otlpEndpoint,
			Protocol:    strings.ToLower(strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			Headers:     parseHeaders(envString("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", defaultInsecure(otlpEndpoint)),
			SampleRatio: clamp01(envFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0)),
		},
		SMTP: SMTPEnvConfig{
			Host:               envString("SMTP_HOST", ""),
			Port:               envInt("SMTP_PORT", 587),
			User:               envString("SMTP_USER", ""),
			Password:           envString("SMTP_PASSWORD", ""),
			TLSMode:            envString("SMTP_TLS_MODE", ""),
			InsecureSkipVerify: envBool("SMTP_INSECURE_SKIP_VERIFY", false),
		},
	}
}

func lookupEnv[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envString(key, fallback string) string {
	return lookupEnv(key, fallback, func(s string) (string, error) { return s, nil })
}

func envBool(key string, fallback bool) bool {
	return lookupEnv(key, fallback, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		}
		return false, nil
	})
}

func envInt(key string, fallback int) int {
	return lookupEnv(key, fallback, strconv.Atoi)
}

func envFloat(key string, fallback float64) float64 {
	return lookupEnv(key, fallback, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func envDuration(key string, fallback time.Duration) time.Duration {
	return lookupEnv(key, fallback, parseDurationExtended)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// parseHeaders reads OTLP headers in "k1=v1,k2=v2" form. Pairs missing a key
// or value are skipped.
func parseHeaders(raw string) map[string]string {
	var out map[string]string
	for _, pair := range strings.Split(raw, ",") {
		k, v, _ := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}
	return out
}

// defaultInsecure is true when no endpoint is set, for http:// endpoints and
// for bare loopback host:port pairs.
func defaultInsecure(endpoint string) bool {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return true
	}
	if !strings.Contains(endpoint, "://") {
		u, err := url.Parse("//" + endpoint)
		if err != nil || u.Port() == "" {
			return false
		}
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "0.0.0.0":
			return true
		}
		return false
	}
	u, err := url.Parse(endpoint)
	return err == nil && u.Scheme == "http"
}
