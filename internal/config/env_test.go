package config

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("FEEDSCAN_CONFIG", "")
	t.Setenv("FEED_HTTP_TIMEOUT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	env := LoadEnv()
	if env.ConfigPath != "feeds.json" {
		t.Errorf("ConfigPath=%q want feeds.json", env.ConfigPath)
	}
	if env.Feed.HTTPTimeout != 20*time.Second {
		t.Errorf("HTTPTimeout=%v want 20s", env.Feed.HTTPTimeout)
	}
	if env.Feed.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent=%q", env.Feed.UserAgent)
	}
	if !env.OTel.Insecure {
		t.Errorf("expected insecure OTLP default without endpoint")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FEEDSCAN_CONFIG", "/etc/feedscan/feeds.yaml")
	t.Setenv("FEED_HTTP_TIMEOUT", "1m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "a=1, b=2,broken")
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "7")

	env := LoadEnv()
	if env.ConfigPath != "/etc/feedscan/feeds.yaml" {
		t.Errorf("ConfigPath=%q", env.ConfigPath)
	}
	if env.Feed.HTTPTimeout != time.Minute {
		t.Errorf("HTTPTimeout=%v want 1m", env.Feed.HTTPTimeout)
	}
	if env.Log.Level != "debug" {
		t.Errorf("Log.Level=%q", env.Log.Level)
	}
	if len(env.OTel.Headers) != 2 || env.OTel.Headers["b"] != "2" {
		t.Errorf("unexpected headers %v", env.OTel.Headers)
	}
	if env.OTel.SampleRatio != 1 {
		t.Errorf("expected sample ratio clamped to 1, got %v", env.OTel.SampleRatio)
	}
}

func TestDefaultInsecure(t *testing.T) {
	cases := []struct {
		endpoint string
		want     bool
	}{
		{"", true},
		{"localhost:4317", true},
		{"127.0.0.1:4318", true},
		{"collector:4317", false},
		{"http://collector:4318", true},
		{"https://otel.example.com", false},
	}
	for _, tc := range cases {
		if got := defaultInsecure(tc.endpoint); got != tc.want {
			t.Errorf("defaultInsecure(%q)=%v want %v", tc.endpoint, got, tc.want)
		}
	}
}
