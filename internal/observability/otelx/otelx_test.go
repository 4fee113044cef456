package otelx

import (
	"context"
	"errors"
	"testing"

	"github.com/bakkerme/feedscan/internal/config"
)

func TestInitDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown, err := Init(context.Background(), nil, config.OTelEnvConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("expected a non-nil shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown failed: %v", err)
	}
}

func TestInitRejectsUnknownProtocol(t *testing.T) {
	_, err := Init(context.Background(), nil, config.OTelEnvConfig{Enabled: true, Protocol: "carrier-pigeon"})
	if err == nil {
		t.Fatalf("expected error for unsupported protocol")
	}
}

func TestProtocolAndEndpointDefaults(t *testing.T) {
	cases := []struct {
		cfg          config.OTelEnvConfig
		wantProtocol string
		wantEndpoint string
	}{
		{config.OTelEnvConfig{}, "grpc", "localhost:4317"},
		{config.OTelEnvConfig{Protocol: "HTTP"}, "http/protobuf", "localhost:4318"},
		{config.OTelEnvConfig{Protocol: "grpc", Endpoint: "collector:4317"}, "grpc", "collector:4317"},
	}
	for _, tc := range cases {
		if got := protocolOf(tc.cfg); got != tc.wantProtocol {
			t.Errorf("protocolOf(%+v)=%q want %q", tc.cfg, got, tc.wantProtocol)
		}
		if got := endpointOf(tc.cfg); got != tc.wantEndpoint {
			t.Errorf("endpointOf(%+v)=%q want %q", tc.cfg, got, tc.wantEndpoint)
		}
	}
}

func TestEndSpanWithNoopTracer(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "test")
	EndSpan(span, errors.New("boom"))
}
