package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/duskroll/internal/platform/otel"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("DUSKROLL_OTEL_ENDPOINT", "")

	settings, err := otel.LoadSettings()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if !settings.Enabled {
		t.Fatal("expected tracing enabled by default")
	}
	if settings.Endpoint != "" {
		t.Fatalf("endpoint = %q, want empty", settings.Endpoint)
	}
}

func TestLoadSettingsRejectsBadBool(t *testing.T) {
	t.Setenv("DUSKROLL_OTEL_ENABLED", "sometimes")

	if _, err := otel.LoadSettings(); err == nil {
		t.Fatal("expected parse error for invalid bool")
	}
}

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), "test-service", otel.Settings{Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupNoopWhenExplicitlyDisabled(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), "test-service", otel.Settings{
		Endpoint: "http://localhost:4318",
		Enabled:  false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no export actually happens.
	shutdown, err := otel.Setup(context.Background(), "test-service", otel.Settings{
		Endpoint: "http://192.0.2.1:4318",
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
