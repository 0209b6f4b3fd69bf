package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.SocketPath == "" {
		t.Error("Expected non-empty socket path")
	}
	if cfg.RecordPath == "" {
		t.Error("Expected non-empty record path")
	}
	if cfg.IdleTimeout != 300*time.Second {
		t.Errorf("Expected 300s idle timeout, got %v", cfg.IdleTimeout)
	}
	if cfg.HealthInterval != 15*time.Second {
		t.Errorf("Expected 15s health interval, got %v", cfg.HealthInterval)
	}
	if cfg.FailureThreshold != 3 {
		t.Errorf("Expected failure threshold 3, got %d", cfg.FailureThreshold)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("BROWSERD_IDLE_TIMEOUT", "10m")
	t.Setenv("BROWSERD_HEALTH_INTERVAL", "30")
	t.Setenv("BROWSERD_FAILURE_THRESHOLD", "5")
	t.Setenv("BROWSERD_SOCKET", "/tmp/custom.sock")

	cfg := FromEnv()

	if cfg.IdleTimeout != 10*time.Minute {
		t.Errorf("Expected 10m idle timeout, got %v", cfg.IdleTimeout)
	}
	if cfg.HealthInterval != 30*time.Second {
		t.Errorf("Expected 30s health interval, got %v", cfg.HealthInterval)
	}
	if cfg.FailureThreshold != 5 {
		t.Errorf("Expected failure threshold 5, got %d", cfg.FailureThreshold)
	}
	if cfg.SocketPath != "/tmp/custom.sock" {
		t.Errorf("Expected custom socket path, got %s", cfg.SocketPath)
	}
}

func TestFromEnv_IgnoresGarbage(t *testing.T) {
	t.Setenv("BROWSERD_IDLE_TIMEOUT", "not-a-duration")
	t.Setenv("BROWSERD_FAILURE_THRESHOLD", "zero")

	cfg := FromEnv()
	def := Default()

	if cfg.IdleTimeout != def.IdleTimeout {
		t.Errorf("Garbage idle timeout should fall back to default, got %v", cfg.IdleTimeout)
	}
	if cfg.FailureThreshold != def.FailureThreshold {
		t.Errorf("Garbage threshold should fall back to default, got %d", cfg.FailureThreshold)
	}
}
