package config

import (
	"reflect"
	"testing"
	"time"
)

// TestDefaultDifficultyOrdered verifies the stock table only ever gets harder
func TestDefaultDifficultyOrdered(t *testing.T) {
	levels := DefaultDifficulty()
	if levels[0].TimeThreshold != 0 {
		t.Fatalf("First level must start at 0s, got %v", levels[0].TimeThreshold)
	}
	for i := 1; i < len(levels); i++ {
		prev, cur := levels[i-1], levels[i]
		if cur.TimeThreshold <= prev.TimeThreshold {
			t.Errorf("Level %d threshold %v not after %v", i, cur.TimeThreshold, prev.TimeThreshold)
		}
		if cur.Speed < prev.Speed {
			t.Errorf("Level %d speed %v slower than %v", i, cur.Speed, prev.Speed)
		}
		if cur.SpawnInterval > prev.SpawnInterval {
			t.Errorf("Level %d interval %v longer than %v", i, cur.SpawnInterval, prev.SpawnInterval)
		}
	}
}

// TestLoadFromEnv verifies environment overrides reach every section
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("MAX_CONNECTIONS", "42")
	t.Setenv("RECENT_OBSTACLE_TTL", "3s")
	t.Setenv("EVENT_LOG_PATH", "")
	t.Setenv("ENTITY_SHRINK", "0")
	t.Setenv("RELAY_URL", "ws://relay:9000/ws")
	t.Setenv("AUTOPILOT", "false")
	t.Setenv("RESTART_DELAY", "0s")
	t.Setenv("SEED", "99")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.Server.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.Relay.MaxConnections != 42 {
		t.Errorf("MaxConnections = %d, want 42", cfg.Relay.MaxConnections)
	}
	if cfg.Relay.RecentObstacleTTL != 3*time.Second {
		t.Errorf("RecentObstacleTTL = %v, want 3s", cfg.Relay.RecentObstacleTTL)
	}
	if cfg.Relay.EventLogPath != "" {
		t.Errorf("EventLogPath = %q, want empty", cfg.Relay.EventLogPath)
	}
	if cfg.Game.EntityShrink != 0 {
		t.Errorf("EntityShrink = %v, want 0", cfg.Game.EntityShrink)
	}
	if cfg.Client.RelayURL != "ws://relay:9000/ws" || cfg.Client.Autopilot || cfg.Client.RestartDelay != 0 || cfg.Client.Seed != 99 {
		t.Errorf("Unexpected client config %+v", cfg.Client)
	}
}

// TestLoadIgnoresInvalidValues verifies garbage falls back to defaults
func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("MESSAGES_PER_SECOND", "-5")
	t.Setenv("RECENT_OBSTACLE_TTL", "soon")
	t.Setenv("ENTITY_SHRINK", "-1")

	cfg := Load()

	if cfg.Server.Port != DefaultServer().Port {
		t.Errorf("Port = %d, want default", cfg.Server.Port)
	}
	if cfg.Relay.MessagesPerSecond != DefaultRelay().MessagesPerSecond {
		t.Errorf("MessagesPerSecond = %v, want default", cfg.Relay.MessagesPerSecond)
	}
	if cfg.Relay.RecentObstacleTTL != DefaultRelay().RecentObstacleTTL {
		t.Errorf("RecentObstacleTTL = %v, want default", cfg.Relay.RecentObstacleTTL)
	}
	if cfg.Game.EntityShrink != DefaultGame().EntityShrink {
		t.Errorf("EntityShrink = %v, want default", cfg.Game.EntityShrink)
	}
}
