// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for relay, game tuning and client settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	CORSOrigins    []string // Allowed browser origins (Vite dev server by default)
	StaticFilesDir string   // Optional client build to serve; empty disables it
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
		CORSOrigins: []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		},
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		cfg.StaticFilesDir = dir
	}

	return cfg
}

// =============================================================================
// RELAY CONFIGURATION
// =============================================================================

// RelayConfig controls the websocket relay and its DoS limits.
type RelayConfig struct {
	MaxConnections       int           // Hard cap on concurrent websocket connections
	MaxConnectionsPerIP  int           // Per-IP websocket cap
	MessagesPerSecond    float64       // Inbound messages allowed per connection
	MessageBurst         int           // Inbound burst per connection
	RecentObstacleTTL    time.Duration // How long spawned obstacles stay in init snapshots
	HousekeepingInterval time.Duration // How often the relay prunes transient bookkeeping
	InboxSize            int           // Buffered commands waiting for the relay loop
	EventLogPath         string        // JSONL journal of relay events; empty disables it
}

// DefaultRelay returns the default relay configuration.
func DefaultRelay() RelayConfig {
	return RelayConfig{
		MaxConnections:       500,
		MaxConnectionsPerIP:  10,
		MessagesPerSecond:    120, // 60 FPS client with lateral steps + spawns
		MessageBurst:         240,
		RecentObstacleTTL:    10 * time.Second,
		HousekeepingInterval: time.Second,
		InboxSize:            512,
		EventLogPath:         "relay-events.jsonl",
	}
}

// RelayFromEnv returns relay configuration with environment variable overrides.
func RelayFromEnv() RelayConfig {
	cfg := DefaultRelay()

	if v := getEnvInt("MAX_CONNECTIONS", 0); v > 0 {
		cfg.MaxConnections = v
	}
	if v := getEnvInt("MAX_CONNECTIONS_PER_IP", 0); v > 0 {
		cfg.MaxConnectionsPerIP = v
	}
	if v := getEnvFloat("MESSAGES_PER_SECOND", 0); v > 0 {
		cfg.MessagesPerSecond = v
	}
	if v := getEnvDuration("RECENT_OBSTACLE_TTL", 0); v > 0 {
		cfg.RecentObstacleTTL = v
	}
	if path, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = path
	}

	return cfg
}

// =============================================================================
// GAME TUNING
// =============================================================================

// DifficultyLevel is one row of the difficulty table.
type DifficultyLevel struct {
	TimeThreshold float64       // Seconds since session start
	Speed         float64       // World units per frame
	SpawnInterval time.Duration // Obstacle wave cadence
}

// GameConfig holds every simulation constant. Shrink tolerances and spawn
// chances are tunables, not derived values.
type GameConfig struct {
	// Jump
	JumpDuration time.Duration
	JumpHeight   float64
	GroundLevel  float64

	// Lateral movement
	LateralSpeed float64 // Units per frame toward the target lane
	MaxLateral   float64 // |x| bound for the player
	LaneStep     float64 // Target change per move intent

	// World
	SpawnDistance   float64 // Z where waves appear (ahead of the player)
	DespawnDistance float64 // Z past which entities are dropped
	LaneWidth       float64 // Spawn width centred on x = 0

	// Collision
	EntityShrink float64 // Applied to obstacle and collectible boxes
	PlayerShrink float64

	// Collectibles
	CollectibleChance        float64
	SponsorCollectibleChance float64
	CollectiblePoints        int
	SponsorPoints            int
	CollectibleHeight        float64

	// Sponsor banners
	BannerSpeed      float64
	BannerY          float64
	BannerSideOffset float64
	BannerInterval   float64 // World distance between banners
	Sponsors         []string

	Difficulty []DifficultyLevel
}

// DefaultDifficulty returns the stock difficulty table.
func DefaultDifficulty() []DifficultyLevel {
	return []DifficultyLevel{
		{TimeThreshold: 0, Speed: 0.25, SpawnInterval: 500 * time.Millisecond},
		{TimeThreshold: 20, Speed: 0.28, SpawnInterval: 450 * time.Millisecond},
		{TimeThreshold: 45, Speed: 0.32, SpawnInterval: 400 * time.Millisecond},
		{TimeThreshold: 75, Speed: 0.36, SpawnInterval: 360 * time.Millisecond},
		{TimeThreshold: 120, Speed: 0.40, SpawnInterval: 330 * time.Millisecond},
	}
}

// DefaultGame returns the default simulation tuning.
func DefaultGame() GameConfig {
	return GameConfig{
		JumpDuration: 600 * time.Millisecond,
		JumpHeight:   4,
		GroundLevel:  0.1,

		LateralSpeed: 0.1,
		MaxLateral:   5,
		LaneStep:     1,

		SpawnDistance:   -30,
		DespawnDistance: 10,
		LaneWidth:       12,

		EntityShrink: 0.15,
		PlayerShrink: 0.15,

		CollectibleChance:        0.3,
		SponsorCollectibleChance: 0.1,
		CollectiblePoints:        10,
		SponsorPoints:            50,
		CollectibleHeight:        0.7,

		BannerSpeed:      0.25,
		BannerY:          2.5,
		BannerSideOffset: 8,
		BannerInterval:   25,
		Sponsors: []string{
			"dapta", "kebo", "lab10", "pelnti",
			"truora", "wiwi", "yavendio", "cronograma",
		},

		Difficulty: DefaultDifficulty(),
	}
}

// GameFromEnv returns game tuning with environment variable overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if v := getEnvFloat("ENTITY_SHRINK", -1); v >= 0 {
		cfg.EntityShrink = v
	}
	if v := getEnvFloat("COLLECTIBLE_CHANCE", -1); v >= 0 {
		cfg.CollectibleChance = v
	}
	if v := getEnvFloat("SPONSOR_COLLECTIBLE_CHANCE", -1); v >= 0 {
		cfg.SponsorCollectibleChance = v
	}

	return cfg
}

// =============================================================================
// SYNC CONFIGURATION
// =============================================================================

// SyncConfig throttles outgoing locomotion updates.
type SyncConfig struct {
	UpdatesPerSecond  float64       // Budget for continuous movement updates
	HeartbeatInterval time.Duration // Forced playerUpdate cadence while running
}

// DefaultSync returns the default sync throttle.
func DefaultSync() SyncConfig {
	return SyncConfig{
		UpdatesPerSecond:  20,
		HeartbeatInterval: 200 * time.Millisecond,
	}
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds settings for the headless runner client.
type ClientConfig struct {
	RelayURL     string
	FPS          int
	Autopilot    bool
	RestartDelay time.Duration // 0 disables auto restart
	Seed         int64         // 0 means time-based
}

// DefaultClient returns the default client configuration.
func DefaultClient() ClientConfig {
	return ClientConfig{
		RelayURL:     "ws://localhost:3000/ws",
		FPS:          60,
		Autopilot:    true,
		RestartDelay: 3 * time.Second,
	}
}

// ClientFromEnv returns client configuration with environment variable overrides.
func ClientFromEnv() ClientConfig {
	cfg := DefaultClient()

	if url := os.Getenv("RELAY_URL"); url != "" {
		cfg.RelayURL = url
	}
	if fps := getEnvInt("CLIENT_FPS", 0); fps > 0 {
		cfg.FPS = fps
	}
	if os.Getenv("AUTOPILOT") == "false" {
		cfg.Autopilot = false
	}
	if d, ok := os.LookupEnv("RESTART_DELAY"); ok {
		if parsed, err := time.ParseDuration(d); err == nil {
			cfg.RestartDelay = parsed
		}
	}
	if seed := getEnvInt("SEED", 0); seed != 0 {
		cfg.Seed = int64(seed)
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server ServerConfig
	Relay  RelayConfig
	Game   GameConfig
	Sync   SyncConfig
	Client ClientConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server: ServerFromEnv(),
		Relay:  RelayFromEnv(),
		Game:   GameFromEnv(),
		Sync:   DefaultSync(),
		Client: ClientFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
