package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"endless-runner/internal/api"
	"endless-runner/internal/config"
	"endless-runner/internal/relay"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🏃 ================================")
	log.Println("🏃  ENDLESS RUNNER - RELAY")
	log.Println("🏃 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	relayCfg := appConfig.Relay
	serverCfg := appConfig.Server

	log.Printf("🛡️ Limits: %d connections, %d per IP, %.0f msg/s per connection",
		relayCfg.MaxConnections, relayCfg.MaxConnectionsPerIP, relayCfg.MessagesPerSecond)

	// Start event journal
	journal := relay.NewJournal()
	if err := journal.Start(relayCfg.EventLogPath); err != nil {
		log.Printf("⚠️ Event journal disabled: %v", err)
	} else if relayCfg.EventLogPath != "" {
		log.Printf("📝 Event journal: %s", relayCfg.EventLogPath)
	}

	// Start debug server
	api.StartDebugServer(api.DefaultObservabilityConfig())

	r := relay.New(relay.Options{
		Config:      relayCfg,
		GroundLevel: appConfig.Game.GroundLevel,
		Metrics:     api.PrometheusMetrics{},
		Journal:     journal,
	})

	server := api.NewServer(appConfig, r, journal)

	// Start API server (and the relay loop) in goroutine
	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stopStats := make(chan struct{})
	go reportJournal(journal, stopStats)

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Relay ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	close(stopStats)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Shutdown error: %v", err)
	}

	journal.Stop()
	log.Printf("📝 Journal: %s written, %s dropped",
		humanize.Comma(int64(journal.Written())), humanize.Comma(int64(journal.Dropped())))
	log.Println("👋 Goodbye!")
}

// reportJournal keeps the journal gauges current between /api/stats calls
func reportJournal(j *relay.Journal, stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			api.UpdateJournalStats(j.Written(), j.Dropped())
		}
	}
}
