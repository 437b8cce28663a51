package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"endless-runner/internal/client"
	"endless-runner/internal/config"
	"endless-runner/internal/game"
	"endless-runner/internal/scene"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	appConfig := config.Load()
	clientCfg := appConfig.Client

	seed := clientCfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	log.Printf("🎲 Seed %d, %d FPS, relay %s", seed, clientCfg.FPS, clientCfg.RelayURL)

	rec := scene.NewRecorder()
	hud := scene.NewLogHUD(nil)
	link := client.NewLink(clientCfg.RelayURL)

	g := game.NewGame(game.Options{
		Config: appConfig.Game,
		Sync:   appConfig.Sync,
		FPS:    clientCfg.FPS,
		Scene:  rec,
		Assets: scene.StaticAssets{},
		HUD:    hud,
		Link:   link,
		Rand:   rng,
	})

	var pilot *client.Autopilot
	if clientCfg.Autopilot {
		pilot = client.NewAutopilot(appConfig.Game, clientCfg.FPS, rand.New(rand.NewSource(rng.Int63())))
	} else {
		log.Println("⚠️ Autopilot disabled, the runner will idle until it hits something")
	}

	runner := client.NewRunner(client.RunnerOptions{
		Config: clientCfg,
		Game:   g,
		Link:   link,
		Pilot:  pilot,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		log.Fatalf("Runner failed: %v", err)
	}

	spawned, _ := rec.Stats()
	snap := hud.Snapshot()
	log.Printf("📊 %s frames, %s visuals spawned, %d restarts, best score %s",
		humanize.Comma(int64(g.Frames())), humanize.Comma(int64(spawned)),
		runner.Restarts(), humanize.Comma(int64(snap.Best)))
	log.Println("👋 Goodbye!")
}
