package scene

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"testing"
	"time"

	"endless-runner/internal/config"
	"endless-runner/internal/game"

	"github.com/go-gl/mathgl/mgl64"
)

// TestRecorderLifecycle verifies handles are tracked until removed
func TestRecorderLifecycle(t *testing.T) {
	r := NewRecorder()
	tpl := Template{kind: game.KindObstacle}

	h := r.Spawn(tpl, mgl64.Vec3{1, 0, -30})
	if h == 0 {
		t.Fatal("Spawn returned the zero handle")
	}
	r.Move(h, mgl64.Vec3{1, 0, -29})
	r.SetTint(h, 0x123456)
	r.SetVisible(h, false)

	n, ok := r.Node(h)
	if !ok {
		t.Fatal("Node missing after spawn")
	}
	if n.Position.Z() != -29 || n.Tint != 0x123456 || n.Visible {
		t.Errorf("Unexpected node state %+v", n)
	}
	if r.Count(game.KindObstacle) != 1 {
		t.Errorf("Expected 1 obstacle, got %d", r.Count(game.KindObstacle))
	}

	r.Remove(h)
	r.Remove(h)
	r.Move(h, mgl64.Vec3{})
	if _, ok := r.Node(h); ok {
		t.Error("Node should be gone after remove")
	}
	spawned, removed := r.Stats()
	if spawned != 1 || removed != 1 {
		t.Errorf("Expected 1/1 spawned/removed, got %d/%d", spawned, removed)
	}
}

// TestStaticAssets verifies missing templates and cancellation
func TestStaticAssets(t *testing.T) {
	assets := StaticAssets{Missing: map[game.Kind]bool{game.KindSponsorBanner: true}}

	tpl, err := assets.Template(context.Background(), game.KindPlayer)
	if err != nil || tpl.Kind() != game.KindPlayer {
		t.Fatalf("Expected player template, got %v, %v", tpl, err)
	}
	if _, err := assets.Template(context.Background(), game.KindSponsorBanner); err == nil {
		t.Error("Expected error for missing template")
	}

	slow := StaticAssets{Delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := slow.Template(ctx, game.KindObstacle); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestLogHUD verifies the HUD keeps the latest values
func TestLogHUD(t *testing.T) {
	var buf bytes.Buffer
	hud := NewLogHUD(log.New(&buf, "", 0))

	hud.UpdateScore(1250)
	hud.UpdatePlayerCount(3)
	hud.SponsorCollected("dapta")
	hud.SponsorCollected("dapta")
	hud.ShowGameOver(true)

	snap := hud.Snapshot()
	if snap.Score != 1250 || snap.Players != 3 || !snap.GameOver || snap.Sponsors["dapta"] != 2 {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
	hud.UpdateScore(0)
	if got := hud.Snapshot(); got.Score != 0 || got.Best != 1250 {
		t.Errorf("Expected score reset with best 1250, got %+v", got)
	}
	if !strings.Contains(buf.String(), "1,250") {
		t.Errorf("Expected humanized score in log, got %q", buf.String())
	}
}

// TestHeadlessSession runs a full session against the headless collaborators
func TestHeadlessSession(t *testing.T) {
	rec := NewRecorder()
	hud := NewLogHUD(log.New(&bytes.Buffer{}, "", 0))
	g := game.NewGame(game.Options{
		Config: config.DefaultGame(),
		Sync:   config.DefaultSync(),
		Scene:  rec,
		Assets: StaticAssets{},
		HUD:    hud,
		Rand:   rand.New(rand.NewSource(42)),
	})

	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec.Count(game.KindPlayer) != 1 {
		t.Fatalf("Expected the local player visual, got %d", rec.Count(game.KindPlayer))
	}

	start := time.Unix(0, 0)
	if err := g.Start(start); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	now := start
	for i := 0; i < 600 && g.State() == game.Running; i++ {
		now = now.Add(time.Second / 60)
		g.Frame(now)
	}

	if g.Frames() == 0 {
		t.Fatal("No frames simulated")
	}
	if rec.Count(game.KindObstacle) != g.Entities().Count(game.KindObstacle) {
		t.Errorf("Scene and manager disagree: %d visuals vs %d obstacles",
			rec.Count(game.KindObstacle), g.Entities().Count(game.KindObstacle))
	}
	spawned, _ := rec.Stats()
	if spawned < 2 {
		t.Errorf("Expected waves to be spawned, got %d visuals", spawned)
	}
}
