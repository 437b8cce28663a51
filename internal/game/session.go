package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"endless-runner/internal/config"
	"endless-runner/internal/protocol"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"golang.org/x/time/rate"
)

// State is the session lifecycle.
type State int

const (
	Loading State = iota
	Running
	GameOver
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Running:
		return "running"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

var (
	// ErrNotLoaded is returned when starting before templates are loaded.
	ErrNotLoaded = errors.New("game: templates not loaded")
	// ErrNotLoading is returned when Load is called twice.
	ErrNotLoading = errors.New("game: not in loading state")
	// ErrNotOver is returned when restarting a session that has not ended.
	ErrNotOver = errors.New("game: session not over")
)

// Options wires a Game to its collaborators. Only Config is required;
// missing collaborators fall back to no-ops.
type Options struct {
	Config config.GameConfig
	Sync   config.SyncConfig
	FPS    int // Frame rate used to age obstacles received in init

	Scene  Scene
	Assets AssetProvider
	HUD    HUD
	Link   Link

	Rand  *rand.Rand
	NewID IDGenerator
}

// Game coordinates one local player's session: difficulty, locomotion,
// entities and the remote view of other players. All methods must be
// called from the frame goroutine.
type Game struct {
	cfg  config.GameConfig
	sync config.SyncConfig
	fps  int

	scene  Scene
	assets AssetProvider
	hud    HUD
	link   Link

	state     State
	loaded    bool
	scheduler *Scheduler
	loco      *Locomotion
	entities  *Manager

	playerTpl    Template
	playerHandle Handle
	selfID       string
	avatars      map[string]*Avatar

	score        int
	startedAt    time.Time
	throttle     *rate.Limiter
	lastSync     time.Time
	gameOverSent bool
	linkDown     bool
	frames       uint64
}

// NewGame creates a session in the Loading state.
func NewGame(opts Options) *Game {
	if opts.HUD == nil {
		opts.HUD = nopHUD{}
	}
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.Sync.UpdatesPerSecond <= 0 {
		opts.Sync = config.DefaultSync()
	}

	return &Game{
		cfg:       opts.Config,
		sync:      opts.Sync,
		fps:       opts.FPS,
		scene:     opts.Scene,
		assets:    opts.Assets,
		hud:       opts.HUD,
		link:      opts.Link,
		state:     Loading,
		scheduler: NewScheduler(opts.Config.Difficulty),
		loco:      NewLocomotion(opts.Config),
		entities:  NewManager(opts.Config, opts.Scene, opts.Rand, opts.NewID),
		avatars:   make(map[string]*Avatar),
		throttle:  rate.NewLimiter(rate.Limit(opts.Sync.UpdatesPerSecond), 1),
	}
}

// State returns the lifecycle state.
func (g *Game) State() State { return g.state }

// Score returns the current session score.
func (g *Game) Score() int { return g.score }

// Level returns the active difficulty level.
func (g *Game) Level() int { return g.scheduler.Level() }

// Difficulty returns the active speed and spawn cadence.
func (g *Game) Difficulty() Difficulty { return g.scheduler.Current() }

// SpawnTask exposes the obstacle spawn schedule.
func (g *Game) SpawnTask() *SpawnTask { return g.scheduler.SpawnTask() }

// Entities exposes the entity manager.
func (g *Game) Entities() *Manager { return g.entities }

// Locomotion exposes the local player's movement model.
func (g *Game) Locomotion() *Locomotion { return g.loco }

// SelfID returns the id assigned by the relay, empty while offline.
func (g *Game) SelfID() string { return g.selfID }

// Frames returns how many running frames have been simulated.
func (g *Game) Frames() uint64 { return g.frames }

// Load fetches every visual template. It is the only blocking step of a
// session; on failure the game stays in Loading.
func (g *Game) Load(ctx context.Context) error {
	if g.state != Loading || g.loaded {
		return ErrNotLoading
	}
	g.hud.ShowLoading(true)
	defer g.hud.ShowLoading(false)

	if g.assets != nil {
		for _, k := range AllKinds {
			tpl, err := g.assets.Template(ctx, k)
			if err != nil {
				return fmt.Errorf("load %s template: %w", k, err)
			}
			if k == KindPlayer {
				g.playerTpl = tpl
				continue
			}
			g.entities.SetTemplate(tpl)
		}
	}

	if g.scene != nil && g.playerTpl != nil {
		g.playerHandle = g.scene.Spawn(g.playerTpl, g.loco.Position())
	}
	g.loaded = true
	log.Printf("📦 Loaded %d templates", len(AllKinds))
	return nil
}

// Start enters Running for the first time.
func (g *Game) Start(now time.Time) error {
	if !g.loaded {
		return ErrNotLoaded
	}
	if g.state == Running {
		return nil
	}
	g.begin(now)
	return nil
}

// Restart starts a new session after a game over.
func (g *Game) Restart(now time.Time) error {
	if g.state != GameOver {
		return ErrNotOver
	}
	g.send(protocol.EvPlayerRestart, nil)
	g.begin(now)
	return nil
}

func (g *Game) begin(now time.Time) {
	g.score = 0
	g.hud.UpdateScore(0)
	g.hud.ShowGameOver(false)

	g.entities.Clear()
	g.loco.Reset()
	if g.playerHandle != 0 {
		g.scene.Move(g.playerHandle, g.loco.Position())
		g.scene.SetVisible(g.playerHandle, true)
	}

	g.startedAt = now
	g.gameOverSent = false
	g.state = Running
	g.scheduler.Reset(now, true)

	g.syncPosition(now)
	log.Printf("🏁 Session started (spawn every %s)", g.scheduler.Current().SpawnInterval)
}

// Jump is the jump intent. Ignored unless running.
func (g *Game) Jump(now time.Time) {
	if c := g.loco.Jump(now, g.state == Running); c != 0 {
		g.syncPosition(now)
	}
}

// MoveLeft is the lane-left intent. Ignored unless running.
func (g *Game) MoveLeft() { g.loco.MoveLeft(g.state == Running) }

// MoveRight is the lane-right intent. Ignored unless running.
func (g *Game) MoveRight() { g.loco.MoveRight(g.state == Running) }

// Frame advances the simulation by one frame. Nothing moves outside Running.
func (g *Game) Frame(now time.Time) {
	if g.state != Running {
		return
	}
	g.frames++

	g.scheduler.Update(now.Sub(g.startedAt).Seconds(), now, true)

	change := g.loco.Update(now)
	if g.playerHandle != 0 && change != 0 {
		g.scene.Move(g.playerHandle, g.loco.Position())
	}
	g.syncLocomotion(now, change)

	if g.scheduler.SpawnTask().Due(now) {
		g.spawnWave()
	}

	res := g.entities.Advance(g.scheduler.Current().Speed, g.PlayerBox())
	if res.Hit != nil {
		g.gameOver(now, res.Hit)
		return
	}

	for _, c := range res.Collected {
		g.score += c.Points
		g.hud.UpdateScore(g.score)
		if c.Kind == KindSponsorCollectible {
			g.hud.SponsorCollected(c.Sponsor)
			g.send(protocol.EvSponsorCollectibleCollected, c.ID)
		} else {
			g.send(protocol.EvCollectibleCollected, c.ID)
		}
	}
}

// PlayerBox is the local player's collision volume this frame.
func (g *Game) PlayerBox() Box {
	return ShapeOf(KindPlayer).BoxAt(g.loco.Position()).Shrink(g.cfg.PlayerShrink)
}

func (g *Game) spawnWave() {
	w := g.entities.SpawnWave()
	for _, e := range w.Obstacles {
		g.send(protocol.EvObstacleSpawn, protocol.ObstacleSpawn{ID: e.ID, Position: toWire(e.Position)})
	}
}

func (g *Game) gameOver(now time.Time, hit *Entity) {
	g.state = GameOver
	g.scheduler.Stop()
	if g.playerHandle != 0 {
		g.scene.SetVisible(g.playerHandle, false)
	}
	g.hud.ShowGameOver(true)

	if !g.gameOverSent {
		g.gameOverSent = true
		g.send(protocol.EvGameOver, nil)
	}

	survived := durafmt.Parse(now.Sub(g.startedAt).Round(time.Millisecond)).LimitFirstN(2)
	log.Printf("💀 Game over after %s: score %s, level %d, hit %s obstacle %s",
		survived, humanize.Comma(int64(g.score)), g.scheduler.Level(), originName(hit.Origin), hit.ID)
}

// syncLocomotion decides whether a locomotion change goes on the wire.
// Discrete transitions always do; continuous motion is throttled, and a
// heartbeat keeps peers fresh while nothing changes.
func (g *Game) syncLocomotion(now time.Time, change Change) {
	switch {
	case change.Discrete():
		g.syncPosition(now)
	case change != 0 && g.throttle.AllowN(now, 1):
		g.syncPosition(now)
	case now.Sub(g.lastSync) >= g.sync.HeartbeatInterval:
		g.syncPosition(now)
	}
}

func (g *Game) syncPosition(now time.Time) {
	g.lastSync = now
	g.send(protocol.EvPlayerUpdate, protocol.PlayerUpdate{
		Position:  toWire(g.loco.Position()),
		IsJumping: g.loco.IsJumping(),
	})
}

// send forwards an event to the relay. A down link is logged once per
// outage and the session keeps running locally.
func (g *Game) send(event string, payload any) {
	if g.link == nil {
		return
	}
	if err := g.link.Send(event, payload); err != nil {
		if !g.linkDown {
			log.Printf("⚠️ Relay unavailable, playing locally: %v", err)
			g.linkDown = true
		}
		return
	}
	g.linkDown = false
}

func originName(o Origin) string {
	if o == OriginRemote {
		return "remote"
	}
	return "local"
}
