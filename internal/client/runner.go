package client

import (
	"context"
	"errors"
	"log"
	"time"

	"endless-runner/internal/config"
	"endless-runner/internal/game"
	"endless-runner/internal/protocol"
)

// RunnerOptions wires a Runner. Link and Pilot are optional.
type RunnerOptions struct {
	Config config.ClientConfig
	Game   *game.Game
	Link   *Link
	Pilot  *Autopilot

	// Events overrides Link.Events, mainly for tests.
	Events <-chan protocol.ServerEvent
}

// Runner owns the frame goroutine. Every call into the game happens here.
type Runner struct {
	cfg    config.ClientConfig
	game   *game.Game
	link   *Link
	pilot  *Autopilot
	events <-chan protocol.ServerEvent

	overAt   time.Time
	restarts int
}

// NewRunner creates a runner.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Config.FPS <= 0 {
		opts.Config.FPS = config.DefaultClient().FPS
	}
	if opts.Events == nil && opts.Link != nil {
		opts.Events = opts.Link.Events
	}
	return &Runner{
		cfg:    opts.Config,
		game:   opts.Game,
		link:   opts.Link,
		pilot:  opts.Pilot,
		events: opts.Events,
	}
}

// Restarts returns how many sessions were started after a game over.
func (r *Runner) Restarts() int { return r.restarts }

// Run loads templates, starts the session, joins the relay and ticks the
// frame loop until ctx is cancelled. The session is already running when
// the relay's init arrives, so recent obstacles are placed. A relay that
// cannot be reached is logged and the game is played offline.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.game.Load(ctx); err != nil {
		return err
	}
	if err := r.game.Start(time.Now()); err != nil {
		return err
	}

	if r.link != nil {
		if err := r.link.Connect(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Printf("⚠️ Relay unreachable, playing offline: %v", err)
		}
		defer r.link.Close()
	}

	ticker := time.NewTicker(time.Second / time.Duration(r.cfg.FPS))
	defer ticker.Stop()

	log.Printf("🎮 Runner started at %d FPS", r.cfg.FPS)

	for {
		select {
		case <-ctx.Done():
			log.Printf("🛑 Runner stopped after %d frames (score %d)", r.game.Frames(), r.game.Score())
			return nil
		case now := <-ticker.C:
			r.Step(now)
		}
	}
}

// Step runs one frame: apply relay events received since the last frame,
// steer, simulate, then handle auto restart.
func (r *Runner) Step(now time.Time) {
	r.drain()

	if r.pilot != nil {
		r.pilot.Steer(r.game, now)
	}
	r.game.Frame(now)

	if r.game.State() != game.GameOver {
		r.overAt = time.Time{}
		return
	}
	if r.overAt.IsZero() {
		r.overAt = now
	}
	if r.cfg.RestartDelay > 0 && now.Sub(r.overAt) >= r.cfg.RestartDelay {
		if err := r.game.Restart(now); err != nil {
			log.Printf("⚠️ Restart failed: %v", err)
			return
		}
		r.restarts++
		r.overAt = time.Time{}
	}
}

func (r *Runner) drain() {
	if r.events == nil {
		return
	}
	for {
		select {
		case ev := <-r.events:
			r.game.Apply(ev)
		default:
			return
		}
	}
}
