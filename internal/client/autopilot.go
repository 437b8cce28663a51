package client

import (
	"math"
	"math/rand"
	"time"

	"endless-runner/internal/config"
	"endless-runner/internal/game"
)

// Autopilot plays a session without a human: it jumps over obstacles
// closing in on the player's lane and drifts between lanes at random.
type Autopilot struct {
	rng          *rand.Rand
	fps          float64
	jumpDuration time.Duration

	// DriftChance is the per-frame probability of a lane change
	DriftChance float64
}

// NewAutopilot creates an autopilot for a session running at fps.
func NewAutopilot(cfg config.GameConfig, fps int, rng *rand.Rand) *Autopilot {
	if fps <= 0 {
		fps = 60
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Autopilot{
		rng:          rng,
		fps:          float64(fps),
		jumpDuration: cfg.JumpDuration,
		DriftChance:  0.01,
	}
}

// Steer issues this frame's intents. It does nothing unless the session
// is running.
func (a *Autopilot) Steer(g *game.Game, now time.Time) {
	if g.State() != game.Running {
		return
	}

	if a.threatened(g) {
		g.Jump(now)
		return
	}

	if a.rng.Float64() < a.DriftChance {
		if a.rng.Intn(2) == 0 {
			g.MoveLeft()
		} else {
			g.MoveRight()
		}
	}
}

// threatened reports whether an obstacle in the player's lane will reach
// the player within half a jump, so the arc peaks over it.
func (a *Autopilot) threatened(g *game.Game) bool {
	pos := g.Locomotion().Position()
	perSecond := g.Difficulty().Speed * a.fps
	if perSecond <= 0 {
		return false
	}
	window := perSecond * a.jumpDuration.Seconds() / 2

	reach := (game.ShapeOf(game.KindPlayer).Size.X() + game.ShapeOf(game.KindObstacle).Size.X()) / 2
	depth := (game.ShapeOf(game.KindPlayer).Size.Z() + game.ShapeOf(game.KindObstacle).Size.Z()) / 2

	for _, e := range g.Entities().Entities(game.KindObstacle) {
		if math.Abs(e.Position.X()-pos.X()) >= reach {
			continue
		}
		gap := pos.Z() - e.Position.Z() - depth
		if gap >= 0 && gap <= window {
			return true
		}
	}
	return false
}
