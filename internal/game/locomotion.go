package game

import (
	"math"
	"time"

	"endless-runner/internal/config"

	"github.com/go-gl/mathgl/mgl64"
)

// LocoState is the vertical state of the local player.
type LocoState int

const (
	Grounded LocoState = iota
	Jumping
)

// Change is a bit set describing what an update altered.
type Change uint8

const (
	ChangeJumpStart Change = 1 << iota
	ChangeJumpArc
	ChangeJumpEnd
	ChangeLateralStep
	ChangeLateralSnap
)

// Discrete reports whether the change contains a state transition that must
// always be synced (as opposed to continuous motion that may be throttled).
func (c Change) Discrete() bool {
	return c&(ChangeJumpStart|ChangeJumpEnd|ChangeLateralSnap) != 0
}

// Locomotion is the jump and lane-change model of the local player.
// Remote players never run through it.
type Locomotion struct {
	jumpDuration time.Duration
	jumpHeight   float64
	groundLevel  float64
	lateralSpeed float64
	maxLateral   float64
	laneStep     float64

	pos       mgl64.Vec3
	target    float64
	state     LocoState
	jumpStart time.Time
}

// NewLocomotion creates a grounded player at the centre lane.
func NewLocomotion(cfg config.GameConfig) *Locomotion {
	l := &Locomotion{
		jumpDuration: cfg.JumpDuration,
		jumpHeight:   cfg.JumpHeight,
		groundLevel:  cfg.GroundLevel,
		lateralSpeed: cfg.LateralSpeed,
		maxLateral:   cfg.MaxLateral,
		laneStep:     cfg.LaneStep,
	}
	l.Reset()
	return l
}

// Reset puts the player back on the ground at x = 0.
func (l *Locomotion) Reset() {
	l.pos = mgl64.Vec3{0, l.groundLevel, 0}
	l.target = 0
	l.state = Grounded
	l.jumpStart = time.Time{}
}

// Position returns the current world position.
func (l *Locomotion) Position() mgl64.Vec3 { return l.pos }

// LateralTarget returns the lane the player is moving toward.
func (l *Locomotion) LateralTarget() float64 { return l.target }

// IsJumping reports whether the player is airborne.
func (l *Locomotion) IsJumping() bool { return l.state == Jumping }

// Jump starts a jump if the session is running and the player is grounded.
func (l *Locomotion) Jump(now time.Time, running bool) Change {
	if !running || l.state == Jumping {
		return 0
	}
	l.state = Jumping
	l.jumpStart = now
	return ChangeJumpStart
}

// MoveLeft shifts the target one lane left, bounded by the lateral limit.
func (l *Locomotion) MoveLeft(running bool) {
	if running {
		l.target = math.Max(l.target-l.laneStep, -l.maxLateral)
	}
}

// MoveRight shifts the target one lane right, bounded by the lateral limit.
func (l *Locomotion) MoveRight(running bool) {
	if running {
		l.target = math.Min(l.target+l.laneStep, l.maxLateral)
	}
}

// JumpOffset returns the height above ground at a point in the jump arc.
func (l *Locomotion) JumpOffset(sinceStart time.Duration) float64 {
	progress := float64(sinceStart) / float64(l.jumpDuration)
	if progress <= 0 || progress >= 1 {
		return l.groundLevel
	}
	return l.groundLevel + math.Sin(progress*math.Pi)*l.jumpHeight
}

// Update advances the jump arc and lateral movement for one frame.
func (l *Locomotion) Update(now time.Time) Change {
	return l.updateJump(now) | l.updateLateral()
}

func (l *Locomotion) updateJump(now time.Time) Change {
	if l.state != Jumping {
		return 0
	}
	since := now.Sub(l.jumpStart)
	if since >= l.jumpDuration {
		l.pos[1] = l.groundLevel
		l.state = Grounded
		return ChangeJumpEnd
	}
	l.pos[1] = l.JumpOffset(since)
	return ChangeJumpArc
}

func (l *Locomotion) updateLateral() Change {
	x := l.pos[0]
	delta := l.target - x

	if math.Abs(delta) < l.lateralSpeed {
		if x != l.target {
			l.pos[0] = l.target
			return ChangeLateralSnap
		}
		return 0
	}

	step := math.Copysign(l.lateralSpeed, delta)
	l.pos[0] = mgl64.Clamp(x+step, -l.maxLateral, l.maxLateral)
	return ChangeLateralStep
}
