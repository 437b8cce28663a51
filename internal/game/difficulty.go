package game

import (
	"log"
	"time"

	"endless-runner/internal/config"
)

// Difficulty is the active world speed and obstacle cadence.
type Difficulty struct {
	Speed         float64
	SpawnInterval time.Duration
}

// Scheduler picks the difficulty level from elapsed session time and owns
// the spawn task, so every cadence change goes through one place.
type Scheduler struct {
	levels  []config.DifficultyLevel
	index   int
	current Difficulty
	spawn   SpawnTask
}

// NewScheduler creates a scheduler over an ordered difficulty table.
// An empty table falls back to the default one.
func NewScheduler(levels []config.DifficultyLevel) *Scheduler {
	if len(levels) == 0 {
		levels = config.DefaultDifficulty()
	}
	return &Scheduler{
		levels:  levels,
		index:   -1,
		current: Difficulty{Speed: levels[0].Speed, SpawnInterval: levels[0].SpawnInterval},
	}
}

// Level returns the active level index (-1 before the first Reset).
func (s *Scheduler) Level() int {
	return s.index
}

// Current returns the active difficulty.
func (s *Scheduler) Current() Difficulty {
	return s.current
}

// SpawnTask exposes the spawn schedule owned by the scheduler.
func (s *Scheduler) SpawnTask() *SpawnTask {
	return &s.spawn
}

// Reset drops back below level 0 and immediately advances to it.
// With running set the spawn task is re-armed at level 0's cadence.
func (s *Scheduler) Reset(now time.Time, running bool) {
	s.index = -1
	s.Update(0, now, running)
}

// Stop cancels the spawn task.
func (s *Scheduler) Stop() {
	s.spawn.Cancel()
}

// Update selects the highest level whose threshold does not exceed elapsed.
// Only a higher level than the recorded one changes anything, which keeps
// the call idempotent when made every frame.
func (s *Scheduler) Update(elapsedSeconds float64, now time.Time, running bool) (Difficulty, bool) {
	level := s.index
	for i := len(s.levels) - 1; i >= 0; i-- {
		if elapsedSeconds >= s.levels[i].TimeThreshold {
			level = i
			break
		}
	}

	if level <= s.index {
		return s.current, false
	}

	s.index = level
	settings := s.levels[level]
	s.current = Difficulty{Speed: settings.Speed, SpawnInterval: settings.SpawnInterval}
	if level > 0 {
		log.Printf("📈 Difficulty level %d at %.1fs (speed %.2f, spawn every %s)",
			level, elapsedSeconds, settings.Speed, settings.SpawnInterval)
	}

	if running {
		s.spawn.Arm(now, s.current.SpawnInterval)
	}
	return s.current, true
}
