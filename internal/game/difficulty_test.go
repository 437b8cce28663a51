package game

import (
	"testing"
	"time"

	"endless-runner/internal/config"
)

// TestSchedulerMonotonic verifies the level only ever moves up within a session
func TestSchedulerMonotonic(t *testing.T) {
	s := NewScheduler(config.DefaultDifficulty())
	s.Reset(t0, true)

	steps := []struct {
		name    string
		elapsed float64
		level   int
		changed bool
	}{
		{"start", 0, 0, false},
		{"just before level 1", 19.9, 0, false},
		{"level 1", 20, 1, true},
		{"same frame again", 20, 1, false},
		{"clock went backwards", 5, 1, false},
		{"skip to level 3", 80, 3, true},
		{"past the table", 500, 4, true},
		{"stays at top", 1000, 4, false},
	}

	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			_, changed := s.Update(st.elapsed, t0, true)
			if changed != st.changed {
				t.Errorf("Expected changed=%v, got %v", st.changed, changed)
			}
			if s.Level() != st.level {
				t.Errorf("Expected level %d, got %d", st.level, s.Level())
			}
		})
	}

	if got := s.Current().Speed; got != 0.40 {
		t.Errorf("Expected top speed 0.40, got %.2f", got)
	}
}

// TestSchedulerRearmsSpawnTask verifies a level change replaces the spawn cadence
func TestSchedulerRearmsSpawnTask(t *testing.T) {
	s := NewScheduler(nil)
	if s.Level() != -1 {
		t.Fatalf("Expected sentinel level -1, got %d", s.Level())
	}

	s.Reset(t0, true)
	task := s.SpawnTask()
	if !task.Armed() || task.Interval() != 500*time.Millisecond {
		t.Fatalf("Expected armed task at 500ms, got armed=%v interval=%s", task.Armed(), task.Interval())
	}

	s.Update(45, t0.Add(45*time.Second), true)
	if task.Interval() != 400*time.Millisecond {
		t.Errorf("Expected 400ms after level 2, got %s", task.Interval())
	}

	s.Stop()
	if task.Armed() {
		t.Error("Stop should cancel the spawn task")
	}

	// Not running: the level advances but nothing is armed
	s.Reset(t0, false)
	s.Update(20, t0, false)
	if task.Armed() {
		t.Error("Spawn task should stay cancelled while not running")
	}
	if s.Level() != 1 {
		t.Errorf("Expected level 1, got %d", s.Level())
	}
}

// TestSpawnTaskDue verifies fire timing and the catch-up skip
func TestSpawnTaskDue(t *testing.T) {
	var task SpawnTask
	if task.Due(t0) {
		t.Fatal("Unarmed task must not fire")
	}

	task.Arm(t0, 100*time.Millisecond)

	checks := []struct {
		at   time.Duration
		want bool
	}{
		{50 * time.Millisecond, false},
		{100 * time.Millisecond, true},
		{100 * time.Millisecond, false},
		{200 * time.Millisecond, true},
		// Stalled for a second: one fire, no burst
		{1200 * time.Millisecond, true},
		{1200 * time.Millisecond, false},
		{1250 * time.Millisecond, false},
		{1300 * time.Millisecond, true},
	}
	for i, c := range checks {
		if got := task.Due(t0.Add(c.at)); got != c.want {
			t.Errorf("check %d at %s: expected %v, got %v", i, c.at, c.want, got)
		}
	}
	if task.Fired() != 4 {
		t.Errorf("Expected 4 fires, got %d", task.Fired())
	}

	task.Cancel()
	if task.Due(t0.Add(time.Hour)) {
		t.Error("Cancelled task must not fire")
	}

	task.Arm(t0, 0)
	if task.Armed() {
		t.Error("Zero interval should leave the task disarmed")
	}
}
