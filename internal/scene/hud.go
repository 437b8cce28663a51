package scene

import (
	"log"
	"sync"

	"github.com/dustin/go-humanize"
)

// LogHUD is a HUD that writes presentation changes to a logger and keeps
// the latest values for inspection.
type LogHUD struct {
	logger *log.Logger

	mu       sync.Mutex
	score    int
	best     int
	players  int
	loading  bool
	over     bool
	sponsors map[string]int
}

// NewLogHUD creates a HUD. A nil logger uses log.Default().
func NewLogHUD(logger *log.Logger) *LogHUD {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHUD{logger: logger, players: 1, sponsors: make(map[string]int)}
}

func (h *LogHUD) ShowLoading(loading bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if loading && !h.loading {
		h.logger.Printf("⏳ Loading assets...")
	}
	h.loading = loading
}

// UpdateScore only logs every hundred points to keep the output readable.
func (h *LogHUD) UpdateScore(score int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if score/100 > h.score/100 {
		h.logger.Printf("⭐ Score %s", humanize.Comma(int64(score)))
	}
	h.score = score
	h.best = max(h.best, score)
}

func (h *LogHUD) UpdatePlayerCount(count int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if count != h.players {
		h.logger.Printf("👥 %d players online", count)
	}
	h.players = count
}

func (h *LogHUD) ShowGameOver(over bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.over = over
}

func (h *LogHUD) SponsorCollected(sponsor string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sponsors[sponsor]++
	h.logger.Printf("🎁 Collected %s for the %s time", sponsor, humanize.Ordinal(h.sponsors[sponsor]))
}

// Snapshot is the HUD's current content.
type Snapshot struct {
	Score    int
	Best     int // Highest score across sessions
	Players  int
	Loading  bool
	GameOver bool
	Sponsors map[string]int
}

// Snapshot returns a copy of what the HUD currently shows.
func (h *LogHUD) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	sponsors := make(map[string]int, len(h.sponsors))
	for k, v := range h.sponsors {
		sponsors[k] = v
	}
	return Snapshot{Score: h.score, Best: h.best, Players: h.players, Loading: h.loading, GameOver: h.over, Sponsors: sponsors}
}
