package relay

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	JournalBufferSize    = 1024                   // Pending entries before drops
	MaxEntriesPerSec     = 2000                   // Global rate limit
	MaxEntriesPerPlayer  = 50                     // Per-player rate limit per second
	JournalFlushSize     = 64                     // Entries per batch write
	JournalFlushInterval = 100 * time.Millisecond // How often to flush
	PlayerLimiterCleanup = 5 * time.Minute        // Cleanup interval for player limiters
	journalEntryVersion  = 1
)

// EntryKind classifies journal entries.
type EntryKind string

const (
	EntryJoin     EntryKind = "join"
	EntryLeave    EntryKind = "leave"
	EntryGameOver EntryKind = "game_over"
	EntryRestart  EntryKind = "restart"
	EntryObstacle EntryKind = "obstacle"
	EntryDropped  EntryKind = "send_failed"
)

// Entry is one line of the relay journal.
type Entry struct {
	Version  uint8     `json:"version"`
	Kind     EntryKind `json:"kind"`
	Time     int64     `json:"ts"` // Unix milli
	Sequence uint64    `json:"seq"`
	PlayerID string    `json:"playerId,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Journal is a bounded, rate-limited append-only JSONL log of relay
// activity. Emit never blocks the relay goroutine: when the buffer is full
// or a limiter trips, the entry is counted as dropped.
type Journal struct {
	entries chan Entry

	globalLimiter  *rate.Limiter
	playerLimiters sync.Map // map[string]*playerLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	file   *os.File
	fileMu sync.Mutex

	sequence     atomic.Uint64
	droppedCount atomic.Uint64
	writtenCount atomic.Uint64
}

// playerLimiterEntry tracks per-player rate limiting
type playerLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64
}

// NewJournal creates a stopped journal.
func NewJournal() *Journal {
	return &Journal{
		entries:       make(chan Entry, JournalBufferSize),
		globalLimiter: rate.NewLimiter(MaxEntriesPerSec, MaxEntriesPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens filePath for append and begins the writer goroutines.
// An empty path keeps counting entries without writing them anywhere.
func (j *Journal) Start(filePath string) error {
	if j.running.Load() {
		return nil
	}

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		j.file = file
	}

	j.running.Store(true)
	j.writerWg.Add(2)
	go j.writerLoop()
	go j.cleanupLoop()
	return nil
}

// Stop flushes pending entries and closes the file.
func (j *Journal) Stop() {
	j.stopOnce.Do(func() {
		if !j.running.Load() {
			return
		}
		j.running.Store(false)
		close(j.stopChan)
		j.writerWg.Wait()

		j.fileMu.Lock()
		if j.file != nil {
			j.file.Close()
		}
		j.fileMu.Unlock()
	})
}

// Emit queues an entry. Returns false if rate limited or the buffer is full.
func (j *Journal) Emit(kind EntryKind, playerID, detail string) bool {
	if j == nil || !j.running.Load() {
		return false
	}

	if !j.globalLimiter.Allow() {
		j.droppedCount.Add(1)
		return false
	}
	if playerID != "" && !j.playerLimiter(playerID).Allow() {
		j.droppedCount.Add(1)
		return false
	}

	e := Entry{
		Version:  journalEntryVersion,
		Kind:     kind,
		Time:     time.Now().UnixMilli(),
		Sequence: j.sequence.Add(1),
		PlayerID: playerID,
		Detail:   detail,
	}

	select {
	case j.entries <- e:
		return true
	default:
		j.droppedCount.Add(1)
		return false
	}
}

func (j *Journal) playerLimiter(playerID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := j.playerLimiters.Load(playerID); ok {
		e := v.(*playerLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &playerLimiterEntry{limiter: rate.NewLimiter(MaxEntriesPerPlayer, MaxEntriesPerPlayer/10)}
	entry.lastUsed.Store(now)
	actual, _ := j.playerLimiters.LoadOrStore(playerID, entry)
	return actual.(*playerLimiterEntry).limiter
}

// writerLoop batches entries and appends them to disk
func (j *Journal) writerLoop() {
	defer j.writerWg.Done()

	ticker := time.NewTicker(JournalFlushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, JournalFlushSize)
	for {
		select {
		case <-j.stopChan:
			for {
				batch = j.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				j.flushBatch(batch)
			}
		case <-ticker.C:
			batch = j.collectBatch(batch[:0])
			if len(batch) > 0 {
				j.flushBatch(batch)
			}
		}
	}
}

// cleanupLoop removes stale player limiters to prevent memory leak
func (j *Journal) cleanupLoop() {
	defer j.writerWg.Done()

	ticker := time.NewTicker(PlayerLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-PlayerLimiterCleanup).UnixNano()
			j.playerLimiters.Range(func(key, value any) bool {
				if value.(*playerLimiterEntry).lastUsed.Load() < cutoff {
					j.playerLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (j *Journal) collectBatch(batch []Entry) []Entry {
	for len(batch) < JournalFlushSize {
		select {
		case e := <-j.entries:
			batch = append(batch, e)
		default:
			return batch
		}
	}
	return batch
}

// flushBatch writes entries as newline-delimited JSON
func (j *Journal) flushBatch(batch []Entry) {
	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	for _, e := range batch {
		j.writtenCount.Add(1)
		if j.file == nil {
			continue
		}
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		data = append(data, '\n')
		j.file.Write(data)
	}
}

// Stats returns journal counters for the stats endpoint.
func (j *Journal) Stats() map[string]any {
	if j == nil {
		return map[string]any{"running": false}
	}
	return map[string]any{
		"written": j.writtenCount.Load(),
		"dropped": j.droppedCount.Load(),
		"pending": len(j.entries),
		"running": j.running.Load(),
	}
}

// Dropped returns how many entries were discarded.
func (j *Journal) Dropped() uint64 {
	return j.droppedCount.Load()
}

// Written returns how many entries reached the writer.
func (j *Journal) Written() uint64 {
	return j.writtenCount.Load()
}
