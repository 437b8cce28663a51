// Package relay is the authoritative registry of connected players. It owns
// no game rules: it assigns identities, remembers each player's last
// reported state and fans events out to everyone except the sender.
package relay

import (
	"errors"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"endless-runner/internal/config"
	"endless-runner/internal/protocol"

	"github.com/google/uuid"
)

// maxRecentObstacles bounds the init backlog regardless of spawn rate.
const maxRecentObstacles = 512

var (
	// ErrStopped is returned once the relay no longer accepts commands.
	ErrStopped = errors.New("relay: stopped")
	// ErrInitFailed is returned when the init frame could not be delivered.
	ErrInitFailed = errors.New("relay: init not delivered")
)

// Options configures a Relay. Zero values fall back to defaults.
type Options struct {
	Config      config.RelayConfig
	GroundLevel float64

	NewID   func() string
	Rand    *rand.Rand
	Now     func() time.Time
	Metrics Metrics
	Journal *Journal
}

type peer struct {
	conn  Conn
	state protocol.PlayerState
}

type recentObstacle struct {
	spawn protocol.ObstacleSpawn
	at    time.Time
}

// Relay processes every command on a single goroutine, so the registry
// needs no locks. Other goroutines talk to it only through Inbox.
type Relay struct {
	Inbox chan any

	cfg         config.RelayConfig
	groundLevel float64
	newID       func() string
	rng         *rand.Rand
	now         func() time.Time
	metrics     Metrics
	journal     *Journal

	players map[string]*peer
	recent  []recentObstacle
	relayed uint64

	quit     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a relay. Call Run on its own goroutine.
func New(opts Options) *Relay {
	if opts.Config.InboxSize <= 0 {
		opts.Config = config.DefaultRelay()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}

	return &Relay{
		Inbox:       make(chan any, opts.Config.InboxSize),
		cfg:         opts.Config,
		groundLevel: opts.GroundLevel,
		newID:       opts.NewID,
		rng:         opts.Rand,
		now:         opts.Now,
		metrics:     opts.Metrics,
		journal:     opts.Journal,
		players:     make(map[string]*peer),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Stop asks Run to return. Run closes every connection on its way out.
// Safe to call more than once.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
	})
}

// Done is closed when Run has returned.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// Run processes commands until Stop.
func (r *Relay) Run() {
	defer close(r.done)

	interval := r.cfg.HousekeepingInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			for id, p := range r.players {
				_ = p.conn.Close()
				delete(r.players, id)
			}
			r.metrics.SetPlayers(0)
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.pruneRecent()
		}
	}
}

// Submit hands a command to the relay goroutine. It reports false once the
// relay has stopped, so callers never block on a dead inbox.
func (r *Relay) Submit(cmd any) bool {
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

// Join registers conn and waits for its player id.
func (r *Relay) Join(conn Conn) (string, error) {
	reply := make(chan JoinResult, 1)
	if !r.Submit(Join{Conn: conn, Reply: reply}) {
		return "", ErrStopped
	}
	select {
	case res := <-reply:
		if res.PlayerID == "" {
			return "", ErrInitFailed
		}
		return res.PlayerID, nil
	case <-r.quit:
		return "", ErrStopped
	}
}

// Snapshot queries the registry from another goroutine.
func (r *Relay) Snapshot() (Snapshot, bool) {
	reply := make(chan Snapshot, 1)
	if !r.Submit(Query{Reply: reply}) {
		return Snapshot{}, false
	}
	select {
	case s := <-reply:
		return s, true
	case <-r.quit:
		return Snapshot{}, false
	}
}

func (r *Relay) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		c.Reply <- JoinResult{PlayerID: r.handleJoin(c.Conn)}
	case Message:
		r.handleMessage(c.PlayerID, c.Event)
	case Leave:
		r.drop(c.PlayerID, false)
	case Query:
		c.Reply <- r.snapshot()
	default:
		log.Printf("⚠️ Relay ignored command %T", cmd)
	}
}

func (r *Relay) handleJoin(conn Conn) string {
	id := r.newID()
	state := protocol.PlayerState{
		ID: id,
		Position: protocol.Vec3{
			X: r.rng.Float64()*4 - 2,
			Y: r.groundLevel,
			Z: 0,
		},
		Color: uint32(r.rng.Intn(0x1000000)),
	}
	r.players[id] = &peer{conn: conn, state: state}

	initFrame, err := protocol.Encode(protocol.EvInit, r.initPayload(id))
	if err == nil {
		err = conn.Send(initFrame)
	}
	if err != nil {
		log.Printf("⚠️ Failed to send init to %s: %v", id, err)
		delete(r.players, id)
		r.metrics.SendFailed()
		return ""
	}

	r.metrics.SetPlayers(len(r.players))
	r.journal.Emit(EntryJoin, id, "")
	log.Printf("👤 Player %s joined (%d connected)", id, len(r.players))

	r.broadcast(id, protocol.EvPlayerJoined, state)
	return id
}

// initPayload lists every player still in play plus the recent obstacles.
// Players whose session ended are left out so the newcomer never draws a
// ghost; they reappear through playerJoined when they restart.
func (r *Relay) initPayload(self string) protocol.InitPayload {
	payload := protocol.InitPayload{
		ID:      self,
		Players: make(map[string]protocol.PlayerState, len(r.players)),
	}
	for id, p := range r.players {
		if p.state.IsGameOver {
			continue
		}
		payload.Players[id] = p.state
	}

	now := r.now()
	for _, o := range r.recent {
		payload.Obstacles = append(payload.Obstacles, protocol.RecentObstacle{
			ID:       o.spawn.ID,
			Position: o.spawn.Position,
			AgeMs:    now.Sub(o.at).Milliseconds(),
		})
	}
	return payload
}

func (r *Relay) handleMessage(id string, ev protocol.ClientEvent) {
	p, ok := r.players[id]
	if !ok {
		r.metrics.MessageDropped("unknown_player")
		return
	}

	switch e := ev.(type) {
	case protocol.Update:
		p.state.Position = e.Update.Position
		p.state.IsJumping = e.Update.IsJumping
		r.broadcast(id, protocol.EvPlayerMove, p.state)

	case protocol.SpawnObstacle:
		r.remember(e.Obstacle)
		r.journal.Emit(EntryObstacle, id, e.Obstacle.ID)
		r.broadcast(id, protocol.EvNewObstacle, e.Obstacle)

	case protocol.Collected:
		event := protocol.EvCollectibleWasCollected
		if e.Sponsor {
			event = protocol.EvSponsorCollectibleWasCollected
		}
		r.broadcast(id, event, e.ID)

	case protocol.GameOver:
		if p.state.IsGameOver {
			return
		}
		p.state.IsGameOver = true
		r.journal.Emit(EntryGameOver, id, "")
		log.Printf("💀 Player %s game over", id)
		r.broadcast(id, protocol.EvPlayerGameOver, id)

	case protocol.Restart:
		if !p.state.IsGameOver {
			return
		}
		p.state.IsGameOver = false
		p.state.IsJumping = false
		r.journal.Emit(EntryRestart, id, "")
		log.Printf("🔄 Player %s restarted", id)
		r.broadcast(id, protocol.EvPlayerJoined, p.state)

	default:
		r.metrics.MessageDropped("unknown_event")
	}
}

// broadcast sends one event to every player except the sender. Players
// whose connection fails are removed as if they had disconnected.
func (r *Relay) broadcast(except, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Printf("⚠️ Failed to encode %s: %v", event, err)
		return
	}

	var failed []string
	recipients := 0
	for id, p := range r.players {
		if id == except {
			continue
		}
		if err := p.conn.Send(frame); err != nil {
			failed = append(failed, id)
			continue
		}
		recipients++
	}
	r.relayed++
	r.metrics.EventRelayed(event, recipients)

	for _, id := range failed {
		r.metrics.SendFailed()
		r.journal.Emit(EntryDropped, id, event)
		r.drop(id, true)
	}
}

// drop removes a player and tells the others. Unknown ids are ignored, so
// a Leave that follows a send failure is harmless.
func (r *Relay) drop(id string, failed bool) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	delete(r.players, id)
	_ = p.conn.Close()

	r.metrics.SetPlayers(len(r.players))
	r.journal.Emit(EntryLeave, id, "")
	if failed {
		log.Printf("🔌 Player %s dropped after send failure (%d connected)", id, len(r.players))
	} else {
		log.Printf("👋 Player %s left (%d connected)", id, len(r.players))
	}

	r.broadcast(id, protocol.EvPlayerLeft, id)
}

func (r *Relay) remember(spawn protocol.ObstacleSpawn) {
	if r.cfg.RecentObstacleTTL <= 0 {
		return
	}
	r.recent = append(r.recent, recentObstacle{spawn: spawn, at: r.now()})
	if over := len(r.recent) - maxRecentObstacles; over > 0 {
		r.recent = r.recent[over:]
	}
}

// pruneRecent forgets obstacles older than the TTL. Entries are in spawn
// order, so the first young one ends the scan.
func (r *Relay) pruneRecent() {
	cutoff := r.now().Add(-r.cfg.RecentObstacleTTL)
	stale := 0
	for stale < len(r.recent) && r.recent[stale].at.Before(cutoff) {
		stale++
	}
	if stale > 0 {
		r.recent = append(r.recent[:0], r.recent[stale:]...)
	}
}

func (r *Relay) snapshot() Snapshot {
	s := Snapshot{
		Players:         make([]protocol.PlayerState, 0, len(r.players)),
		RecentObstacles: len(r.recent),
		Relayed:         r.relayed,
	}
	for _, p := range r.players {
		s.Players = append(s.Players, p.state)
	}
	sort.Slice(s.Players, func(i, j int) bool { return s.Players[i].ID < s.Players[j].ID })
	return s
}
