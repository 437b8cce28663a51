package game

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"endless-runner/internal/config"

	"github.com/go-gl/mathgl/mgl64"
)

var t0 = time.Unix(1_700_000_000, 0)

type fakeTemplate struct{ kind Kind }

func (f fakeTemplate) Kind() Kind { return f.kind }

// fakeScene tracks live visuals by handle.
type fakeScene struct {
	next    Handle
	live    map[Handle]mgl64.Vec3
	tints   map[Handle]uint32
	visible map[Handle]bool
}

func newFakeScene() *fakeScene {
	return &fakeScene{
		live:    make(map[Handle]mgl64.Vec3),
		tints:   make(map[Handle]uint32),
		visible: make(map[Handle]bool),
	}
}

func (s *fakeScene) Spawn(_ Template, pos mgl64.Vec3) Handle {
	s.next++
	s.live[s.next] = pos
	s.visible[s.next] = true
	return s.next
}

func (s *fakeScene) Move(h Handle, pos mgl64.Vec3)     { s.live[h] = pos }
func (s *fakeScene) SetTint(h Handle, c uint32)        { s.tints[h] = c }
func (s *fakeScene) SetVisible(h Handle, visible bool) { s.visible[h] = visible }
func (s *fakeScene) Remove(h Handle) {
	delete(s.live, h)
	delete(s.tints, h)
	delete(s.visible, h)
}

type fakeAssets struct{ fail Kind }

func (a fakeAssets) Template(_ context.Context, k Kind) (Template, error) {
	if a.fail >= 0 && k == a.fail {
		return nil, errors.New("asset missing")
	}
	return fakeTemplate{kind: k}, nil
}

type sent struct {
	event   string
	payload any
}

// fakeLink records every outgoing event.
type fakeLink struct {
	events []sent
	err    error
}

func (l *fakeLink) Send(event string, payload any) error {
	if l.err != nil {
		return l.err
	}
	l.events = append(l.events, sent{event, payload})
	return nil
}

func (l *fakeLink) count(event string) int {
	n := 0
	for _, e := range l.events {
		if e.event == event {
			n++
		}
	}
	return n
}

type fakeHUD struct {
	score    int
	players  int
	over     bool
	sponsors []string
}

func (h *fakeHUD) ShowLoading(bool)            {}
func (h *fakeHUD) UpdateScore(score int)       { h.score = score }
func (h *fakeHUD) UpdatePlayerCount(count int) { h.players = count }
func (h *fakeHUD) ShowGameOver(over bool)      { h.over = over }
func (h *fakeHUD) SponsorCollected(s string)   { h.sponsors = append(h.sponsors, s) }

// sequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) IDGenerator {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

func newTestGame(link *fakeLink, hud *fakeHUD) (*Game, *fakeScene) {
	scene := newFakeScene()
	g := NewGame(Options{
		Config: config.DefaultGame(),
		Sync:   config.DefaultSync(),
		Scene:  scene,
		Assets: fakeAssets{fail: -1},
		HUD:    hud,
		Link:   link,
		Rand:   rand.New(rand.NewSource(1)),
		NewID:  sequentialIDs("local"),
	})
	return g, scene
}
