package game

import (
	"log"
	"sort"

	"endless-runner/internal/protocol"

	"github.com/go-gl/mathgl/mgl64"
)

// Avatar is the local view of a remote player. Its transform comes only
// from relay messages; it never runs through locomotion.
type Avatar struct {
	ID        string
	Position  mgl64.Vec3
	Color     uint32
	IsJumping bool
	Handle    Handle
}

// Avatars returns the remote players sorted by id.
func (g *Game) Avatars() []Avatar {
	out := make([]Avatar, 0, len(g.avatars))
	for _, a := range g.avatars {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PlayerCount is the number of players visible to this client, self included.
func (g *Game) PlayerCount() int {
	return len(g.avatars) + 1
}

// Apply folds one relay event into the local view. Events naming unknown
// ids are ignored.
func (g *Game) Apply(ev protocol.ServerEvent) {
	switch e := ev.(type) {
	case protocol.Init:
		g.selfID = e.Self
		for _, p := range e.Players {
			g.addAvatar(p)
		}
		g.placeRecent(e.Obstacles)
		log.Printf("🔗 Joined relay as %s (%d players)", e.Self, g.PlayerCount())

	case protocol.PlayerJoined:
		g.addAvatar(e.Player)

	case protocol.PlayerMoved:
		a, ok := g.avatars[e.Player.ID]
		if !ok {
			return
		}
		a.Position = fromWire(e.Player.Position)
		a.IsJumping = e.Player.IsJumping
		if a.Handle != 0 {
			g.scene.Move(a.Handle, a.Position)
		}

	case protocol.ObstacleSpawned:
		if g.state == Running {
			g.entities.SpawnRemote(e.Obstacle.ID, fromWire(e.Obstacle.Position))
		}

	case protocol.ItemCollected:
		kind := KindCollectible
		if e.Sponsor {
			kind = KindSponsorCollectible
		}
		g.entities.RemoveByID(kind, e.ID)

	case protocol.PlayerGameOver:
		g.removeAvatar(e.ID)

	case protocol.PlayerLeft:
		g.removeAvatar(e.ID)
	}
}

func (g *Game) addAvatar(p protocol.PlayerState) {
	if p.IsGameOver || p.ID == "" || p.ID == g.selfID {
		return
	}
	if a, ok := g.avatars[p.ID]; ok {
		a.Position = fromWire(p.Position)
		a.IsJumping = p.IsJumping
		if a.Handle != 0 {
			g.scene.Move(a.Handle, a.Position)
		}
		return
	}

	a := &Avatar{ID: p.ID, Position: fromWire(p.Position), Color: p.Color, IsJumping: p.IsJumping}
	if g.scene != nil && g.playerTpl != nil {
		a.Handle = g.scene.Spawn(g.playerTpl, a.Position)
		g.scene.SetTint(a.Handle, p.Color)
	}
	g.avatars[p.ID] = a
	g.hud.UpdatePlayerCount(g.PlayerCount())
}

func (g *Game) removeAvatar(id string) {
	a, ok := g.avatars[id]
	if !ok {
		return
	}
	if a.Handle != 0 {
		g.scene.Remove(a.Handle)
	}
	delete(g.avatars, id)
	g.hud.UpdatePlayerCount(g.PlayerCount())
}

// placeRecent spawns obstacles a peer created before we joined, advanced
// along Z by how long they have been travelling at the current speed.
func (g *Game) placeRecent(obstacles []protocol.RecentObstacle) {
	if g.state != Running {
		return
	}
	speed := g.scheduler.Current().Speed
	for _, o := range obstacles {
		pos := fromWire(o.Position)
		pos[2] += float64(o.AgeMs) / 1000 * float64(g.fps) * speed
		if pos[2] > g.cfg.DespawnDistance {
			continue
		}
		g.entities.SpawnRemote(o.ID, pos)
	}
}
