// Package scene provides headless implementations of the game's render
// collaborators, used by the runner binary and tests.
package scene

import (
	"sync"

	"endless-runner/internal/game"

	"github.com/go-gl/mathgl/mgl64"
)

// Node is one visual placed in a Recorder.
type Node struct {
	Kind     game.Kind
	Position mgl64.Vec3
	Tint     uint32
	Visible  bool
}

// Recorder is a Scene that keeps every node in memory. It is safe to read
// from other goroutines (the debug endpoints do) while the frame loop writes.
type Recorder struct {
	mu      sync.RWMutex
	next    game.Handle
	nodes   map[game.Handle]*Node
	spawned uint64
	removed uint64
}

// NewRecorder creates an empty headless scene.
func NewRecorder() *Recorder {
	return &Recorder{nodes: make(map[game.Handle]*Node)}
}

// Spawn clones a template into the scene.
func (r *Recorder) Spawn(tpl game.Template, pos mgl64.Vec3) game.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	r.nodes[r.next] = &Node{Kind: tpl.Kind(), Position: pos, Tint: 0xffffff, Visible: true}
	r.spawned++
	return r.next
}

// Move updates a node's position. Unknown handles are ignored.
func (r *Recorder) Move(h game.Handle, pos mgl64.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.nodes[h]; ok {
		n.Position = pos
	}
}

// SetTint recolours a node.
func (r *Recorder) SetTint(h game.Handle, color uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.nodes[h]; ok {
		n.Tint = color
	}
}

// SetVisible shows or hides a node.
func (r *Recorder) SetVisible(h game.Handle, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.nodes[h]; ok {
		n.Visible = visible
	}
}

// Remove drops a node. Removing twice is a no-op.
func (r *Recorder) Remove(h game.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[h]; ok {
		delete(r.nodes, h)
		r.removed++
	}
}

// Node returns a copy of the node behind a handle.
func (r *Recorder) Node(h game.Handle) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[h]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Count returns the number of live nodes of a kind.
func (r *Recorder) Count(k game.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, n := range r.nodes {
		if n.Kind == k {
			count++
		}
	}
	return count
}

// Stats returns how many nodes were spawned and removed in total.
func (r *Recorder) Stats() (spawned, removed uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.spawned, r.removed
}
