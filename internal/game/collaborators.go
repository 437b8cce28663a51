package game

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
)

// Handle identifies a visual owned by a Scene. Zero means "no visual".
type Handle uint64

// Template is a loaded, cloneable visual for one kind.
type Template interface {
	Kind() Kind
}

// Scene is the render-technology capability the core draws through.
// Implementations clone templates into the scene and tint them.
type Scene interface {
	Spawn(tpl Template, pos mgl64.Vec3) Handle
	Move(h Handle, pos mgl64.Vec3)
	SetTint(h Handle, color uint32)
	SetVisible(h Handle, visible bool)
	Remove(h Handle)
}

// AssetProvider loads visual templates. Loading may block.
type AssetProvider interface {
	Template(ctx context.Context, kind Kind) (Template, error)
}

// HUD receives presentation signals.
type HUD interface {
	ShowLoading(loading bool)
	UpdateScore(score int)
	UpdatePlayerCount(count int)
	ShowGameOver(over bool)
	SponsorCollected(sponsor string)
}

// Link carries outgoing relay events. Send fails when the connection is
// down; the game keeps running locally in that case.
type Link interface {
	Send(event string, payload any) error
}

// nopHUD is used when no HUD is supplied.
type nopHUD struct{}

func (nopHUD) ShowLoading(bool)        {}
func (nopHUD) UpdateScore(int)         {}
func (nopHUD) UpdatePlayerCount(int)   {}
func (nopHUD) ShowGameOver(bool)       {}
func (nopHUD) SponsorCollected(string) {}
