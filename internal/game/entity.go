package game

import (
	"endless-runner/internal/protocol"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind identifies a class of visual in the world.
type Kind int

const (
	KindPlayer Kind = iota
	KindObstacle
	KindCollectible
	KindSponsorCollectible
	KindSponsorBanner
)

// AllKinds lists every kind that needs a visual template.
var AllKinds = []Kind{KindPlayer, KindObstacle, KindCollectible, KindSponsorCollectible, KindSponsorBanner}

// String returns the kind name used in logs
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindObstacle:
		return "obstacle"
	case KindCollectible:
		return "collectible"
	case KindSponsorCollectible:
		return "sponsor_collectible"
	case KindSponsorBanner:
		return "sponsor_banner"
	default:
		return "unknown"
	}
}

// Origin marks who spawned an entity.
type Origin int

const (
	OriginLocal  Origin = iota // Spawned by this client, may be broadcast
	OriginRemote               // Learned from a peer, never re-broadcast
)

// Entity is a spawned world object.
type Entity struct {
	ID       string
	Kind     Kind
	Position mgl64.Vec3
	Origin   Origin
	Sponsor  string // Sponsor name for sponsor collectibles and banners
	Handle   Handle
}

func toWire(v mgl64.Vec3) protocol.Vec3 {
	return protocol.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

func fromWire(v protocol.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
