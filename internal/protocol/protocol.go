// Package protocol defines the wire messages exchanged between runner clients
// and the relay. Every frame is a JSON envelope {"event": name, "data": payload}.
package protocol

import "encoding/json"

// Client -> server events
const (
	EvPlayerUpdate                = "playerUpdate"
	EvObstacleSpawn               = "obstacleSpawn"
	EvCollectibleCollected        = "collectibleCollected"
	EvSponsorCollectibleCollected = "sponsorCollectibleCollected"
	EvGameOver                    = "gameOver"
	EvPlayerRestart               = "playerRestart"
)

// Server -> client events
const (
	EvInit                           = "init"
	EvPlayerJoined                   = "playerJoined"
	EvPlayerMove                     = "playerMove"
	EvNewObstacle                    = "newObstacle"
	EvCollectibleWasCollected        = "collectibleWasCollected"
	EvSponsorCollectibleWasCollected = "sponsorCollectibleWasCollected"
	EvPlayerGameOver                 = "playerGameOver"
	EvPlayerLeft                     = "playerLeft"
)

// Envelope wraps every frame on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Vec3 is a world-space position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PlayerState is the relay's record of a connected player.
type PlayerState struct {
	ID         string `json:"id"`
	Position   Vec3   `json:"position"`
	Color      uint32 `json:"color"`
	IsJumping  bool   `json:"isJumping"`
	IsGameOver bool   `json:"isGameOver"`
}

// PlayerUpdate is sent by a client whenever its locomotion changes.
type PlayerUpdate struct {
	Position  Vec3 `json:"position"`
	IsJumping bool `json:"isJumping"`
}

// ObstacleSpawn describes an obstacle created by one client.
// It is used for both obstacleSpawn and newObstacle.
type ObstacleSpawn struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
}

// RecentObstacle is an obstacle the relay still remembers when a peer joins.
type RecentObstacle struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
	AgeMs    int64  `json:"ageMs"`
}

// InitPayload seeds a freshly connected client.
type InitPayload struct {
	ID        string                 `json:"id"`
	Players   map[string]PlayerState `json:"players"`
	Obstacles []RecentObstacle       `json:"obstacles,omitempty"`
}
