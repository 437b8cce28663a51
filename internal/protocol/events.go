package protocol

import "fmt"

// ServerEvent is the closed set of events a client can receive from the relay.
type ServerEvent interface {
	serverEvent()
}

// Init seeds the local registry of remote avatars.
type Init struct {
	Self      string
	Players   map[string]PlayerState
	Obstacles []RecentObstacle
}

// PlayerJoined announces a new or rejoining peer.
type PlayerJoined struct{ Player PlayerState }

// PlayerMoved carries a peer's latest transform.
type PlayerMoved struct{ Player PlayerState }

// ObstacleSpawned is an obstacle created by a peer.
type ObstacleSpawned struct{ Obstacle ObstacleSpawn }

// ItemCollected reports a collectible picked up by a peer.
type ItemCollected struct {
	ID      string
	Sponsor bool
}

// PlayerGameOver reports a peer whose session ended.
type PlayerGameOver struct{ ID string }

// PlayerLeft reports a disconnected peer.
type PlayerLeft struct{ ID string }

func (Init) serverEvent()            {}
func (PlayerJoined) serverEvent()    {}
func (PlayerMoved) serverEvent()     {}
func (ObstacleSpawned) serverEvent() {}
func (ItemCollected) serverEvent()   {}
func (PlayerGameOver) serverEvent()  {}
func (PlayerLeft) serverEvent()      {}

// DecodeServerEvent turns a relay frame into a typed event.
func DecodeServerEvent(b []byte) (ServerEvent, error) {
	env, err := DecodeEnvelope(b)
	if err != nil {
		return nil, err
	}

	switch env.Event {
	case EvInit:
		p, err := DecodePayload[InitPayload](env)
		if err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%w: init without id", ErrInvalidPayload)
		}
		return Init{Self: p.ID, Players: p.Players, Obstacles: p.Obstacles}, nil

	case EvPlayerJoined, EvPlayerMove:
		p, err := DecodePayload[PlayerState](env)
		if err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%w: player without id in %q", ErrInvalidPayload, env.Event)
		}
		if err := checkPosition(env.Event, p.Position); err != nil {
			return nil, err
		}
		if env.Event == EvPlayerJoined {
			return PlayerJoined{Player: p}, nil
		}
		return PlayerMoved{Player: p}, nil

	case EvNewObstacle:
		p, err := DecodePayload[ObstacleSpawn](env)
		if err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%w: obstacle without id", ErrInvalidPayload)
		}
		if err := checkPosition(env.Event, p.Position); err != nil {
			return nil, err
		}
		return ObstacleSpawned{Obstacle: p}, nil

	case EvCollectibleWasCollected, EvSponsorCollectibleWasCollected:
		id, err := decodeID(env)
		if err != nil {
			return nil, err
		}
		return ItemCollected{ID: id, Sponsor: env.Event == EvSponsorCollectibleWasCollected}, nil

	case EvPlayerGameOver:
		id, err := decodeID(env)
		if err != nil {
			return nil, err
		}
		return PlayerGameOver{ID: id}, nil

	case EvPlayerLeft:
		id, err := decodeID(env)
		if err != nil {
			return nil, err
		}
		return PlayerLeft{ID: id}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
}

// ClientEvent is the closed set of events the relay accepts from a client.
type ClientEvent interface {
	clientEvent()
}

// Update is a locomotion change of the sending player.
type Update struct{ Update PlayerUpdate }

// SpawnObstacle is an obstacle created by the sending client.
type SpawnObstacle struct{ Obstacle ObstacleSpawn }

// Collected is a collectible picked up by the sending client.
type Collected struct {
	ID      string
	Sponsor bool
}

// GameOver ends the sender's session.
type GameOver struct{}

// Restart marks the sender as playing again after a game over.
type Restart struct{}

func (Update) clientEvent()        {}
func (SpawnObstacle) clientEvent() {}
func (Collected) clientEvent()     {}
func (GameOver) clientEvent()      {}
func (Restart) clientEvent()       {}

// DecodeClientEvent turns a client frame into a typed event.
func DecodeClientEvent(b []byte) (ClientEvent, error) {
	env, err := DecodeEnvelope(b)
	if err != nil {
		return nil, err
	}

	switch env.Event {
	case EvPlayerUpdate:
		p, err := DecodePayload[PlayerUpdate](env)
		if err != nil {
			return nil, err
		}
		if err := checkPosition(env.Event, p.Position); err != nil {
			return nil, err
		}
		return Update{Update: p}, nil

	case EvObstacleSpawn:
		p, err := DecodePayload[ObstacleSpawn](env)
		if err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%w: obstacle without id", ErrInvalidPayload)
		}
		if err := checkPosition(env.Event, p.Position); err != nil {
			return nil, err
		}
		return SpawnObstacle{Obstacle: p}, nil

	case EvCollectibleCollected, EvSponsorCollectibleCollected:
		id, err := decodeID(env)
		if err != nil {
			return nil, err
		}
		return Collected{ID: id, Sponsor: env.Event == EvSponsorCollectibleCollected}, nil

	case EvGameOver:
		return GameOver{}, nil

	case EvPlayerRestart:
		return Restart{}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
}
