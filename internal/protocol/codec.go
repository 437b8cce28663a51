package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyFrame     = errors.New("protocol: empty frame")
	ErrEmptyPayload   = errors.New("protocol: empty payload")
	ErrUnknownEvent   = errors.New("protocol: unknown event")
	ErrInvalidPayload = errors.New("protocol: invalid payload")
)

// Encode marshals payload into an envelope. A nil payload produces an
// envelope without data (gameOver, playerRestart).
func Encode(event string, payload any) ([]byte, error) {
	if event == "" {
		return nil, fmt.Errorf("encode: empty event name")
	}
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", event, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// DecodeEnvelope parses the outer frame without touching the payload.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyFrame
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event name", ErrInvalidPayload)
	}
	return env, nil
}

// DecodePayload unmarshals the envelope data into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, fmt.Errorf("%w for %q", ErrEmptyPayload, env.Event)
	}
	err := json.Unmarshal(env.Data, &out)
	return out, err
}

func decodeID(env Envelope) (string, error) {
	id, err := DecodePayload[string](env)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: empty id in %q", ErrInvalidPayload, env.Event)
	}
	return id, nil
}

// Finite reports whether every coordinate is a real number.
func (v Vec3) Finite() bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func checkPosition(event string, v Vec3) error {
	if !v.Finite() {
		return fmt.Errorf("%w: non-finite position in %q", ErrInvalidPayload, event)
	}
	return nil
}
