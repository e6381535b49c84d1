package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"isoworld/internal/actor"
	"isoworld/internal/collision"
	"isoworld/internal/streaming"
	"isoworld/internal/world"
)

type MessageType string

const (
	// client -> server
	MessageHello    MessageType = "hello"
	MessageInput    MessageType = "input"
	MessageViewport MessageType = "viewport"

	// server -> client
	MessageWelcome MessageType = "welcome"
	MessageAttach  MessageType = "attach"
	MessageDetach  MessageType = "detach"
	MessageActor   MessageType = "actor"
)

type Envelope struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Seq       uint64          `json:"seq"`
	Payload   json.RawMessage `json:"payload"`
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Hello struct {
	Viewport Viewport `json:"viewport"`
}

type Input struct {
	Keys []actor.Key `json:"keys"`
}

type GeometryInfo struct {
	TileWidth  int `json:"tileWidth"`
	TileHeight int `json:"tileHeight"`
	ChunkSize  int `json:"chunkSize"`
}

type Welcome struct {
	Session  string       `json:"session"`
	Geometry GeometryInfo `json:"geometry"`
	Radius   int          `json:"radius"`
	Actor    actor.State  `json:"actor"`
}

// Attach carries one layer of a chunk. Ground attaches carry tiles and
// surface attaches carry vegetation.
type Attach struct {
	Layer streaming.Layer        `json:"layer"`
	Key   world.ChunkKey         `json:"key"`
	Tiles []world.Tile           `json:"tiles,omitempty"`
	Items []world.VegetationItem `json:"items,omitempty"`
}

type Detach struct {
	Layer streaming.Layer `json:"layer"`
	Key   world.ChunkKey  `json:"key"`
}

type ActorUpdate struct {
	actor.State
	Side       collision.Side        `json:"side,omitempty"`
	Allowed    []collision.Direction `json:"allowed"`
	Occlusions []collision.Occlusion `json:"occlusions,omitempty"`
}

// Encode wraps payload in an envelope.
func Encode(typ MessageType, seq uint64, at time.Time, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Timestamp: at.UTC(), Seq: seq, Payload: raw})
}

// Decode parses an envelope without touching its payload.
func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// DecodePayload unmarshals the payload of env into v.
func DecodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%s payload: %w", env.Type, err)
	}
	return nil
}
