package ws

import (
	"isoworld/internal/streaming"
	"isoworld/internal/world"
)

// sender queues one outbound message.
type sender func(typ MessageType, payload any)

// RemoteScene mirrors attach and detach calls to a browser. Membership is
// tracked locally so the engine can diff against it without a round trip.
type RemoteScene struct {
	members *streaming.MemoryScene
	send    sender
}

func NewRemoteScene(send sender) *RemoteScene {
	return &RemoteScene{members: streaming.NewMemoryScene(), send: send}
}

func (s *RemoteScene) Attach(layer streaming.Layer, chunk *world.Chunk) {
	if chunk == nil {
		return
	}
	s.members.Attach(layer, chunk)
	msg := Attach{Layer: layer, Key: chunk.Key}
	switch layer {
	case streaming.LayerGround:
		msg.Tiles = chunk.Ground
	case streaming.LayerSurface:
		msg.Items = chunk.Surface
	}
	s.send(MessageAttach, msg)
}

func (s *RemoteScene) Detach(layer streaming.Layer, key world.ChunkKey) {
	if _, ok := s.members.Chunk(layer, key); !ok {
		return
	}
	s.members.Detach(layer, key)
	s.send(MessageDetach, Detach{Layer: layer, Key: key})
}

func (s *RemoteScene) Attached(layer streaming.Layer) []world.ChunkKey {
	return s.members.Attached(layer)
}
