package streaming

import (
	"sync"

	"isoworld/internal/world"
)

// Layer selects the render grouping a chunk is attached to.
type Layer string

const (
	LayerGround  Layer = "ground"
	LayerSurface Layer = "surface"
)

// Layers lists every layer in attach order.
var Layers = []Layer{LayerGround, LayerSurface}

// Scene is the render tree the engine drives. The engine never owns chunk
// membership; Attached is the source of truth for what is on screen.
type Scene interface {
	Attach(layer Layer, chunk *world.Chunk)
	Detach(layer Layer, key world.ChunkKey)
	Attached(layer Layer) []world.ChunkKey
}

// MemoryScene is an in-process Scene that only records membership.
type MemoryScene struct {
	mu     sync.Mutex
	layers map[Layer]map[world.ChunkKey]*world.Chunk
}

func NewMemoryScene() *MemoryScene {
	layers := make(map[Layer]map[world.ChunkKey]*world.Chunk, len(Layers))
	for _, layer := range Layers {
		layers[layer] = make(map[world.ChunkKey]*world.Chunk)
	}
	return &MemoryScene{layers: layers}
}

func (s *MemoryScene) Attach(layer Layer, chunk *world.Chunk) {
	if chunk == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.layers[layer]
	if !ok {
		group = make(map[world.ChunkKey]*world.Chunk)
		s.layers[layer] = group
	}
	group[chunk.Key] = chunk
}

func (s *MemoryScene) Detach(layer Layer, key world.ChunkKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layers[layer], key)
}

// Attached returns the keys on layer ordered by row, then column.
func (s *MemoryScene) Attached(layer Layer) []world.ChunkKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]world.ChunkKey, 0, len(s.layers[layer]))
	for key := range s.layers[layer] {
		keys = append(keys, key)
	}
	world.SortKeys(keys)
	return keys
}

// Chunk returns the attached chunk for key on layer.
func (s *MemoryScene) Chunk(layer Layer, key world.ChunkKey) (*world.Chunk, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.layers[layer][key]
	return ch, ok
}
