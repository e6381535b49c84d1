package world

import (
	"sort"
)

// Generator describes terrain population for chunks. Implementations must be
// deterministic: the same key always yields the same content.
type Generator interface {
	Generate(key ChunkKey) *Chunk
}

// Store keeps the resident chunks of one engine. It is owned by a single
// goroutine and performs no locking.
type Store struct {
	chunks map[ChunkKey]*Chunk
}

func NewStore() *Store {
	return &Store{chunks: make(map[ChunkKey]*Chunk)}
}

func (s *Store) Get(key ChunkKey) (*Chunk, bool) {
	ch, ok := s.chunks[key]
	return ch, ok
}

func (s *Store) Has(key ChunkKey) bool {
	_, ok := s.chunks[key]
	return ok
}

// Put inserts chunk under its own key, replacing any previous entry.
func (s *Store) Put(chunk *Chunk) {
	if chunk == nil {
		return
	}
	s.chunks[chunk.Key] = chunk
}

func (s *Store) Delete(key ChunkKey) bool {
	if _, ok := s.chunks[key]; !ok {
		return false
	}
	delete(s.chunks, key)
	return true
}

func (s *Store) Len() int {
	return len(s.chunks)
}

// Keys returns the resident keys ordered by row, then column.
func (s *Store) Keys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for key := range s.chunks {
		keys = append(keys, key)
	}
	SortKeys(keys)
	return keys
}

// GetOrGenerate returns the resident chunk for key, generating and storing it
// first when absent.
func (s *Store) GetOrGenerate(key ChunkKey, gen Generator) *Chunk {
	if ch, ok := s.chunks[key]; ok {
		return ch
	}
	ch := gen.Generate(key)
	s.Put(ch)
	return ch
}

// Retain drops every chunk whose key is not in keep and returns the dropped
// keys in sorted order.
func (s *Store) Retain(keep []ChunkKey) []ChunkKey {
	wanted := make(map[ChunkKey]struct{}, len(keep))
	for _, key := range keep {
		wanted[key] = struct{}{}
	}
	var evicted []ChunkKey
	for key := range s.chunks {
		if _, ok := wanted[key]; ok {
			continue
		}
		delete(s.chunks, key)
		evicted = append(evicted, key)
	}
	SortKeys(evicted)
	return evicted
}

// SortKeys orders keys by row, then column.
func SortKeys(keys []ChunkKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row == keys[j].Row {
			return keys[i].Col < keys[j].Col
		}
		return keys[i].Row < keys[j].Row
	})
}
