package world

// DesiredKeys returns the (2r+1)² keys around center in row-major order,
// starting at the top-left corner. A negative radius is treated as zero.
func DesiredKeys(center ChunkKey, radius int) []ChunkKey {
	if radius < 0 {
		radius = 0
	}
	side := 2*radius + 1
	keys := make([]ChunkKey, 0, side*side)
	for row := center.Row - radius; row <= center.Row+radius; row++ {
		for col := center.Col - radius; col <= center.Col+radius; col++ {
			keys = append(keys, ChunkKey{Col: col, Row: row})
		}
	}
	return keys
}

// DesiredKeysAt is DesiredKeys centred on the chunk containing focal.
func (g Geometry) DesiredKeysAt(focal Point, radius int) []ChunkKey {
	return DesiredKeys(g.ChunkOfPoint(focal), radius)
}

// Resolve returns the resident chunks among keys, preserving key order.
func Resolve(keys []ChunkKey, store *Store) []*Chunk {
	chunks := make([]*Chunk, 0, len(keys))
	for _, key := range keys {
		if ch, ok := store.Get(key); ok {
			chunks = append(chunks, ch)
		}
	}
	return chunks
}
