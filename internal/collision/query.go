package collision

import (
	"isoworld/internal/world"
)

// ChunkSource is the read side of a chunk store.
type ChunkSource interface {
	Get(key world.ChunkKey) (*world.Chunk, bool)
}

// Result is the outcome of one collision query.
type Result struct {
	Tiles      []world.Tile `json:"tiles"`
	Blocking   *world.Tile  `json:"blocking,omitempty"`
	Side       Side         `json:"side,omitempty"`
	Allowed    []Direction  `json:"allowed"`
	Occlusions []Occlusion  `json:"occlusions"`
}

// Permits reports whether d is in the allowed set.
func (r Result) Permits(d Direction) bool {
	for _, a := range r.Allowed {
		if a == d {
			return true
		}
	}
	return false
}

// Query inspects the resident chunks around the actor. Active tiles come from
// the chunk under the actor's feet; occlusion covers the surrounding 3×3
// chunks because tall sprites overlap chunk borders. The first active tile
// carrying vegetation decides the blocked side. Chunks are never modified.
func Query(src ChunkSource, g world.Geometry, actor Actor) Result {
	result := Result{Allowed: Allowed(SideNone)}
	center := g.ChunkOfPoint(actor.Feet())

	if chunk, ok := src.Get(center); ok {
		result.Tiles = ActiveTiles(g, chunk, actor)
		for i := range result.Tiles {
			tile := result.Tiles[i]
			if _, ok := chunk.VegetationAt(tile.Label); !ok {
				continue
			}
			side := SideOfTile(g, tile, actor)
			if side == SideNone {
				continue
			}
			result.Blocking = &tile
			result.Side = side
			result.Allowed = Allowed(side)
			break
		}
	}

	for _, key := range world.DesiredKeys(center, 1) {
		chunk, ok := src.Get(key)
		if !ok {
			continue
		}
		for _, tile := range chunk.Ground {
			item, ok := chunk.VegetationAt(tile.Label)
			if !ok {
				continue
			}
			result.Occlusions = append(result.Occlusions, OcclusionFor(g, item, tile, actor))
		}
	}
	return result
}
