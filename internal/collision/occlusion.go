package collision

import (
	"isoworld/internal/world"
)

const (
	behindAlpha  = 0.4
	behindZIndex = 2
)

// Occlusion is how a vegetation sprite should be drawn relative to the actor.
type Occlusion struct {
	Label  string  `json:"label"`
	Alpha  float64 `json:"alpha"`
	ZIndex int     `json:"zIndex"`
}

// Behind reports whether the actor stands behind item. The item is anchored
// at its bottom centre and the actor at its bottom left. The actor must also
// be above the midline of the item's ground tile.
func Behind(g world.Geometry, item world.VegetationItem, tile world.Tile, actor Actor) bool {
	itemLeft := item.X - item.Width/2
	itemRight := item.X + item.Width/2
	itemTop := item.Y - item.Height

	actorRight := actor.X + actor.Width
	actorTop := actor.Y - actor.Height

	right := actor.X < itemRight && actor.X > itemLeft
	left := actorRight > itemLeft && actorRight < itemRight
	top := actor.Y > itemTop && actor.Y < item.Y
	bottom := actorTop < item.Y && actorTop > itemTop
	above := actor.Y < tile.Y+g.HalfHeight()

	return above && (right || left) && (top || bottom)
}

// OcclusionFor returns the draw state of item for the actor's position.
func OcclusionFor(g world.Geometry, item world.VegetationItem, tile world.Tile, actor Actor) Occlusion {
	if Behind(g, item, tile, actor) {
		return Occlusion{Label: item.Label, Alpha: behindAlpha, ZIndex: behindZIndex}
	}
	return Occlusion{Label: item.Label, Alpha: 1, ZIndex: 0}
}
