package collision

import (
	"math"

	"isoworld/internal/world"
)

// Direction is a movement direction on screen.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// AllDirections is the unrestricted movement set.
var AllDirections = []Direction{Up, Left, Down, Right}

// Side names the part of a tile diamond an actor touches.
type Side string

const (
	SideNone        Side = ""
	SideTop         Side = "top"
	SideBottom      Side = "bottom"
	SideLeft        Side = "left"
	SideRight       Side = "right"
	SideTopLeft     Side = "top-left"
	SideTopRight    Side = "top-right"
	SideBottomLeft  Side = "bottom-left"
	SideBottomRight Side = "bottom-right"
)

// sideBand is the normalised offset below which an axis counts as centred.
const sideBand = 0.2

var allowedBySide = map[Side][]Direction{
	SideTopLeft:     {Up, Left},
	SideTopRight:    {Up, Right},
	SideBottomLeft:  {Down, Left},
	SideBottomRight: {Down, Right},
	SideTop:         {Up, Left, Right},
	SideBottom:      {Down, Left, Right},
	SideLeft:        {Up, Down, Left},
	SideRight:       {Up, Down, Right},
}

// Actor is the controlled sprite. X and Y are its bottom-left corner, which
// is where the feet are, so the collision reference point needs no offset.
type Actor struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (a Actor) Feet() world.Point {
	return world.Point{X: a.X, Y: a.Y}
}

// Contains reports whether p lies inside the diamond of the tile at
// (row, col) using |dx|/halfW + |dy|/halfH <= 1.
func Contains(g world.Geometry, row, col int, p world.Point) bool {
	center := g.TileCenter(row, col)
	dx := math.Abs(p.X-center.X) / g.HalfWidth()
	dy := math.Abs(p.Y-center.Y) / g.HalfHeight()
	return dx+dy <= 1
}

// ActiveTiles returns the ground tiles of chunk under the actor's feet.
func ActiveTiles(g world.Geometry, chunk *world.Chunk, actor Actor) []world.Tile {
	if chunk == nil {
		return nil
	}
	feet := actor.Feet()
	var tiles []world.Tile
	for _, tile := range chunk.Ground {
		if Contains(g, tile.Row, tile.Col, feet) {
			tiles = append(tiles, tile)
		}
	}
	return tiles
}

// SideOf classifies where p sits relative to the centre of the tile at
// (row, col). Offsets are normalised by the half extents; an axis within the
// band is treated as centred.
func SideOf(g world.Geometry, row, col int, p world.Point) Side {
	center := g.TileCenter(row, col)
	nx := (p.X - center.X) / g.HalfWidth()
	ny := (p.Y - center.Y) / g.HalfHeight()

	switch {
	case math.Abs(nx) <= sideBand && math.Abs(ny) <= sideBand:
		return SideNone
	case math.Abs(ny) <= sideBand:
		if nx < 0 {
			return SideLeft
		}
		return SideRight
	case math.Abs(nx) <= sideBand:
		if ny < 0 {
			return SideTop
		}
		return SideBottom
	case ny < 0 && nx < 0:
		return SideTopLeft
	case ny < 0:
		return SideTopRight
	case nx < 0:
		return SideBottomLeft
	default:
		return SideBottomRight
	}
}

// SideOfTile classifies the actor's feet against tile.
func SideOfTile(g world.Geometry, tile world.Tile, actor Actor) Side {
	return SideOf(g, tile.Row, tile.Col, actor.Feet())
}

// Allowed returns the directions that stay open when the actor touches a
// blocking tile on side. SideNone leaves every direction open.
func Allowed(side Side) []Direction {
	dirs, ok := allowedBySide[side]
	if !ok {
		return append([]Direction(nil), AllDirections...)
	}
	return append([]Direction(nil), dirs...)
}
