package world

import (
	"strconv"
)

// Category enumerates terrain classes.
type Category string

const (
	CategoryWater Category = "water"
	CategorySand  Category = "sand"
	CategoryGrass Category = "grass"
)

// Tile is one ground cell. X and Y locate the top-left corner of the ground
// sprite, which is TileWidth wide and twice TileHeight tall.
type Tile struct {
	Row      int      `json:"row"`
	Col      int      `json:"col"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
	Variant  string   `json:"variant"`
	Texture  Texture  `json:"texture"`
	OffsetY  float64  `json:"offsetY,omitempty"`
	Sample   float64  `json:"sample"`
	// Hidden marks plain interior water that the renderer may skip and paint
	// with its background colour instead.
	Hidden bool `json:"hidden,omitempty"`
}

// VegetationItem is a decoration anchored at its bottom centre (X, Y). Label
// matches the Label of the ground tile it stands on.
type VegetationItem struct {
	Label   string  `json:"label"`
	Species string  `json:"species"`
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ZIndex  float64 `json:"zIndex"`
	Texture Texture `json:"texture"`
}

// Chunk is the generated content for one ChunkKey. Its content never changes
// after generation.
type Chunk struct {
	Key     ChunkKey         `json:"key"`
	Size    int              `json:"size"`
	Ground  []Tile           `json:"ground"`
	Surface []VegetationItem `json:"surface"`

	surfaceIndex map[string]int
}

func NewChunk(key ChunkKey, size int) *Chunk {
	return &Chunk{
		Key:          key,
		Size:         size,
		Ground:       make([]Tile, 0, size*size),
		Surface:      make([]VegetationItem, 0),
		surfaceIndex: make(map[string]int),
	}
}

func (c *Chunk) AddTile(tile Tile) {
	c.Ground = append(c.Ground, tile)
}

// AddVegetation places item on the surface layer. A label holds at most one
// item; later additions for the same label are ignored.
func (c *Chunk) AddVegetation(item VegetationItem) bool {
	if c.surfaceIndex == nil {
		c.surfaceIndex = make(map[string]int)
	}
	if _, exists := c.surfaceIndex[item.Label]; exists {
		return false
	}
	c.surfaceIndex[item.Label] = len(c.Surface)
	c.Surface = append(c.Surface, item)
	return true
}

// VegetationAt joins a ground tile label to the surface item standing on it.
func (c *Chunk) VegetationAt(label string) (VegetationItem, bool) {
	if c == nil {
		return VegetationItem{}, false
	}
	if c.surfaceIndex == nil {
		c.rebuildIndex()
	}
	idx, ok := c.surfaceIndex[label]
	if !ok {
		return VegetationItem{}, false
	}
	return c.Surface[idx], true
}

// LocalTile returns the tile at a local cell, or false when out of range.
func (c *Chunk) LocalTile(localRow, localCol int) (Tile, bool) {
	if localRow < 0 || localCol < 0 || localRow >= c.Size || localCol >= c.Size {
		return Tile{}, false
	}
	idx := localRow*c.Size + localCol
	if idx >= len(c.Ground) {
		return Tile{}, false
	}
	return c.Ground[idx], true
}

func (c *Chunk) rebuildIndex() {
	c.surfaceIndex = make(map[string]int, len(c.Surface))
	for i, item := range c.Surface {
		c.surfaceIndex[item.Label] = i
	}
}

// TileLabel renders the position label shared by a ground tile and the
// vegetation on it.
func TileLabel(origin Point) string {
	return formatCoord(origin.X) + "_" + formatCoord(origin.Y)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
