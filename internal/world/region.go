package world

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"isoworld/internal/config"
)

// ChunkKey identifies a chunk in chunk space. Col and Row are the tile column
// and row divided by the chunk size, rounded toward negative infinity.
type ChunkKey struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// String renders the key as "<col>_<row>".
func (k ChunkKey) String() string {
	return strconv.Itoa(k.Col) + "_" + strconv.Itoa(k.Row)
}

// ParseChunkKey is the inverse of ChunkKey.String.
func ParseChunkKey(s string) (ChunkKey, error) {
	colStr, rowStr, ok := strings.Cut(s, "_")
	if !ok {
		return ChunkKey{}, fmt.Errorf("chunk key %q: missing separator", s)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil {
		return ChunkKey{}, fmt.Errorf("chunk key %q: column: %w", s, err)
	}
	row, err := strconv.Atoi(rowStr)
	if err != nil {
		return ChunkKey{}, fmt.Errorf("chunk key %q: row: %w", s, err)
	}
	return ChunkKey{Col: col, Row: row}, nil
}

// Point is a position in world pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry holds the tile and chunk dimensions shared by every coordinate
// conversion in the engine.
type Geometry struct {
	TileWidth  int
	TileHeight int
	ChunkSize  int
}

func NewGeometry(cfg config.WorldConfig) Geometry {
	return Geometry{
		TileWidth:  cfg.TileWidth,
		TileHeight: cfg.TileHeight,
		ChunkSize:  cfg.ChunkSize,
	}
}

func (g Geometry) HalfWidth() float64 {
	return float64(g.TileWidth) / 2
}

func (g Geometry) HalfHeight() float64 {
	return float64(g.TileHeight) / 2
}

// IsoProject returns the top vertex of the diamond for the tile at (row, col).
func (g Geometry) IsoProject(row, col int) Point {
	return Point{
		X: float64(col-row) * g.HalfWidth(),
		Y: float64(col+row) * g.HalfHeight(),
	}
}

// WorldToIso maps a world point back to tile space. Both axes are floored, so
// every point inside a tile's diamond maps to that tile and the projected top
// vertex of a tile maps back to the same tile.
func (g Geometry) WorldToIso(p Point) (col, row int) {
	nx := p.X / g.HalfWidth()
	ny := p.Y / g.HalfHeight()
	col = int(math.Floor((nx + ny) / 2))
	row = int(math.Floor((ny - nx) / 2))
	return col, row
}

// TileOrigin is the top-left corner of the ground sprite for (row, col).
func (g Geometry) TileOrigin(row, col int) Point {
	p := g.IsoProject(row, col)
	return Point{X: p.X - g.HalfWidth(), Y: p.Y}
}

// TileCenter is the centre of the diamond for (row, col).
func (g Geometry) TileCenter(row, col int) Point {
	p := g.IsoProject(row, col)
	return Point{X: p.X, Y: p.Y + g.HalfHeight()}
}

func (g Geometry) ChunkKeyOf(row, col int) ChunkKey {
	return ChunkKey{
		Col: floorDiv(col, g.ChunkSize),
		Row: floorDiv(row, g.ChunkSize),
	}
}

func (g Geometry) ChunkOfPoint(p Point) ChunkKey {
	col, row := g.WorldToIso(p)
	return g.ChunkKeyOf(row, col)
}

// LocalToGlobal converts a cell inside the chunk to global tile coordinates.
func (g Geometry) LocalToGlobal(key ChunkKey, localRow, localCol int) (row, col int) {
	return key.Row*g.ChunkSize + localRow, key.Col*g.ChunkSize + localCol
}

// Cells yields every local (row, col) of a chunk in row-major order.
func (g Geometry) Cells() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for row := 0; row < g.ChunkSize; row++ {
			for col := 0; col < g.ChunkSize; col++ {
				if !yield(row, col) {
					return
				}
			}
		}
	}
}

// ChunkSpan is the pixel width and height of a chunk's bounding box.
func (g Geometry) ChunkSpan() (width, height float64) {
	return float64(g.ChunkSize * g.TileWidth), float64(g.ChunkSize * g.TileHeight)
}

// RadiusForViewport returns the smallest chunk radius whose neighbourhood
// covers a viewport of the given size around any focal point, plus padding.
// A screen offset (dx, dy) moves dx/TileWidth + dy/TileHeight tiles along the
// column axis, so the corner distance is the sum of both axes.
func (g Geometry) RadiusForViewport(width, height, padding int) int {
	spanW, spanH := g.ChunkSpan()
	radius := 1
	if spanW > 0 && spanH > 0 {
		reach := float64(width)/2/spanW + float64(height)/2/spanH
		radius = max(radius, int(math.Ceil(reach)))
	}
	if padding > 0 {
		radius += padding
	}
	return radius
}

func floorDiv(value, size int) int {
	if size <= 0 {
		return 0
	}
	if value >= 0 {
		return value / size
	}
	return -((-value - 1) / size) - 1
}
