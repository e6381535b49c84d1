package world

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	previewAmbientLight = 0.2
	previewMaxPixels    = 4096 * 4096
)

// RenderPreview draws the ground and surface layers of chunks into an image.
// scale maps world pixels to image pixels; 0.25 renders a 128×64 tile as
// 32×16.
func RenderPreview(g Geometry, chunks []*Chunk, scale float64) (*image.NRGBA, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks to render")
	}
	if scale <= 0 {
		return nil, fmt.Errorf("invalid preview scale %v", scale)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	extend := func(x0, y0, x1, y1 float64) {
		minX = math.Min(minX, x0)
		minY = math.Min(minY, y0)
		maxX = math.Max(maxX, x1)
		maxY = math.Max(maxY, y1)
	}
	for _, ch := range chunks {
		for _, tile := range ch.Ground {
			extend(tile.X, tile.Y, tile.X+float64(g.TileWidth), tile.Y+2*float64(g.TileHeight))
		}
		for _, item := range ch.Surface {
			extend(item.X-item.Width/2, item.Y-item.Height, item.X+item.Width/2, item.Y)
		}
	}

	width := int(math.Ceil((maxX-minX)*scale)) + 1
	height := int(math.Ceil((maxY-minY)*scale)) + 1
	if width*height > previewMaxPixels {
		return nil, fmt.Errorf("preview too large: %dx%d", width, height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	background := resolveTextureColor(Texture{Name: "water"}, CategoryWater)
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	project := func(x, y float64) image.Point {
		return image.Point{
			X: int(math.Round((x - minX) * scale)),
			Y: int(math.Round((y - minY) * scale)),
		}
	}

	tiles := make([]Tile, 0, len(chunks)*len(chunks[0].Ground))
	items := make([]VegetationItem, 0)
	for _, ch := range chunks {
		tiles = append(tiles, ch.Ground...)
		items = append(items, ch.Surface...)
	}
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y == tiles[j].Y {
			return tiles[i].X < tiles[j].X
		}
		return tiles[i].Y < tiles[j].Y
	})
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ZIndex < items[j].ZIndex
	})

	for _, tile := range tiles {
		if tile.Hidden {
			continue
		}
		renderTilePreview(img, g, tile, project)
	}
	for _, item := range items {
		renderVegetationPreview(img, item, project)
	}
	return img, nil
}

func renderTilePreview(img *image.NRGBA, g Geometry, tile Tile, project func(x, y float64) image.Point) {
	base := resolveTextureColor(tile.Texture, tile.Category)
	tw := float64(g.TileWidth)
	th := float64(g.TileHeight)
	x := tile.X
	y := tile.Y + tile.OffsetY

	top := []image.Point{
		project(x+tw/2, y),
		project(x+tw, y+th/2),
		project(x+tw/2, y+th),
		project(x, y+th/2),
	}
	if tile.Category != CategoryWater {
		wall := th / 2
		left := []image.Point{
			project(x, y+th/2),
			project(x+tw/2, y+th),
			project(x+tw/2, y+th+wall),
			project(x, y+th/2+wall),
		}
		right := []image.Point{
			project(x+tw, y+th/2),
			project(x+tw/2, y+th),
			project(x+tw/2, y+th+wall),
			project(x+tw, y+th/2+wall),
		}
		fillPolygon(img, left, applyLighting(base, previewAmbientLight+0.45))
		fillPolygon(img, right, applyLighting(base, previewAmbientLight+0.3))
	}
	fillPolygon(img, top, applyLighting(base, previewAmbientLight+0.8))
}

func renderVegetationPreview(img *image.NRGBA, item VegetationItem, project func(x, y float64) image.Point) {
	canopy := resolveTextureColor(item.Texture, "")
	trunk := color.NRGBA{R: 94, G: 62, B: 35, A: 255}

	trunkWidth := item.Width / 8
	trunkTop := item.Y - item.Height/4
	fillPolygon(img, []image.Point{
		project(item.X-trunkWidth/2, trunkTop),
		project(item.X+trunkWidth/2, trunkTop),
		project(item.X+trunkWidth/2, item.Y),
		project(item.X-trunkWidth/2, item.Y),
	}, trunk)
	fillPolygon(img, []image.Point{
		project(item.X, item.Y-item.Height),
		project(item.X+item.Width/2, trunkTop),
		project(item.X-item.Width/2, trunkTop),
	}, applyLighting(canopy, previewAmbientLight+0.7))
}

// EncodePreview writes img as PNG.
func EncodePreview(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

// SavePreview renders chunks and writes the PNG to
// <outputDir>/chunk_<col>_<row>.png named after the first chunk.
func SavePreview(g Geometry, chunks []*Chunk, scale float64, outputDir string) (string, error) {
	img, err := RenderPreview(g, chunks, scale)
	if err != nil {
		return "", err
	}
	if err := ensurePreviewDir(outputDir); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("chunk_%d_%d.png", chunks[0].Key.Col, chunks[0].Key.Row))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create preview: %w", err)
	}
	defer file.Close()
	if err := EncodePreview(file, img); err != nil {
		return "", err
	}
	return path, nil
}

func resolveTextureColor(tex Texture, category Category) color.NRGBA {
	if tex.Color != "" {
		if col, ok := parseHexColor(tex.Color); ok {
			return col
		}
	}
	for _, name := range []string{tex.Name, string(category)} {
		if name == "" {
			continue
		}
		if preset, ok := DefaultAtlas[name]; ok {
			if col, ok := parseHexColor(preset.Color); ok {
				return col
			}
		}
	}
	return color.NRGBA{R: 128, G: 128, B: 128, A: 255}
}

func parseHexColor(value string) (color.NRGBA, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return color.NRGBA{}, false
	}
	trimmed = strings.TrimPrefix(trimmed, "#")
	if len(trimmed) != 6 {
		return color.NRGBA{}, false
	}
	r, ok := parseHexByte(trimmed[0:2])
	if !ok {
		return color.NRGBA{}, false
	}
	g, ok := parseHexByte(trimmed[2:4])
	if !ok {
		return color.NRGBA{}, false
	}
	b, ok := parseHexByte(trimmed[4:6])
	if !ok {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, true
}

func parseHexByte(value string) (uint8, bool) {
	if len(value) != 2 {
		return 0, false
	}
	v, err := strconv.ParseUint(value, 16, 8)
	if err != nil {
		return 0, false
	}
	return uint8(v), true
}

func applyLighting(base color.NRGBA, factor float64) color.NRGBA {
	factor = math.Max(0, math.Min(1, factor))
	r := uint8(math.Round(float64(base.R) * factor))
	g := uint8(math.Round(float64(base.G) * factor))
	b := uint8(math.Round(float64(base.B) * factor))
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func fillPolygon(img *image.NRGBA, pts []image.Point, col color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	minY := pts[0].Y
	maxY := pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	bounds := img.Bounds()
	minY = max(minY, bounds.Min.Y)
	maxY = min(maxY, bounds.Max.Y-1)
	xs := make([]int, 0, len(pts))
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		for i := range pts {
			j := (i + 1) % len(pts)
			x1, y1 := pts[i].X, pts[i].Y
			x2, y2 := pts[j].X, pts[j].Y
			if y1 == y2 {
				continue
			}
			if y < min(y1, y2) || y >= max(y1, y2) {
				continue
			}
			xs = append(xs, x1+(y-y1)*(x2-x1)/(y2-y1))
		}
		if len(xs) < 2 {
			continue
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xStart := max(xs[i], bounds.Min.X)
			xEnd := min(xs[i+1], bounds.Max.X-1)
			for x := xStart; x <= xEnd; x++ {
				idx := (y-bounds.Min.Y)*img.Stride + (x-bounds.Min.X)*4
				img.Pix[idx] = col.R
				img.Pix[idx+1] = col.G
				img.Pix[idx+2] = col.B
				img.Pix[idx+3] = col.A
			}
		}
	}
}

func ensurePreviewDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output directory is empty")
	}
	return os.MkdirAll(dir, 0o755)
}
