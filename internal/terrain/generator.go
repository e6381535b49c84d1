package terrain

import (
	"runtime"
	"sync"

	"isoworld/internal/config"
	"isoworld/internal/world"
)

// Generator builds chunk content from the noise field, classifier and
// vegetation rules. It holds no mutable state, so the same key always yields
// the same chunk.
type Generator struct {
	geometry   world.Geometry
	seed       int64
	field      *NoiseField
	classifier Classifier
	vegetation *Vegetation
	textures   world.TextureSource
	workers    int
}

func NewGenerator(cfg *config.Config, textures world.TextureSource) *Generator {
	if textures == nil {
		textures = world.DefaultAtlas
	}
	return &Generator{
		geometry:   world.NewGeometry(cfg.World),
		seed:       cfg.World.Seed,
		field:      NewNoiseField(cfg.Terrain.Noise, cfg.World.Seed),
		classifier: NewClassifier(cfg.Terrain),
		vegetation: NewVegetation(cfg.Vegetation, cfg.World.Seed),
		textures:   textures,
		workers:    cfg.Terrain.Workers,
	}
}

func (g *Generator) Geometry() world.Geometry {
	return g.geometry
}

func (g *Generator) Classifier() Classifier {
	return g.classifier
}

// Sample exposes the terrain field at a tile position.
func (g *Generator) Sample(row, col int) float64 {
	return g.field.Sample(float64(col), float64(row))
}

func (g *Generator) Generate(key world.ChunkKey) *world.Chunk {
	size := g.geometry.ChunkSize
	chunk := world.NewChunk(key, size)
	grid := g.sampleGrid(key)

	halfH := g.geometry.HalfHeight()
	tileH := float64(g.geometry.TileHeight)

	for lr, lc := range g.geometry.Cells() {
		row, col := g.geometry.LocalToGlobal(key, lr, lc)
		sample := grid[lr+1][lc+1]
		category := g.classifier.Classify(sample)

		variant := string(category)
		if category == world.CategoryWater {
			var neighbourhood [3][3]float64
			for dy := 0; dy < 3; dy++ {
				for dx := 0; dx < 3; dx++ {
					neighbourhood[dy][dx] = grid[lr+dy][lc+dx]
				}
			}
			variant = g.classifier.ResolveWaterVariant(neighbourhood)
		}

		origin := g.geometry.TileOrigin(row, col)
		label := world.TileLabel(origin)
		tile := world.Tile{
			Row:      row,
			Col:      col,
			X:        origin.X,
			Y:        origin.Y,
			Label:    label,
			Category: category,
			Variant:  variant,
			Texture:  world.ResolveTexture(g.textures, variant, string(category)),
			Sample:   sample,
		}
		if category == world.CategoryWater {
			tile.OffsetY = tileH / 4
			tile.Hidden = variant == PlainWater
		}
		chunk.AddTile(tile)

		if category == world.CategoryWater {
			continue
		}
		species, ok := g.vegetation.Place(row, col)
		if !ok {
			continue
		}
		anchor := g.geometry.IsoProject(row, col)
		chunk.AddVegetation(world.VegetationItem{
			Label:   label,
			Species: species.Name,
			Row:     row,
			Col:     col,
			X:       anchor.X,
			Y:       anchor.Y + 0.75*tileH,
			Width:   species.Width,
			Height:  species.Height,
			ZIndex:  origin.Y + halfH,
			Texture: world.ResolveTexture(g.textures, species.Name, ""),
		})
	}
	return chunk
}

// sampleGrid samples the chunk plus a one tile border so water variants can
// see neighbours in adjacent chunks. grid[r][c] holds global tile
// (key.Row*N - 1 + r, key.Col*N - 1 + c).
func (g *Generator) sampleGrid(key world.ChunkKey) [][]float64 {
	size := g.geometry.ChunkSize + 2
	originRow, originCol := g.geometry.LocalToGlobal(key, -1, -1)
	grid := make([][]float64, size)

	sampleRow := func(r int) {
		line := make([]float64, size)
		for c := 0; c < size; c++ {
			line[c] = g.field.Sample(float64(originCol+c), float64(originRow+r))
		}
		grid[r] = line
	}

	workers := g.workerCount(size)
	if workers <= 1 {
		for r := 0; r < size; r++ {
			sampleRow(r)
		}
		return grid
	}

	rows := make(chan int, size)
	for r := 0; r < size; r++ {
		rows <- r
	}
	close(rows)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range rows {
				sampleRow(r)
			}
		}()
	}
	wg.Wait()
	return grid
}

func (g *Generator) workerCount(rows int) int {
	if rows <= 0 {
		return 0
	}
	if g.workers > 0 {
		return min(g.workers, rows)
	}
	return max(1, min(runtime.GOMAXPROCS(0), rows))
}
