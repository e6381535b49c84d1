package terrain

import (
	"isoworld/internal/config"
	"isoworld/internal/world"
)

// Classifier maps noise samples to terrain categories. Thresholds are
// inclusive lower bounds of the next category: a sample equal to
// WaterThreshold is sand or grass, never water.
type Classifier struct {
	WaterThreshold float64
	SandThreshold  float64
}

func NewClassifier(cfg config.TerrainConfig) Classifier {
	return Classifier{
		WaterThreshold: cfg.WaterThreshold,
		SandThreshold:  cfg.SandThreshold,
	}
}

func (c Classifier) Classify(sample float64) world.Category {
	switch {
	case sample < c.WaterThreshold:
		return world.CategoryWater
	case sample < c.SandThreshold:
		return world.CategorySand
	default:
		return world.CategoryGrass
	}
}

func (c Classifier) IsWater(sample float64) bool {
	return sample < c.WaterThreshold
}

// ResolveWaterVariant picks the water tile variant for a 3×3 neighbourhood of
// samples indexed [row offset + 1][col offset + 1]. The first matching entry
// of WaterPatterns wins; no match yields PlainWater.
func (c Classifier) ResolveWaterVariant(neighbourhood [3][3]float64) string {
	var water [3][3]bool
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			water[y][x] = c.IsWater(neighbourhood[y][x])
		}
	}
	for _, pattern := range WaterPatterns {
		if pattern.Matches(water) {
			return pattern.Name
		}
	}
	return PlainWater
}
