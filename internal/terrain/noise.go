package terrain

import (
	"github.com/aquilax/go-perlin"

	"isoworld/internal/config"
)

// NoiseField is a domain warped fractal Perlin field. Sample is a pure
// function of (seed, x, y) and is safe for concurrent use.
type NoiseField struct {
	cfg  config.NoiseConfig
	base *perlin.Perlin
}

func NewNoiseField(cfg config.NoiseConfig, seed int64) *NoiseField {
	// One octave per call; the octave sum is done in Sample so persistence
	// and lacunarity come from configuration.
	return &NoiseField{
		cfg:  cfg,
		base: perlin.NewPerlin(2, 2, 1, seed),
	}
}

// Sample returns the field value at (x, y). Coordinates are raw tile grid
// positions. Values are unbounded in principle; with the default parameters
// they fall roughly within [-1, 1].
func (f *NoiseField) Sample(x, y float64) float64 {
	var warpX, warpY float64
	if f.cfg.WarpScale != 0 && f.cfg.WarpFrequency != 0 {
		wf := f.cfg.WarpFrequency
		warpX = f.base.Noise2D(x*wf, y*wf) * f.cfg.WarpScale
		warpY = f.base.Noise2D((x+f.cfg.WarpOffset)*wf, y*wf) * f.cfg.WarpScale
	}

	value := 0.0
	amplitude := 1.0
	frequency := f.cfg.Frequency
	for i := 0; i < f.cfg.Octaves; i++ {
		value += f.base.Noise2D((x+warpX)*frequency, (y+warpY)*frequency) * amplitude
		amplitude *= f.cfg.Persistence
		frequency *= f.cfg.Lacunarity
	}
	return value
}
