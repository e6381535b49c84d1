package terrain

import (
	"isoworld/internal/config"
)

// Species describes a vegetation sprite chosen once the vegetation noise
// reaches Threshold.
type Species struct {
	Name      string
	Threshold float64
	Width     float64
	Height    float64
}

// Vegetation decides which cells carry a plant. Placement is gated by Hash
// against the density, then the species comes from a second noise field.
type Vegetation struct {
	density float64
	seed    int64
	noise   *NoiseField
	species []Species
}

func NewVegetation(cfg config.VegetationConfig, seed int64) *Vegetation {
	species := make([]Species, 0, len(cfg.Species))
	for _, s := range cfg.Species {
		species = append(species, Species{
			Name:      s.Name,
			Threshold: s.Threshold,
			Width:     float64(s.Width),
			Height:    float64(s.Height),
		})
	}
	return &Vegetation{
		density: cfg.Density,
		seed:    seed,
		noise:   NewNoiseField(cfg.Noise, seed),
		species: species,
	}
}

// Gate reports whether the density hash admits a plant at (row, col).
func (v *Vegetation) Gate(row, col int) bool {
	return Hash(col, row, v.seed) <= v.density
}

// SpeciesFor returns the species selected by sample. Later table entries
// override earlier ones, so the table is ordered by ascending threshold.
func (v *Vegetation) SpeciesFor(sample float64) (Species, bool) {
	var (
		picked Species
		found  bool
	)
	for _, s := range v.species {
		if sample >= s.Threshold {
			picked = s
			found = true
		}
	}
	return picked, found
}

// Place combines the density gate and species selection for one land cell.
func (v *Vegetation) Place(row, col int) (Species, bool) {
	if len(v.species) == 0 || !v.Gate(row, col) {
		return Species{}, false
	}
	return v.SpeciesFor(v.noise.Sample(float64(col), float64(row)))
}
