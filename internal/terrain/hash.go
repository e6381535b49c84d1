package terrain

const (
	hashPrimeX    = 374761393
	hashPrimeY    = 668265263
	hashPrimeSeed = 982451653
	hashMixer     = 1274126177
)

// hash3 mixes three integers into 32 bits with wrapping arithmetic.
func hash3(x, y, z int64) uint32 {
	h := uint32(x*hashPrimeX + y*hashPrimeY + z*hashPrimeSeed)
	h = (h ^ (h >> 13)) * hashMixer
	return h ^ (h >> 16)
}

// Hash returns a deterministic value in [0, 1] for a grid position. It is
// independent of the noise field so vegetation placement does not follow
// terrain shape.
func Hash(x, y int, seed int64) float64 {
	return float64(hash3(int64(x), int64(y), seed)) / 0xffffffff
}
