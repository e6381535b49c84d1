package terrain

// Rule constrains one cell of a water template.
type Rule int8

const (
	Water  Rule = -1
	Any    Rule = 0
	Ground Rule = 1
)

// PlainWater is the interior water variant and the fallback when no
// template matches.
const PlainWater = "water"

// WaterPattern names the variant drawn when a water cell's neighbourhood
// satisfies Template. Template is indexed [row offset + 1][col offset + 1].
type WaterPattern struct {
	Name     string
	Template [3][3]Rule
}

// Matches reports whether the water/ground neighbourhood satisfies p.
func (p WaterPattern) Matches(water [3][3]bool) bool {
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			switch p.Template[y][x] {
			case Ground:
				if water[y][x] {
					return false
				}
			case Water:
				if !water[y][x] {
					return false
				}
			}
		}
	}
	return true
}

// WaterPatterns is evaluated in order and the first match wins. Several
// templates overlap, so the order decides ambiguous neighbourhoods and must
// not be changed.
var WaterPatterns = []WaterPattern{
	{Name: "water", Template: [3][3]Rule{
		{-1, -1, -1},
		{-1, -1, -1},
		{-1, -1, -1},
	}},
	{Name: "water-full", Template: [3][3]Rule{
		{0, 1, 0},
		{1, -1, 1},
		{0, 1, 0},
	}},
	{Name: "water-single-top", Template: [3][3]Rule{
		{0, -1, -1},
		{1, -1, -1},
		{0, -1, -1},
	}},
	{Name: "water-single-left", Template: [3][3]Rule{
		{-1, -1, -1},
		{-1, -1, -1},
		{0, 1, 0},
	}},
	{Name: "water-single-bottom", Template: [3][3]Rule{
		{-1, -1, 0},
		{-1, -1, 1},
		{-1, -1, 0},
	}},
	{Name: "water-single-right", Template: [3][3]Rule{
		{0, 1, 0},
		{-1, -1, -1},
		{-1, -1, -1},
	}},
	{Name: "water-dubble-bottom-top", Template: [3][3]Rule{
		{0, 1, 0},
		{-1, -1, -1},
		{0, 1, 0},
	}},
	{Name: "water-dubble-right-left", Template: [3][3]Rule{
		{0, -1, 0},
		{1, -1, 1},
		{0, -1, 0},
	}},
	{Name: "water-corner-top", Template: [3][3]Rule{
		{0, 1, 0},
		{1, -1, -1},
		{0, -1, 0},
	}},
	{Name: "water-corner-left", Template: [3][3]Rule{
		{0, -1, 0},
		{1, -1, -1},
		{0, 1, 0},
	}},
	{Name: "water-corner-bottom", Template: [3][3]Rule{
		{0, -1, 0},
		{-1, -1, 1},
		{0, 1, 0},
	}},
	{Name: "water-corner-right", Template: [3][3]Rule{
		{0, 1, 0},
		{-1, -1, 1},
		{0, -1, 0},
	}},
	{Name: "water-three-side-top", Template: [3][3]Rule{
		{0, 1, 0},
		{1, -1, 1},
		{0, -1, 0},
	}},
	{Name: "water-three-side-left", Template: [3][3]Rule{
		{0, 1, 0},
		{1, -1, -1},
		{0, 1, 0},
	}},
	{Name: "water-three-side-bottom", Template: [3][3]Rule{
		{0, -1, 0},
		{1, -1, 1},
		{0, 1, 0},
	}},
	{Name: "water-three-side-right", Template: [3][3]Rule{
		{0, 1, 0},
		{-1, -1, 1},
		{0, 1, 0},
	}},
	{Name: "water-edge-full", Template: [3][3]Rule{
		{1, -1, 1},
		{-1, -1, -1},
		{1, -1, 1},
	}},
	{Name: "water-edge-two-top-left", Template: [3][3]Rule{
		{1, -1, 0},
		{-1, -1, -1},
		{1, -1, 0},
	}},
	{Name: "water-edge-two-left-bottom", Template: [3][3]Rule{
		{0, -1, 0},
		{-1, -1, -1},
		{1, -1, 1},
	}},
	{Name: "water-edge-two-bottom-right", Template: [3][3]Rule{
		{0, -1, 1},
		{-1, -1, -1},
		{0, -1, 1},
	}},
	{Name: "water-edge-two-right-top", Template: [3][3]Rule{
		{1, -1, 1},
		{-1, -1, -1},
		{0, -1, 0},
	}},
	{Name: "water-edge-one-top", Template: [3][3]Rule{
		{1, -1, 0},
		{-1, -1, -1},
		{0, -1, 0},
	}},
	{Name: "water-edge-one-left", Template: [3][3]Rule{
		{0, -1, 0},
		{-1, -1, -1},
		{1, -1, 0},
	}},
	{Name: "water-edge-one-bottom", Template: [3][3]Rule{
		{0, -1, 0},
		{-1, -1, -1},
		{0, -1, 1},
	}},
	{Name: "water-edge-one-right", Template: [3][3]Rule{
		{0, -1, 1},
		{-1, -1, -1},
		{0, -1, 0},
	}},
}
