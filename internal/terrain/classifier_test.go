package terrain

import (
	"testing"

	"isoworld/internal/config"
	"isoworld/internal/world"
)

func TestClassifyThresholds(t *testing.T) {
	c := NewClassifier(config.Default().Terrain)
	tests := []struct {
		sample float64
		want   world.Category
	}{
		{sample: -0.8, want: world.CategoryWater},
		{sample: 0.1499, want: world.CategoryWater},
		{sample: 0.15, want: world.CategorySand},
		{sample: 0.2, want: world.CategorySand},
		{sample: 0.22, want: world.CategoryGrass},
		{sample: 0.9, want: world.CategoryGrass},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.sample); got != tt.want {
			t.Fatalf("Classify(%v) = %s, want %s", tt.sample, got, tt.want)
		}
		if c.IsWater(tt.sample) != (tt.want == world.CategoryWater) {
			t.Fatalf("IsWater(%v) disagrees with Classify", tt.sample)
		}
	}
}

const (
	w = -1.0 // water sample
	g = 1.0  // ground sample
)

func TestResolveWaterVariant(t *testing.T) {
	c := NewClassifier(config.Default().Terrain)
	tests := []struct {
		name  string
		cells [3][3]float64
		want  string
	}{
		{
			name:  "all water",
			cells: [3][3]float64{{w, w, w}, {w, w, w}, {w, w, w}},
			want:  "water",
		},
		{
			name:  "surrounded by ground",
			cells: [3][3]float64{{g, g, g}, {g, w, g}, {g, g, g}},
			want:  "water-full",
		},
		{
			name:  "four ground corners",
			cells: [3][3]float64{{g, w, g}, {w, w, w}, {g, w, g}},
			want:  "water-edge-full",
		},
		{
			name:  "one ground corner",
			cells: [3][3]float64{{g, w, w}, {w, w, w}, {w, w, w}},
			want:  "water-edge-one-top",
		},
		{
			name:  "ground above and below",
			cells: [3][3]float64{{w, g, w}, {w, w, w}, {w, g, w}},
			want:  "water-dubble-bottom-top",
		},
		{
			name:  "ground on the left edge",
			cells: [3][3]float64{{g, w, w}, {g, w, w}, {g, w, w}},
			want:  "water-single-top",
		},
		{
			name:  "no template matches",
			cells: [3][3]float64{{w, g, w}, {w, w, w}, {g, w, w}},
			want:  PlainWater,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ResolveWaterVariant(tt.cells); got != tt.want {
				t.Fatalf("variant = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWaterPatternOrderDecidesOverlaps(t *testing.T) {
	cells := [3][3]bool{
		{false, true, false},
		{true, true, true},
		{false, true, false},
	}
	var matches []string
	for _, p := range WaterPatterns {
		if p.Matches(cells) {
			matches = append(matches, p.Name)
		}
	}
	if len(matches) < 2 {
		t.Fatalf("expected overlapping templates, got %v", matches)
	}
	if matches[0] != "water-edge-full" {
		t.Fatalf("first match = %s, want water-edge-full", matches[0])
	}
}

func TestWaterPatternsDeclaredOrder(t *testing.T) {
	want := []string{
		"water",
		"water-full",
		"water-single-top",
		"water-single-left",
		"water-single-bottom",
		"water-single-right",
		"water-dubble-bottom-top",
		"water-dubble-right-left",
		"water-corner-top",
		"water-corner-left",
		"water-corner-bottom",
		"water-corner-right",
		"water-three-side-top",
		"water-three-side-left",
		"water-three-side-bottom",
		"water-three-side-right",
		"water-edge-full",
		"water-edge-two-top-left",
		"water-edge-two-left-bottom",
		"water-edge-two-bottom-right",
		"water-edge-two-right-top",
		"water-edge-one-top",
		"water-edge-one-left",
		"water-edge-one-bottom",
		"water-edge-one-right",
	}
	if len(WaterPatterns) != len(want) {
		t.Fatalf("have %d patterns, want %d", len(WaterPatterns), len(want))
	}
	for i, p := range WaterPatterns {
		if p.Name != want[i] {
			t.Fatalf("pattern %d = %s, want %s", i, p.Name, want[i])
		}
		if p.Template[1][1] != Water {
			t.Fatalf("pattern %s must require water in the centre", p.Name)
		}
	}
}
