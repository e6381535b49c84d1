package world

// Texture is an opaque drawable handle. The renderer resolves Name to an
// atlas frame; Color is used by previews and as a fallback fill.
type Texture struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Frame int    `json:"frame,omitempty"`
}

// TextureSource looks up drawable handles by name.
type TextureSource interface {
	Lookup(name string) (Texture, bool)
}

// Atlas is a TextureSource backed by a fixed map.
type Atlas map[string]Texture

func (a Atlas) Lookup(name string) (Texture, bool) {
	tex, ok := a[name]
	return tex, ok
}

// DefaultAtlas enumerates the built-in terrain and vegetation visuals.
var DefaultAtlas = Atlas{
	"grass":    {Name: "grass", Color: "#5d9b3d"},
	"sand":     {Name: "sand", Color: "#d8c387"},
	"water":    {Name: "water", Color: "#3d7fc4"},
	"oak-tree": {Name: "oak-tree", Color: "#2f5d1f"},
}

// ResolveTexture returns the texture for name, falling back to the fallback
// texture unchanged and finally to a bare handle carrying only the requested
// name. The returned Name always resolves in src unless both lookups missed.
func ResolveTexture(src TextureSource, name, fallback string) Texture {
	if src != nil {
		if tex, ok := src.Lookup(name); ok {
			return tex
		}
		if fallback != "" && fallback != name {
			if tex, ok := src.Lookup(fallback); ok {
				return tex
			}
		}
	}
	return Texture{Name: name}
}
