package actor

import (
	"time"

	"isoworld/internal/collision"
	"isoworld/internal/config"
	"isoworld/internal/world"
)

// Key is a movement key as sent by the browser.
type Key string

const (
	KeyUp    Key = "w"
	KeyLeft  Key = "a"
	KeyDown  Key = "s"
	KeyRight Key = "d"
)

// DefaultAnimation is shown before any key has been pressed.
const DefaultAnimation = "down-center"

// framesPerSecond converts elapsed time into the frame based speed unit.
const framesPerSecond = 60

var keyDirection = map[Key]collision.Direction{
	KeyUp:    collision.Up,
	KeyLeft:  collision.Left,
	KeyDown:  collision.Down,
	KeyRight: collision.Right,
}

// Valid reports whether k is one of the movement keys.
func (k Key) Valid() bool {
	_, ok := keyDirection[k]
	return ok
}

// State is the externally visible actor snapshot.
type State struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Animation string  `json:"animation"`
	Frame     int     `json:"frame"`
	Moving    bool    `json:"moving"`
}

// Actor is the controllable character. X, Y is its bottom-left corner.
type Actor struct {
	cfg config.ActorConfig

	x, y      float64
	keys      map[Key]struct{}
	animation string
	frame     int
	timer     time.Duration
}

func New(cfg config.ActorConfig, pos world.Point) *Actor {
	return &Actor{
		cfg:       cfg,
		x:         pos.X,
		y:         pos.Y,
		keys:      make(map[Key]struct{}),
		animation: DefaultAnimation,
	}
}

// Spawn places an actor of cfg's size on the tile under center.
func Spawn(g world.Geometry, cfg config.ActorConfig, center world.Point) world.Point {
	col, row := g.WorldToIso(center)
	top := g.IsoProject(row, col)
	return world.Point{
		X: top.X - float64(cfg.Width)/2,
		Y: top.Y + float64(cfg.Height)/2,
	}
}

func (a *Actor) Position() world.Point {
	return world.Point{X: a.x, Y: a.y}
}

// Body is the collision footprint at the current position.
func (a *Actor) Body() collision.Actor {
	return collision.Actor{X: a.x, Y: a.y, Width: float64(a.cfg.Width), Height: float64(a.cfg.Height)}
}

func (a *Actor) Moving() bool {
	return len(a.keys) > 0
}

func (a *Actor) State() State {
	return State{X: a.x, Y: a.y, Animation: a.animation, Frame: a.frame, Moving: a.Moving()}
}

// Press adds k to the held keys. It reports whether anything changed.
func (a *Actor) Press(k Key) bool {
	if !k.Valid() {
		return false
	}
	if _, held := a.keys[k]; held {
		return false
	}
	a.keys[k] = struct{}{}
	a.keysChanged()
	return true
}

// Release removes k from the held keys. It reports whether anything changed.
func (a *Actor) Release(k Key) bool {
	if _, held := a.keys[k]; !held {
		return false
	}
	delete(a.keys, k)
	a.keysChanged()
	return true
}

// SetKeys replaces the held keys with keys, ignoring unknown ones.
func (a *Actor) SetKeys(keys []Key) {
	want := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		if k.Valid() {
			want[k] = struct{}{}
		}
	}
	for k := range a.keys {
		if _, ok := want[k]; !ok {
			a.Release(k)
		}
	}
	for _, k := range []Key{KeyUp, KeyLeft, KeyDown, KeyRight} {
		if _, ok := want[k]; ok {
			a.Press(k)
		}
	}
}

func (a *Actor) keysChanged() {
	a.animation = AnimationKey(a.keys, a.animation)
	a.frame = 0
}

// AnimationKey picks the sprite sheet animation for the held keys. The name
// is "<vertical>-<horizontal>"; a lone vertical key uses "center" and a lone
// horizontal key repeats itself. More than two keys, or none, keep previous.
func AnimationKey(keys map[Key]struct{}, previous string) string {
	if len(keys) == 0 || len(keys) > 2 {
		return previous
	}
	var vertical, horizontal string
	for k := range keys {
		switch k {
		case KeyUp:
			vertical = "up"
		case KeyDown:
			vertical = "down"
		case KeyLeft:
			horizontal = "left"
		case KeyRight:
			horizontal = "right"
		}
	}
	if len(keys) == 1 {
		if vertical != "" {
			return vertical + "-center"
		}
		if horizontal != "" {
			return horizontal + "-" + horizontal
		}
	}
	if vertical != "" && horizontal != "" {
		return vertical + "-" + horizontal
	}
	return previous
}

// Step advances the actor by delta. Only directions permitted by allowed are
// applied; horizontal movement covers twice the distance to match the 2:1
// projection. It returns the displacement.
func (a *Actor) Step(delta time.Duration, allowed func(collision.Direction) bool) world.Point {
	distance := delta.Seconds() * framesPerSecond * a.cfg.Speed
	var moved world.Point
	for k := range a.keys {
		dir := keyDirection[k]
		if allowed != nil && !allowed(dir) {
			continue
		}
		switch dir {
		case collision.Up:
			moved.Y -= distance
		case collision.Down:
			moved.Y += distance
		case collision.Left:
			moved.X -= 2 * distance
		case collision.Right:
			moved.X += 2 * distance
		}
	}
	a.x += moved.X
	a.y += moved.Y
	a.animate(delta)
	return moved
}

func (a *Actor) animate(delta time.Duration) {
	a.timer += delta
	if a.timer < a.cfg.FrameDuration.Duration() || !a.Moving() {
		return
	}
	a.timer = 0
	if a.cfg.FrameCount > 0 {
		a.frame = (a.frame + 1) % a.cfg.FrameCount
	}
}
