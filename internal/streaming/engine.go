package streaming

import (
	"log"
	"time"

	"golang.org/x/time/rate"

	"isoworld/internal/collision"
	"isoworld/internal/config"
	"isoworld/internal/world"
)

// State reports whether the engine may create a chunk on the next tick.
type State int

const (
	StateIdle State = iota
	StateCreating
)

func (s State) String() string {
	if s == StateCreating {
		return "creating"
	}
	return "idle"
}

const maxStoredFactor = 16

// Options tune one Engine. Zero values pick defaults.
type Options struct {
	Radius           int
	Padding          int
	MaxStoredChunks  int
	CreationCooldown time.Duration
	ResetDebounce    time.Duration
	ViewportWidth    int
	ViewportHeight   int
	Logger           *log.Logger
	Now              func() time.Time
}

// OptionsFromConfig maps the streaming and viewport sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Radius:           cfg.Streaming.Radius,
		Padding:          cfg.Streaming.Padding,
		MaxStoredChunks:  cfg.Streaming.MaxStoredChunks,
		CreationCooldown: cfg.Streaming.CreationCooldown.Duration(),
		ResetDebounce:    cfg.Streaming.ResetDebounce.Duration(),
		ViewportWidth:    cfg.Viewport.Width,
		ViewportHeight:   cfg.Viewport.Height,
	}
}

// TickReport summarises what one StreamTick changed.
type TickReport struct {
	Focal    world.ChunkKey   `json:"focal"`
	Created  *world.ChunkKey  `json:"created,omitempty"`
	Evicted  []world.ChunkKey `json:"evicted,omitempty"`
	Attached []world.ChunkKey `json:"attached,omitempty"`
	Detached []world.ChunkKey `json:"detached,omitempty"`
	Pending  int              `json:"pending"`
	Resident int              `json:"resident"`
	Reset    bool             `json:"reset,omitempty"`
}

// Changed reports whether the tick touched the store or the scene.
func (r TickReport) Changed() bool {
	return r.Created != nil || len(r.Evicted) > 0 || len(r.Attached) > 0 || len(r.Detached) > 0
}

// Stats accumulates engine activity since construction.
type Stats struct {
	Ticks       int
	Created     int
	Evicted     int
	Resets      int
	GenerateDur time.Duration
}

// Engine owns the chunk store of one world view and keeps a Scene in step
// with a moving focal point. All methods must be called from one goroutine.
type Engine struct {
	geometry  world.Geometry
	generator world.Generator
	scene     Scene
	store     *world.Store
	logger    *log.Logger
	now       func() time.Time

	limiter  *rate.Limiter
	cooldown time.Duration
	fixedRad int
	radius   int
	padding  int
	maxFixed int
	maxStore int
	viewW    int
	viewH    int

	desired    []world.ChunkKey
	desiredSet map[world.ChunkKey]struct{}
	pending    []world.ChunkKey
	queued     map[world.ChunkKey]struct{}
	lastFocal  world.ChunkKey
	hasFocal   bool

	debounce time.Duration
	resetDue time.Time
	resetSet bool

	stats Stats
}

func NewEngine(geometry world.Geometry, generator world.Generator, scene Scene, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "streaming ", log.LstdFlags|log.Lmicroseconds)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if scene == nil {
		scene = NewMemoryScene()
	}

	limit := rate.Inf
	if opts.CreationCooldown > 0 {
		limit = rate.Every(opts.CreationCooldown)
	}

	e := &Engine{
		geometry:   geometry,
		generator:  generator,
		scene:      scene,
		store:      world.NewStore(),
		logger:     logger,
		now:        now,
		limiter:    rate.NewLimiter(limit, 1),
		cooldown:   opts.CreationCooldown,
		fixedRad:   opts.Radius,
		padding:    opts.Padding,
		maxFixed:   opts.MaxStoredChunks,
		viewW:      opts.ViewportWidth,
		viewH:      opts.ViewportHeight,
		desiredSet: make(map[world.ChunkKey]struct{}),
		queued:     make(map[world.ChunkKey]struct{}),
		debounce:   opts.ResetDebounce,
	}
	e.radius = e.resolveRadius()
	e.maxStore = e.resolveMaxStored()
	return e
}

// resolveRadius prefers the configured radius and otherwise derives one from
// the viewport.
func (e *Engine) resolveRadius() int {
	if e.fixedRad > 0 {
		return e.fixedRad
	}
	if e.viewW > 0 && e.viewH > 0 {
		return e.geometry.RadiusForViewport(e.viewW, e.viewH, e.padding)
	}
	return 1
}

// resolveMaxStored keeps at least one slot above the desired set, otherwise
// every tick would evict.
func (e *Engine) resolveMaxStored() int {
	side := 2*e.radius + 1
	minimum := side*side + 1
	limit := e.maxFixed
	if limit <= 0 {
		limit = e.radius * e.radius * maxStoredFactor
	}
	return max(limit, minimum)
}

func (e *Engine) Geometry() world.Geometry { return e.geometry }

func (e *Engine) Store() *world.Store { return e.store }

func (e *Engine) Scene() Scene { return e.scene }

func (e *Engine) Radius() int { return e.radius }

func (e *Engine) MaxStored() int { return e.maxStore }

func (e *Engine) Stats() Stats { return e.stats }

// Pending returns a copy of the creation queue in FIFO order.
func (e *Engine) Pending() []world.ChunkKey {
	return append([]world.ChunkKey(nil), e.pending...)
}

// Desired returns the keys wanted around the last focal chunk.
func (e *Engine) Desired() []world.ChunkKey {
	return append([]world.ChunkKey(nil), e.desired...)
}

// State is Creating while the creation cooldown has not elapsed.
func (e *Engine) State() State {
	if e.cooldown <= 0 {
		return StateIdle
	}
	if e.limiter.TokensAt(e.now()) < 1 {
		return StateCreating
	}
	return StateIdle
}

// ResetStreaming schedules a full resync once the debounce window passes
// without further calls.
func (e *Engine) ResetStreaming() {
	e.resetDue = e.now().Add(e.debounce)
	e.resetSet = true
}

// SetViewport records a new viewport size and schedules a reset so the
// derived radius follows it.
func (e *Engine) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.viewW, e.viewH = width, height
	e.ResetStreaming()
}

// StreamTick advances streaming for the focal position. It recomputes the
// desired set, queues missing chunks, evicts when over the ceiling, creates
// at most one chunk and resyncs the scene, in that order.
func (e *Engine) StreamTick(focal world.Point) TickReport {
	now := e.now()
	e.stats.Ticks++
	center := e.geometry.ChunkOfPoint(focal)
	report := TickReport{Focal: center}

	recompute := !e.hasFocal || center != e.lastFocal
	if e.resetSet && !now.Before(e.resetDue) {
		e.applyReset()
		report.Reset = true
		recompute = true
	}
	if recompute {
		e.lastFocal = center
		e.hasFocal = true
		e.setDesired(e.geometry.DesiredKeysAt(focal, e.radius))
	}
	e.enqueueMissing()

	if e.store.Len() >= e.maxStore {
		report.Evicted = e.evict()
	}

	if len(e.pending) > 0 && e.limiter.AllowN(now, 1) {
		key := e.pending[0]
		e.pending = e.pending[1:]
		delete(e.queued, key)
		if !e.store.Has(key) {
			e.create(key)
			created := key
			report.Created = &created
		}
	}

	report.Attached, report.Detached = e.resync()
	report.Pending = len(e.pending)
	report.Resident = e.store.Len()
	return report
}

func (e *Engine) applyReset() {
	e.resetSet = false
	e.stats.Resets++
	e.pending = e.pending[:0]
	clear(e.queued)
	e.radius = e.resolveRadius()
	e.maxStore = e.resolveMaxStored()
	e.logger.Printf("reset: radius %d max stored %d", e.radius, e.maxStore)
}

func (e *Engine) setDesired(keys []world.ChunkKey) {
	e.desired = keys
	clear(e.desiredSet)
	for _, key := range keys {
		e.desiredSet[key] = struct{}{}
	}
}

// enqueueMissing drops queued keys that are no longer wanted and appends
// desired keys that are neither resident nor queued.
func (e *Engine) enqueueMissing() {
	kept := e.pending[:0]
	for _, key := range e.pending {
		if _, ok := e.desiredSet[key]; ok {
			kept = append(kept, key)
			continue
		}
		delete(e.queued, key)
	}
	e.pending = kept

	for _, key := range e.desired {
		if e.store.Has(key) {
			continue
		}
		if _, ok := e.queued[key]; ok {
			continue
		}
		e.queued[key] = struct{}{}
		e.pending = append(e.pending, key)
	}
}

func (e *Engine) evict() []world.ChunkKey {
	before := e.store.Len()
	evicted := e.store.Retain(e.desired)
	for _, key := range evicted {
		for _, layer := range Layers {
			e.scene.Detach(layer, key)
		}
	}
	e.stats.Evicted += len(evicted)
	e.logger.Printf("evicted %d of %d chunks (limit %d)", len(evicted), before, e.maxStore)
	return evicted
}

func (e *Engine) create(key world.ChunkKey) {
	start := time.Now()
	e.store.GetOrGenerate(key, e.generator)
	elapsed := time.Since(start)
	e.stats.Created++
	e.stats.GenerateDur += elapsed
	e.logger.Printf("generated chunk %s in %s (%d pending)", key, elapsed, len(e.pending))
}

// resync detaches chunks that left the desired set and attaches desired
// chunks that are resident but not yet on screen. Both layers move together.
func (e *Engine) resync() (attached, detached []world.ChunkKey) {
	for _, layer := range Layers {
		onScreen := make(map[world.ChunkKey]struct{})
		for _, key := range e.scene.Attached(layer) {
			_, wanted := e.desiredSet[key]
			if wanted && e.store.Has(key) {
				onScreen[key] = struct{}{}
				continue
			}
			e.scene.Detach(layer, key)
			if layer == LayerGround {
				detached = append(detached, key)
			}
		}
		for _, key := range e.desired {
			if _, ok := onScreen[key]; ok {
				continue
			}
			chunk, ok := e.store.Get(key)
			if !ok {
				continue
			}
			e.scene.Attach(layer, chunk)
			if layer == LayerGround {
				attached = append(attached, key)
			}
		}
	}
	return attached, detached
}

// QueryCollision runs a collision query against the resident chunks.
func (e *Engine) QueryCollision(actor collision.Actor) collision.Result {
	return collision.Query(e.store, e.geometry, actor)
}
