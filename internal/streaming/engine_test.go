package streaming

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"isoworld/internal/config"
	"isoworld/internal/terrain"
	"isoworld/internal/world"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type countingGenerator struct {
	size  int
	calls map[world.ChunkKey]int
}

func newCountingGenerator(size int) *countingGenerator {
	return &countingGenerator{size: size, calls: make(map[world.ChunkKey]int)}
}

func (g *countingGenerator) Generate(key world.ChunkKey) *world.Chunk {
	g.calls[key]++
	return world.NewChunk(key, g.size)
}

func testGeometry() world.Geometry {
	return world.Geometry{TileWidth: 128, TileHeight: 64, ChunkSize: 16}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestEngine(t *testing.T, gen world.Generator, clock *fakeClock, opts Options) (*Engine, *MemoryScene) {
	t.Helper()
	scene := NewMemoryScene()
	opts.Logger = quietLogger()
	opts.Now = clock.Now
	return NewEngine(testGeometry(), gen, scene, opts), scene
}

// focalFor returns a point inside the first tile of chunk key.
func focalFor(g world.Geometry, key world.ChunkKey) world.Point {
	row, col := g.LocalToGlobal(key, 0, 0)
	return g.TileCenter(row, col)
}

func requireSceneConsistent(t *testing.T, e *Engine, scene *MemoryScene) {
	t.Helper()
	for _, layer := range Layers {
		for _, key := range scene.Attached(layer) {
			require.Truef(t, e.Store().Has(key), "%s chunk %s attached but not resident", layer, key)
		}
	}
}

func TestStreamTickEndToEndNineChunks(t *testing.T) {
	cfg := config.Default()
	cfg.World.Seed = 47208
	cfg.World.ChunkSize = 16
	cfg.Streaming.Radius = 1
	cfg.Terrain.Workers = 1

	clock := newFakeClock()
	gen := terrain.NewGenerator(cfg, nil)
	opts := OptionsFromConfig(cfg)
	opts.Logger = quietLogger()
	opts.Now = clock.Now
	scene := NewMemoryScene()
	engine := NewEngine(world.NewGeometry(cfg.World), gen, scene, opts)

	focal := world.Point{X: 0, Y: 0}
	report := engine.StreamTick(focal)

	want := []world.ChunkKey{
		{Col: -1, Row: -1}, {Col: 0, Row: -1}, {Col: 1, Row: -1},
		{Col: -1, Row: 0}, {Col: 0, Row: 0}, {Col: 1, Row: 0},
		{Col: -1, Row: 1}, {Col: 0, Row: 1}, {Col: 1, Row: 1},
	}
	require.Equal(t, want, engine.Desired())
	require.Equal(t, 1, engine.Store().Len())
	require.NotNil(t, report.Created)
	require.Equal(t, want[0], *report.Created)
	require.Equal(t, 8, report.Pending)

	for i := 1; i < 9; i++ {
		clock.Advance(100 * time.Millisecond)
		report = engine.StreamTick(focal)
		require.NotNilf(t, report.Created, "tick %d created nothing", i+1)
		require.Equal(t, i+1, engine.Store().Len())
	}

	require.Equal(t, want, engine.Store().Keys())
	require.Equal(t, want, scene.Attached(LayerGround))
	require.Equal(t, want, scene.Attached(LayerSurface))
	require.Empty(t, engine.Pending())
}

func TestStreamTickCreatesOneChunkPerCooldownInFIFOOrder(t *testing.T) {
	clock := newFakeClock()
	gen := newCountingGenerator(16)
	engine, _ := newTestEngine(t, gen, clock, Options{Radius: 1, CreationCooldown: 100 * time.Millisecond})

	focal := world.Point{}
	first := engine.StreamTick(focal)
	require.NotNil(t, first.Created)
	queued := engine.Pending()
	require.Len(t, queued, 8)

	again := engine.StreamTick(focal)
	require.Nil(t, again.Created, "cooldown has not elapsed")
	require.Equal(t, StateCreating, engine.State())
	require.Equal(t, queued, engine.Pending())

	clock.Advance(50 * time.Millisecond)
	require.Nil(t, engine.StreamTick(focal).Created)

	clock.Advance(50 * time.Millisecond)
	require.Equal(t, StateIdle, engine.State())
	next := engine.StreamTick(focal)
	require.NotNil(t, next.Created)
	require.Equal(t, queued[0], *next.Created)
	require.Equal(t, queued[1:], engine.Pending())

	for key, n := range gen.calls {
		require.Equalf(t, 1, n, "chunk %s generated %d times", key, n)
	}
}

func TestStreamTickZeroCooldownStillThrottlesPerTick(t *testing.T) {
	clock := newFakeClock()
	engine, scene := newTestEngine(t, newCountingGenerator(16), clock, Options{Radius: 2})

	report := engine.StreamTick(world.Point{})
	require.NotNil(t, report.Created)
	require.Equal(t, 1, report.Resident)
	require.Equal(t, 24, report.Pending)
	require.Len(t, scene.Attached(LayerGround), 1)

	for i := 0; i < 24; i++ {
		engine.StreamTick(world.Point{})
	}
	require.Equal(t, 25, engine.Store().Len())
	require.Equal(t, StateIdle, engine.State())
}

func TestStreamTickPrunesPendingWhenFocalMoves(t *testing.T) {
	clock := newFakeClock()
	geo := testGeometry()
	engine, _ := newTestEngine(t, newCountingGenerator(16), clock, Options{Radius: 1, CreationCooldown: time.Second})

	engine.StreamTick(world.Point{})
	require.Len(t, engine.Pending(), 8)

	far := world.ChunkKey{Col: 10, Row: 0}
	report := engine.StreamTick(focalFor(geo, far))
	require.Equal(t, far, report.Focal)
	require.Nil(t, report.Created)

	pending := engine.Pending()
	require.Len(t, pending, 9)
	require.Equal(t, world.DesiredKeys(far, 1), pending)
	for _, key := range pending {
		require.GreaterOrEqual(t, key.Col, 9)
	}
}

func TestStreamTickDetachesChunksThatLeaveView(t *testing.T) {
	clock := newFakeClock()
	geo := testGeometry()
	engine, scene := newTestEngine(t, newCountingGenerator(16), clock, Options{Radius: 1})

	for i := 0; i < 9; i++ {
		engine.StreamTick(world.Point{})
	}
	require.Len(t, scene.Attached(LayerGround), 9)

	report := engine.StreamTick(focalFor(geo, world.ChunkKey{Col: 1, Row: 0}))
	require.ElementsMatch(t, []world.ChunkKey{{Col: -1, Row: -1}, {Col: -1, Row: 0}, {Col: -1, Row: 1}}, report.Detached)
	require.NotNil(t, report.Created)
	require.Len(t, report.Attached, 1)
	require.Equal(t, *report.Created, report.Attached[0])

	for _, key := range scene.Attached(LayerSurface) {
		require.NotEqual(t, -1, key.Col)
	}
	requireSceneConsistent(t, engine, scene)
}

func TestEvictionNeverOrphansAttachedChunks(t *testing.T) {
	clock := newFakeClock()
	geo := testGeometry()
	engine, scene := newTestEngine(t, newCountingGenerator(16), clock, Options{Radius: 1, MaxStoredChunks: 12})
	require.Equal(t, 12, engine.MaxStored())

	evictions := 0
	for step := 0; step < 6; step++ {
		focal := focalFor(geo, world.ChunkKey{Col: step * 2, Row: step})
		for i := 0; i < 10; i++ {
			report := engine.StreamTick(focal)
			if len(report.Evicted) > 0 {
				evictions++
				for _, key := range report.Evicted {
					require.NotContains(t, engine.Desired(), key)
				}
			}
			requireSceneConsistent(t, engine, scene)
			require.LessOrEqual(t, engine.Store().Len(), engine.MaxStored())
		}
	}
	require.Positive(t, evictions)
	require.Equal(t, engine.Stats().Evicted, countEvicted(engine))
}

func countEvicted(e *Engine) int {
	s := e.Stats()
	return s.Created - e.Store().Len()
}

func TestEvictedChunkRegeneratesIdentically(t *testing.T) {
	cfg := config.Default()
	cfg.World.ChunkSize = 8
	cfg.Terrain.Workers = 1
	clock := newFakeClock()
	gen := terrain.NewGenerator(cfg, nil)
	geo := world.NewGeometry(cfg.World)
	scene := NewMemoryScene()
	engine := NewEngine(geo, gen, scene, Options{
		Radius:          1,
		MaxStoredChunks: 10,
		Logger:          quietLogger(),
		Now:             clock.Now,
	})

	origin := world.ChunkKey{Col: -1, Row: -1}
	for i := 0; i < 9; i++ {
		engine.StreamTick(world.Point{})
	}
	before, ok := engine.Store().Get(origin)
	require.True(t, ok)

	for i := 0; i < 12; i++ {
		engine.StreamTick(focalFor(geo, world.ChunkKey{Col: 5, Row: 5}))
	}
	require.False(t, engine.Store().Has(origin))

	for i := 0; i < 12; i++ {
		engine.StreamTick(world.Point{})
	}
	after, ok := engine.Store().Get(origin)
	require.True(t, ok)
	require.NotSame(t, before, after)
	require.Equal(t, before.Ground, after.Ground)
	require.Equal(t, before.Surface, after.Surface)
}

func TestMaxStoredDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want int
	}{
		{name: "radius one", opts: Options{Radius: 1}, want: 16},
		{name: "radius three", opts: Options{Radius: 3}, want: 144},
		{name: "explicit ceiling", opts: Options{Radius: 1, MaxStoredChunks: 40}, want: 40},
		{name: "ceiling below desired set", opts: Options{Radius: 1, MaxStoredChunks: 3}, want: 10},
		{name: "viewport radius", opts: Options{ViewportWidth: 1280, ViewportHeight: 720}, want: 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t, newCountingGenerator(16), newFakeClock(), tt.opts)
			require.Equal(t, tt.want, engine.MaxStored())
		})
	}
}

func TestResetStreamingIsDebounced(t *testing.T) {
	clock := newFakeClock()
	engine, _ := newTestEngine(t, newCountingGenerator(16), clock, Options{
		ResetDebounce:  200 * time.Millisecond,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	})
	require.Equal(t, 1, engine.Radius())
	engine.StreamTick(world.Point{})

	engine.SetViewport(6000, 720)
	clock.Advance(150 * time.Millisecond)
	require.False(t, engine.StreamTick(world.Point{}).Reset)

	engine.SetViewport(6000, 720)
	clock.Advance(150 * time.Millisecond)
	require.False(t, engine.StreamTick(world.Point{}).Reset)
	require.Equal(t, 1, engine.Radius())

	clock.Advance(50 * time.Millisecond)
	report := engine.StreamTick(world.Point{})
	require.True(t, report.Reset)
	require.Equal(t, 2, engine.Radius())
	require.Len(t, engine.Desired(), 25)
	require.Equal(t, 1, engine.Stats().Resets)

	clock.Advance(time.Second)
	require.False(t, engine.StreamTick(world.Point{}).Reset)
}

func TestResetStreamingRequeuesFromScratch(t *testing.T) {
	clock := newFakeClock()
	engine, _ := newTestEngine(t, newCountingGenerator(16), clock, Options{Radius: 1, CreationCooldown: time.Hour})

	engine.StreamTick(world.Point{})
	queued := engine.Pending()

	engine.ResetStreaming()
	report := engine.StreamTick(world.Point{})
	require.True(t, report.Reset)
	require.Equal(t, queued, engine.Pending())
}
