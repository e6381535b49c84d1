package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"isoworld/internal/actor"
	"isoworld/internal/config"
	"isoworld/internal/streaming"
	"isoworld/internal/terrain"
	"isoworld/internal/trace"
	"isoworld/internal/world"
)

type countingGenerator struct {
	base  world.Generator
	loads atomic.Int64
	nanos atomic.Int64
}

func newCountingGenerator(base world.Generator) *countingGenerator {
	return &countingGenerator{base: base}
}

func (g *countingGenerator) Generate(key world.ChunkKey) *world.Chunk {
	start := time.Now()
	chunk := g.base.Generate(key)
	g.nanos.Add(int64(time.Since(start)))
	g.loads.Add(1)
	return chunk
}

func (g *countingGenerator) LoadCount() int64 {
	return g.loads.Load()
}

func (g *countingGenerator) AverageDuration() time.Duration {
	n := g.loads.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(g.nanos.Load() / n)
}

// walkOptions describe one scripted walk.
type walkOptions struct {
	ticks     int
	turnEvery int
	seed      int64
	traceDir  string
	name      string
}

type walkResult struct {
	created  int
	evicted  int
	blocked  int
	maxStore int
	distance float64
	orphaned int
}

var walkKeys = [][]actor.Key{
	{actor.KeyUp},
	{actor.KeyDown},
	{actor.KeyLeft},
	{actor.KeyRight},
	{actor.KeyUp, actor.KeyRight},
	{actor.KeyDown, actor.KeyLeft},
}

// runWalk drives one engine and actor on a simulated clock, changing
// direction every turnEvery ticks.
func runWalk(cfg *config.Config, gen world.Generator, opts walkOptions) (walkResult, error) {
	clock := time.Unix(0, 0)
	tick := cfg.Streaming.TickRate.Duration()

	engineOpts := streaming.OptionsFromConfig(cfg)
	engineOpts.Logger = log.New(io.Discard, "", 0)
	engineOpts.Now = func() time.Time { return clock }
	scene := streaming.NewMemoryScene()
	geometry := world.NewGeometry(cfg.World)
	engine := streaming.NewEngine(geometry, gen, scene, engineOpts)
	walker := actor.New(cfg.Actor, actor.Spawn(geometry, cfg.Actor, world.Point{}))

	var tracer *trace.TickLogger
	if opts.traceDir != "" {
		tracer = trace.NewTickLogger(opts.traceDir, opts.name)
		defer tracer.Close()
	}

	rng := rand.New(rand.NewSource(opts.seed))
	var result walkResult
	start := walker.Position()
	for i := 0; i < opts.ticks; i++ {
		if opts.turnEvery > 0 && i%opts.turnEvery == 0 {
			walker.SetKeys(walkKeys[rng.Intn(len(walkKeys))])
		}
		report := engine.StreamTick(walker.Position())
		if tracer != nil {
			if err := tracer.WriteTick(clock, report); err != nil {
				return result, err
			}
		}
		for _, layer := range streaming.Layers {
			for _, key := range scene.Attached(layer) {
				if !engine.Store().Has(key) {
					result.orphaned++
				}
			}
		}
		result.maxStore = max(result.maxStore, engine.Store().Len())

		hit := engine.QueryCollision(walker.Body())
		if hit.Side != "" {
			result.blocked++
		}
		walker.Step(tick, hit.Permits)
		clock = clock.Add(tick)
	}

	end := walker.Position()
	result.distance = math.Hypot(end.X-start.X, end.Y-start.Y)
	stats := engine.Stats()
	result.created = stats.Created
	result.evicted = stats.Evicted
	return result, nil
}

func main() {
	var (
		cfgPath   = flag.String("config", "", "path to world configuration file")
		walkers   = flag.Int("walkers", runtime.NumCPU(), "number of concurrent walkers, each with its own engine")
		ticks     = flag.Int("ticks", 3000, "ticks per walker")
		turnEvery = flag.Int("turn", 120, "ticks between direction changes")
		seed      = flag.Int64("seed", 1337, "random seed for walk directions")
		traceDir  = flag.String("trace", "", "directory for per-walker tick traces")
	)
	flag.Parse()

	if *walkers <= 0 {
		fmt.Fprintln(os.Stderr, "walkers must be positive")
		os.Exit(1)
	}
	if *ticks <= 0 {
		fmt.Fprintln(os.Stderr, "ticks must be positive")
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	generator := newCountingGenerator(terrain.NewGenerator(cfg, nil))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []walkResult
		failed  atomic.Int64
	)
	startWall := time.Now()
	wg.Add(*walkers)
	for i := 0; i < *walkers; i++ {
		go func(i int) {
			defer wg.Done()
			res, err := runWalk(cfg, generator, walkOptions{
				ticks:     *ticks,
				turnEvery: *turnEvery,
				seed:      *seed + int64(i),
				traceDir:  *traceDir,
				name:      fmt.Sprintf("walker-%d", i),
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "walker %d: %v\n", i, err)
				failed.Add(1)
				return
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	wallDuration := time.Since(startWall)

	var total walkResult
	for _, r := range results {
		total.created += r.created
		total.evicted += r.evicted
		total.blocked += r.blocked
		total.orphaned += r.orphaned
		total.distance += r.distance
		total.maxStore = max(total.maxStore, r.maxStore)
	}
	n := max(len(results), 1)

	fmt.Println("== Chunk Streaming Profile ==")
	fmt.Printf("Chunk size: %d, tile: %dx%d\n", cfg.World.ChunkSize, cfg.World.TileWidth, cfg.World.TileHeight)
	fmt.Printf("Walkers: %d (failed %d), ticks per walker: %d\n", *walkers, failed.Load(), *ticks)
	fmt.Printf("Chunks generated: %d (avg %s per chunk)\n", generator.LoadCount(), generator.AverageDuration())
	fmt.Printf("Average created per walker: %.1f, evicted: %.1f\n", float64(total.created)/float64(n), float64(total.evicted)/float64(n))
	fmt.Printf("Peak resident chunks: %d\n", total.maxStore)
	fmt.Printf("Blocked ticks: %d\n", total.blocked)
	fmt.Printf("Average distance walked: %.1f px\n", total.distance/float64(n))
	fmt.Printf("Orphaned attachments: %d\n", total.orphaned)
	fmt.Printf("Wall clock duration: %s\n", wallDuration)
}
