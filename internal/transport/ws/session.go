package ws

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"isoworld/internal/actor"
	"isoworld/internal/collision"
	"isoworld/internal/config"
	"isoworld/internal/streaming"
	"isoworld/internal/trace"
	"isoworld/internal/world"
)

// clientEvent is an input decoded by the reader goroutine and applied on the
// session goroutine.
type clientEvent struct {
	input    *Input
	viewport *Viewport
}

// Session is one browser view of the world: its own engine, actor and scene.
// Step runs on the loop goroutine; everything else reaches it through events.
type Session struct {
	id     string
	engine *streaming.Engine
	actor  *actor.Actor
	tracer *trace.TickLogger
	logger *log.Logger
	now    func() time.Time

	ctx    context.Context
	events chan clientEvent
	out    chan []byte
	seq    uint64

	lastState actor.State
	lastSide  collision.Side
	sentFirst bool
}

func newSession(ctx context.Context, cfg *config.Config, gen world.Generator, hello Hello, logger *log.Logger, out chan []byte) *Session {
	s := &Session{
		id:     uuid.NewString(),
		logger: logger,
		now:    time.Now,
		ctx:    ctx,
		events: make(chan clientEvent, 32),
		out:    out,
	}

	opts := streaming.OptionsFromConfig(cfg)
	if hello.Viewport.Width > 0 && hello.Viewport.Height > 0 {
		opts.ViewportWidth = hello.Viewport.Width
		opts.ViewportHeight = hello.Viewport.Height
	}
	opts.Logger = logger
	geometry := world.NewGeometry(cfg.World)
	s.engine = streaming.NewEngine(geometry, gen, NewRemoteScene(s.send), opts)
	s.actor = actor.New(cfg.Actor, actor.Spawn(geometry, cfg.Actor, world.Point{}))

	if cfg.Streaming.TraceDir != "" {
		s.tracer = trace.NewTickLogger(cfg.Streaming.TraceDir, s.id)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) welcome() Welcome {
	g := s.engine.Geometry()
	return Welcome{
		Session:  s.id,
		Geometry: GeometryInfo{TileWidth: g.TileWidth, TileHeight: g.TileHeight, ChunkSize: g.ChunkSize},
		Radius:   s.engine.Radius(),
		Actor:    s.actor.State(),
	}
}

// deliver hands an event to the session goroutine, dropping it when the
// session is shutting down.
func (s *Session) deliver(ev clientEvent) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

func (s *Session) send(typ MessageType, payload any) {
	s.seq++
	b, err := Encode(typ, s.seq, s.now(), payload)
	if err != nil {
		s.logger.Printf("session %s: %v", s.id, err)
		return
	}
	select {
	case s.out <- b:
	case <-s.ctx.Done():
	}
}

// Step advances the session by one frame: apply inputs, stream chunks around
// the actor, resolve collisions and move.
func (s *Session) Step(delta time.Duration) {
	s.drainEvents()

	report := s.engine.StreamTick(s.actor.Position())
	if s.tracer != nil {
		if err := s.tracer.WriteTick(s.now(), report); err != nil {
			s.logger.Printf("session %s: trace: %v", s.id, err)
			s.tracer = nil
		}
	}

	result := s.engine.QueryCollision(s.actor.Body())
	s.actor.Step(delta, result.Permits)

	state := s.actor.State()
	if s.sentFirst && state == s.lastState && result.Side == s.lastSide && !report.Changed() {
		return
	}
	s.sentFirst = true
	s.lastState = state
	s.lastSide = result.Side
	s.send(MessageActor, ActorUpdate{
		State:      state,
		Side:       result.Side,
		Allowed:    result.Allowed,
		Occlusions: result.Occlusions,
	})
}

func (s *Session) drainEvents() {
	for {
		select {
		case ev := <-s.events:
			if ev.viewport != nil {
				s.engine.SetViewport(ev.viewport.Width, ev.viewport.Height)
			}
			if ev.input != nil {
				s.actor.SetKeys(ev.input.Keys)
			}
		default:
			return
		}
	}
}

func (s *Session) close() {
	if s.tracer == nil {
		return
	}
	if err := s.tracer.Close(); err != nil {
		s.logger.Printf("session %s: close trace: %v", s.id, err)
	}
}
