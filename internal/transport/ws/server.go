package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"isoworld/internal/config"
	"isoworld/internal/streaming"
	"isoworld/internal/world"
)

const (
	handshakeTimeout = 5 * time.Second
	readTimeout      = 60 * time.Second
	outboundQueue    = 256
)

// Server upgrades HTTP requests to WebSocket sessions. Every session gets an
// isolated engine; only the stateless generator is shared.
type Server struct {
	cfg       *config.Config
	generator world.Generator
	log       *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(cfg *config.Config, gen world.Generator, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "ws ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Server{
		cfg:       cfg,
		generator: gen,
		log:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		hello, ok := s.handshake(conn)
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, outboundQueue)
		session := newSession(ctx, s.cfg, s.generator, hello, s.log, out)
		defer session.close()
		s.log.Printf("session %s connected from %s", session.ID(), r.RemoteAddr)

		welcome, err := Encode(MessageWelcome, 0, time.Now(), session.welcome())
		if err != nil {
			return
		}
		if err := s.write(conn, welcome); err != nil {
			return
		}

		// Writer goroutine.
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					if err := s.write(conn, b); err != nil {
						cancel()
						_ = conn.Close()
						return
					}
				}
			}
		}()

		loop := streaming.NewLoop(session, s.cfg.Streaming.TickRate.Duration())
		loop.Start(ctx)

		s.readLoop(ctx, conn, session)

		cancel()
		loop.Wait()
		<-writerDone
		s.log.Printf("session %s closed", session.ID())
	}
}

func (s *Server) handshake(conn *websocket.Conn) (Hello, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return Hello{}, false
	}
	env, err := Decode(msg)
	if err != nil || env.Type != MessageHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected hello"), time.Now().Add(time.Second))
		return Hello{}, false
	}
	var hello Hello
	if len(env.Payload) > 0 {
		if err := DecodePayload(env, &hello); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseUnsupportedData, err.Error()), time.Now().Add(time.Second))
			return Hello{}, false
		}
	}
	return hello, true
}

// readLoop decodes client messages until the connection or ctx ends.
// Malformed messages are skipped.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, session *Session) {
	for ctx.Err() == nil {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := Decode(msg)
		if err != nil {
			continue
		}
		switch env.Type {
		case MessageInput:
			var in Input
			if err := DecodePayload(env, &in); err != nil {
				continue
			}
			session.deliver(clientEvent{input: &in})
		case MessageViewport:
			var vp Viewport
			if err := DecodePayload(env, &vp); err != nil {
				continue
			}
			session.deliver(clientEvent{viewport: &vp})
		}
	}
}

func (s *Server) write(conn *websocket.Conn, b []byte) error {
	timeout := s.cfg.Server.WriteTimeout.Duration()
	if timeout <= 0 {
		timeout = handshakeTimeout
	}
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
