package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"isoworld/internal/config"
	"isoworld/internal/terrain"
	"isoworld/internal/transport/ws"
	"isoworld/internal/world"
)

const previewScale = 0.25

type Server struct {
	cfg       *config.Config
	generator *terrain.Generator
	geometry  world.Geometry
	sessions  *ws.Server
	httpSrv   *http.Server
	logger    *log.Logger
}

func New(cfg *config.Config) *Server {
	logger := log.New(log.Writer(), "isoworld ", log.LstdFlags|log.Lmicroseconds)
	gen := terrain.NewGenerator(cfg, nil)
	return &Server{
		cfg:       cfg,
		generator: gen,
		geometry:  gen.Geometry(),
		sessions:  ws.NewServer(cfg, gen, log.New(log.Writer(), "ws ", log.LstdFlags|log.Lmicroseconds)),
		logger:    logger,
	}
}

// Routes builds the HTTP surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/config", s.handleConfig)
	r.Get("/lookup", s.handleLookup)
	r.Get("/chunks/{col}/{row}", s.handleChunk)
	r.Get("/preview.png", s.handlePreview)
	r.Get("/ws", s.sessions.Handler())
	return r
}

func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.cfg.Server.ListenAddress,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on %s", s.cfg.Server.ListenAddress)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cfg)
}

type lookupResponse struct {
	Row      int            `json:"row"`
	Col      int            `json:"col"`
	Chunk    world.ChunkKey `json:"chunk"`
	ChunkID  string         `json:"chunkId"`
	Category world.Category `json:"category"`
	Sample   float64        `json:"sample"`
}

// handleLookup resolves a world pixel position to its tile and chunk.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	xStr := q.Get("x")
	yStr := q.Get("y")
	if xStr == "" || yStr == "" {
		http.Error(w, "x and y query parameters required", http.StatusBadRequest)
		return
	}
	x, err := strconv.ParseFloat(xStr, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		http.Error(w, "invalid x parameter", http.StatusBadRequest)
		return
	}
	y, err := strconv.ParseFloat(yStr, 64)
	if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
		http.Error(w, "invalid y parameter", http.StatusBadRequest)
		return
	}

	col, row := s.geometry.WorldToIso(world.Point{X: x, Y: y})
	key := s.geometry.ChunkKeyOf(row, col)
	sample := s.generator.Sample(row, col)
	writeJSON(w, lookupResponse{
		Row:      row,
		Col:      col,
		Chunk:    key,
		ChunkID:  key.String(),
		Category: s.generator.Classifier().Classify(sample),
		Sample:   sample,
	})
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	col, err := strconv.Atoi(chi.URLParam(r, "col"))
	if err != nil {
		http.Error(w, "invalid col parameter", http.StatusBadRequest)
		return
	}
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		http.Error(w, "invalid row parameter", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.generator.Generate(world.ChunkKey{Col: col, Row: row}))
}

// handlePreview renders the chunks around col,row as an isometric PNG.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	center := world.ChunkKey{}
	radius := 1
	var err error
	if v := q.Get("col"); v != "" {
		if center.Col, err = strconv.Atoi(v); err != nil {
			http.Error(w, "invalid col parameter", http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("row"); v != "" {
		if center.Row, err = strconv.Atoi(v); err != nil {
			http.Error(w, "invalid row parameter", http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("radius"); v != "" {
		if radius, err = strconv.Atoi(v); err != nil || radius < 0 {
			http.Error(w, "invalid radius parameter", http.StatusBadRequest)
			return
		}
	}
	if radius > s.cfg.Server.PreviewMaxRadius {
		http.Error(w, "radius exceeds previewMaxRadius", http.StatusBadRequest)
		return
	}

	keys := world.DesiredKeys(center, radius)
	chunks := make([]*world.Chunk, 0, len(keys))
	for _, key := range keys {
		chunks = append(chunks, s.generator.Generate(key))
	}
	img, err := world.RenderPreview(s.geometry, chunks, previewScale)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := world.EncodePreview(w, img); err != nil {
		s.logger.Printf("preview encode: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
