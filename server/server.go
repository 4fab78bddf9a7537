// Package server exposes a live layout over HTTP. A render.Loop owns the graph,
// the layout and the renderer; handlers only reach them through Loop.Do.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/ingest"
	"github.com/TFMV/springgraph/physics"
	"github.com/TFMV/springgraph/render"
)

// Options configures a Server.
type Options struct {
	Addr       string
	FPS        int
	Width      float64
	Height     float64
	TimeStep   float64
	Chase      float64
	HitRadius  float64
	FitSeconds float64
	Palette    *ingest.Palette
	Logger     *log.Logger
}

// Server serves SVG frames of a layout and accepts graph and pointer changes.
type Server struct {
	opts     Options
	loop     *render.Loop
	graph    *graph.Graph
	layout   *physics.ForceDirectedLayout
	svg      *render.SVG
	renderer *render.Renderer
	logger   *log.Logger
	router   chi.Router
}

// New creates a server for fd. Nothing runs until Run, or until the caller
// starts Loop itself.
func New(fd *physics.ForceDirectedLayout, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 800, 600
	}
	if opts.FitSeconds <= 0 {
		opts.FitSeconds = 0.5
	}
	if opts.Palette == nil {
		opts.Palette = ingest.DefaultPalette()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	svgOpts := render.DefaultSVGOptions()
	svgOpts.Width, svgOpts.Height = opts.Width, opts.Height
	svgOpts.Background = opts.Palette.Background

	s := &Server{
		opts:   opts,
		loop:   render.NewLoop(opts.FPS),
		graph:  fd.Graph(),
		layout: fd,
		svg:    render.NewSVG(fd.Graph(), svgOpts),
		logger: opts.Logger,
	}
	s.renderer = render.New(fd, s.svg, s.loop, s.svg, render.Options{
		TimeStep:  opts.TimeStep,
		Chase:     opts.Chase,
		HitRadius: opts.HitRadius,
		Logger:    opts.Logger,
	})
	s.renderer.Pointer().OnSelect = func(n *graph.Node) {
		s.svg.SetHighlight(n.ID)
	}
	s.renderer.Start()
	s.router = s.routes()
	return s
}

// Loop returns the execution context that owns the graph.
func (s *Server) Loop() *render.Loop {
	return s.loop
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Get("/frame.svg", s.handleFrame)

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Post("/graph", s.handleImport)
		r.Post("/fit", s.handleFit)

		r.Get("/nodes", s.handleNodes)
		r.Post("/nodes", s.handleAddNode)
		r.Delete("/nodes/{id}", s.handleRemoveNode)
		r.Get("/nodes/{id}/neighbors", s.handleNeighbors)

		r.Post("/edges", s.handleAddEdge)
		r.Delete("/edges/{id}", s.handleRemoveEdge)

		r.Post("/pointer/{action}", s.handlePointer)
	})
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.loop.Run(ctx) }()

	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", s.opts.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		cancel()
		<-loopErr
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", s.opts.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	<-loopErr
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start))
	})
}

// do runs fn on the loop and reports a failure to reach it.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := s.loop.Do(r.Context(), fn); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return false
	}
	return true
}
