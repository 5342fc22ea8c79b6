// Package server streams universe snapshots to websocket clients and applies
// the commands they send.
//
// One goroutine, Run, owns the universe: it advances the simulation on a
// ticker, applies queued commands between frames and broadcasts a snapshot
// after every frame. Connections only exchange messages with that loop.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/san-kum/planets/internal/config"
	"github.com/san-kum/planets/internal/metrics"
	"github.com/san-kum/planets/internal/placing"
	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
)

const (
	maxFrameTime    = 100 * time.Millisecond
	commandQueue    = 64
	shutdownTimeout = 5 * time.Second
)

type command struct {
	client    *client
	env       Envelope
	throttled bool
}

type Server struct {
	cfg          config.ServerConfig
	u            *universe.Universe
	placing      *placing.Interface
	randomParams universe.RandomParams
	firingSpeed  float64
	firingMass   float64
	rng          *rand.Rand
	log          *slog.Logger

	registry  *prometheus.Registry
	collector *metrics.Collector
	upgrader  websocket.Upgrader

	register   chan *client
	unregister chan *client
	commands   chan command
	snapshots  chan chan []byte
	done       chan struct{}

	// owned by Run
	clients map[*client]struct{}
	frame   int
	simTime float64
}

// New binds a server to u. The universe must not be touched by anything else
// once Run has started.
func New(u *universe.Universe, cfg *config.Config, log *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rp, err := cfg.RandomParams()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)
	u.AddObserver(collector)
	collector.SetBodies(u.Len())

	p := placing.New(u)
	cfg.ConfigurePlacing(p)
	p.EnableFiringMode(true)

	s := &Server{
		cfg:          cfg.Server,
		u:            u,
		placing:      p,
		randomParams: rp,
		firingSpeed:  p.FiringSpeed,
		firingMass:   p.FiringMass,
		rng:          rand.New(rand.NewPCG(seed, seed>>1|1)),
		log:          log.With("component", "server"),
		registry:     reg,
		collector:    collector,
		register:     make(chan *client),
		unregister:   make(chan *client),
		commands:     make(chan command, commandQueue),
		snapshots:    make(chan chan []byte),
		done:         make(chan struct{}),
		clients:      make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return originAllowed(s.cfg.AllowedOrigins, r.Header.Get("Origin")) },
	}
	return s, nil
}

// Registry exposes the metrics registry served on /metrics.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Run is the simulation loop. It returns when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer close(s.done)
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.FPS))
	defer ticker.Stop()

	s.log.Info("simulation loop started", "fps", s.cfg.FPS, "bodies", s.u.Len())
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			for c := range s.clients {
				close(c.send)
			}
			clear(s.clients)
			s.log.Info("simulation loop stopped", "frames", s.frame)
			return nil

		case c := <-s.register:
			s.clients[c] = struct{}{}
			s.log.Debug("client connected", "remote", c.remote, "clients", len(s.clients))
			s.deliver(c, s.snapshot())

		case c := <-s.unregister:
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				close(c.send)
				s.log.Debug("client disconnected", "remote", c.remote, "clients", len(s.clients))
			}

		case cmd := <-s.commands:
			s.handle(cmd)

		case reply := <-s.snapshots:
			reply <- s.snapshot()

		case now := <-ticker.C:
			elapsed := min(now.Sub(last), maxFrameTime)
			last = now
			s.step(elapsed)
		}
	}
}

func (s *Server) step(elapsed time.Duration) {
	if !s.placing.PausesSimulation() {
		us := elapsed.Microseconds()
		s.u.Advance(us)
		if sp := s.u.Speed(); sp > 0 {
			s.simTime += sp * float64(us) * universe.TimeScale
		}
	}
	s.frame++
	s.broadcast(s.snapshot())
}

func (s *Server) snapshot() []byte {
	return s.encode(Message{Type: TypeSnapshot, Data: storage.Capture(s.u, s.frame, s.simTime)})
}

func (s *Server) encode(m Message) []byte {
	data, err := json.Marshal(m)
	if err != nil {
		// only non-finite floats can fail here
		s.log.Error("encode message", "type", m.Type, "error", err)
		data, _ = json.Marshal(Message{Type: TypeError, Data: errorData{Message: "unencodable state"}})
	}
	return data
}

func (s *Server) broadcast(data []byte) {
	for c := range s.clients {
		s.deliver(c, data)
	}
}

// deliver never blocks the loop; a client that cannot keep up misses frames.
func (s *Server) deliver(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		s.log.Debug("dropping message for slow client", "remote", c.remote)
	}
}

func (s *Server) handle(cmd command) {
	if cmd.throttled {
		s.collector.RecordCommand(metricLabel(cmd.env.Type), "throttled")
		s.reply(cmd, nil, ErrRateLimited)
		return
	}
	res, err := s.apply(cmd.env)
	result := "ok"
	if err != nil {
		result = "error"
		s.log.Debug("command failed", "type", cmd.env.Type, "error", err)
	}
	s.collector.RecordCommand(metricLabel(cmd.env.Type), result)
	s.reply(cmd, &res, err)
}

func (s *Server) reply(cmd command, res *Result, err error) {
	if _, ok := s.clients[cmd.client]; !ok {
		return
	}
	m := Message{Type: TypeAck, ID: cmd.env.ID, Data: res}
	if err != nil {
		m = Message{Type: TypeError, ID: cmd.env.ID, Data: errorData{Command: cmd.env.Type, Message: err.Error()}}
	}
	s.deliver(cmd.client, s.encode(m))
}

// Handler serves /ws, /api/universe, /metrics and /healthz behind CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("GET /api/universe", s.serveUniverse)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.log.Debug("cors configured", "allowed_origins", s.cfg.AllowedOrigins)
	return c.Handler(mux)
}

func (s *Server) serveUniverse(w http.ResponseWriter, r *http.Request) {
	reply := make(chan []byte, 1)
	select {
	case s.snapshots <- reply:
	case <-s.done:
		http.Error(w, "simulation stopped", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(<-reply)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	limiter := rate.NewLimiter(rate.Limit(s.cfg.CommandsPerSecond), s.cfg.CommandBurst)
	c := newClient(conn, limiter, r.RemoteAddr)

	select {
	case s.register <- c:
	case <-s.done:
		conn.Close()
		return
	}
	go c.writePump()
	go s.readPump(c)
}

// ListenAndServe runs the simulation loop and the HTTP server until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Handler()}

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return <-loopErr
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
