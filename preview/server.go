package preview

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/space-wizards/space-station-14-sub095/floodfill"
	"github.com/space-wizards/space-station-14-sub095/logger"
	"github.com/space-wizards/space-station-14-sub095/status"
)

var (
	ErrServerFull = errors.New("preview server full")
	ErrBusy       = errors.New("too many pending requests")
)

// Server streams flood previews to websocket clients
// Each client gets its own runs; the grid set behind sys is shared read-only
type Server struct {
	config   *Config
	sys      *floodfill.System
	reg      *status.Registry
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	clients   *atomic.Int64
	listening *atomic.Bool

	httpSrv  *http.Server
	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewServer creates a server; nil cfg, log or reg fall back to defaults
func NewServer(cfg *Config, sys *floodfill.System, log logrus.FieldLogger, reg *status.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.normalized()
	if log == nil {
		log = logger.Component("preview")
	}
	if reg == nil {
		reg = status.NewRegistry()
	}
	if sys == nil {
		sys = floodfill.NewSystem(nil, log, reg)
	}

	return &Server{
		config: cfg,
		sys:    sys,
		reg:    reg,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   reg.Ints.Get(status.PreviewClients),
		listening: reg.Bools.Get(status.PreviewListening),
	}
}

// Handler returns the routes: /ws, /health and /status
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Start binds the configured address and serves in the background
func (s *Server) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.listener = ln
	s.httpSrv = &http.Server{Handler: s.Handler()}
	s.listening.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Preview server stopped")
		}
		s.listening.Store(false)
	}()

	s.log.WithField("addr", ln.Addr().String()).Info("Preview server listening")
	return nil
}

// Addr returns the bound address, empty before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes the listener and waits for the serve loop; open websockets are not tracked by
// http.Server and close when their clients go away or their reads time out
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	err := s.httpSrv.Shutdown(ctx)
	s.wg.Wait()
	return err
}

// Clients returns the number of open websocket sessions
func (s *Server) Clients() int {
	return int(s.clients.Load())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reg.Snapshot())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	// The slot is held from here; every early return releases it
	if n := s.clients.Add(1); s.config.MaxClients > 0 && n > int64(s.config.MaxClients) {
		s.clients.Add(-1)
		http.Error(w, ErrServerFull.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.clients.Add(-1)
		s.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := newClient(s, conn)
	s.log.WithField("remote", conn.RemoteAddr().String()).Info("Preview client connected")

	go c.writePump()
	go c.work()
	go func() {
		c.readPump()
		s.clients.Add(-1)
		s.log.WithField("remote", conn.RemoteAddr().String()).Info("Preview client disconnected")
	}()
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Debug("HTTP response write failed")
	}
}
