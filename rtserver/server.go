// Package rtserver streams live topology snapshots (dot markup plus
// scheduler work statistics) to connected debug clients over a WebSocket,
// per SPEC_FULL.md §3's binding of github.com/gorilla/websocket to this
// introspection surface. Grounded on the teacher's
// output/websocket/websocket.go connection-management pattern: an
// upgrader, a mutex-guarded client set, periodic broadcast, and ping-based
// liveness, trimmed to one direction (server -> client) since a debug
// viewer has nothing to ack.
package rtserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pothosware/flowcore/flowerr"
	"github.com/pothosware/flowcore/scheduler"
	"github.com/pothosware/flowcore/topology"
)

// Snapshot is one broadcast frame: the topology's current dot markup plus
// the scheduler's work statistics at the moment it was taken.
type Snapshot struct {
	Timestamp string          `json:"timestamp"`
	Dot       string          `json:"dot"`
	Scheduler scheduler.Stats `json:"scheduler"`
}

// Config configures a Server.
type Config struct {
	Addr     string             // HTTP listen address, e.g. ":9091"
	Path     string             // WebSocket endpoint path, default "/debug"
	Topology *topology.Topology  // Topology snapshotted on every broadcast tick
	Pool     *scheduler.Pool    // Pool whose Stats() feeds each snapshot
	DotCfg   topology.DotConfig // Rendering mode for ToDotMarkup; zero value is DefaultDotConfig
	Interval time.Duration      // Broadcast period, default 1s
	Logger   *slog.Logger
}

// Server broadcasts periodic Snapshots to every connected WebSocket client.
type Server struct {
	addr     string
	path     string
	topo     *topology.Topology
	pool     *scheduler.Pool
	dotCfg   topology.DotConfig
	interval time.Duration
	logger   *slog.Logger
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]struct{}

	lifecycleMu sync.Mutex
	server      *http.Server
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// New builds a Server in the stopped state.
func New(cfg Config) *Server {
	path := cfg.Path
	if path == "" {
		path = "/debug"
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dotCfg := cfg.DotCfg
	if dotCfg.Mode == "" {
		dotCfg = topology.DefaultDotConfig()
	}

	return &Server{
		addr:     cfg.Addr,
		path:     path,
		topo:     cfg.Topology,
		pool:     cfg.Pool,
		dotCfg:   dotCfg,
		interval: interval,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Start launches the HTTP listener and the broadcast loop.
func (s *Server) Start() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.server != nil {
		return flowerr.WrapInvalid(fmt.Errorf("server already running"), "rtserver.Server", "Start", "start twice")
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWebSocket)
	srv := &http.Server{Addr: s.addr, Handler: mux}
	s.server = srv

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			s.server = nil
			return flowerr.WrapFatal(err, "rtserver.Server", "Start", "listen")
		}
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.broadcastLoop(ctx)

	return nil
}

// Stop gracefully shuts the listener down and stops broadcasting.
func (s *Server) Stop(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	err := s.server.Shutdown(ctx)
	s.server = nil
	s.wg.Wait()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.clientsMu.Unlock()

	if err != nil {
		return flowerr.WrapTransient(err, "rtserver.Server", "Stop", "graceful shutdown")
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("rtserver: upgrade failed", "error", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	s.clientsMu.Unlock()

	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Send the current snapshot immediately so a client doesn't wait a
	// full interval for its first frame.
	if data, ok := s.snapshot(); ok {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}

	s.wg.Add(1)
	go s.drainClient(conn)
}

// drainClient reads (and discards) incoming frames only to detect
// disconnects and keep the read deadline advancing via pong handling; a
// debug client has nothing meaningful to send.
func (s *Server) drainClient(conn *websocket.Conn) {
	defer s.wg.Done()
	defer s.removeClient(conn)

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	_ = conn.Close()
}

func (s *Server) broadcastLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, ok := s.snapshot()
			if !ok {
				continue
			}
			s.broadcast(data)
		}
	}
}

func (s *Server) snapshot() ([]byte, bool) {
	if s.topo == nil {
		return nil, false
	}
	snap := Snapshot{Timestamp: time.Now().UTC().Format(time.RFC3339Nano), Dot: s.topo.ToDotMarkup(s.dotCfg)}
	if s.pool != nil {
		snap.Scheduler = s.pool.Stats()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("rtserver: marshal snapshot", "error", err)
		return nil, false
	}
	return data, true
}

func (s *Server) broadcast(data []byte) {
	s.clientsMu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.clientsMu.RUnlock()

	for _, conn := range conns {
		// The ping's pong, handled in handleWebSocket, pushes the client's
		// read deadline forward.
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
			s.removeClient(conn)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.removeClient(conn)
		}
	}
}
