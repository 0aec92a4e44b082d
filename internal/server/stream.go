// Package server streams solver runs to WebSocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/tilewfc/internal/config"
	"github.com/lawnchairsociety/tilewfc/internal/database"
	"github.com/lawnchairsociety/tilewfc/internal/logger"
	"github.com/lawnchairsociety/tilewfc/internal/throttle"
	"github.com/lawnchairsociety/tilewfc/internal/tileset"
	"github.com/lawnchairsociety/tilewfc/internal/wfc"
)

const maxDelayMS = 1000

// StreamServer accepts WebSocket clients and runs one solve per request,
// writing every collapse back as it happens. Each request gets a fresh grid;
// the tile library is shared read-only between connections.
type StreamServer struct {
	cfg          config.WebSocketConfig
	library      wfc.Library
	archive      *database.Database // nil disables archiving
	fingerprints map[string]string
	connLimiter  *ConnLimiter

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	conns        map[*streamConn]struct{}
	httpServer   *http.Server
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewStreamServer creates a server over library. archive may be nil.
func NewStreamServer(cfg config.WebSocketConfig, library wfc.Library, archive *database.Database) *StreamServer {
	fingerprints := make(map[string]string, len(library))
	for name, ts := range library {
		fingerprints[name] = tileset.Fingerprint(ts)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &StreamServer{
		cfg:          cfg,
		library:      library,
		archive:      archive,
		fingerprints: fingerprints,
		connLimiter:  NewConnLimiter(cfg.MaxPerIP, cfg.MaxTotal),
		ctx:          ctx,
		cancel:       cancel,
		conns:        make(map[*streamConn]struct{}),
	}
}

// Handler serves /ws and /healthz.
func (s *StreamServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe blocks serving on the configured address until Shutdown.
func (s *StreamServer) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	logger.Info("Stream server listening", "address", s.cfg.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown cancels running solves, closes every client and waits for their
// handlers to return.
func (s *StreamServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		srv := s.httpServer
		for c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()

		if srv != nil {
			err = srv.Shutdown(ctx)
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			if err == nil {
				err = ctx.Err()
			}
		}
		logger.Info("Stream server stopped")
	})
	return err
}

// ConnectionCount returns the number of connected clients
func (s *StreamServer) ConnectionCount() int {
	total, _ := s.connLimiter.Stats()
	return total
}

func (s *StreamServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"connections": s.ConnectionCount(),
		"tile_sets":   s.library.Names(),
	})
}

func (s *StreamServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)

	if s.ctx.Err() != nil {
		http.Error(w, "Server is shutting down.", http.StatusServiceUnavailable)
		return
	}

	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(clientIP)
		return
	}
	if s.cfg.MaxMessageSize > 0 {
		wsConn.SetReadLimit(s.cfg.MaxMessageSize)
	}

	c := newStreamConn(wsConn, clientIP, throttle.NewTracker(s.cfg.Throttle))
	if !s.register(c) {
		c.Close()
		s.connLimiter.Release(clientIP)
		return
	}
	go s.handleConnection(c)
}

func (s *StreamServer) register(c *streamConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *StreamServer) unregister(c *streamConn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// handleConnection serves requests one at a time until the client leaves.
func (s *StreamServer) handleConnection(c *streamConn) {
	defer func() {
		s.unregister(c)
		s.connLimiter.Release(c.ip)
		c.Close()
		s.wg.Done()
	}()

	logger.Info("Stream client connected", "remote_addr", c.RemoteAddr(), "client_ip", c.ip)

	for {
		req, err := c.ReadRequest()
		if err != nil {
			var de *decodeError
			if errors.As(err, &de) {
				if c.Send(newErrorEvent(err)) != nil {
					return
				}
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warning("Stream client read failed", "client_ip", c.ip, "error", err)
			}
			logger.Info("Stream client disconnected", "client_ip", c.ip)
			return
		}

		if err := s.handleRequest(c, req); err != nil {
			logger.Debug("Stream client write failed", "client_ip", c.ip, "error", err)
			return
		}
	}
}

// handleRequest answers one request. Only a failure to write to the client
// is returned; request errors are sent back as error events.
func (s *StreamServer) handleRequest(c *streamConn, req Request) error {
	switch req.Action {
	case "", ActionSolve:
		return s.solve(c, req)
	case ActionTileSets:
		return c.Send(TileSetsEvent{Type: EventTileSets, Names: s.library.Names()})
	default:
		return c.Send(newErrorEvent(fmt.Errorf("unknown action %q", req.Action)))
	}
}

func (s *StreamServer) solve(c *streamConn, req Request) error {
	if err := req.validate(s.cfg.MaxCells); err != nil {
		return c.Send(newErrorEvent(err))
	}
	if result := c.throttle.Check(req.key()); !result.Allowed {
		logger.Debug("Stream solve throttled", "client_ip", c.ip, "reason", result.Reason)
		return c.Send(newErrorEvent(fmt.Errorf("%s, retry in %s", result.Reason, result.Wait.Round(time.Millisecond))))
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	grid, err := wfc.NewGrid(req.Rows, req.Columns, s.library, rand.New(rand.NewSource(seed)))
	if err == nil {
		err = grid.Rebuild(req.TileSet)
	}
	if err != nil {
		return c.Send(newErrorEvent(err))
	}

	size := grid.CellSize()
	if err := c.Send(StartEvent{
		Type:       EventStart,
		TileSet:    req.TileSet,
		Rows:       req.Rows,
		Columns:    req.Columns,
		Seed:       seed,
		CellWidth:  size.Width,
		CellHeight: size.Height,
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	var writeErr error
	observer := func(step wfc.Step) {
		if writeErr != nil {
			return
		}
		if err := c.Send(newStepEvent(step)); err != nil {
			writeErr = err
			cancel()
		}
	}

	solver := wfc.NewSolver(grid, rand.New(rand.NewSource(seed+1)),
		wfc.WithObserver(observer),
		wfc.WithDelay(time.Duration(req.DelayMS)*time.Millisecond))

	steps, err := solver.Run(ctx)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		logger.Info("Stream solve interrupted", "client_ip", c.ip, "tile_set", req.TileSet, "steps", steps, "error", err)
		return c.Send(newErrorEvent(err))
	}

	repaired := 0
	if !req.NoRepair {
		repaired = len(solver.RepairContradictions())
		if writeErr != nil {
			return writeErr
		}
	}

	stats := grid.Stats()
	done := DoneEvent{
		Type:           EventDone,
		Steps:          steps,
		Repaired:       repaired,
		Collapsed:      stats.Collapsed,
		Open:           stats.Open,
		Contradictions: stats.Contradictions,
		ErrorTiles:     stats.ErrorTiles,
	}

	if s.archive != nil {
		run := database.RunFromGrid(grid, seed, steps, s.fingerprints[req.TileSet])
		if id, err := s.archive.SaveRun(run); err != nil {
			logger.Error("Failed to archive run", "tile_set", req.TileSet, "seed", seed, "error", err)
		} else {
			done.RunID = id
		}
	}

	logger.Info("Stream solve finished",
		"client_ip", c.ip,
		"tile_set", req.TileSet,
		"seed", seed,
		"steps", steps,
		"repaired", repaired,
		"run_id", done.RunID)
	return c.Send(done)
}
