// Package feed streams round snapshots to websocket clients and accepts
// the player's trading actions. There is no authentication: every client
// trades for the one session the server wraps.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/round"
)

// Game is the part of a round.Game the feed drives
type Game interface {
	Snapshot() round.Snapshot
	PlaceBet(o market.Outcome) (market.Position, error)
	SellPosition(o market.Outcome) (float64, error)
	SelectBetAmount(amount float64) error
}

// Server serves /ws, /snapshot and /health
type Server struct {
	addr           string
	game           Game
	upgrader       websocket.Upgrader
	logger         *log.Logger
	allowedOrigins []string
	accessLog      bool

	mu          sync.RWMutex
	connections map[*Connection]struct{}
}

// Option configures a Server
type Option func(*Server)

// WithAllowedOrigins sets the origins allowed to fetch /snapshot from a
// browser. Empty allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithAccessLog logs every HTTP request at debug level
func WithAccessLog(enabled bool) Option {
	return func(s *Server) { s.accessLog = enabled }
}

// NewServer creates a feed for game. Subscribe it to the game's events to
// stream state changes.
func NewServer(addr string, game Game, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		addr: addr,
		game: game,
		upgrader: websocket.Upgrader{
			// Local tool; any origin may connect
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger:      logger.WithPrefix("feed"),
		connections: make(map[*Connection]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes of the feed
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/ws").HandlerFunc(s.handleWebSocket)
	r.Methods(http.MethodGet).Path("/health").HandlerFunc(s.handleHealth)
	r.Methods(http.MethodGet).Path("/snapshot").HandlerFunc(s.handleSnapshot)

	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With"},
	})
	h := c.Handler(r)
	if s.accessLog {
		w := s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}).Writer()
		h = handlers.CombinedLoggingHandler(w, h)
	}
	return h
}

// Serve listens on the configured address until ctx is done
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting websocket feed", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving feed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down feed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
}

// Connections returns the number of connected clients
func (s *Server) Connections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(ws, s, s.logger)
	s.mu.Lock()
	s.connections[conn] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "id", conn.id, "remote", r.RemoteAddr, "total", total)

	conn.Start()
	s.sendSnapshot(conn, "")

	go func() {
		<-conn.ctx.Done()
		s.mu.Lock()
		delete(s.connections, conn)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "id", conn.id, "total", total)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.game.Snapshot()); err != nil {
		s.logger.Error("Failed to write snapshot", "error", err)
	}
}

// OnEvent broadcasts the event's snapshot to every client
func (s *Server) OnEvent(event round.Event) {
	msg, err := NewMessage(MessageTypeSnapshot, SnapshotData{Event: event.EventType(), State: event.State()})
	if err != nil {
		s.logger.Error("Failed to encode snapshot", "error", err)
		return
	}
	s.broadcast(msg)
}

func (s *Server) broadcast(msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.connections {
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Debug("Dropped message for client", "error", err)
		}
	}
}

func (s *Server) sendSnapshot(conn *Connection, event round.EventType) {
	msg, err := NewMessage(MessageTypeSnapshot, SnapshotData{Event: event, State: s.game.Snapshot()})
	if err != nil {
		s.logger.Error("Failed to encode snapshot", "error", err)
		return
	}
	_ = conn.SendMessage(msg)
}

// handle runs one client request against the game
func (s *Server) handle(conn *Connection, msg *Message) {
	s.logger.Debug("Received message", "id", conn.id, "type", msg.Type)

	result := ResultData{Action: msg.Type}
	var err error
	switch msg.Type {
	case MessageTypeBet:
		var data TradeData
		if err := decode(msg, &data); err != nil {
			conn.sendError(msg, "invalid_message", err.Error())
			return
		}
		var pos market.Position
		pos, err = s.game.PlaceBet(data.Outcome)
		if err == nil {
			result.Position = &pos
		}

	case MessageTypeSell:
		var data TradeData
		if err := decode(msg, &data); err != nil {
			conn.sendError(msg, "invalid_message", err.Error())
			return
		}
		result.Cash, err = s.game.SellPosition(data.Outcome)

	case MessageTypeAmount:
		var data AmountData
		if err := decode(msg, &data); err != nil {
			conn.sendError(msg, "invalid_message", err.Error())
			return
		}
		err = s.game.SelectBetAmount(data.Amount)

	default:
		conn.sendError(msg, "unknown_message", fmt.Sprintf("unknown message type %q", msg.Type))
		return
	}

	result.OK = err == nil
	if err != nil {
		result.Error = err.Error()
	}
	reply, encErr := NewMessage(MessageTypeResult, result)
	if encErr != nil {
		s.logger.Error("Failed to encode result", "error", encErr)
		return
	}
	reply.RequestID = msg.RequestID
	_ = conn.SendMessage(reply)
}
