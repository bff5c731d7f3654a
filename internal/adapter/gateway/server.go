package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"peter-ai/internal/infra/middleware"
	"peter-ai/internal/usecase"
)

const (
	// writeTimeout bounds the delivery of one outbound frame.
	writeTimeout = 5 * time.Second

	rateLimitPerMin = 120
	rateLimitBurst  = 30
)

// sessionConn tracks a single WebSocket session.
type sessionConn struct {
	ws        *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

// Server is the WebSocket gateway: one connection is one session, turns
// processed strictly in order. It also serves the status probes.
type Server struct {
	chat      *usecase.Chat
	logger    *slog.Logger
	addr      string
	httpSrv   *http.Server
	boundAddr string
	sessions  sync.Map // connID (uint64) -> *sessionConn
	nextID    atomic.Uint64
}

// NewServer creates a gateway server.
func NewServer(chat *usecase.Chat, addr string, logger *slog.Logger) *Server {
	return &Server{
		chat:   chat,
		logger: logger,
		addr:   addr,
	}
}

// Start begins accepting connections. Blocks until the context is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleUpgrade)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("gateway listen: %w", err)
	}
	s.boundAddr = listener.Addr().String()

	handler := middleware.SecurityHeaders(
		middleware.RateLimit(ctx, rateLimitPerMin, rateLimitBurst)(mux),
	)
	s.httpSrv = &http.Server{Handler: handler}

	s.logger.Info("gateway started", "addr", s.boundAddr)

	go func() {
		<-ctx.Done()
		s.Stop(context.Background())
	}()

	if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway serve: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the gateway, closing active sessions.
func (s *Server) Stop(ctx context.Context) error {
	s.sessions.Range(func(key, value any) bool {
		sc := value.(*sessionConn)
		sc.closeOnce.Do(func() { close(sc.done) })
		sc.ws.Close(websocket.StatusGoingAway, "server shutting down")
		s.sessions.Delete(key)
		return true
	})

	if s.httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// BoundAddr returns the actual address the server bound to. Only valid after Start.
func (s *Server) BoundAddr() string { return s.boundAddr }

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Browser clients may connect from anywhere; the protocol carries
		// no credentials.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}

	connID := s.nextID.Add(1)
	sc := &sessionConn{
		ws:   ws,
		done: make(chan struct{}),
	}
	s.sessions.Store(connID, sc)

	s.logger.Info("session connected", "conn_id", connID, "remote", r.RemoteAddr)

	s.sessionLoop(r.Context(), sc)

	sc.closeOnce.Do(func() { close(sc.done) })
	s.sessions.Delete(connID)
	ws.Close(websocket.StatusNormalClosure, "")
	s.logger.Info("session disconnected", "conn_id", connID)
}

// sessionLoop reads turns and processes each one to completion before
// reading the next. All frames of a turn are written from this goroutine,
// so frame order is the processing order.
func (s *Server) sessionLoop(ctx context.Context, sc *sessionConn) {
	emit := func(ctx context.Context, frame usecase.Frame) error {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()
		return wsjson.Write(writeCtx, sc.ws, frame)
	}

	for {
		select {
		case <-sc.done:
			return
		default:
		}

		var in inboundMessage
		if err := wsjson.Read(ctx, sc.ws, &in); err != nil {
			return // connection closed or malformed stream
		}

		turn := usecase.Turn{
			UserID:      in.UserID,
			SessionID:   in.SessionID,
			UserMessage: in.UserMessage,
			Search:      in.Search,
		}
		if err := s.chat.HandleTurn(ctx, turn, emit); err != nil {
			s.logger.Warn("turn aborted", "session_id", in.SessionID, "error", err)
			return
		}
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.writeStatus(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeStatus(w)
}

func (s *Server) writeStatus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
