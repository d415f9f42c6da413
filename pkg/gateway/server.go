package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harun/weatherbot/internal/observability"
	"github.com/harun/weatherbot/internal/tracing"
	"github.com/harun/weatherbot/pkg/channels"
	"github.com/harun/weatherbot/pkg/session"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	maxFrameSize           = 64 * 1024
)

// Server is the WebSocket chat gateway. Every connection is one conversation.
type Server struct {
	host            string
	port            int
	shutdownTimeout time.Duration
	store           *session.Store
	logger          zerolog.Logger

	server      *http.Server
	listener    net.Listener
	upgrader    websocket.Upgrader
	clients     *ClientRegistry
	broadcaster *EventBroadcaster
	hooks       channels.Hooks

	baseCtx    context.Context
	cancelBase context.CancelFunc

	isShuttingDown bool
	shutdownMu     sync.RWMutex
	connections    sync.WaitGroup
}

// Config holds server configuration
type Config struct {
	Host            string
	Port            int // zero picks a free port
	ShutdownTimeout time.Duration
	Store           *session.Store
	Logger          zerolog.Logger
}

var _ channels.Channel = (*Server)(nil)

// beforeRegister runs between the upgrade and client registration.
var beforeRegister = func(*Server) {}

// NewServer creates a new gateway server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	clients := NewClientRegistry()

	return &Server{
		host:            cfg.Host,
		port:            cfg.Port,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           cfg.Store,
		logger:          cfg.Logger,
		clients:         clients,
		broadcaster:     NewEventBroadcaster(clients, cfg.Logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}, nil
}

// Name returns channel name.
func (s *Server) Name() string {
	return "gateway"
}

// Handler returns the HTTP routes served by the gateway.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context, hooks channels.Hooks) error {
	if hooks == nil {
		return fmt.Errorf("hooks are required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(s.host, fmt.Sprint(s.port)))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.hooks = hooks
	s.listener = listener
	s.baseCtx, s.cancelBase = context.WithCancel(context.WithoutCancel(ctx))
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("Starting Gateway Server")

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Gateway server error")
		}
	}()

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the gateway. Open conversations are told the server
// is going away, their sockets are closed and their sessions dropped.
func (s *Server) Stop(ctx context.Context) error {
	s.shutdownMu.Lock()
	if s.isShuttingDown || s.server == nil {
		s.shutdownMu.Unlock()
		return nil
	}
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("Shutting down Gateway Server")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("HTTP shutdown incomplete")
	}

	notified := s.broadcaster.Broadcast(OutboundFrame{Type: FrameShutdown, Error: "server is shutting down"})
	s.logger.Info().Int("clients", s.clients.Count()).Int("notified", notified).Msg("Closing conversations")
	s.cancelBase()
	for _, client := range s.clients.GetAll() {
		client.Conn.Close()
	}

	done := make(chan struct{})
	go func() {
		s.connections.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Gateway Server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
		return fmt.Errorf("failed to shutdown server: %w", ctx.Err())
	}
}

// GetConnectedClients returns information about all connected clients
func (s *Server) GetConnectedClients() []ClientInfo {
	return s.clients.GetConnectedClients()
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown || s.hooks == nil {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is not accepting conversations", http.StatusServiceUnavailable)
		return
	}
	s.connections.Add(1)
	s.shutdownMu.RUnlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.connections.Done()
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}
	conn.SetReadLimit(maxFrameSize)

	sess := s.store.Create(s.baseCtx)
	clientID, _ := gonanoid.New()
	now := time.Now()
	client := &Client{
		ID:           clientID,
		SessionID:    sess.ID(),
		Conn:         conn,
		ConnectedAt:  now,
		LastActivity: now,
		IPAddress:    r.RemoteAddr,
	}
	beforeRegister(s)
	s.clients.Add(client)

	// Stop may have closed every registered client between the upgrade and Add.
	s.shutdownMu.RLock()
	closing := s.isShuttingDown
	s.shutdownMu.RUnlock()
	if closing {
		conn.Close()
		s.clients.Remove(clientID)
		_ = s.store.Delete(context.Background(), sess.ID())
		s.connections.Done()
		return
	}

	s.logger.Info().
		Str("client_id", clientID).
		Str("session_id", sess.ID()).
		Str("ip", r.RemoteAddr).
		Msg("Client connected")

	go s.handleClient(client, sess)
}

// handleClient runs one conversation until the socket closes.
func (s *Server) handleClient(client *Client, sess *session.Session) {
	ctx := tracing.WithClientID(tracing.WithSessionID(s.baseCtx, sess.ID()), client.ID)
	logger := tracing.LoggerFromContext(ctx, s.logger)

	defer func() {
		client.Conn.Close()
		s.clients.Remove(client.ID)
		if err := s.store.Delete(context.Background(), sess.ID()); err != nil {
			logger.Warn().Err(err).Msg("Failed to drop session")
		}
		logger.Info().Msg("Client disconnected")
		s.connections.Done()
	}()

	if err := s.hooks.OnChatStart(ctx, sess, client); err != nil {
		logger.Error().Err(err).Msg("Chat start failed")
		s.sendError(client, err.Error())
		_ = client.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "chat start failed"),
			time.Now().Add(time.Second))
		return
	}

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error().Err(err).Msg("WebSocket error")
			}
			return
		}

		s.clients.UpdateActivity(client.ID)
		s.handleMessage(ctx, logger, sess, client, message)
	}
}

// handleMessage handles a single frame. Frames are processed in arrival order.
func (s *Server) handleMessage(ctx context.Context, logger zerolog.Logger, sess *session.Session, client *Client, message []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		s.sendError(client, "invalid frame: "+err.Error())
		return
	}

	switch frame.Type {
	case FrameMessage:
	default:
		s.sendError(client, fmt.Sprintf("unsupported frame type: %q", frame.Type))
		return
	}

	turnCtx := tracing.NewRequestContext(ctx)
	if err := s.hooks.OnMessage(turnCtx, sess, frame.Content, client); err != nil {
		logger.Error().Err(err).Msg("Message handling failed")
		s.sendError(client, err.Error())
	}
}

// handleSessions lists live conversations.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"sessions": s.store.List(),
		"clients":  s.clients.GetConnectedClients(),
	}); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode sessions")
	}
}

// sendError sends an error frame to a client
func (s *Server) sendError(client *Client, message string) {
	if err := client.WriteFrame(OutboundFrame{Type: FrameError, Error: message}); err != nil {
		s.logger.Error().
			Err(err).
			Str("client_id", client.ID).
			Msg("Failed to send error frame")
	}
}
