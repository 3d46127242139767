package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"
	"pairlink/internal/infrastructure/monitoring"
	"pairlink/pkg/tracing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// clientConn serializes writes to one WebSocket. Broadcasts originate from
// other connections' handler goroutines, so writes need their own lock.
type clientConn struct {
	id domain.ConnectionID
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *clientConn) write(timeout time.Duration, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(timeout))
	return c.ws.WriteJSON(v)
}

type WebSocketServer struct {
	sessions ports.SessionService
	relay    ports.RelayService

	connections map[domain.ConnectionID]*clientConn
	mu          sync.RWMutex

	pingInterval time.Duration
	pongTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	msgRate        rate.Limit
	msgBurst       int
	maxMessageSize int64

	metrics *monitoring.PrometheusCollector
	logger  *zap.SugaredLogger
}

func NewWebSocketServer(sessions ports.SessionService, relay ports.RelayService, metrics *monitoring.PrometheusCollector, logger *zap.SugaredLogger) *WebSocketServer {
	return &WebSocketServer{
		sessions:     sessions,
		relay:        relay,
		connections:  make(map[domain.ConnectionID]*clientConn),
		pingInterval: 30 * time.Second, // Default ping interval
		pongTimeout:  60 * time.Second, // Default pong timeout
		readTimeout:  60 * time.Second, // Default read timeout
		writeTimeout: 10 * time.Second, // Default write timeout
		metrics:      metrics,
		logger:       logger,
	}
}

// SetPingInterval sets the ping interval for WebSocket connections.
func (s *WebSocketServer) SetPingInterval(interval time.Duration) {
	s.pingInterval = interval
}

// SetPongTimeout sets the pong timeout for WebSocket connections.
func (s *WebSocketServer) SetPongTimeout(timeout time.Duration) {
	s.pongTimeout = timeout
	s.readTimeout = timeout
}

// SetWriteTimeout sets the per-write deadline.
func (s *WebSocketServer) SetWriteTimeout(timeout time.Duration) {
	s.writeTimeout = timeout
}

// SetMessageLimit enables per-connection inbound message rate limiting.
func (s *WebSocketServer) SetMessageLimit(perSecond float64, burst int) {
	s.msgRate = rate.Limit(perSecond)
	s.msgBurst = burst
}

// SetMaxMessageSize bounds inbound frame size. Zero means unlimited.
func (s *WebSocketServer) SetMaxMessageSize(n int64) {
	s.maxMessageSize = n
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connID := domain.ConnectionID(uuid.NewString())
	client := &clientConn{id: connID, ws: conn}

	s.mu.Lock()
	s.connections[connID] = client
	s.mu.Unlock()

	s.metrics.ConnectionOpened()
	s.logger.Infow("client connected", "connection_id", connID)

	// Every client learns the current presence the moment anyone connects.
	s.broadcastPresence(context.Background())

	if s.maxMessageSize > 0 {
		conn.SetReadLimit(s.maxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	var limiter *rate.Limiter
	if s.msgRate > 0 {
		limiter = rate.NewLimiter(s.msgRate, s.msgBurst)
	}

	messageChan := make(chan Envelope, 10)
	errorChan := make(chan error, 1)

	go func() {
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				errorChan <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.readTimeout))
			messageChan <- env
		}
	}()

	for {
		select {
		case env := <-messageChan:
			if limiter != nil && !limiter.Allow() {
				s.logger.Warnw("message rate exceeded, dropping event", "connection_id", connID, "type", env.Type)
				continue
			}
			if err := s.handleEvent(context.Background(), client, env); err != nil {
				s.logger.Infow("error handling event", "connection_id", connID, "type", env.Type, "error", err)
				if env.Ack != 0 {
					s.ack(client, env.Ack, ErrorResponse{Error: err.Error()})
				}
			}

		case <-pingTicker.C:
			client.mu.Lock()
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			client.mu.Unlock()
			if err != nil {
				s.logger.Infow("error sending ping", "connection_id", connID, "error", err)
				goto cleanup
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Infow("error reading from client", "connection_id", connID, "error", err)
			}
			goto cleanup
		}
	}

cleanup:
	s.mu.Lock()
	delete(s.connections, connID)
	s.mu.Unlock()

	s.metrics.ConnectionClosed()
	s.handleDisconnect(context.Background(), connID)
}

// handleDisconnect repairs the registries for a closed connection, notifies
// the abandoned peer and rebroadcasts presence.
func (s *WebSocketServer) handleDisconnect(ctx context.Context, connID domain.ConnectionID) {
	result, err := s.sessions.Disconnect(ctx, connID)
	if err != nil {
		s.logger.Errorw("disconnect cleanup failed", "connection_id", connID, "error", err)
		return
	}

	if result.PeerConn != "" {
		if err := s.sendTo(result.PeerConn, EventPeerDisconnected, nil); err != nil {
			s.logger.Infow("could not notify remaining peer", "connection_id", result.PeerConn, "error", err)
		}
	}

	s.broadcastPresence(ctx)
	s.updateGauges(ctx)
	s.logger.Infow("client disconnected", "connection_id", connID)
}

func (s *WebSocketServer) handleEvent(ctx context.Context, client *clientConn, env Envelope) error {
	if env.Type == "" {
		return fmt.Errorf("event type is required")
	}

	ctx, span := tracing.TraceSignalEvent(ctx, env.Type, string(client.id))
	defer span.End()

	var err error
	switch env.Type {
	case EventCreateRoom:
		err = s.handleCreateRoom(ctx, client, env)
	case EventJoinRoom:
		err = s.handleJoinRoom(ctx, client, env)
	case EventOffer:
		err = s.handleOffer(ctx, client, env)
	case EventAnswer:
		err = s.handleAnswer(ctx, client, env)
	case EventCallEnded:
		err = s.handleCallEnded(ctx, client, env)
	case EventICECandidate:
		err = s.handleICECandidate(ctx, client, env)
	case EventMessage:
		err = s.handleChatMessage(ctx, client, env)
	case EventPresenceFlag:
		err = s.handlePresenceFlag(ctx, client, env)
	case EventClearUsers:
		err = s.handleClearUsers(ctx, client, env)
	default:
		err = fmt.Errorf("unknown event type: %s", env.Type)
	}

	if err != nil {
		tracing.RecordError(ctx, err)
	}
	return err
}

func (s *WebSocketServer) handleCreateRoom(ctx context.Context, client *clientConn, env Envelope) error {
	var req CreateRoomRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		return fmt.Errorf("invalid create-room payload: %w", err)
	}
	if req.Username == "" {
		return fmt.Errorf("username is required")
	}

	code, err := s.sessions.CreateRoom(ctx, req.Username, client.id)
	if err != nil {
		return err
	}

	if env.Ack != 0 {
		s.ack(client, env.Ack, CreateRoomResponse{RoomCode: string(code)})
	}
	s.broadcastPresence(ctx)
	s.updateGauges(ctx)
	return nil
}

func (s *WebSocketServer) handleJoinRoom(ctx context.Context, client *clientConn, env Envelope) error {
	var req JoinRoomRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		return fmt.Errorf("invalid join-room payload: %w", err)
	}
	if req.Username == "" {
		return fmt.Errorf("username is required")
	}
	if req.RoomCode == "" {
		return fmt.Errorf("roomCode is required")
	}

	result, err := s.sessions.JoinRoom(ctx, req.Username, domain.RoomCode(req.RoomCode), client.id)
	if err != nil {
		return err
	}

	if env.Ack != 0 {
		s.ack(client, env.Ack, JoinRoomResponse{Success: true, OtherUser: result.OtherUser})
	}
	s.broadcastPresence(ctx)

	// The creator cached its connection at room creation exactly for this
	// direct notification.
	if err := s.sendTo(result.CreatorConn, EventUserJoined, req.Username); err != nil {
		s.logger.Infow("could not notify room creator", "connection_id", result.CreatorConn, "error", err)
	}
	s.updateGauges(ctx)
	return nil
}

func (s *WebSocketServer) handleOffer(ctx context.Context, client *clientConn, env Envelope) error {
	var payload OfferPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("invalid offer payload: %w", err)
	}

	target, ok := s.relay.RouteOffer(ctx, payload.From, payload.To)
	if !ok {
		// Dropped, not reported: offers for disconnected or mismatched
		// peers must not leak room membership to the sender.
		s.metrics.RelayDropped(EventOffer)
		return nil
	}

	s.metrics.RelayRouted(EventOffer)
	s.logger.Infow("routing offer", "from", payload.From, "to", payload.To)
	return s.forwardTo(target, EventOffer, env.Payload)
}

func (s *WebSocketServer) handleAnswer(ctx context.Context, client *clientConn, env Envelope) error {
	var payload AnswerPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("invalid answer payload: %w", err)
	}

	target, ok := s.relay.RouteAnswer(ctx, payload.From, payload.To)
	if !ok {
		s.metrics.RelayDropped(EventAnswer)
		return nil
	}

	s.metrics.RelayRouted(EventAnswer)
	s.logger.Infow("routing answer", "from", payload.From, "to", payload.To)
	return s.forwardTo(target, EventAnswer, env.Payload)
}

func (s *WebSocketServer) handleCallEnded(ctx context.Context, client *clientConn, env Envelope) error {
	var pair []string
	if err := json.Unmarshal(env.Payload, &pair); err != nil {
		return fmt.Errorf("invalid call-ended payload: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("call-ended payload must name both parties")
	}

	targets, err := s.relay.EndCall(ctx, pair[0], pair[1])
	if err != nil {
		return err
	}

	for _, target := range targets {
		if err := s.forwardTo(target, EventCallEnded, env.Payload); err != nil {
			s.logger.Infow("could not deliver call-ended", "connection_id", target, "error", err)
		}
	}

	s.broadcastPresence(ctx)
	s.updateGauges(ctx)
	return nil
}

func (s *WebSocketServer) handleICECandidate(ctx context.Context, client *clientConn, env Envelope) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("icecandidate payload is required")
	}

	// Best effort to everyone but the sender. No room filtering: in a
	// deployment with concurrent unrelated rooms this would leak
	// candidates cross-room.
	s.metrics.RelayRouted(EventICECandidate)
	s.broadcastExceptRaw(client.id, EventICECandidate, env.Payload)
	return nil
}

func (s *WebSocketServer) handleChatMessage(ctx context.Context, client *clientConn, env Envelope) error {
	var msg domain.ChatMessage
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		return fmt.Errorf("invalid message payload: %w", err)
	}

	log, err := s.relay.AppendMessage(ctx, msg)
	if err != nil {
		// Malformed chat is dropped before any mutation; nothing to report.
		s.logger.Debugw("dropping chat message", "sender", msg.Sender, "error", err)
		return nil
	}

	s.metrics.ChatMessage()
	s.broadcast(EventAllMessages, log)
	return nil
}

func (s *WebSocketServer) handlePresenceFlag(ctx context.Context, client *clientConn, env Envelope) error {
	var flag string
	if err := json.Unmarshal(env.Payload, &flag); err != nil {
		return fmt.Errorf("invalid pv payload: %w", err)
	}

	// Only the exact value "true" is re-broadcast; everything else is
	// ignored.
	if flag == "true" {
		s.broadcast(EventPresenceFlag, "true")
	}
	return nil
}

func (s *WebSocketServer) handleClearUsers(ctx context.Context, client *clientConn, env Envelope) error {
	if err := s.sessions.Reset(ctx); err != nil {
		return err
	}

	s.logger.Infow("registries cleared", "connection_id", client.id)
	s.broadcastPresence(ctx)
	s.updateGauges(ctx)
	return nil
}

func (s *WebSocketServer) ack(client *clientConn, ackID uint64, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Errorw("failed to marshal ack payload", "error", err)
		return
	}
	env := Envelope{Type: EventAck, Ack: ackID, Payload: data}
	if err := client.write(s.writeTimeout, env); err != nil {
		s.logger.Infow("failed to deliver ack", "connection_id", client.id, "error", err)
	}
}

func (s *WebSocketServer) sendTo(connID domain.ConnectionID, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.forwardTo(connID, event, data)
}

// forwardTo delivers an already-encoded payload without re-marshalling.
func (s *WebSocketServer) forwardTo(connID domain.ConnectionID, event string, payload json.RawMessage) error {
	s.mu.RLock()
	client, exists := s.connections[connID]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("connection %s not found", connID)
	}

	return client.write(s.writeTimeout, Envelope{Type: event, Payload: payload})
}

func (s *WebSocketServer) broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Errorw("failed to marshal broadcast payload", "event", event, "error", err)
		return
	}
	s.broadcastExceptRaw("", event, data)
}

// broadcastExceptRaw fans out to every connection except the excluded one.
// Delivery is fire-and-forget; a slow client only loses its own events.
func (s *WebSocketServer) broadcastExceptRaw(exclude domain.ConnectionID, event string, payload json.RawMessage) {
	s.mu.RLock()
	clients := make([]*clientConn, 0, len(s.connections))
	for id, client := range s.connections {
		if id == exclude {
			continue
		}
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	env := Envelope{Type: event, Payload: payload}
	for _, client := range clients {
		if err := client.write(s.writeTimeout, env); err != nil {
			s.logger.Infow("broadcast write failed", "connection_id", client.id, "event", event, "error", err)
		}
	}
}

func (s *WebSocketServer) broadcastPresence(ctx context.Context) {
	presence, err := s.sessions.Presence(ctx)
	if err != nil {
		s.logger.Errorw("failed to snapshot presence", "error", err)
		return
	}
	s.broadcast(EventAllUsers, presence)
}

func (s *WebSocketServer) updateGauges(ctx context.Context) {
	users, rooms, err := s.sessions.Stats(ctx)
	if err != nil {
		return
	}
	s.metrics.SetUsersRegistered(users)
	s.metrics.SetRoomsActive(rooms)
}

// ConnectionCount reports the number of open WebSocket connections.
func (s *WebSocketServer) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.connections)
}
