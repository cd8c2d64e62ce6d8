package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chat-relay/contract"
	"chat-relay/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler accepts WebSocket connections and bridges their wire frames to the
// routing core.
type Handler struct {
	registry   contract.IRegistry
	resolver   contract.IResolver
	router     contract.IRouter
	relay      contract.IRelay
	log        *slog.Logger
	bufferSize int
}

func NewHandler(registry contract.IRegistry, resolver contract.IResolver,
	router contract.IRouter, relay contract.IRelay,
	log *slog.Logger, bufferSize int) *Handler {
	return &Handler{
		registry:   registry,
		resolver:   resolver,
		router:     router,
		relay:      relay,
		log:        log,
		bufferSize: bufferSize,
	}
}

// Handle upgrades the request and runs the connection's pump pair.
func (h *Handler) Handle(ctx context.Context, c *gin.Context) {
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return
	}

	conn := newConn(sock, h.bufferSize)
	h.log.Debug("websocket connection opened", "conn", conn.ID())

	connCtx, cancel := context.WithCancel(ctx)
	go conn.writePump(connCtx, h.log)
	go h.readPump(connCtx, cancel, conn)
}

// readPump decodes inbound frames until the socket breaks, then runs the
// close path: the registry is notified synchronously so no dangling
// reference survives the connection.
func (h *Handler) readPump(ctx context.Context, cancel context.CancelFunc, conn *Conn) {
	defer func() {
		cancel()
		conn.Close()
		h.registry.Unregister(conn)
		h.log.Debug("websocket connection closed", "conn", conn.ID())
	}()

	var user domain.UserID
	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := conn.sock.ReadMessage()
		if err != nil {
			return
		}
		user = h.handleFrame(ctx, conn, user, data)
	}
}

func (h *Handler) handleFrame(ctx context.Context, conn *Conn, user domain.UserID, data []byte) domain.UserID {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		h.log.Warn("malformed frame dropped", "conn", conn.ID(), "error", err)
		return user
	}

	if head.Type == frameLogin {
		return h.handleLogin(ctx, conn, user, data)
	}
	if user == "" {
		h.sendAck(conn, ackFrame{Type: "error", Message: "login required"})
		return user
	}

	switch head.Type {
	case frameSendMessage:
		h.handleSendMessage(ctx, user, data)
	case frameCallUser:
		h.handleSignal(ctx, user, domain.PayloadCallOffer, data)
	case frameAnswerCall:
		h.handleSignal(ctx, user, domain.PayloadCallAnswer, data)
	case frameCallCandidate:
		h.handleSignal(ctx, user, domain.PayloadCallCandidate, data)
	default:
		h.log.Warn("unknown frame type dropped", "conn", conn.ID(), "type", head.Type)
	}
	return user
}

// handleLogin binds the connection to a user identity and refreshes the
// user's room associations. A group-storage failure is reported to this
// caller only; the connection stays registered and room fanout falls back
// to on-demand resolution.
//
// A connection binds to one identity for its lifetime: a re-login naming a
// different user is rejected, since the registry still owns the connection
// under the first name and a silent rebind would strand deliveries.
func (h *Handler) handleLogin(ctx context.Context, conn *Conn, current domain.UserID, data []byte) domain.UserID {
	var frame loginFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Username == "" {
		h.sendAck(conn, ackFrame{Type: "error", Message: "username required"})
		return current
	}

	user := domain.UserID(frame.Username)
	if current != "" && user != current {
		h.sendAck(conn, ackFrame{Type: "error", Message: "already logged in"})
		return current
	}
	h.registry.Register(user, conn)

	if err := h.resolver.JoinUserToKnownRooms(ctx, user); err != nil {
		h.log.Error("room association failed on login", "user", frame.Username, "error", err)
		h.sendAck(conn, ackFrame{Type: "login-error", Message: "could not load your rooms"})
		return user
	}

	h.sendAck(conn, ackFrame{Type: "login-ok"})
	return user
}

func (h *Handler) handleSendMessage(ctx context.Context, user domain.UserID, data []byte) {
	var frame sendMessageFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.To == "" {
		h.log.Warn("malformed send-message frame dropped", "user", string(user))
		return
	}

	address := domain.DirectTo(domain.UserID(frame.To))
	if frame.IsGroup {
		address = domain.ToRoom(domain.RoomID(frame.To))
	}
	h.router.Deliver(ctx, domain.Envelope{
		SenderID:  user,
		Address:   address,
		Kind:      domain.PayloadChat,
		Body:      []byte(frame.Content),
		CreatedAt: time.Now().UTC(),
	})
}

func (h *Handler) handleSignal(ctx context.Context, user domain.UserID, kind domain.PayloadKind, data []byte) {
	var frame callFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.To == "" {
		h.log.Warn("malformed signaling frame dropped", "user", string(user))
		return
	}

	var body json.RawMessage
	switch kind {
	case domain.PayloadCallOffer:
		body = frame.Offer
	case domain.PayloadCallAnswer:
		body = frame.Answer
	case domain.PayloadCallCandidate:
		body = frame.Candidate
	}
	h.relay.Relay(ctx, domain.Envelope{
		SenderID:  user,
		Address:   domain.DirectTo(domain.UserID(frame.To)),
		Kind:      kind,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
}

func (h *Handler) sendAck(conn *Conn, frame ackFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.Error("ack marshal failed", "error", err)
		return
	}
	if err := conn.enqueue(data); err != nil {
		h.log.Debug("ack dropped", "conn", conn.ID(), "error", err)
	}
}
