package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	gorilla "github.com/gorilla/websocket"

	"jobboard-chat/internal/apperror"
	"jobboard-chat/internal/auth"
	"jobboard-chat/internal/config"
	"jobboard-chat/internal/message"
	"jobboard-chat/internal/room"
	ws "jobboard-chat/internal/websocket"
)

// Handler owns the websocket endpoint: upgrade, the per-connection
// read and write pumps, and dispatch of the chat protocol.
type Handler struct {
	registry *ws.Registry
	rooms    room.Service
	messages message.Service
	verifier *auth.TokenVerifier
	cfg      *config.ServerConfig
	upgrader gorilla.Upgrader
}

// NewHandler creates the websocket protocol handler.
func NewHandler(registry *ws.Registry, rooms room.Service, messages message.Service, verifier *auth.TokenVerifier, cfg *config.ServerConfig) *Handler {
	return &Handler{
		registry: registry,
		rooms:    rooms,
		messages: messages,
		verifier: verifier,
		cfg:      cfg,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the request and runs the connection until
// it closes.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️ Websocket upgrade failed: %v", err)
		return
	}

	conn := ws.NewConnection(socket, h.cfg.SendBufferSize)
	if err := h.registry.Add(conn); err != nil {
		log.Printf("⚠️ Rejecting connection %s: %v", conn.ID, err)
		deadline := time.Now().Add(h.cfg.WriteTimeout)
		msg := gorilla.FormatCloseMessage(gorilla.CloseTryAgainLater, "server at capacity")
		_ = socket.WriteControl(gorilla.CloseMessage, msg, deadline)
		_ = socket.Close()
		return
	}

	log.Printf("🔗 New connection: %s", conn.ID)

	go h.writePump(conn, socket)
	h.sendEvent(conn, NewConnectionAck(conn.ID))
	h.readPump(conn, socket)
}

// readPump consumes inbound frames and dispatches events one at a
// time, so a connection's events are handled in arrival order.
func (h *Handler) readPump(conn *ws.Connection, socket *gorilla.Conn) {
	defer h.teardown(conn)

	socket.SetReadLimit(h.cfg.ReadLimit)
	socket.SetPongHandler(func(string) error {
		conn.MarkAlive()
		return nil
	})

	for {
		_, raw, err := socket.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				log.Printf("⚠️ Read error on %s: %v", conn.ID, err)
			}
			return
		}
		conn.MarkAlive()
		h.dispatch(conn, raw)
	}
}

// writePump is the sole writer on the socket. It drains queued events
// and heartbeat probe requests until the connection is torn down.
func (h *Handler) writePump(conn *ws.Connection, socket *gorilla.Conn) {
	for {
		select {
		case payload := <-conn.Outbound():
			_ = socket.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := socket.WriteMessage(gorilla.TextMessage, payload); err != nil {
				conn.Close()
				return
			}
		case <-conn.PingRequests():
			_ = socket.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := socket.WriteMessage(gorilla.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-conn.Done():
			return
		}
	}
}

// teardown runs exactly once per connection, whatever ended it:
// client close, read error, or a heartbeat termination.
func (h *Handler) teardown(conn *ws.Connection) {
	conn.Close()
	userID, last := h.registry.Remove(conn.ID)

	if userID != "" {
		log.Printf("🔌 Connection closed: %s (user: %s, role: %s)", conn.ID, userID, conn.Role())
		if last {
			h.broadcastPresence(userID, false)
		}
		return
	}
	log.Printf("🔌 Connection closed: %s (unauthenticated)", conn.ID)
}

// dispatch routes one inbound event. Everything before authenticate
// is rejected; authenticate itself closes the connection on
// credential failure.
func (h *Handler) dispatch(conn *ws.Connection, raw []byte) {
	var ev ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		h.sendError(conn, apperror.InvalidInput("Invalid message format"))
		return
	}

	ctx := context.Background()

	if ev.Type == EventAuthenticate {
		h.handleAuthenticate(ctx, conn, &ev)
		return
	}

	if !conn.Authenticated() {
		h.sendError(conn, apperror.Unauthenticated("Authenticate before sending events"))
		return
	}

	switch ev.Type {
	case EventMessage:
		h.handleMessage(ctx, conn, &ev)
	case EventChatHistory:
		h.handleChatHistory(ctx, conn, &ev)
	case EventChatList:
		h.handleChatList(ctx, conn)
	case EventTyping, EventStopTyping:
		h.handleTyping(ctx, conn, &ev)
	case EventMessageRead:
		h.handleMessageRead(ctx, conn, &ev)
	default:
		h.sendError(conn, apperror.InvalidInput("Unknown event type: "+ev.Type))
	}
}

// handleAuthenticate verifies the token, binds the identity and
// pushes the initial chat list. The first live connection for the
// user announces them online.
func (h *Handler) handleAuthenticate(ctx context.Context, conn *ws.Connection, ev *ClientEvent) {
	if ev.Token == "" {
		h.sendError(conn, apperror.InvalidInput("Token is required for authentication"))
		return
	}

	identity, err := h.verifier.Verify(ev.Token)
	if err != nil {
		h.sendError(conn, err)
		return
	}

	if conn.Authenticated() && conn.UserID() != identity.UserID {
		h.sendError(conn, apperror.Forbidden("Connection is already bound to another user"))
		return
	}

	first, err := h.registry.Bind(conn.ID, identity.UserID, identity.Role)
	if err != nil {
		h.sendError(conn, apperror.Internal(err))
		return
	}

	log.Printf("✅ User authenticated: %s (connection: %s)", identity.UserID, conn.ID)
	h.sendEvent(conn, NewAuthSuccess(identity.UserID, conn.ID))

	if first {
		h.broadcastPresence(identity.UserID, true)
	}

	chatList, err := h.rooms.ListUserRooms(ctx, identity.UserID)
	if err != nil {
		h.sendError(conn, err)
		return
	}
	h.sendEvent(conn, NewChatList(chatList))
}

// handleMessage persists a message and fans it out to the other
// participants' live connections.
func (h *Handler) handleMessage(ctx context.Context, conn *ws.Connection, ev *ClientEvent) {
	var missing []string
	if ev.RoomID == "" && ev.ReceiverID == "" {
		missing = append(missing, "roomId or receiverId")
	}
	if strings.TrimSpace(ev.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		h.sendError(conn, apperror.InvalidInput("Missing required fields: "+strings.Join(missing, ", ")))
		return
	}

	userID := conn.UserID()
	if ev.SenderID != "" && ev.SenderID != userID {
		h.sendError(conn, apperror.Forbidden("Sender ID does not match authenticated user"))
		return
	}

	roomID := ev.RoomID
	if roomID == "" {
		if ev.JobPostID == "" {
			h.sendError(conn, apperror.InvalidInput("Job Post ID is required when messaging by receiver"))
			return
		}
		detail, err := h.rooms.ResolveOrCreate(ctx, userID, ev.ReceiverID, ev.JobPostID, room.RoomTypeJobApplication)
		if err != nil {
			h.sendError(conn, err)
			return
		}
		roomID = detail.ID
	}

	enriched, err := h.messages.Append(ctx, roomID, userID, ev.Message, message.MessageType(ev.MessageType), ev.ReplyToID)
	if err != nil {
		h.sendError(conn, err)
		return
	}

	h.FanOutMessage(enriched)
	h.sendEvent(conn, NewDeliveredStatus(enriched.ID, enriched.RoomID))
}

// FanOutMessage delivers a persisted message to every other active
// participant. The payload is serialized once and shared.
func (h *Handler) FanOutMessage(msg *message.Enriched) {
	payload, err := json.Marshal(NewMessageEvent(msg))
	if err != nil {
		log.Printf("⚠️ Failed to encode message %s: %v", msg.ID, err)
		return
	}

	delivered := 0
	for _, participantID := range msg.ParticipantIDs {
		if participantID == msg.SenderID {
			continue
		}
		delivered += h.registry.DeliverToUser(participantID, payload)
	}
	log.Printf("📡 Message %s fanned out to %d connection(s)", msg.ID, delivered)
}

// handleChatHistory returns one chronological page and marks the
// room read for the requester.
func (h *Handler) handleChatHistory(ctx context.Context, conn *ws.Connection, ev *ClientEvent) {
	if ev.RoomID == "" {
		h.sendError(conn, apperror.InvalidInput("Room ID is required for chat history"))
		return
	}

	userID := conn.UserID()
	page, err := h.messages.History(ctx, ev.RoomID, userID, ev.Page, ev.Limit)
	if err != nil {
		h.sendError(conn, err)
		return
	}

	if err := h.messages.MarkRoomRead(ctx, ev.RoomID, userID); err != nil {
		h.sendError(conn, err)
		return
	}

	h.sendEvent(conn, NewChatHistory(ev.RoomID, page.Page, page.Limit, page.Messages))
}

func (h *Handler) handleChatList(ctx context.Context, conn *ws.Connection) {
	chatList, err := h.rooms.ListUserRooms(ctx, conn.UserID())
	if err != nil {
		h.sendError(conn, err)
		return
	}
	h.sendEvent(conn, NewChatList(chatList))
}

// handleTyping relays a typing indicator to the other active
// participants. Nothing is persisted.
func (h *Handler) handleTyping(ctx context.Context, conn *ws.Connection, ev *ClientEvent) {
	if ev.RoomID == "" {
		h.sendError(conn, apperror.InvalidInput("Room ID is required for typing indicators"))
		return
	}

	userID := conn.UserID()
	rm, err := h.rooms.GetRoom(ctx, ev.RoomID)
	if err != nil {
		h.sendError(conn, err)
		return
	}
	if !rm.HasActiveParticipant(userID) {
		h.sendError(conn, apperror.Forbidden("You are not a participant in this chat room"))
		return
	}

	payload, err := json.Marshal(NewTypingEvent(ev.Type, userID, ev.RoomID))
	if err != nil {
		return
	}
	for _, participantID := range rm.ActiveParticipantIDs() {
		if participantID == userID {
			continue
		}
		h.registry.DeliverToUser(participantID, payload)
	}
}

func (h *Handler) handleMessageRead(ctx context.Context, conn *ws.Connection, ev *ClientEvent) {
	if err := h.messages.MarkRead(ctx, ev.MessageIDs, conn.UserID()); err != nil {
		h.sendError(conn, err)
		return
	}
	h.sendEvent(conn, NewReadStatus(ev.MessageIDs))
}

// broadcastPresence announces an online/offline transition to every
// other authenticated connection.
func (h *Handler) broadcastPresence(userID string, online bool) {
	payload, err := json.Marshal(NewPresenceEvent(userID, online))
	if err != nil {
		return
	}
	h.registry.BroadcastExcept(userID, payload)
	if online {
		log.Printf("📡 User online: %s", userID)
	} else {
		log.Printf("📡 User offline: %s", userID)
	}
}

// sendEvent queues an event on the connection. A full buffer drops
// the event rather than blocking the dispatcher.
func (h *Handler) sendEvent(conn *ws.Connection, ev *ServerEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("⚠️ Failed to encode %s event: %v", ev.Type, err)
		return
	}
	if err := conn.Send(payload); err != nil {
		log.Printf("⚠️ Dropped %s event for connection %s: %v", ev.Type, conn.ID, err)
	}
}

// sendError converts err to its wire form and queues it. Credential
// failures additionally close the connection.
func (h *Handler) sendError(conn *ws.Connection, err error) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		log.Printf("⚠️ Internal error on connection %s: %v", conn.ID, appErr)
	}

	h.sendEvent(conn, NewErrorEvent(appErr))

	if appErr.Fatal() {
		log.Printf("🔌 Closing connection %s after credential failure", conn.ID)
		conn.Close()
	}
}
