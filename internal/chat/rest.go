package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"jobboard-chat/internal/apperror"
	"jobboard-chat/internal/auth"
	"jobboard-chat/internal/message"
	"jobboard-chat/internal/room"
	"jobboard-chat/internal/user"
)

// Notifier pushes a persisted message to live websocket connections.
// The websocket handler implements it; REST sends go through it so
// both transports reach the same receivers.
type Notifier interface {
	FanOutMessage(msg *message.Enriched)
}

// RESTHandler exposes the chat operations over HTTP for clients
// without a live websocket.
type RESTHandler struct {
	rooms    room.Service
	messages message.Service
	users    user.Repository
	verifier *auth.TokenVerifier
	notifier Notifier
}

// NewRESTHandler creates the HTTP chat handler. notifier may be nil.
func NewRESTHandler(rooms room.Service, messages message.Service, users user.Repository, verifier *auth.TokenVerifier, notifier Notifier) *RESTHandler {
	return &RESTHandler{
		rooms:    rooms,
		messages: messages,
		users:    users,
		verifier: verifier,
		notifier: notifier,
	}
}

// Register mounts the chat routes on the mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/chats", h.authenticated(h.sendMessage))
	mux.HandleFunc("GET /api/v1/chats", h.authenticated(h.chatList))
	mux.HandleFunc("PATCH /api/v1/chats/{messageID}/read", h.authenticated(h.markMessageRead))
	mux.HandleFunc("POST /api/v1/chat-rooms", h.authenticated(h.resolveRoom))
	mux.HandleFunc("POST /api/v1/chat-rooms/{roomID}/join", h.authenticated(h.joinRoom))
	mux.HandleFunc("GET /api/v1/chat-rooms/{roomID}/messages", h.authenticated(h.roomHistory))
}

type ctxKey int

const identityKey ctxKey = iota

// authenticated verifies the bearer token and stores the identity in
// the request context.
func (h *RESTHandler) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			token = ""
		}

		identity, err := h.verifier.Verify(token)
		if err != nil {
			h.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx))
	}
}

func identityFrom(r *http.Request) *auth.Identity {
	identity, _ := r.Context().Value(identityKey).(*auth.Identity)
	return identity
}

type sendMessageRequest struct {
	RoomID      string `json:"roomId"`
	ReceiverID  string `json:"receiverId"`
	JobPostID   string `json:"jobPostId"`
	Message     string `json:"message"`
	MessageType string `json:"messageType"`
	ReplyToID   string `json:"replyToId"`
}

// sendMessage persists a message, resolving the room from the
// receiver and job post when no room id is given.
func (h *RESTHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperror.InvalidInput("Invalid request body"))
		return
	}

	roomID := req.RoomID
	if roomID == "" {
		if req.ReceiverID == "" {
			h.writeError(w, apperror.InvalidInput("Receiver ID is required when no room is given"))
			return
		}
		exists, err := h.users.Exists(r.Context(), req.ReceiverID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if !exists {
			h.writeError(w, apperror.NotFound("Receiver not found"))
			return
		}

		detail, err := h.rooms.ResolveOrCreate(r.Context(), identity.UserID, req.ReceiverID, req.JobPostID, room.RoomTypeJobApplication)
		if err != nil {
			h.writeError(w, err)
			return
		}
		roomID = detail.ID
	}

	enriched, err := h.messages.Append(r.Context(), roomID, identity.UserID, req.Message, message.MessageType(req.MessageType), req.ReplyToID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.notifier != nil {
		h.notifier.FanOutMessage(enriched)
	}

	h.writeJSON(w, http.StatusCreated, "Message sent successfully", enriched)
}

func (h *RESTHandler) chatList(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)

	summaries, err := h.rooms.ListUserRooms(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, "Chats retrieved successfully", summaries)
}

func (h *RESTHandler) markMessageRead(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	messageID := r.PathValue("messageID")

	msg, err := h.messages.MarkOneRead(r.Context(), messageID, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, "Message marked as read", msg)
}

type resolveRoomRequest struct {
	ParticipantID string `json:"participantId"`
	JobPostID     string `json:"jobPostId"`
	RoomType      string `json:"roomType"`
}

// resolveRoom returns the room for the participant pair, creating it
// when eligibility allows.
func (h *RESTHandler) resolveRoom(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)

	var req resolveRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperror.InvalidInput("Invalid request body"))
		return
	}
	if req.ParticipantID == "" {
		h.writeError(w, apperror.InvalidInput("Participant ID is required"))
		return
	}

	detail, err := h.rooms.ResolveOrCreate(r.Context(), identity.UserID, req.ParticipantID, req.JobPostID, room.RoomType(req.RoomType))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, "Chat room ready", detail)
}

func (h *RESTHandler) joinRoom(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	roomID := r.PathValue("roomID")

	if err := h.rooms.Join(r.Context(), roomID, identity.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, "Joined chat room", nil)
}

// roomHistory returns one chronological page of room messages and
// marks the room read for the requester.
func (h *RESTHandler) roomHistory(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	roomID := r.PathValue("roomID")

	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	page, err := h.messages.History(r.Context(), roomID, identity.UserID, pageNum, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.messages.MarkRoomRead(r.Context(), roomID, identity.UserID); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, "Messages retrieved successfully", page.Messages)
}

type responseEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(responseEnvelope{Success: true, Message: msg, Data: data}); err != nil {
		log.Printf("⚠️ Failed to write response: %v", err)
	}
}

func (h *RESTHandler) writeError(w http.ResponseWriter, err error) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		log.Printf("⚠️ Internal error: %v", appErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(responseEnvelope{Success: false, Message: appErr.Message})
}
