package chat

import (
	"time"

	"jobboard-chat/internal/apperror"
	"jobboard-chat/internal/message"
	"jobboard-chat/internal/room"
)

// Event type discriminators. Inbound and outbound kinds form a
// closed set; anything else is rejected as invalid input.
const (
	EventAuthenticate  = "authenticate"
	EventMessage       = "message"
	EventChatHistory   = "chat_history"
	EventChatList      = "chat_list"
	EventTyping        = "typing"
	EventStopTyping    = "stop_typing"
	EventMessageRead   = "message_read"
	EventConnection    = "connection"
	EventAuth          = "authentication"
	EventMessageStatus = "message_status"
	EventUserOnline    = "user_online"
	EventUserOffline   = "user_offline"
	EventError         = "error"
)

// Delivery statuses carried by message_status events.
const (
	StatusConnected = "connected"
	StatusSuccess   = "success"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// ClientEvent is an inbound payload from a connection. A single
// struct covers the closed event set; the Type field selects which
// fields are meaningful.
type ClientEvent struct {
	Type        string   `json:"type"`
	Token       string   `json:"token,omitempty"`
	SenderID    string   `json:"senderId,omitempty"`
	RoomID      string   `json:"roomId,omitempty"`
	ReceiverID  string   `json:"receiverId,omitempty"`
	JobPostID   string   `json:"jobPostId,omitempty"`
	Message     string   `json:"message,omitempty"`
	MessageType string   `json:"messageType,omitempty"`
	ReplyToID   string   `json:"replyToId,omitempty"`
	Page        int      `json:"page,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	MessageIDs  []string `json:"messageIds,omitempty"`
}

// ServerEvent is an outbound payload to a connection.
type ServerEvent struct {
	Type             string              `json:"type"`
	Status           string              `json:"status,omitempty"`
	Message          string              `json:"message,omitempty"`
	Error            string              `json:"error,omitempty"`
	ErrorKind        apperror.Kind       `json:"errorKind,omitempty"`
	StatusCode       int                 `json:"statusCode,omitempty"`
	ConnectionID     string              `json:"connectionId,omitempty"`
	UserID           string              `json:"userId,omitempty"`
	SenderID         string              `json:"senderId,omitempty"`
	RoomID           string              `json:"roomId,omitempty"`
	MessageID        string              `json:"messageId,omitempty"`
	MessageIDs       []string            `json:"messageIds,omitempty"`
	MessageType      string              `json:"messageType,omitempty"`
	SenderFullName   string              `json:"senderFullName,omitempty"`
	SenderEmail      string              `json:"senderEmail,omitempty"`
	SenderProfilePic string              `json:"senderProfilePic,omitempty"`
	Page             int                 `json:"page,omitempty"`
	Limit            int                 `json:"limit,omitempty"`
	History          []*message.Enriched `json:"history,omitempty"`
	ChatList         []*room.Summary     `json:"chatList,omitempty"`
	CreatedAt        string              `json:"createdAt"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// NewConnectionAck greets a freshly opened connection.
func NewConnectionAck(connectionID string) *ServerEvent {
	return &ServerEvent{
		Type:         EventConnection,
		Status:       StatusConnected,
		Message:      "Please authenticate to start chatting",
		ConnectionID: connectionID,
		CreatedAt:    now(),
	}
}

// NewAuthSuccess acknowledges a completed authenticate handshake.
func NewAuthSuccess(userID, connectionID string) *ServerEvent {
	return &ServerEvent{
		Type:         EventAuth,
		Status:       StatusSuccess,
		Message:      "Authenticated successfully",
		UserID:       userID,
		ConnectionID: connectionID,
		CreatedAt:    now(),
	}
}

// NewChatList carries a user's room list.
func NewChatList(chatList []*room.Summary) *ServerEvent {
	return &ServerEvent{
		Type:      EventChatList,
		ChatList:  chatList,
		CreatedAt: now(),
	}
}

// NewChatHistory carries one page of room history.
func NewChatHistory(roomID string, page, limit int, history []*message.Enriched) *ServerEvent {
	return &ServerEvent{
		Type:      EventChatHistory,
		RoomID:    roomID,
		Page:      page,
		Limit:     limit,
		History:   history,
		CreatedAt: now(),
	}
}

// NewMessageEvent is the fan-out form of a persisted message.
func NewMessageEvent(msg *message.Enriched) *ServerEvent {
	return &ServerEvent{
		Type:             EventMessage,
		MessageID:        msg.ID,
		SenderID:         msg.SenderID,
		RoomID:           msg.RoomID,
		Message:          msg.Body,
		MessageType:      string(msg.MessageType),
		SenderFullName:   msg.SenderFullName,
		SenderEmail:      msg.SenderEmail,
		SenderProfilePic: msg.SenderProfilePic,
		CreatedAt:        msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// NewDeliveredStatus acknowledges persistence to the sender.
func NewDeliveredStatus(messageID, roomID string) *ServerEvent {
	return &ServerEvent{
		Type:      EventMessageStatus,
		Status:    StatusDelivered,
		MessageID: messageID,
		RoomID:    roomID,
		CreatedAt: now(),
	}
}

// NewReadStatus acknowledges a read-receipt request.
func NewReadStatus(messageIDs []string) *ServerEvent {
	return &ServerEvent{
		Type:       EventMessageStatus,
		Status:     StatusRead,
		MessageIDs: messageIDs,
		CreatedAt:  now(),
	}
}

// NewTypingEvent relays a typing indicator. eventType is
// EventTyping or EventStopTyping.
func NewTypingEvent(eventType, senderID, roomID string) *ServerEvent {
	return &ServerEvent{
		Type:      eventType,
		SenderID:  senderID,
		RoomID:    roomID,
		CreatedAt: now(),
	}
}

// NewPresenceEvent announces an online/offline transition.
func NewPresenceEvent(userID string, online bool) *ServerEvent {
	eventType := EventUserOffline
	if online {
		eventType = EventUserOnline
	}
	return &ServerEvent{
		Type:      eventType,
		UserID:    userID,
		CreatedAt: now(),
	}
}

// NewErrorEvent converts a typed error to its wire form. Internal
// causes never reach the client.
func NewErrorEvent(err *apperror.Error) *ServerEvent {
	return &ServerEvent{
		Type:       EventError,
		Error:      err.Message,
		ErrorKind:  err.Kind,
		StatusCode: err.StatusCode,
		CreatedAt:  now(),
	}
}
