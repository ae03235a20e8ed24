package message

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageType tags the payload kind of a chat message.
type MessageType string

const (
	TypeText         MessageType = "TEXT"
	TypeImage        MessageType = "IMAGE"
	TypeFile         MessageType = "FILE"
	TypeSystem       MessageType = "SYSTEM"
	TypeNotification MessageType = "NOTIFICATION"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeFile, TypeSystem, TypeNotification:
		return true
	}
	return false
}

// Message is one persisted chat message. Immutable after creation
// except for the read flag. Ordering within a room is by creation
// timestamp, ties broken by insertion order (ObjectID).
type Message struct {
	ID          string      `json:"id"`
	RoomID      string      `json:"roomId"`
	SenderID    string      `json:"senderId"`
	Body        string      `json:"message"`
	MessageType MessageType `json:"messageType"`
	IsRead      bool        `json:"isRead"`
	ReplyToID   string      `json:"replyToId,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Enriched is a message with the sender's display fields attached
// and, on the append path, the room's active participant ids the
// dispatcher fans out to.
type Enriched struct {
	*Message
	SenderFullName   string   `json:"senderFullName,omitempty"`
	SenderEmail      string   `json:"senderEmail,omitempty"`
	SenderProfilePic string   `json:"senderProfilePic,omitempty"`
	ParticipantIDs   []string `json:"-"`
}

// HistoryPage is one page of room history together with the paging
// bounds that were actually applied after clamping.
type HistoryPage struct {
	Messages []*Enriched
	Page     int
	Limit    int
}

// Document is the MongoDB document form of a Message.
type Document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	RoomID      string             `bson:"room_id"`
	SenderID    string             `bson:"sender_id"`
	Body        string             `bson:"message"`
	MessageType MessageType        `bson:"message_type"`
	IsRead      bool               `bson:"is_read"`
	ReplyToID   string             `bson:"reply_to_id,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
}

// ToMessage converts a Document to a Message
func (doc *Document) ToMessage() *Message {
	return &Message{
		ID:          doc.ID.Hex(),
		RoomID:      doc.RoomID,
		SenderID:    doc.SenderID,
		Body:        doc.Body,
		MessageType: doc.MessageType,
		IsRead:      doc.IsRead,
		ReplyToID:   doc.ReplyToID,
		CreatedAt:   doc.CreatedAt,
	}
}
