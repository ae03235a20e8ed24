package message

import (
	"context"

	"jobboard-chat/internal/room"
)

// Repository defines the interface for message persistence. It also
// satisfies room.MessageSource so chat-list entries can be enriched
// without a package cycle.
type Repository interface {
	Insert(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)

	// ListByRoom returns one page of messages, newest first.
	ListByRoom(ctx context.Context, roomID string, page, limit int) ([]*Message, error)

	// MarkRead flags the given messages as read, skipping any the
	// reader sent. Returns the number of messages actually updated.
	MarkRead(ctx context.Context, messageIDs []string, readerID string) (int64, error)

	// MarkRoomRead flags every unread message in the room that the
	// reader did not send.
	MarkRoomRead(ctx context.Context, roomID, readerID string) (int64, error)

	LatestByRoom(ctx context.Context, roomID string) (*room.LastMessage, error)
	CountUnread(ctx context.Context, roomID, userID string) (int64, error)
}
