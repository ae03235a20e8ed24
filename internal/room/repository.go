package room

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateKey is returned by Create when another insert with the
// same room key won the race. Callers fall back to a fetch.
var ErrDuplicateKey = errors.New("room key already exists")

// Repository defines the interface for room persistence
type Repository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	GetByKey(ctx context.Context, key string) (*Room, error)
	ListByParticipant(ctx context.Context, userID string) ([]*Room, error)
	TouchActivity(ctx context.Context, roomID string, at time.Time) error
	UpsertParticipant(ctx context.Context, roomID string, p Participant) error
	UpdateLastSeen(ctx context.Context, roomID, userID string, at time.Time) error
}

// MessageSource provides the message-store fields chat-list entries
// need. Declared here, implemented by the message package, to keep
// the dependency one-way.
type MessageSource interface {
	LatestByRoom(ctx context.Context, roomID string) (*LastMessage, error)
	CountUnread(ctx context.Context, roomID, userID string) (int64, error)
}
