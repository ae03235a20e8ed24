package message

import (
	"context"
	"strings"
	"time"

	"jobboard-chat/internal/apperror"
	"jobboard-chat/internal/room"
	"jobboard-chat/internal/user"
)

// Service handles message business logic
type Service interface {
	// Append persists a message in the room and bumps the room's
	// last activity. The sender must be an active participant. The
	// returned message carries sender display fields and the active
	// participant ids for fan-out.
	Append(ctx context.Context, roomID, senderID, body string, messageType MessageType, replyToID string) (*Enriched, error)

	// History returns one page of room messages in chronological
	// order, along with the applied paging bounds. The page is
	// anchored to the most recent window: fetched newest first, then
	// reversed. Requester must be an active participant.
	History(ctx context.Context, roomID, requesterID string, page, limit int) (*HistoryPage, error)

	// MarkRead flags the given messages as read for the reader.
	// Messages the reader sent are skipped; re-marking is a no-op.
	MarkRead(ctx context.Context, messageIDs []string, readerID string) error

	// MarkRoomRead flags all unread messages in the room that the
	// reader did not send.
	MarkRoomRead(ctx context.Context, roomID, readerID string) error

	// MarkOneRead flags a single message read after verifying the
	// reader participates in its room and did not send it.
	MarkOneRead(ctx context.Context, messageID, readerID string) (*Message, error)
}

// service implements Service
type service struct {
	repo         Repository
	rooms        room.Repository
	users        user.Repository
	defaultLimit int
	maxLimit     int
}

// NewService creates a new message service
func NewService(repo Repository, rooms room.Repository, users user.Repository, defaultLimit, maxLimit int) Service {
	return &service{
		repo:         repo,
		rooms:        rooms,
		users:        users,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Append persists and enriches a new message
func (s *service) Append(ctx context.Context, roomID, senderID, body string, messageType MessageType, replyToID string) (*Enriched, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.InvalidInput("Message body cannot be empty")
	}
	if messageType == "" {
		messageType = TypeText
	}
	if !messageType.Valid() {
		return nil, apperror.InvalidInput("Unknown message type")
	}

	rm, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, apperror.From(err)
	}
	if !rm.HasActiveParticipant(senderID) {
		return nil, apperror.Forbidden("You are not a participant in this chat room")
	}

	msg := &Message{
		RoomID:      roomID,
		SenderID:    senderID,
		Body:        body,
		MessageType: messageType,
		IsRead:      false,
		ReplyToID:   replyToID,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Insert(ctx, msg); err != nil {
		return nil, apperror.Internal(err)
	}

	if err := s.rooms.TouchActivity(ctx, roomID, msg.CreatedAt); err != nil {
		return nil, apperror.Internal(err)
	}

	enriched := &Enriched{
		Message:        msg,
		ParticipantIDs: rm.ActiveParticipantIDs(),
	}

	if sender, err := s.users.GetByID(ctx, senderID); err == nil {
		enriched.SenderFullName = sender.FullName
		enriched.SenderEmail = sender.Email
		enriched.SenderProfilePic = sender.ProfilePic
	}

	return enriched, nil
}

// History returns a chronological page of room messages
func (s *service) History(ctx context.Context, roomID, requesterID string, page, limit int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	rm, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, apperror.From(err)
	}
	if !rm.HasActiveParticipant(requesterID) {
		return nil, apperror.Forbidden("You are not a participant in this chat room")
	}

	messages, err := s.repo.ListByRoom(ctx, roomID, page, limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	// Reverse to chronological order (oldest first).
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	senderIDs := make([]string, 0, 2)
	seen := make(map[string]bool)
	for _, msg := range messages {
		if !seen[msg.SenderID] {
			seen[msg.SenderID] = true
			senderIDs = append(senderIDs, msg.SenderID)
		}
	}

	senders := map[string]*user.User{}
	if len(senderIDs) > 0 {
		senders, err = s.users.GetByIDs(ctx, senderIDs)
		if err != nil {
			return nil, apperror.Internal(err)
		}
	}

	enriched := make([]*Enriched, 0, len(messages))
	for _, msg := range messages {
		e := &Enriched{Message: msg}
		if sender, ok := senders[msg.SenderID]; ok {
			e.SenderFullName = sender.FullName
			e.SenderEmail = sender.Email
			e.SenderProfilePic = sender.ProfilePic
		}
		enriched = append(enriched, e)
	}

	if err := s.rooms.UpdateLastSeen(ctx, roomID, requesterID, time.Now()); err != nil {
		return nil, apperror.Internal(err)
	}

	return &HistoryPage{Messages: enriched, Page: page, Limit: limit}, nil
}

// MarkRead flags the given messages as read
func (s *service) MarkRead(ctx context.Context, messageIDs []string, readerID string) error {
	if len(messageIDs) == 0 {
		return apperror.InvalidInput("messageIds array is required")
	}

	if _, err := s.repo.MarkRead(ctx, messageIDs, readerID); err != nil {
		return apperror.From(err)
	}

	return nil
}

// MarkRoomRead flags all unread room messages not sent by the reader
func (s *service) MarkRoomRead(ctx context.Context, roomID, readerID string) error {
	if _, err := s.repo.MarkRoomRead(ctx, roomID, readerID); err != nil {
		return apperror.From(err)
	}
	return nil
}

// MarkOneRead flags a single message read with full permission checks
func (s *service) MarkOneRead(ctx context.Context, messageID, readerID string) (*Message, error) {
	msg, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, apperror.From(err)
	}

	rm, err := s.rooms.GetByID(ctx, msg.RoomID)
	if err != nil {
		return nil, apperror.From(err)
	}
	if !rm.HasActiveParticipant(readerID) {
		return nil, apperror.Forbidden("You can only mark messages in rooms you participate in as read")
	}
	if msg.SenderID == readerID {
		return nil, apperror.InvalidInput("You cannot mark your own messages as read")
	}

	if _, err := s.repo.MarkRead(ctx, []string{messageID}, readerID); err != nil {
		return nil, apperror.From(err)
	}

	msg.IsRead = true
	return msg, nil
}
