package room

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"jobboard-chat/internal/apperror"
	"jobboard-chat/internal/job"
	"jobboard-chat/internal/user"
)

// Service handles room resolution business logic
type Service interface {
	// ResolveOrCreate returns the room for the (requester,
	// counterpart, job post) triple, creating it if it does not
	// exist. Resolution is idempotent and symmetric: either
	// participant resolving the same triple gets the same room.
	ResolveOrCreate(ctx context.Context, requesterID, counterpartID, jobPostID string, roomType RoomType) (*Detail, error)

	// Join makes userID an active MEMBER of the room, reactivating a
	// previous membership if one exists. Idempotent.
	Join(ctx context.Context, roomID, userID string) error

	// ListUserRooms returns the user's chat list, newest activity
	// first, each entry enriched with the counterpart's display
	// fields, the latest message and the unread count.
	ListUserRooms(ctx context.Context, userID string) ([]*Summary, error)

	// GetRoom fetches a room by id for participant checks.
	GetRoom(ctx context.Context, roomID string) (*Room, error)
}

// service implements Service
type service struct {
	repo     Repository
	jobs     job.Repository
	users    user.Repository
	messages MessageSource
}

// NewService creates a new room service
func NewService(repo Repository, jobs job.Repository, users user.Repository, messages MessageSource) Service {
	return &service{
		repo:     repo,
		jobs:     jobs,
		users:    users,
		messages: messages,
	}
}

// ResolveOrCreate resolves or creates the room for a participant pair
func (s *service) ResolveOrCreate(ctx context.Context, requesterID, counterpartID, jobPostID string, roomType RoomType) (*Detail, error) {
	if jobPostID == "" {
		return nil, apperror.InvalidInput("Job Post ID is required for all chats")
	}
	if requesterID == counterpartID {
		return nil, apperror.InvalidInput("Cannot open a chat room with yourself")
	}
	if roomType == "" {
		roomType = RoomTypeJobApplication
	}
	if !roomType.Valid() {
		return nil, apperror.InvalidInput("Unknown room type")
	}

	key := Key(jobPostID, requesterID, counterpartID)

	existing, err := s.repo.GetByKey(ctx, key)
	switch {
	case err == nil:
		if err := s.repo.TouchActivity(ctx, existing.ID, time.Now()); err != nil {
			return nil, apperror.Internal(err)
		}
		return s.enrich(ctx, existing)
	case apperror.IsKind(err, apperror.KindNotFound):
		// fall through to creation
	default:
		return nil, apperror.Internal(err)
	}

	eligible, err := s.jobs.HasApplication(ctx, requesterID, counterpartID, jobPostID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !eligible {
		return nil, apperror.Forbidden("Chat room can only be created between users with existing job application")
	}

	now := time.Now()
	created := &Room{
		ID:        uuid.NewString(),
		RoomKey:   key,
		RoomType:  roomType,
		JobPostID: jobPostID,
		CreatedBy: requesterID,
		IsActive:  true,
		Participants: []Participant{
			{UserID: requesterID, Role: RoleAdmin, IsActive: true, JoinedAt: now},
			{UserID: counterpartID, Role: RoleMember, IsActive: true, JoinedAt: now},
		},
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := s.repo.Create(ctx, created); err != nil {
		if err != ErrDuplicateKey {
			return nil, apperror.Internal(err)
		}
		// Lost the creation race; the winner's room is authoritative.
		created, err = s.repo.GetByKey(ctx, key)
		if err != nil {
			return nil, apperror.From(err)
		}
		return s.enrich(ctx, created)
	}

	log.Printf("🏠 Chat room created: %s (key: %s)", created.ID, key)
	return s.enrich(ctx, created)
}

// Join adds or reactivates a MEMBER participant
func (s *service) Join(ctx context.Context, roomID, userID string) error {
	target, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return apperror.From(err)
	}

	if p := target.FindParticipant(userID); p != nil && p.IsActive {
		return nil
	}

	p := Participant{
		UserID:   userID,
		Role:     RoleMember,
		IsActive: true,
		JoinedAt: time.Now(),
	}
	if err := s.repo.UpsertParticipant(ctx, roomID, p); err != nil {
		return apperror.From(err)
	}

	log.Printf("🚪 User %s joined room %s", userID, roomID)
	return nil
}

// ListUserRooms builds the user's chat list
func (s *service) ListUserRooms(ctx context.Context, userID string) ([]*Summary, error) {
	rooms, err := s.repo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	directoryIDs := []string{userID}
	for _, rm := range rooms {
		if other := rm.OtherParticipantID(userID); other != "" {
			directoryIDs = append(directoryIDs, other)
		}
	}

	directory, err := s.users.GetByIDs(ctx, directoryIDs)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	jobPosts := make(map[string]*job.JobSummary)

	summaries := make([]*Summary, 0, len(rooms))
	for _, rm := range rooms {
		summary := &Summary{
			ID:           rm.ID,
			RoomKey:      rm.RoomKey,
			RoomType:     rm.RoomType,
			IsActive:     rm.IsActive,
			CreatedAt:    rm.CreatedAt,
			LastActivity: rm.LastActivity,
		}

		if other := rm.OtherParticipantID(userID); other != "" {
			summary.ReceiverID = other
			if u, ok := directory[other]; ok {
				summary.ReceiverName = u.FullName
				summary.ReceiverEmail = u.Email
				summary.ReceiverProfilePic = u.ProfilePic
				summary.ReceiverRole = u.Role
			}
		}

		if rm.JobPostID != "" {
			post, ok := jobPosts[rm.JobPostID]
			if !ok {
				if jp, err := s.jobs.GetJobPost(ctx, rm.JobPostID); err == nil {
					post = jp.Summary()
				}
				jobPosts[rm.JobPostID] = post
			}
			summary.JobPost = post
		}

		last, err := s.messages.LatestByRoom(ctx, rm.ID)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		if last != nil {
			if u, ok := directory[last.SenderID]; ok {
				last.SenderName = u.FullName
			}
		}
		summary.LastMessage = last

		unread, err := s.messages.CountUnread(ctx, rm.ID, userID)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		summary.UnreadCount = unread

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetRoom fetches a room by id
func (s *service) GetRoom(ctx context.Context, roomID string) (*Room, error) {
	rm, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, apperror.From(err)
	}
	return rm, nil
}

// enrich attaches participant directory fields and the job summary
func (s *service) enrich(ctx context.Context, rm *Room) (*Detail, error) {
	ids := make([]string, 0, len(rm.Participants))
	for _, p := range rm.Participants {
		ids = append(ids, p.UserID)
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	detail := &Detail{Room: rm}
	for _, p := range rm.Participants {
		detail.ParticipantInfos = append(detail.ParticipantInfos, ParticipantInfo{
			Participant: p,
			User:        users[p.UserID],
		})
	}

	if rm.JobPostID != "" {
		if post, err := s.jobs.GetJobPost(ctx, rm.JobPostID); err == nil {
			detail.JobPost = post.Summary()
		}
	}

	return detail, nil
}
