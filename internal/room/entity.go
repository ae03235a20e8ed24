package room

import (
	"fmt"
	"time"

	"jobboard-chat/internal/job"
	"jobboard-chat/internal/user"
)

// RoomType tags what kind of conversation a room carries.
type RoomType string

const (
	RoomTypeJobApplication RoomType = "JOB_APPLICATION"
	RoomTypeInterviewChat  RoomType = "INTERVIEW_CHAT"
	RoomTypeFollowUp       RoomType = "FOLLOW_UP"
)

// Valid reports whether t is a known room type.
func (t RoomType) Valid() bool {
	switch t {
	case RoomTypeJobApplication, RoomTypeInterviewChat, RoomTypeFollowUp:
		return true
	}
	return false
}

// ParticipantRole tags a participant's role within a room.
type ParticipantRole string

const (
	RoleAdmin  ParticipantRole = "ADMIN"
	RoleMember ParticipantRole = "MEMBER"
)

// Participant is a user's membership record in a room. At most one
// participant entry exists per (room, user); inactive entries are
// kept and reactivated on re-join.
type Participant struct {
	UserID     string          `json:"userId" bson:"user_id"`
	Role       ParticipantRole `json:"role" bson:"role"`
	IsActive   bool            `json:"isActive" bson:"is_active"`
	JoinedAt   time.Time       `json:"joinedAt" bson:"joined_at"`
	LastSeenAt *time.Time      `json:"lastSeenAt,omitempty" bson:"last_seen_at,omitempty"`
}

// Room is a durable chat channel scoped to two participants and one
// job context. Participants are embedded so room creation is a
// single atomic insert. Rooms are deactivated, never deleted.
type Room struct {
	ID           string        `json:"id" bson:"_id"`
	RoomKey      string        `json:"roomKey" bson:"room_key"`
	RoomType     RoomType      `json:"roomType" bson:"room_type"`
	JobPostID    string        `json:"jobPostId" bson:"job_post_id"`
	CreatedBy    string        `json:"createdBy" bson:"created_by"`
	IsActive     bool          `json:"isActive" bson:"is_active"`
	Participants []Participant `json:"participants" bson:"participants"`
	CreatedAt    time.Time     `json:"createdAt" bson:"created_at"`
	LastActivity time.Time     `json:"lastActivity" bson:"last_activity"`
}

// Key derives the canonical room key for a (job context, two users)
// triple. The two user ids are ordered lexicographically so both
// participants derive the same key; the ordering is part of the Room
// contract. (The system this replaces compared ids numerically,
// which breaks for non-numeric ids.)
func Key(jobPostID, userA, userB string) string {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("job_%s_%s_%s", jobPostID, lo, hi)
}

// FindParticipant returns the participant entry for userID, active
// or not.
func (r *Room) FindParticipant(userID string) *Participant {
	for i := range r.Participants {
		if r.Participants[i].UserID == userID {
			return &r.Participants[i]
		}
	}
	return nil
}

// HasActiveParticipant reports whether userID may read and write in
// this room.
func (r *Room) HasActiveParticipant(userID string) bool {
	p := r.FindParticipant(userID)
	return p != nil && p.IsActive
}

// ActiveParticipantIDs returns the ids of all active participants.
func (r *Room) ActiveParticipantIDs() []string {
	ids := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p.IsActive {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

// OtherParticipantID returns the active counterpart of userID. Rooms
// in this domain always hold exactly two business participants.
func (r *Room) OtherParticipantID(userID string) string {
	for _, p := range r.Participants {
		if p.IsActive && p.UserID != userID {
			return p.UserID
		}
	}
	return ""
}

// ParticipantInfo is a participant enriched with directory fields.
type ParticipantInfo struct {
	Participant
	User *user.User `json:"user,omitempty"`
}

// Detail is a room enriched with participant directory fields and
// the job-context summary, as returned by room resolution.
type Detail struct {
	*Room
	ParticipantInfos []ParticipantInfo `json:"participantInfos"`
	JobPost          *job.JobSummary   `json:"jobPost,omitempty"`
}

// LastMessage is the most-recent-message slice attached to chat-list
// entries.
type LastMessage struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	SenderName  string    `json:"senderName,omitempty"`
	Body        string    `json:"message"`
	MessageType string    `json:"messageType"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary is one chat-list entry: the room from one user's point of
// view, with the counterpart's display fields, the latest message
// and the unread count.
type Summary struct {
	ID                 string          `json:"id"`
	RoomKey            string          `json:"roomKey"`
	RoomType           RoomType        `json:"roomType"`
	IsActive           bool            `json:"isActive"`
	CreatedAt          time.Time       `json:"createdAt"`
	LastActivity       time.Time       `json:"lastActivity"`
	ReceiverID         string          `json:"receiverId,omitempty"`
	ReceiverName       string          `json:"receiverName,omitempty"`
	ReceiverEmail      string          `json:"receiverEmail,omitempty"`
	ReceiverProfilePic string          `json:"receiverProfilePic,omitempty"`
	ReceiverRole       string          `json:"receiverRole,omitempty"`
	JobPost            *job.JobSummary `json:"jobPost,omitempty"`
	LastMessage        *LastMessage    `json:"lastMessage,omitempty"`
	UnreadCount        int64           `json:"unreadCount"`
}
