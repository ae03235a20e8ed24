package room

import (
	"context"
	"testing"
	"time"

	"jobboard-chat/internal/apperror"
	"jobboard-chat/internal/job"
	"jobboard-chat/internal/user"
)

// memoryRepo is an in-memory Repository for service tests.
type memoryRepo struct {
	rooms       map[string]*Room // by id
	byKey       map[string]*Room
	failCreates int    // return ErrDuplicateKey for the next N creates
	missKeyOnce string // GetByKey misses once for this key
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		rooms: make(map[string]*Room),
		byKey: make(map[string]*Room),
	}
}

func (m *memoryRepo) Create(_ context.Context, rm *Room) error {
	if m.failCreates > 0 {
		m.failCreates--
		return ErrDuplicateKey
	}
	if _, ok := m.byKey[rm.RoomKey]; ok {
		return ErrDuplicateKey
	}
	m.rooms[rm.ID] = rm
	m.byKey[rm.RoomKey] = rm
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*Room, error) {
	rm, ok := m.rooms[id]
	if !ok {
		return nil, apperror.NotFound("Chat room not found")
	}
	return rm, nil
}

func (m *memoryRepo) GetByKey(_ context.Context, key string) (*Room, error) {
	if key == m.missKeyOnce {
		m.missKeyOnce = ""
		return nil, apperror.NotFound("Chat room not found")
	}
	rm, ok := m.byKey[key]
	if !ok {
		return nil, apperror.NotFound("Chat room not found")
	}
	return rm, nil
}

func (m *memoryRepo) ListByParticipant(_ context.Context, userID string) ([]*Room, error) {
	var out []*Room
	for _, rm := range m.rooms {
		if rm.IsActive && rm.HasActiveParticipant(userID) {
			out = append(out, rm)
		}
	}
	return out, nil
}

func (m *memoryRepo) TouchActivity(_ context.Context, roomID string, at time.Time) error {
	if rm, ok := m.rooms[roomID]; ok {
		rm.LastActivity = at
	}
	return nil
}

func (m *memoryRepo) UpsertParticipant(_ context.Context, roomID string, p Participant) error {
	rm, ok := m.rooms[roomID]
	if !ok {
		return apperror.NotFound("Chat room not found")
	}
	if existing := rm.FindParticipant(p.UserID); existing != nil {
		existing.IsActive = true
		return nil
	}
	rm.Participants = append(rm.Participants, p)
	return nil
}

func (m *memoryRepo) UpdateLastSeen(_ context.Context, roomID, userID string, at time.Time) error {
	rm, ok := m.rooms[roomID]
	if !ok {
		return apperror.NotFound("Chat room not found")
	}
	if p := rm.FindParticipant(userID); p != nil {
		p.LastSeenAt = &at
	}
	return nil
}

// stubJobs answers eligibility checks from a fixed set.
type stubJobs struct {
	posts    map[string]*job.JobPost
	eligible map[string]bool // keyed by jobPostID
}

func (s *stubJobs) GetJobPost(_ context.Context, id string) (*job.JobPost, error) {
	post, ok := s.posts[id]
	if !ok {
		return nil, apperror.NotFound("Job post not found")
	}
	return post, nil
}

func (s *stubJobs) HasApplication(_ context.Context, _, _, jobPostID string) (bool, error) {
	return s.eligible[jobPostID], nil
}

// stubUsers is a fixed user directory.
type stubUsers struct {
	users map[string]*user.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	return u, nil
}

func (s *stubUsers) GetByIDs(_ context.Context, ids []string) (map[string]*user.User, error) {
	out := make(map[string]*user.User)
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *stubUsers) Exists(_ context.Context, id string) (bool, error) {
	_, ok := s.users[id]
	return ok, nil
}

// stubMessages is a fixed message source for chat-list enrichment.
type stubMessages struct {
	latest map[string]*LastMessage
	unread map[string]int64
}

func (s *stubMessages) LatestByRoom(_ context.Context, roomID string) (*LastMessage, error) {
	return s.latest[roomID], nil
}

func (s *stubMessages) CountUnread(_ context.Context, roomID, _ string) (int64, error) {
	return s.unread[roomID], nil
}

func newTestService(repo Repository, jobs job.Repository) (Service, *stubUsers, *stubMessages) {
	users := &stubUsers{users: map[string]*user.User{
		"alice": {ID: "alice", FullName: "Alice Smith", Email: "alice@example.com", Role: "EMPLOYER"},
		"bob":   {ID: "bob", FullName: "Bob Jones", Email: "bob@example.com", Role: "JOB_SEEKER"},
	}}
	messages := &stubMessages{
		latest: make(map[string]*LastMessage),
		unread: make(map[string]int64),
	}
	return NewService(repo, jobs, users, messages), users, messages
}

func eligibleJobs() *stubJobs {
	return &stubJobs{
		posts: map[string]*job.JobPost{
			"post1": {ID: "post1", JobID: "J-100", Title: "Backend Engineer", OwnerID: "alice"},
		},
		eligible: map[string]bool{"post1": true},
	}
}

func TestResolveOrCreateCreatesRoom(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo, eligibleJobs())

	detail, err := svc.ResolveOrCreate(context.Background(), "alice", "bob", "post1", "")
	if err != nil {
		t.Fatalf("ResolveOrCreate() error: %v", err)
	}

	if detail.RoomType != RoomTypeJobApplication {
		t.Errorf("default room type = %s, want %s", detail.RoomType, RoomTypeJobApplication)
	}
	if detail.RoomKey != Key("post1", "alice", "bob") {
		t.Errorf("room key = %q", detail.RoomKey)
	}
	if len(detail.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(detail.Participants))
	}

	creator := detail.FindParticipant("alice")
	if creator == nil || creator.Role != RoleAdmin {
		t.Error("creator should be an ADMIN participant")
	}
	counterpart := detail.FindParticipant("bob")
	if counterpart == nil || counterpart.Role != RoleMember {
		t.Error("counterpart should be a MEMBER participant")
	}
	if detail.JobPost == nil || detail.JobPost.Title != "Backend Engineer" {
		t.Error("detail should carry the job summary")
	}
}

func TestResolveOrCreateIdempotentAndSymmetric(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo, eligibleJobs())
	ctx := context.Background()

	first, err := svc.ResolveOrCreate(ctx, "alice", "bob", "post1", "")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// Same triple from the counterpart's side must land in the same room.
	second, err := svc.ResolveOrCreate(ctx, "bob", "alice", "post1", "")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("resolution not symmetric: %s vs %s", first.ID, second.ID)
	}
	if len(repo.rooms) != 1 {
		t.Errorf("room count = %d, want 1", len(repo.rooms))
	}
}

func TestResolveOrCreateForbiddenWithoutApplication(t *testing.T) {
	repo := newMemoryRepo()
	jobs := eligibleJobs()
	jobs.eligible["post1"] = false
	svc, _, _ := newTestService(repo, jobs)

	_, err := svc.ResolveOrCreate(context.Background(), "alice", "bob", "post1", "")
	if !apperror.IsKind(err, apperror.KindForbidden) {
		t.Fatalf("error = %v, want forbidden", err)
	}
	if len(repo.rooms) != 0 {
		t.Error("no room should be created without a qualifying application")
	}
}

func TestResolveOrCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo(), eligibleJobs())
	ctx := context.Background()

	if _, err := svc.ResolveOrCreate(ctx, "alice", "bob", "", ""); !apperror.IsKind(err, apperror.KindInvalidInput) {
		t.Errorf("missing job post id: error = %v, want invalid_input", err)
	}
	if _, err := svc.ResolveOrCreate(ctx, "alice", "alice", "post1", ""); !apperror.IsKind(err, apperror.KindInvalidInput) {
		t.Errorf("self chat: error = %v, want invalid_input", err)
	}
	if _, err := svc.ResolveOrCreate(ctx, "alice", "bob", "post1", RoomType("GROUP")); !apperror.IsKind(err, apperror.KindInvalidInput) {
		t.Errorf("unknown room type: error = %v, want invalid_input", err)
	}
}

func TestResolveOrCreateLostRaceFallsBackToFetch(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo, eligibleJobs())
	ctx := context.Background()

	// Seed the winner's room, make the initial key lookup miss so the
	// service takes the create path, and force the insert to report a
	// duplicate. This is the interleaving a lost creation race produces.
	winner := &Room{
		ID:        "winner",
		RoomKey:   Key("post1", "alice", "bob"),
		RoomType:  RoomTypeJobApplication,
		JobPostID: "post1",
		IsActive:  true,
		Participants: []Participant{
			{UserID: "alice", Role: RoleAdmin, IsActive: true},
			{UserID: "bob", Role: RoleMember, IsActive: true},
		},
	}
	repo.rooms[winner.ID] = winner
	repo.byKey[winner.RoomKey] = winner
	repo.missKeyOnce = winner.RoomKey
	repo.failCreates = 1

	detail, err := svc.ResolveOrCreate(ctx, "alice", "bob", "post1", "")
	if err != nil {
		t.Fatalf("ResolveOrCreate() error: %v", err)
	}
	if detail.ID != "winner" {
		t.Errorf("loser should adopt the winner's room, got %s", detail.ID)
	}
}

func TestJoinReactivatesParticipant(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo, eligibleJobs())
	ctx := context.Background()

	detail, err := svc.ResolveOrCreate(ctx, "alice", "bob", "post1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	rm := repo.rooms[detail.ID]
	rm.FindParticipant("bob").IsActive = false

	if err := svc.Join(ctx, detail.ID, "bob"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if !rm.HasActiveParticipant("bob") {
		t.Error("bob should be active again after Join")
	}

	// Joining while already active is a no-op.
	if err := svc.Join(ctx, detail.ID, "bob"); err != nil {
		t.Fatalf("idempotent Join() error: %v", err)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo(), eligibleJobs())
	err := svc.Join(context.Background(), "missing", "bob")
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("error = %v, want not_found", err)
	}
}

func TestListUserRoomsEnrichment(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, messages := newTestService(repo, eligibleJobs())
	ctx := context.Background()

	detail, err := svc.ResolveOrCreate(ctx, "alice", "bob", "post1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	messages.latest[detail.ID] = &LastMessage{
		ID:          "m1",
		SenderID:    "bob",
		Body:        "hello",
		MessageType: "TEXT",
		CreatedAt:   time.Now(),
	}
	messages.unread[detail.ID] = 3

	summaries, err := svc.ListUserRooms(ctx, "alice")
	if err != nil {
		t.Fatalf("ListUserRooms() error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}

	s := summaries[0]
	if s.ReceiverID != "bob" || s.ReceiverName != "Bob Jones" {
		t.Errorf("receiver fields not enriched: %+v", s)
	}
	if s.JobPost == nil || s.JobPost.JobID != "J-100" {
		t.Error("job summary not attached")
	}
	if s.UnreadCount != 3 {
		t.Errorf("unread = %d, want 3", s.UnreadCount)
	}
	if s.LastMessage == nil || s.LastMessage.SenderName != "Bob Jones" {
		t.Error("last message sender name not resolved")
	}
}
