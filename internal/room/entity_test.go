package room

import (
	"testing"
	"time"
)

func TestKeySymmetric(t *testing.T) {
	a := Key("job42", "user-1", "user-2")
	b := Key("job42", "user-2", "user-1")
	if a != b {
		t.Errorf("key not symmetric: %q vs %q", a, b)
	}
}

func TestKeyLexicographicOrder(t *testing.T) {
	// Ids with different lengths must still order lexicographically,
	// not numerically: "9" sorts after "10".
	got := Key("j1", "9", "10")
	want := "job_j1_10_9"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestKeyDistinctPerJob(t *testing.T) {
	a := Key("job1", "u1", "u2")
	b := Key("job2", "u1", "u2")
	if a == b {
		t.Errorf("same key for different job posts: %q", a)
	}
}

func TestRoomParticipantHelpers(t *testing.T) {
	rm := &Room{
		Participants: []Participant{
			{UserID: "alice", Role: RoleAdmin, IsActive: true},
			{UserID: "bob", Role: RoleMember, IsActive: true},
			{UserID: "carol", Role: RoleMember, IsActive: false},
		},
	}

	if !rm.HasActiveParticipant("alice") {
		t.Error("alice should be an active participant")
	}
	if rm.HasActiveParticipant("carol") {
		t.Error("carol is inactive and should not pass the active check")
	}
	if rm.HasActiveParticipant("dave") {
		t.Error("dave is not a participant")
	}

	if got := rm.OtherParticipantID("alice"); got != "bob" {
		t.Errorf("OtherParticipantID(alice) = %q, want bob", got)
	}

	ids := rm.ActiveParticipantIDs()
	if len(ids) != 2 {
		t.Fatalf("ActiveParticipantIDs() = %v, want 2 entries", ids)
	}
}

func TestFindParticipantReturnsPointerIntoRoom(t *testing.T) {
	now := time.Now()
	rm := &Room{
		Participants: []Participant{
			{UserID: "alice", IsActive: false, JoinedAt: now},
		},
	}

	p := rm.FindParticipant("alice")
	if p == nil {
		t.Fatal("participant not found")
	}
	p.IsActive = true

	if !rm.Participants[0].IsActive {
		t.Error("FindParticipant must return a pointer into the room's slice")
	}
}

func TestRoomTypeValid(t *testing.T) {
	for _, rt := range []RoomType{RoomTypeJobApplication, RoomTypeInterviewChat, RoomTypeFollowUp} {
		if !rt.Valid() {
			t.Errorf("%s should be valid", rt)
		}
	}
	if RoomType("GROUP_CHAT").Valid() {
		t.Error("unknown room type should be invalid")
	}
}
