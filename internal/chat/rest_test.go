package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobboard-chat/internal/apperror"
	"jobboard-chat/internal/auth"
	"jobboard-chat/internal/user"
)

type stubUsers struct {
	users map[string]*user.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("User not found")
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

func newRESTServer(t *testing.T) (*httptest.Server, *fakeRooms, *fakeMessages) {
	t.Helper()

	rooms := newFakeRooms()
	messages := &fakeMessages{}
	users := &stubUsers{users: map[string]*user.User{
		"alice": {ID: "alice", FullName: "Alice Smith"},
		"bob":   {ID: "bob", FullName: "Bob Jones"},
	}}

	handler := NewRESTHandler(rooms, messages, users, auth.NewTokenVerifier(testSecret), nil)
	mux := http.NewServeMux()
	handler.Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, rooms, messages
}

func doRequest(t *testing.T, method, url, tokenString, body string) (*http.Response, responseEnvelope) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if tokenString != "" {
		req.Header.Set("Authorization", "Bearer "+tokenString)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var envelope responseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, envelope
}

func TestRESTRequiresBearerToken(t *testing.T) {
	server, _, _ := newRESTServer(t)

	resp, envelope := doRequest(t, http.MethodGet, server.URL+"/api/v1/chats", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if envelope.Success {
		t.Error("unauthenticated request must not succeed")
	}
}

func TestRESTChatList(t *testing.T) {
	server, _, _ := newRESTServer(t)

	resp, envelope := doRequest(t, http.MethodGet, server.URL+"/api/v1/chats", token(t, "alice"), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !envelope.Success {
		t.Errorf("envelope = %+v", envelope)
	}
}

func TestRESTSendMessageResolvesRoom(t *testing.T) {
	server, _, messages := newRESTServer(t)

	body := `{"receiverId":"bob","jobPostId":"post1","message":"hello via http"}`
	resp, envelope := doRequest(t, http.MethodPost, server.URL+"/api/v1/chats", token(t, "alice"), body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%+v)", resp.StatusCode, envelope)
	}

	if len(messages.appended) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(messages.appended))
	}
	msg := messages.appended[0]
	if msg.RoomID != "room1" || msg.SenderID != "alice" || msg.Body != "hello via http" {
		t.Errorf("persisted message = %+v", msg)
	}
}

func TestRESTSendMessageUnknownReceiver(t *testing.T) {
	server, _, messages := newRESTServer(t)

	body := `{"receiverId":"ghost","jobPostId":"post1","message":"anyone there?"}`
	resp, _ := doRequest(t, http.MethodPost, server.URL+"/api/v1/chats", token(t, "alice"), body)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if len(messages.appended) != 0 {
		t.Error("no message should be persisted for an unknown receiver")
	}
}

func TestRESTResolveRoom(t *testing.T) {
	server, _, _ := newRESTServer(t)

	body := `{"participantId":"bob","jobPostId":"post1"}`
	resp, envelope := doRequest(t, http.MethodPost, server.URL+"/api/v1/chat-rooms", token(t, "alice"), body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%+v)", resp.StatusCode, envelope)
	}

	resp, _ = doRequest(t, http.MethodPost, server.URL+"/api/v1/chat-rooms", token(t, "alice"), `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing participant: status = %d, want 400", resp.StatusCode)
	}
}

func TestRESTRoomHistoryMarksRead(t *testing.T) {
	server, _, messages := newRESTServer(t)

	url := server.URL + "/api/v1/chat-rooms/room1/messages?page=1&limit=10"
	resp, _ := doRequest(t, http.MethodGet, url, token(t, "alice"), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(messages.roomReads) != 1 || messages.roomReads[0] != "room1" {
		t.Error("fetching history over HTTP must mark the room read")
	}

	// Non-participants get the service's forbidden error.
	resp, _ = doRequest(t, http.MethodGet, url, token(t, "mallory"), "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestRESTMarkMessageRead(t *testing.T) {
	server, _, _ := newRESTServer(t)

	url := server.URL + "/api/v1/chats/m1/read"
	resp, envelope := doRequest(t, http.MethodPatch, url, token(t, "bob"), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%+v)", resp.StatusCode, envelope)
	}
}

func TestRESTJoinRoom(t *testing.T) {
	server, _, _ := newRESTServer(t)

	resp, _ := doRequest(t, http.MethodPost, server.URL+"/api/v1/chat-rooms/room1/join", token(t, "bob"), "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
