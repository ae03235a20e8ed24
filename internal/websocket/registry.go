package websocket

import (
	"errors"
	"log"
	"sync"
)

// ErrServerFull is returned when the connection limit is reached.
var ErrServerFull = errors.New("connection limit reached")

// Registry tracks live connections and owns the user → connections
// index. A user may hold any number of simultaneous connections
// (multi-tab, multi-device). The registry is the only shared mutable
// state in the process and guards itself with a mutex: add, remove
// and fan-out iteration all race otherwise.
type Registry struct {
	mu             sync.RWMutex
	connections    map[string]*Connection
	userIndex      map[string]map[string]*Connection
	maxConnections int
}

// NewRegistry creates an empty registry.
func NewRegistry(maxConnections int) *Registry {
	return &Registry{
		connections:    make(map[string]*Connection),
		userIndex:      make(map[string]map[string]*Connection),
		maxConnections: maxConnections,
	}
}

// Add starts tracking a freshly opened, not yet authenticated
// connection.
func (r *Registry) Add(conn *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxConnections > 0 && len(r.connections) >= r.maxConnections {
		return ErrServerFull
	}

	r.connections[conn.ID] = conn
	log.Printf("📝 Connection registered: %s (total: %d)", conn.ID, len(r.connections))
	return nil
}

// Bind indexes an authenticated connection under its user and
// reports whether this is the user's first live connection — the
// 0→1 presence transition.
func (r *Registry) Bind(connID, userID, role string) (first bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connID]
	if !ok {
		return false, ErrConnectionClosed
	}

	conn.Bind(userID, role)

	set, ok := r.userIndex[userID]
	if !ok {
		set = make(map[string]*Connection)
		r.userIndex[userID] = set
	}
	first = len(set) == 0
	set[connID] = conn

	return first, nil
}

// Remove stops tracking a connection and reports whether its user
// just lost their last live connection — the 1→0 presence
// transition. userID is "" for connections that never authenticated.
func (r *Registry) Remove(connID string) (userID string, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connID]
	if !ok {
		return "", false
	}
	delete(r.connections, connID)

	userID = conn.UserID()
	if userID == "" {
		return "", false
	}

	if set, ok := r.userIndex[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.userIndex, userID)
			last = true
		}
	}

	return userID, last
}

// Get returns a tracked connection by id.
func (r *Registry) Get(connID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.connections[connID]
	return conn, ok
}

// Count returns the number of tracked connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// Online reports whether the user has at least one live connection.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.userIndex[userID]) > 0
}

// DeliverToUser sends an already-serialized payload to every live
// connection of the user. Zero connections means zero deliveries; no
// queuing, no error. Returns the number of connections reached.
func (r *Registry) DeliverToUser(userID string, payload []byte) int {
	r.mu.RLock()
	set := r.userIndex[userID]
	conns := make([]*Connection, 0, len(set))
	for _, conn := range set {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	sent := 0
	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			log.Printf("⚠️ Dropped event for connection %s: %v", conn.ID, err)
			continue
		}
		sent++
	}
	return sent
}

// BroadcastExcept sends a payload to every authenticated connection
// except those belonging to excludeUserID.
func (r *Registry) BroadcastExcept(excludeUserID string, payload []byte) int {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		uid := conn.UserID()
		if uid == "" || uid == excludeUserID {
			continue
		}
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	sent := 0
	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			continue
		}
		sent++
	}
	return sent
}

// Snapshot returns all tracked connections, for the heartbeat sweep.
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		conns = append(conns, conn)
	}
	return conns
}
