package domain

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrInvalidIdentity is returned by Identify when the user id is unusable.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrSessionClosed is returned for operations on a disconnected session.
	ErrSessionClosed = errors.New("session is disconnected")
)

// SessionState is the lifecycle state of a relay connection.
type SessionState int

const (
	// StateConnected is the initial state after the transport connects.
	StateConnected SessionState = iota
	// StateIdentified is entered after a valid setup event.
	StateIdentified
	// StateDisconnected is terminal.
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateIdentified:
		return "identified"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session tracks one live relay connection: its lifecycle state, the user it
// is bound to after setup, and the set of rooms it has joined. Room
// membership is an orthogonal sub-state, not a lifecycle state. Only the
// owning connection's events mutate a session; cross-session reads go through
// the RWMutex.
type Session struct {
	ID string

	mu           sync.RWMutex
	state        SessionState
	userID       string
	rooms        map[string]struct{}
	createdAt    time.Time
	lastActiveAt time.Time
}

// NewSession creates a session in the Connected state.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		state:        StateConnected,
		rooms:        make(map[string]struct{}),
		createdAt:    now,
		lastActiveAt: now,
	}
}

// Identify binds the session to a user id and transitions Connected ->
// Identified. Calling it again with the same user id is a no-op. Returns
// ErrInvalidIdentity for an empty id and ErrSessionClosed after disconnect.
func (s *Session) Identify(userID string) error {
	if userID == "" {
		return ErrInvalidIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return ErrSessionClosed
	}

	s.userID = userID
	s.state = StateIdentified
	s.lastActiveAt = time.Now()
	return nil
}

// JoinRoom records room membership. No-op if already joined. Valid in any
// state except Disconnected.
func (s *Session) JoinRoom(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return ErrSessionClosed
	}

	s.rooms[roomID] = struct{}{}
	s.lastActiveAt = time.Now()
	return nil
}

// LeaveAll clears room membership, marks the session Disconnected, and
// returns the rooms that were left so the registry can drop its side of the
// membership synchronously.
func (s *Session) LeaveAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	left := make([]string, 0, len(s.rooms))
	for roomID := range s.rooms {
		left = append(left, roomID)
	}
	s.rooms = make(map[string]struct{})
	s.state = StateDisconnected
	return left
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UserID returns the bound user id, empty until identified.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// IsIdentified reports whether a valid setup event has been processed.
func (s *Session) IsIdentified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateIdentified
}

// InRoom reports whether the session has joined the given room.
func (s *Session) InRoom(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

// Rooms returns a snapshot of the joined room ids.
func (s *Session) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]string, 0, len(s.rooms))
	for roomID := range s.rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}

// UpdateActivity refreshes the last-activity timestamp.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}

// LastActiveAt returns the last-activity timestamp.
func (s *Session) LastActiveAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActiveAt
}
