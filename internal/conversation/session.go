package conversation

import (
	"context"
	"sync"
)

// Conversation stages. The happy path climbs from idle to done; 99 marks a
// dialogue that must restart after an out-of-order command.
const (
	StageIdle          = 0
	StageConfirmRepeat = 1
	StageSelecting     = 2
	StageAdding        = 3
	StageReview        = 5
	StagePayment       = 7
	StageDone          = 8
	StageInvalid       = 99
)

// Session is one user's conversation cursor. UserKey identifies the current
// order attempt and rotates on every repeat-order start.
type Session struct {
	Stage           int    `json:"stage"`
	OrderInProgress bool   `json:"order_in_progress"`
	UserKey         string `json:"user_key"`
}

// SessionStore keeps conversation cursors keyed by the platform user id.
// A missing key reads as the zero Session.
type SessionStore interface {
	Get(ctx context.Context, lineUserID string) (Session, error)
	Put(ctx context.Context, lineUserID string, s Session) error
}

type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (s *MemorySessionStore) Get(ctx context.Context, lineUserID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[lineUserID], nil
}

func (s *MemorySessionStore) Put(ctx context.Context, lineUserID string, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[lineUserID] = sess
	return nil
}
