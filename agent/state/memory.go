package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrNilMemory      = errors.New("conversation memory is nil")
)

// PendingRequest is a stored incomplete request awaiting a clarifying answer.
// At most one exists per session. Answers accumulates the user's interim
// replies when a single clarification round was not enough.
type PendingRequest struct {
	Original  string    `json:"original"`
	Question  string    `json:"question"`
	Answers   []string  `json:"answers,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Merged combines the original utterance, any earlier answers, and the
// latest answer into the single request text the planner reasons over.
func (p *PendingRequest) Merged(answer string) string {
	if p == nil {
		return strings.TrimSpace(answer)
	}
	parts := make([]string, 0, len(p.Answers)+2)
	parts = append(parts, strings.TrimSpace(p.Original))
	for _, a := range p.Answers {
		if v := strings.TrimSpace(a); v != "" {
			parts = append(parts, v)
		}
	}
	if v := strings.TrimSpace(answer); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

// ConversationMemory is the only state that persists across turns within a
// session. It is mutated by the orchestrator alone and committed only at the
// end of a successful turn, so a failed turn never leaves a half-updated
// pending request behind.
type ConversationMemory struct {
	SessionID   string          `json:"session_id"`
	Pending     *PendingRequest `json:"pending,omitempty"`
	LastContext string          `json:"last_context,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewConversationMemory(sessionID string, now time.Time) *ConversationMemory {
	return &ConversationMemory{
		SessionID: sessionID,
		UpdatedAt: now.UTC(),
	}
}

func (m *ConversationMemory) Touch(now time.Time) {
	m.UpdatedAt = now.UTC()
}

// SetPending records a new incomplete request, replacing any previous one.
func (m *ConversationMemory) SetPending(original, question string, now time.Time) {
	m.Pending = &PendingRequest{
		Original:  strings.TrimSpace(original),
		Question:  strings.TrimSpace(question),
		CreatedAt: now.UTC(),
	}
	m.Touch(now)
}

// KeepPending holds on to the current pending request after another clarify
// round: the interim answer is accumulated and the question updated.
func (m *ConversationMemory) KeepPending(answer, question string, now time.Time) {
	if m.Pending == nil {
		return
	}
	if v := strings.TrimSpace(answer); v != "" {
		m.Pending.Answers = append(m.Pending.Answers, v)
	}
	if v := strings.TrimSpace(question); v != "" {
		m.Pending.Question = v
	}
	m.Touch(now)
}

func (m *ConversationMemory) ClearPending(now time.Time) {
	m.Pending = nil
	m.Touch(now)
}

func (m *ConversationMemory) Clone() *ConversationMemory {
	if m == nil {
		return nil
	}
	out := *m
	if m.Pending != nil {
		pending := *m.Pending
		pending.Answers = append([]string(nil), m.Pending.Answers...)
		out.Pending = &pending
	}
	return &out
}

func (m *ConversationMemory) Validate() error {
	if m == nil {
		return ErrNilMemory
	}
	if strings.TrimSpace(m.SessionID) == "" {
		return ErrInvalidSession
	}
	if m.Pending != nil {
		if strings.TrimSpace(m.Pending.Original) == "" {
			return fmt.Errorf("pending request for session %s has no original utterance", m.SessionID)
		}
		if strings.TrimSpace(m.Pending.Question) == "" {
			return fmt.Errorf("pending request for session %s has no question", m.SessionID)
		}
	}
	return nil
}
