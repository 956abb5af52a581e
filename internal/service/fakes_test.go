package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wa-concierge-be/internal/constant"
	"wa-concierge-be/internal/entity"

	"github.com/google/uuid"
)

// fakeChatStore is an in-memory stand-in for the gorm-backed store. It keeps
// the same serialization discipline so registry tests exercise the real
// locking interplay.
type fakeChatStore struct {
	mu           sync.Mutex
	sessions     map[uuid.UUID]*entity.ChatSession
	messages     map[uuid.UUID][]*entity.ChatMessage
	requirements map[uuid.UUID]*entity.UserRequirement
	failReads    bool
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		sessions:     make(map[uuid.UUID]*entity.ChatSession),
		messages:     make(map[uuid.UUID][]*entity.ChatMessage),
		requirements: make(map[uuid.UUID]*entity.UserRequirement),
	}
}

func (f *fakeChatStore) CreateSession(ctx context.Context, phone, displayName string, now time.Time) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.sessions[id] = &entity.ChatSession{
		Id:           id,
		Phone:        phone,
		DisplayName:  displayName,
		StartedAt:    now,
		LastActivity: now,
		Status:       constant.ChatSessionStatusActive,
	}
	return id, nil
}

func (f *fakeChatStore) UpdateActivity(ctx context.Context, sessionId uuid.UUID, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionId]; ok {
		s.LastActivity = now
	}
	return nil
}

func (f *fakeChatStore) EndSession(ctx context.Context, sessionId uuid.UUID, now time.Time, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionId]
	if !ok || s.Status == constant.ChatSessionStatusEnded {
		return nil
	}
	s.Status = constant.ChatSessionStatusEnded
	endedAt := now
	s.EndedAt = &endedAt
	s.EndReason = reason
	return nil
}

func (f *fakeChatStore) GetSessionByPhone(ctx context.Context, phone string) (*entity.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, fmt.Errorf("store unavailable")
	}
	var latest *entity.ChatSession
	for _, s := range f.sessions {
		if s.Phone != phone {
			continue
		}
		if latest == nil || s.StartedAt.After(latest.StartedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeChatStore) GetSession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, fmt.Errorf("store unavailable")
	}
	s, ok := f.sessions[sessionId]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeChatStore) ListSessions(ctx context.Context) ([]*entity.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.ChatSession, 0, len(f.sessions))
	for _, s := range f.sessions {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeChatStore) AppendMessage(ctx context.Context, sessionId uuid.UUID, sender, body string, now time.Time, metadata map[string]interface{}) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.messages[sessionId] = append(f.messages[sessionId], &entity.ChatMessage{
		Id:            id,
		ChatSessionId: sessionId,
		Sender:        sender,
		Body:          body,
		SentAt:        now,
		Metadata:      metadata,
	})
	return id, nil
}

func (f *fakeChatStore) ListMessages(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[sessionId]
	out := make([]*entity.ChatMessage, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *msgs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeChatStore) GetRequirements(ctx context.Context, sessionId uuid.UUID) (*entity.UserRequirement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requirements[sessionId]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeChatStore) UpsertRequirements(ctx context.Context, sessionId uuid.UUID, patch *entity.UserRequirementPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.requirements[sessionId]
	if !ok {
		existing = &entity.UserRequirement{ChatSessionId: sessionId}
		f.requirements[sessionId] = existing
	}
	existing.Merge(patch)
	return nil
}

func (f *fakeChatStore) activeCount(phone string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if s.Phone == phone && s.Status == constant.ChatSessionStatusActive {
			n++
		}
	}
	return n
}

func (f *fakeChatStore) session(id uuid.UUID) entity.ChatSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.sessions[id]
}

// noopLogger satisfies ILogger without writing anywhere.
type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

// fakeSender records delivered texts with their delivery time.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentText
	fail bool
}

type sentText struct {
	phone string
	text  string
	at    time.Time
}

func (f *fakeSender) SendText(ctx context.Context, phone, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("gateway unreachable")
	}
	f.sent = append(f.sent, sentText{phone: phone, text: text, at: time.Now()})
	return nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.text)
	}
	return out
}

func (f *fakeSender) countOf(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sent {
		if s.text == text {
			n++
		}
	}
	return n
}
