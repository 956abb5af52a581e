package service

import (
	"context"
	"sync"
	"time"

	"wa-concierge-be/internal/constant"
	"wa-concierge-be/internal/entity"
	"wa-concierge-be/internal/pkg/logger"
	"wa-concierge-be/internal/repository/specification"
	"wa-concierge-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IChatStoreService is the durable record of sessions, messages and
// requirements. All operations are serialized behind one mutex: callers
// never observe partial writes, at the cost of throughput. Session-scale
// write volume makes that a fine trade.
type IChatStoreService interface {
	CreateSession(ctx context.Context, phone, displayName string, now time.Time) (uuid.UUID, error)
	UpdateActivity(ctx context.Context, sessionId uuid.UUID, now time.Time) error
	EndSession(ctx context.Context, sessionId uuid.UUID, now time.Time, reason string) error
	GetSessionByPhone(ctx context.Context, phone string) (*entity.ChatSession, error)
	GetSession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatSession, error)
	ListSessions(ctx context.Context) ([]*entity.ChatSession, error)
	AppendMessage(ctx context.Context, sessionId uuid.UUID, sender, body string, now time.Time, metadata map[string]interface{}) (uuid.UUID, error)
	ListMessages(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatMessage, error)
	GetRequirements(ctx context.Context, sessionId uuid.UUID) (*entity.UserRequirement, error)
	UpsertRequirements(ctx context.Context, sessionId uuid.UUID, patch *entity.UserRequirementPatch) error
}

type chatStoreService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger

	// single-writer funnel
	mu sync.Mutex
}

func NewChatStoreService(uowFactory unitofwork.RepositoryFactory, sysLogger logger.ILogger) IChatStoreService {
	return &chatStoreService{
		uowFactory: uowFactory,
		logger:     sysLogger,
	}
}

func (s *chatStoreService) CreateSession(ctx context.Context, phone, displayName string, now time.Time) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session := entity.ChatSession{
		Id:           uuid.New(),
		Phone:        phone,
		DisplayName:  displayName,
		StartedAt:    now,
		LastActivity: now,
		Status:       constant.ChatSessionStatusActive,
	}
	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return uuid.Nil, err
	}
	return session.Id, nil
}

func (s *chatStoreService) UpdateActivity(ctx context.Context, sessionId uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		// Unknown id is a logged no-op: the session may have been superseded
		// between the caller's read and this write.
		s.logger.Warn("chat-store", "update activity for unknown session", map[string]interface{}{
			"session_id": sessionId.String(),
		})
		return nil
	}
	session.LastActivity = now
	return uow.ChatSessionRepository().Update(ctx, session)
}

func (s *chatStoreService) EndSession(ctx context.Context, sessionId uuid.UUID, now time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		s.logger.Warn("chat-store", "end for unknown session", map[string]interface{}{
			"session_id": sessionId.String(),
		})
		return nil
	}
	if session.Status == constant.ChatSessionStatusEnded {
		// Idempotent: a watcher and a manual end can both reach here.
		return nil
	}
	session.Status = constant.ChatSessionStatusEnded
	session.EndedAt = &now
	session.EndReason = reason
	return uow.ChatSessionRepository().Update(ctx, session)
}

func (s *chatStoreService) GetSessionByPhone(ctx context.Context, phone string) (*entity.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().FindOne(ctx,
		specification.ByPhone{Phone: phone},
		specification.OrderBy{Field: "started_at", Desc: true},
	)
}

func (s *chatStoreService) GetSession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
}

func (s *chatStoreService) ListSessions(ctx context.Context) ([]*entity.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().FindAll(ctx,
		specification.OrderBy{Field: "started_at", Desc: true},
	)
}

func (s *chatStoreService) AppendMessage(ctx context.Context, sessionId uuid.UUID, sender, body string, now time.Time, metadata map[string]interface{}) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	message := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Sender:        sender,
		Body:          body,
		SentAt:        now,
		Metadata:      metadata,
	}
	if err := uow.ChatMessageRepository().Create(ctx, &message); err != nil {
		return uuid.Nil, err
	}
	return message.Id, nil
}

func (s *chatStoreService) ListMessages(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "sent_at", Desc: true},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{N: limit},
	)
}

func (s *chatStoreService) GetRequirements(ctx context.Context, sessionId uuid.UUID) (*entity.UserRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UserRequirementRepository().FindBySessionId(ctx, sessionId)
}

func (s *chatStoreService) UpsertRequirements(ctx context.Context, sessionId uuid.UUID, patch *entity.UserRequirementPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.UserRequirementRepository().FindBySessionId(ctx, sessionId)
	if err != nil {
		return err
	}
	if existing == nil {
		existing = &entity.UserRequirement{ChatSessionId: sessionId}
	}
	existing.Merge(patch)
	return uow.UserRequirementRepository().Save(ctx, existing)
}
