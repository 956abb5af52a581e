package contract

import (
	"context"

	"wa-concierge-be/internal/entity"

	"github.com/google/uuid"
)

type UserRequirementRepository interface {
	FindBySessionId(ctx context.Context, sessionId uuid.UUID) (*entity.UserRequirement, error)
	Save(ctx context.Context, requirement *entity.UserRequirement) error
}
