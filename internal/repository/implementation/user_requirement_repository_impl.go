package implementation

import (
	"context"
	"errors"

	"wa-concierge-be/internal/entity"
	"wa-concierge-be/internal/mapper"
	"wa-concierge-be/internal/model"
	"wa-concierge-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRequirementRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewUserRequirementRepository(db *gorm.DB) contract.UserRequirementRepository {
	return &UserRequirementRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *UserRequirementRepositoryImpl) FindBySessionId(ctx context.Context, sessionId uuid.UUID) (*entity.UserRequirement, error) {
	var m model.UserRequirement
	err := r.db.WithContext(ctx).Where("chat_session_id = ?", sessionId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.UserRequirementToEntity(&m), nil
}

// Save writes the full record, inserting or replacing the session's row.
// Field-wise merge happens in the service layer before this call.
func (r *UserRequirementRepositoryImpl) Save(ctx context.Context, requirement *entity.UserRequirement) error {
	m := r.mapper.UserRequirementToModel(requirement)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_session_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
}
