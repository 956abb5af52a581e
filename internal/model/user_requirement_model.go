package model

import (
	"github.com/google/uuid"
)

// UserRequirement holds the structured facts extracted from a conversation.
// One row per session, updated field-wise with COALESCE semantics.
type UserRequirement struct {
	ChatSessionId uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventType     *string   `gorm:"type:text"`
	Location      *string   `gorm:"type:text"`
	Attendees     *int
	Budget        *string `gorm:"type:text"`
	StartDate     *string `gorm:"type:text"`
	EndDate       *string `gorm:"type:text"`
	Email         *string `gorm:"type:text"`
	CustomerName  *string `gorm:"type:text"`
}

func (UserRequirement) TableName() string {
	return "user_requirements"
}
