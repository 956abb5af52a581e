package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Phone        string    `gorm:"type:varchar(32);not null;index"`
	DisplayName  string    `gorm:"type:text"`
	StartedAt    time.Time `gorm:"not null;index"`
	LastActivity time.Time `gorm:"not null;index"`
	Status       string    `gorm:"type:varchar(20);not null;default:'active';index"`
	EndedAt      *time.Time
	EndReason    string `gorm:"type:varchar(50)"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
