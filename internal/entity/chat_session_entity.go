package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id           uuid.UUID
	Phone        string
	DisplayName  string
	StartedAt    time.Time
	LastActivity time.Time
	Status       string
	EndedAt      *time.Time
	EndReason    string
}

func (s *ChatSession) IsActive() bool {
	return s != nil && s.Status == "active"
}
