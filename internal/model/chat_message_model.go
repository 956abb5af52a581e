package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_messages_session_ts,priority:1"`
	Sender        string    `gorm:"type:varchar(10);not null"`
	Body          string    `gorm:"type:text"`
	SentAt        time.Time `gorm:"not null;index:idx_chat_messages_session_ts,priority:2"`
	Metadata      datatypes.JSON
	// CreatedAt breaks SentAt ties so insertion order survives queries.
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
