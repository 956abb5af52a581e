package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStartedType = "session.started"
	SessionEndedType   = "session.ended"
)

func NewSessionStarted(sessionId uuid.UUID, phone string, startedAt time.Time) Event {
	return BaseEvent{
		Type: SessionStartedType,
		Data: map[string]interface{}{
			"session_id": sessionId.String(),
			"phone":      phone,
			"started_at": startedAt.Unix(),
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionEnded(sessionId uuid.UUID, phone, reason string, endedAt time.Time) Event {
	return BaseEvent{
		Type: SessionEndedType,
		Data: map[string]interface{}{
			"session_id": sessionId.String(),
			"phone":      phone,
			"reason":     reason,
			"ended_at":   endedAt.Unix(),
		},
		OccurredAt: time.Now(),
	}
}
