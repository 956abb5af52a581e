package dto

import (
	"time"

	"github.com/google/uuid"
)

type SessionResponse struct {
	Id           uuid.UUID  `json:"id"`
	Phone        string     `json:"phone"`
	DisplayName  string     `json:"display_name"`
	StartedAt    time.Time  `json:"started_at"`
	LastActivity time.Time  `json:"last_activity"`
	Status       string     `json:"status"`
	EndedAt      *time.Time `json:"ended_at"`
	EndReason    string     `json:"end_reason,omitempty"`
}

type ChatMessageResponse struct {
	Id     uuid.UUID `json:"id"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

type RequirementsResponse struct {
	EventType    *string `json:"event_type"`
	Location     *string `json:"location"`
	Attendees    *int    `json:"attendees"`
	Budget       *string `json:"budget"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Email        *string `json:"email"`
	CustomerName *string `json:"customer_name"`
}

type EndSessionRequest struct {
	Phone  string `json:"phone" validate:"required"`
	Reason string `json:"reason"`
}

type EndSessionResponse struct {
	Ended bool `json:"ended"`
}
