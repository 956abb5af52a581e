package mapper

import (
	"encoding/json"

	"wa-concierge-be/internal/entity"
	"wa-concierge-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}
	return &entity.ChatSession{
		Id:           s.Id,
		Phone:        s.Phone,
		DisplayName:  s.DisplayName,
		StartedAt:    s.StartedAt,
		LastActivity: s.LastActivity,
		Status:       s.Status,
		EndedAt:      s.EndedAt,
		EndReason:    s.EndReason,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}
	return &model.ChatSession{
		Id:           s.Id,
		Phone:        s.Phone,
		DisplayName:  s.DisplayName,
		StartedAt:    s.StartedAt,
		LastActivity: s.LastActivity,
		Status:       s.Status,
		EndedAt:      s.EndedAt,
		EndReason:    s.EndReason,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}
	var metadata map[string]interface{}
	if len(msg.Metadata) > 0 {
		// Corrupt metadata is not worth failing a read; leave it nil.
		_ = json.Unmarshal(msg.Metadata, &metadata)
	}
	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Sender:        msg.Sender,
		Body:          msg.Body,
		SentAt:        msg.SentAt,
		Metadata:      metadata,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}
	var metadata datatypes.JSON
	if len(msg.Metadata) > 0 {
		if raw, err := json.Marshal(msg.Metadata); err == nil {
			metadata = raw
		}
	}
	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Sender:        msg.Sender,
		Body:          msg.Body,
		SentAt:        msg.SentAt,
		Metadata:      metadata,
	}
}

func (m *ChatMapper) ChatMessagesToEntities(models []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(models))
	for i, msg := range models {
		entities[i] = m.ChatMessageToEntity(msg)
	}
	return entities
}

// Requirement Mappers

func (m *ChatMapper) UserRequirementToEntity(r *model.UserRequirement) *entity.UserRequirement {
	if r == nil {
		return nil
	}
	return &entity.UserRequirement{
		ChatSessionId: r.ChatSessionId,
		EventType:     r.EventType,
		Location:      r.Location,
		Attendees:     r.Attendees,
		Budget:        r.Budget,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Email:         r.Email,
		CustomerName:  r.CustomerName,
	}
}

func (m *ChatMapper) UserRequirementToModel(r *entity.UserRequirement) *model.UserRequirement {
	if r == nil {
		return nil
	}
	return &model.UserRequirement{
		ChatSessionId: r.ChatSessionId,
		EventType:     r.EventType,
		Location:      r.Location,
		Attendees:     r.Attendees,
		Budget:        r.Budget,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Email:         r.Email,
		CustomerName:  r.CustomerName,
	}
}
