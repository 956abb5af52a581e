package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"wa-concierge-be/internal/entity"
	"wa-concierge-be/pkg/llm"
)

// RequirementsExtractor pulls structured booking facts out of recent chat
// history. Absent keys stay nil so the store's field-wise merge keeps
// whatever was learned earlier.
type RequirementsExtractor struct {
	provider llm.LLMProvider
}

func NewRequirementsExtractor(provider llm.LLMProvider) *RequirementsExtractor {
	return &RequirementsExtractor{provider: provider}
}

type extractedRequirements struct {
	EventType    *string `json:"event_type"`
	Location     *string `json:"location"`
	Attendees    *int    `json:"attendees"`
	Budget       *string `json:"budget"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Email        *string `json:"email"`
	CustomerName *string `json:"customer_name"`
}

func (e *RequirementsExtractor) Extract(ctx context.Context, history []llm.Message) (*entity.UserRequirementPatch, error) {
	messages := withSystem(extractRequirementsSystemPrompt, history)

	raw, err := e.provider.Chat(ctx, messages,
		llm.WithTemperature(0),
		llm.WithJSONOutput(),
	)
	if err != nil {
		return nil, fmt.Errorf("extract requirements: %w", err)
	}

	var extracted extractedRequirements
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &extracted); err != nil {
		return nil, fmt.Errorf("parse requirements %q: %w", raw, err)
	}

	return &entity.UserRequirementPatch{
		EventType:    emptyToNil(extracted.EventType),
		Location:     emptyToNil(extracted.Location),
		Attendees:    extracted.Attendees,
		Budget:       emptyToNil(extracted.Budget),
		StartDate:    emptyToNil(extracted.StartDate),
		EndDate:      emptyToNil(extracted.EndDate),
		Email:        emptyToNil(extracted.Email),
		CustomerName: emptyToNil(extracted.CustomerName),
	}, nil
}

// emptyToNil drops blank strings the model returns despite being told not to.
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
