package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"wa-concierge-be/pkg/llm"
)

// Reply is the structured three-part answer produced for every message.
type Reply struct {
	Header  string `json:"response_header"`
	Content string `json:"response_content"`
	Footer  string `json:"response_footer"`
}

// Join collapses the reply into one message body, skipping empty parts.
func (r Reply) Join() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Header, r.Content, r.Footer} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

// SelectedVenue is the venue the user picked, parsed out of chat context.
type SelectedVenue struct {
	VenueName      string `json:"venue_name"`
	VenueId        string `json:"venue_id"`
	VenueLocation  string `json:"venue_location"`
	VenueAmenities string `json:"venue_amenities"`
}

// Generator produces user-facing replies and the intermediate LLM artifacts
// the orchestrator needs (venue summary, conclusion, selected venue).
type Generator struct {
	provider llm.LLMProvider
}

func NewGenerator(provider llm.LLMProvider) *Generator {
	return &Generator{provider: provider}
}

// Generate builds the final three-part reply, steered by the per-intent
// directive text.
func (g *Generator) Generate(ctx context.Context, history []llm.Message, directive string) (Reply, error) {
	messages := withSystem(fmt.Sprintf(finalResponseSystemPrompt, directive), history)

	raw, err := g.provider.Chat(ctx, messages,
		llm.WithTemperature(0),
		llm.WithJSONOutput(),
	)
	if err != nil {
		return Reply{}, fmt.Errorf("generate reply: %w", err)
	}

	var reply Reply
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &reply); err != nil {
		return Reply{}, fmt.Errorf("parse reply %q: %w", raw, err)
	}
	return reply, nil
}

// VenueSummary condenses the conversation into a search query for the
// recommendation API.
func (g *Generator) VenueSummary(ctx context.Context, history []llm.Message) (string, error) {
	messages := withSystem(venueSummarySystemPrompt, history)
	summary, err := g.provider.Chat(ctx, messages, llm.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("venue summary: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

// VenueConclusion evaluates the recommendation set against the user's stated
// preferences and phrases the outcome for the final reply.
func (g *Generator) VenueConclusion(ctx context.Context, history []llm.Message, recommendation string) (string, error) {
	messages := withSystem(fmt.Sprintf(venueConclusionSystemPrompt, recommendation), history)
	conclusion, err := g.provider.Chat(ctx, messages, llm.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("venue conclusion: %w", err)
	}
	return strings.TrimSpace(conclusion), nil
}

// SelectVenue parses which recommended venue the user decided to book.
func (g *Generator) SelectVenue(ctx context.Context, history []llm.Message, recommendation string) (*SelectedVenue, error) {
	messages := withSystem(fmt.Sprintf(confirmBookingSystemPrompt, recommendation), history)

	raw, err := g.provider.Chat(ctx, messages,
		llm.WithTemperature(0),
		llm.WithJSONOutput(),
	)
	if err != nil {
		return nil, fmt.Errorf("select venue: %w", err)
	}

	var selected SelectedVenue
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &selected); err != nil {
		return nil, fmt.Errorf("parse selected venue %q: %w", raw, err)
	}
	return &selected, nil
}

// GeneralTalkDirective returns the small-talk directive, optionally annotated
// with the requirements collected so far.
func GeneralTalkDirective(requirements string) string {
	if requirements == "" {
		return generalTalkDirective
	}
	return generalTalkDirective + "\n\nUser requirements: " + requirements
}

func VenueRecommendationDirective(conclusion string) string {
	return fmt.Sprintf(venueRecommendationDirective, conclusion)
}

func ConfirmBookingDirective(bookingText string) string {
	return fmt.Sprintf(confirmBookingDirective, bookingText)
}

func withSystem(system string, history []llm.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	messages = append(messages, history...)
	return messages
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
