package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wa-concierge-be/internal/config"
	"wa-concierge-be/internal/constant"
	"wa-concierge-be/internal/entity"
	"wa-concierge-be/internal/pkg/logger"
	"wa-concierge-be/internal/pkg/mailer"
	"wa-concierge-be/pkg/agent"
	"wa-concierge-be/pkg/intent"
	"wa-concierge-be/pkg/llm"
	"wa-concierge-be/pkg/venues"
	"wa-concierge-be/pkg/wa"

	"github.com/google/uuid"
)

const (
	// historyLimit bounds the store read; llmContextSize bounds what the
	// model actually sees.
	historyLimit   = 20
	llmContextSize = 10
)

// IntentClassifier resolves conversation history to a single leaf intent.
type IntentClassifier interface {
	Classify(ctx context.Context, history []llm.Message) (intent.Leaf, error)
}

// ReplyGenerator produces the user-facing reply and the intermediate
// artifacts the booking flow needs.
type ReplyGenerator interface {
	Generate(ctx context.Context, history []llm.Message, directive string) (agent.Reply, error)
	VenueSummary(ctx context.Context, history []llm.Message) (string, error)
	VenueConclusion(ctx context.Context, history []llm.Message, recommendation string) (string, error)
	SelectVenue(ctx context.Context, history []llm.Message, recommendation string) (*agent.SelectedVenue, error)
}

// RequirementsExtractor pulls structured booking facts from chat history.
type RequirementsExtractor interface {
	Extract(ctx context.Context, history []llm.Message) (*entity.UserRequirementPatch, error)
}

// IConversationService is the orchestrator for one inbound message: resolve
// the session, persist, classify, generate, deliver, touch.
type IConversationService interface {
	HandleInbound(ctx context.Context, phone, displayName, body string) error
}

type conversationService struct {
	registry   ISessionRegistry
	store      IChatStoreService
	classifier IntentClassifier
	generator  ReplyGenerator
	extractor  RequirementsExtractor
	venueAPI   venues.Client
	sender     wa.Sender
	mailer     mailer.IEmailService
	logger     logger.ILogger
	venueCfg   config.VenueConfig
}

func NewConversationService(
	registry ISessionRegistry,
	store IChatStoreService,
	classifier IntentClassifier,
	generator ReplyGenerator,
	extractor RequirementsExtractor,
	venueAPI venues.Client,
	sender wa.Sender,
	emailService mailer.IEmailService,
	sysLogger logger.ILogger,
	venueCfg config.VenueConfig,
) IConversationService {
	return &conversationService{
		registry:   registry,
		store:      store,
		classifier: classifier,
		generator:  generator,
		extractor:  extractor,
		venueAPI:   venueAPI,
		sender:     sender,
		mailer:     emailService,
		logger:     sysLogger,
		venueCfg:   venueCfg,
	}
}

func (s *conversationService) HandleInbound(ctx context.Context, phone, displayName, body string) error {
	sessionId, err := s.registry.EnsureSession(ctx, phone, displayName)
	if err != nil {
		s.logger.Error("conversation", "failed to resolve session", map[string]interface{}{
			"phone": phone,
			"error": err.Error(),
		})
		s.deliver(phone, constant.AgentErrorDefaultMessage)
		return err
	}

	now := time.Now()
	if _, err := s.store.AppendMessage(ctx, sessionId, constant.ChatMessageSenderUser, body, now, nil); err != nil {
		s.logger.Error("conversation", "failed to persist inbound message", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		s.deliver(phone, constant.AgentErrorDefaultMessage)
		return err
	}

	history, err := s.loadHistory(ctx, sessionId)
	if err != nil {
		s.logger.Error("conversation", "failed to load chat history", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		s.deliver(phone, constant.AgentErrorDefaultMessage)
		return err
	}

	s.captureRequirements(ctx, sessionId, history)

	leaf, err := s.classifier.Classify(ctx, history)
	if err != nil {
		// Unresolvable intent degrades to no reply at all.
		s.logger.Error("conversation", "intent classification failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return nil
	}

	if leaf == intent.LeafEndSession {
		if _, err := s.registry.EndSession(ctx, phone, constant.ChatSessionEndReasonEnded); err != nil {
			s.logger.Error("conversation", "failed to end session on request", map[string]interface{}{
				"session_id": sessionId.String(),
				"error":      err.Error(),
			})
			return err
		}
		return nil
	}

	directive, err := s.buildDirective(ctx, leaf, phone, sessionId, history)
	if err != nil {
		s.logger.Error("conversation", "failed to build reply directive", map[string]interface{}{
			"session_id": sessionId.String(),
			"intent":     string(leaf),
			"error":      err.Error(),
		})
		directive = agent.GeneralTalkDirective("")
	}

	text := constant.AgentErrorDefaultMessage
	reply, err := s.generator.Generate(ctx, history, directive)
	if err != nil {
		s.logger.Error("conversation", "reply generation failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	} else {
		text = agent.MarkdownToWhatsApp(reply.Join())
	}

	s.deliver(phone, text)

	if _, err := s.store.AppendMessage(ctx, sessionId, constant.ChatMessageSenderBot, text, time.Now(), map[string]interface{}{
		"intent": string(leaf),
	}); err != nil {
		s.logger.Error("conversation", "failed to persist outbound message", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}

	if err := s.registry.TouchSession(ctx, phone); err != nil {
		s.logger.Error("conversation", "failed to touch session", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
	return nil
}

// loadHistory returns the recent conversation oldest first, shaped for the
// model.
func (s *conversationService) loadHistory(ctx context.Context, sessionId uuid.UUID) ([]llm.Message, error) {
	messages, err := s.store.ListMessages(ctx, sessionId, historyLimit)
	if err != nil {
		return nil, err
	}

	if len(messages) > llmContextSize {
		messages = messages[:llmContextSize]
	}

	history := make([]llm.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		role := "user"
		if messages[i].Sender == constant.ChatMessageSenderBot {
			role = "assistant"
		}
		history = append(history, llm.Message{Role: role, Content: messages[i].Body})
	}
	return history, nil
}

// captureRequirements extracts and merges booking facts. Failures here never
// block the reply.
func (s *conversationService) captureRequirements(ctx context.Context, sessionId uuid.UUID, history []llm.Message) {
	patch, err := s.extractor.Extract(ctx, history)
	if err != nil {
		s.logger.Warn("conversation", "requirements extraction failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return
	}
	if err := s.store.UpsertRequirements(ctx, sessionId, patch); err != nil {
		s.logger.Warn("conversation", "requirements upsert failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}

func (s *conversationService) buildDirective(ctx context.Context, leaf intent.Leaf, phone string, sessionId uuid.UUID, history []llm.Message) (string, error) {
	switch leaf {
	case intent.LeafVenueRecommendation:
		return s.venueRecommendationDirective(ctx, phone, sessionId, history)
	case intent.LeafConfirmBooking:
		return s.confirmBookingDirective(ctx, phone, sessionId, history)
	default:
		requirements, err := s.store.GetRequirements(ctx, sessionId)
		if err != nil {
			return "", err
		}
		return agent.GeneralTalkDirective(requirementsSummary(requirements)), nil
	}
}

func (s *conversationService) venueRecommendationDirective(ctx context.Context, phone string, sessionId uuid.UUID, history []llm.Message) (string, error) {
	query, err := s.generator.VenueSummary(ctx, history)
	if err != nil {
		return "", err
	}

	// Stored requirements sharpen the search beyond what the summary of
	// recent messages carries (budget or dates stated turns ago).
	requirements, err := s.store.GetRequirements(ctx, sessionId)
	if err != nil {
		return "", err
	}
	if stored := requirementsSummary(requirements); stored != "" {
		query = query + ". " + stored
	}

	var rec *venues.Recommendation
	if prior, ok := s.venueAPI.LastRecommendation(phone); ok {
		rec, err = s.venueAPI.Next(ctx, phone, prior.TicketId)
	} else {
		rec, err = s.venueAPI.Recommend(ctx, phone, query, s.venueCfg.DefaultKVenue)
	}
	if err != nil {
		return "", err
	}

	conclusion, err := s.generator.VenueConclusion(ctx, history, formatRecommendation(rec))
	if err != nil {
		return "", err
	}
	return agent.VenueRecommendationDirective(conclusion), nil
}

func (s *conversationService) confirmBookingDirective(ctx context.Context, phone string, sessionId uuid.UUID, history []llm.Message) (string, error) {
	requirements, err := s.store.GetRequirements(ctx, sessionId)
	if err != nil {
		return "", err
	}
	if requirements == nil || requirements.Email == nil || requirements.CustomerName == nil {
		return agent.ConfirmBookingDirective(
			"The booking cannot be finalized yet. Politely ask the user for their email address and full name so the booking can be completed.",
		), nil
	}

	rec, ok := s.venueAPI.LastRecommendation(phone)
	if !ok {
		return agent.ConfirmBookingDirective(
			"No venue has been recommended in this chat yet. Tell the user you need to find venue options first and ask what they are looking for.",
		), nil
	}

	recText := formatRecommendation(rec)
	selected, err := s.generator.SelectVenue(ctx, history, recText)
	if err != nil {
		return "", err
	}

	if err := s.venueAPI.Book(ctx, rec.TicketId, selected.VenueId); err != nil {
		return "", err
	}

	if err := s.mailer.SendBookingConfirmation(*requirements.Email, *requirements.CustomerName, selected.VenueName, selected.VenueLocation); err != nil {
		s.logger.Warn("conversation", "booking confirmation email failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}

	return agent.ConfirmBookingDirective(fmt.Sprintf(
		"The booking request for %s (%s) has been submitted. A confirmation email was sent to %s. Tell the user the team will reach out to finalize details and payment.",
		selected.VenueName, selected.VenueLocation, *requirements.Email,
	)), nil
}

// deliver sends the reply text. Delivery failures are logged and swallowed.
func (s *conversationService) deliver(phone, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.sender.SendText(ctx, phone, text); err != nil {
		s.logger.Warn("conversation", "failed to deliver reply", map[string]interface{}{
			"phone": phone,
			"error": err.Error(),
		})
	}
}

func formatRecommendation(rec *venues.Recommendation) string {
	var b strings.Builder
	for i, v := range rec.Venues {
		fmt.Fprintf(&b, "%d. %s (id: %s)\n   Location: %s\n   Type: %s\n   Amenities: %s\n", i+1, v.Name, v.Id, v.Location, v.Type, v.Amenities)
	}
	return b.String()
}

func requirementsSummary(r *entity.UserRequirement) string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, 8)
	appendIf := func(label string, value *string) {
		if value != nil && *value != "" {
			parts = append(parts, label+": "+*value)
		}
	}
	appendIf("event type", r.EventType)
	appendIf("location", r.Location)
	if r.Attendees != nil {
		parts = append(parts, fmt.Sprintf("attendees: %d", *r.Attendees))
	}
	appendIf("budget", r.Budget)
	appendIf("start date", r.StartDate)
	appendIf("end date", r.EndDate)
	appendIf("email", r.Email)
	appendIf("customer name", r.CustomerName)
	return strings.Join(parts, "; ")
}
