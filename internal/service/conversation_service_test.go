package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wa-concierge-be/internal/config"
	"wa-concierge-be/internal/constant"
	"wa-concierge-be/internal/entity"
	"wa-concierge-be/pkg/agent"
	"wa-concierge-be/pkg/intent"
	"wa-concierge-be/pkg/llm"
	"wa-concierge-be/pkg/venues"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	sessionId uuid.UUID
	touched   int
	ended     []string
}

func (f *fakeRegistry) EnsureSession(ctx context.Context, phone, displayName string) (uuid.UUID, error) {
	if f.sessionId == uuid.Nil {
		f.sessionId = uuid.New()
	}
	return f.sessionId, nil
}

func (f *fakeRegistry) TouchSession(ctx context.Context, phone string) error {
	f.touched++
	return nil
}

func (f *fakeRegistry) EndSession(ctx context.Context, phone, reason string) (bool, error) {
	f.ended = append(f.ended, reason)
	return true, nil
}

func (f *fakeRegistry) Shutdown() {}

type fakeClassifier struct {
	leaf intent.Leaf
	err  error
}

func (f *fakeClassifier) Classify(ctx context.Context, history []llm.Message) (intent.Leaf, error) {
	return f.leaf, f.err
}

type fakeGenerator struct {
	reply    agent.Reply
	genErr   error
	selected *agent.SelectedVenue
}

func (f *fakeGenerator) Generate(ctx context.Context, history []llm.Message, directive string) (agent.Reply, error) {
	return f.reply, f.genErr
}

func (f *fakeGenerator) VenueSummary(ctx context.Context, history []llm.Message) (string, error) {
	return "wedding venue in Bali", nil
}

func (f *fakeGenerator) VenueConclusion(ctx context.Context, history []llm.Message, recommendation string) (string, error) {
	return "The first venue fits best.", nil
}

func (f *fakeGenerator) SelectVenue(ctx context.Context, history []llm.Message, recommendation string) (*agent.SelectedVenue, error) {
	return f.selected, nil
}

type fakeExtractor struct {
	patch *entity.UserRequirementPatch
}

func (f *fakeExtractor) Extract(ctx context.Context, history []llm.Message) (*entity.UserRequirementPatch, error) {
	if f.patch == nil {
		return &entity.UserRequirementPatch{}, nil
	}
	return f.patch, nil
}

type fakeVenueAPI struct {
	rec     *venues.Recommendation
	next    *venues.Recommendation
	queries []string
	booked  []string
}

func (f *fakeVenueAPI) Recommend(ctx context.Context, phone, query string, kVenue int) (*venues.Recommendation, error) {
	f.queries = append(f.queries, query)
	if f.next != nil {
		f.rec = f.next
	}
	return f.rec, nil
}

func (f *fakeVenueAPI) Next(ctx context.Context, phone, ticketId string) (*venues.Recommendation, error) {
	return f.rec, nil
}

func (f *fakeVenueAPI) Book(ctx context.Context, ticketId, venueId string) error {
	f.booked = append(f.booked, fmt.Sprintf("%s/%s", ticketId, venueId))
	return nil
}

func (f *fakeVenueAPI) LastRecommendation(phone string) (*venues.Recommendation, bool) {
	if f.rec == nil {
		return nil, false
	}
	return f.rec, true
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) SendBookingConfirmation(toEmail, customerName, venueName, venueLocation string) error {
	f.sent = append(f.sent, toEmail)
	return nil
}

type conversationFixture struct {
	service    IConversationService
	store      *fakeChatStore
	registry   *fakeRegistry
	sender     *fakeSender
	venueAPI   *fakeVenueAPI
	mailer     *fakeMailer
	classifier *fakeClassifier
	generator  *fakeGenerator
	extractor  *fakeExtractor
}

func newConversationFixture(leaf intent.Leaf) *conversationFixture {
	f := &conversationFixture{
		store:      newFakeChatStore(),
		registry:   &fakeRegistry{},
		sender:     &fakeSender{},
		venueAPI:   &fakeVenueAPI{},
		mailer:     &fakeMailer{},
		classifier: &fakeClassifier{leaf: leaf},
		generator: &fakeGenerator{
			reply: agent.Reply{Header: "Hi!", Content: "Happy to help."},
		},
		extractor: &fakeExtractor{},
	}
	f.service = NewConversationService(
		f.registry,
		f.store,
		f.classifier,
		f.generator,
		f.extractor,
		f.venueAPI,
		f.sender,
		f.mailer,
		noopLogger{},
		config.VenueConfig{DefaultKVenue: 5},
	)
	return f
}

func (f *conversationFixture) seedSession(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := f.registry.EnsureSession(context.Background(), "628", "Tester")
	require.NoError(t, err)
	if _, ok := f.store.sessions[id]; !ok {
		f.store.sessions[id] = &entity.ChatSession{
			Id:           id,
			Phone:        "628",
			Status:       constant.ChatSessionStatusActive,
			StartedAt:    time.Now(),
			LastActivity: time.Now(),
		}
	}
	return id
}

func TestHandleInboundGeneralTalk(t *testing.T) {
	f := newConversationFixture(intent.LeafGeneralTalk)
	sessionId := f.seedSession(t)

	err := f.service.HandleInbound(context.Background(), "628", "Tester", "Hello there")
	require.NoError(t, err)

	msgs := f.store.messages[sessionId]
	require.Len(t, msgs, 2)
	assert.Equal(t, constant.ChatMessageSenderUser, msgs[0].Sender)
	assert.Equal(t, "Hello there", msgs[0].Body)
	assert.Equal(t, constant.ChatMessageSenderBot, msgs[1].Sender)
	assert.Contains(t, msgs[1].Body, "Happy to help.")

	assert.Equal(t, 1, f.registry.touched)
	require.Len(t, f.sender.texts(), 1)
}

func TestHandleInboundEndSessionIntent(t *testing.T) {
	f := newConversationFixture(intent.LeafEndSession)
	sessionId := f.seedSession(t)

	err := f.service.HandleInbound(context.Background(), "628", "Tester", "bye, end the chat")
	require.NoError(t, err)

	require.Len(t, f.registry.ended, 1)
	assert.Equal(t, constant.ChatSessionEndReasonEnded, f.registry.ended[0])

	// No reply is generated for an end request; the registry owns the end
	// notice.
	msgs := f.store.messages[sessionId]
	require.Len(t, msgs, 1)
	assert.Empty(t, f.sender.texts())
	assert.Zero(t, f.registry.touched)
}

func TestHandleInboundClassificationFailure(t *testing.T) {
	f := newConversationFixture(intent.LeafGeneralTalk)
	f.classifier.err = fmt.Errorf("model unavailable")
	sessionId := f.seedSession(t)

	err := f.service.HandleInbound(context.Background(), "628", "Tester", "Hello")
	require.NoError(t, err)

	// Unresolvable intent degrades to no reply at all.
	assert.Empty(t, f.sender.texts())
	assert.Len(t, f.store.messages[sessionId], 1)
	assert.Zero(t, f.registry.touched)
}

func TestHandleInboundGenerationFailureFallsBack(t *testing.T) {
	f := newConversationFixture(intent.LeafGeneralTalk)
	f.generator.genErr = fmt.Errorf("model unavailable")
	sessionId := f.seedSession(t)

	err := f.service.HandleInbound(context.Background(), "628", "Tester", "Hello")
	require.NoError(t, err)

	texts := f.sender.texts()
	require.Len(t, texts, 1)
	assert.Equal(t, constant.AgentErrorDefaultMessage, texts[0])

	msgs := f.store.messages[sessionId]
	require.Len(t, msgs, 2)
	assert.Equal(t, constant.AgentErrorDefaultMessage, msgs[1].Body)
	assert.Equal(t, 1, f.registry.touched)
}

func TestHandleInboundRequirementsMerge(t *testing.T) {
	f := newConversationFixture(intent.LeafGeneralTalk)
	sessionId := f.seedSession(t)

	location := "Bali"
	f.extractor.patch = &entity.UserRequirementPatch{Location: &location}
	require.NoError(t, f.service.HandleInbound(context.Background(), "628", "Tester", "Somewhere in Bali"))

	budget := "50000000"
	f.extractor.patch = &entity.UserRequirementPatch{Budget: &budget}
	require.NoError(t, f.service.HandleInbound(context.Background(), "628", "Tester", "Budget is 50 million"))

	got, err := f.store.GetRequirements(context.Background(), sessionId)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Bali", *got.Location)
	require.NotNil(t, got.Budget)
	assert.Equal(t, "50000000", *got.Budget)
}

func TestHandleInboundRecommendationQueryIncludesRequirements(t *testing.T) {
	f := newConversationFixture(intent.LeafVenueRecommendation)
	sessionId := f.seedSession(t)

	budget := "50000000"
	location := "Bali"
	require.NoError(t, f.store.UpsertRequirements(context.Background(), sessionId, &entity.UserRequirementPatch{
		Location: &location,
		Budget:   &budget,
	}))

	f.venueAPI.next = &venues.Recommendation{
		TicketId: "ticket-1",
		Venues:   []venues.Venue{{Id: "v1", Name: "Grand Hall", Location: "Bali"}},
	}

	require.NoError(t, f.service.HandleInbound(context.Background(), "628", "Tester", "Find me a venue"))

	require.Len(t, f.venueAPI.queries, 1)
	query := f.venueAPI.queries[0]
	assert.Contains(t, query, "wedding venue in Bali")
	assert.Contains(t, query, "location: Bali")
	assert.Contains(t, query, "budget: 50000000")
	require.Len(t, f.sender.texts(), 1)
}

func TestHandleInboundConfirmBookingFlow(t *testing.T) {
	f := newConversationFixture(intent.LeafConfirmBooking)
	sessionId := f.seedSession(t)

	email := "guest@example.com"
	name := "Guest"
	require.NoError(t, f.store.UpsertRequirements(context.Background(), sessionId, &entity.UserRequirementPatch{
		Email:        &email,
		CustomerName: &name,
	}))

	f.venueAPI.rec = &venues.Recommendation{
		TicketId: "ticket-1",
		Venues:   []venues.Venue{{Id: "v1", Name: "Grand Hall", Location: "Bali"}},
	}
	f.generator.selected = &agent.SelectedVenue{VenueId: "v1", VenueName: "Grand Hall", VenueLocation: "Bali"}

	require.NoError(t, f.service.HandleInbound(context.Background(), "628", "Tester", "Yes, book the Grand Hall"))

	require.Len(t, f.venueAPI.booked, 1)
	assert.Equal(t, "ticket-1/v1", f.venueAPI.booked[0])
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "guest@example.com", f.mailer.sent[0])
	require.Len(t, f.sender.texts(), 1)
}

func TestHandleInboundConfirmBookingWithoutContact(t *testing.T) {
	f := newConversationFixture(intent.LeafConfirmBooking)
	f.seedSession(t)

	f.venueAPI.rec = &venues.Recommendation{TicketId: "ticket-1"}

	require.NoError(t, f.service.HandleInbound(context.Background(), "628", "Tester", "Book it"))

	// Missing email/name: no booking happens, the bot asks for contact data.
	assert.Empty(t, f.venueAPI.booked)
	assert.Empty(t, f.mailer.sent)
	require.Len(t, f.sender.texts(), 1)
}
