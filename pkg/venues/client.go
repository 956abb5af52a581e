package venues

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Venue is one recommended venue as returned by the recommendation API.
type Venue struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Type      string `json:"type"`
	Amenities string `json:"amenities"`
}

// Recommendation is a recommendation set tied to a booking ticket.
type Recommendation struct {
	TicketId string  `json:"ticket_id"`
	Venues   []Venue `json:"venues"`
}

// Client is the venue recommendation/booking API consumed by the
// conversation orchestrator.
type Client interface {
	Recommend(ctx context.Context, phone, query string, kVenue int) (*Recommendation, error)
	Next(ctx context.Context, phone, ticketId string) (*Recommendation, error)
	Book(ctx context.Context, ticketId, venueId string) error

	// LastRecommendation returns the cached recommendation set for a phone,
	// so a booking confirmation can resolve ticket and venue ids without a
	// fresh inquiry.
	LastRecommendation(phone string) (*Recommendation, bool)
}

type httpClient struct {
	baseURL string
	client  *http.Client
	tickets *ticketCache
}

func NewHTTPClient(baseURL string, ticketTTL time.Duration) Client {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		tickets: newTicketCache(ticketTTL),
	}
}

type inquiryRequest struct {
	PhoneNumber string `json:"phone_number"`
	TextBody    string `json:"text_body,omitempty"`
	KVenue      int    `json:"k_venue,omitempty"`
}

type inquiryResponse struct {
	TicketId  string `json:"ticket_id"`
	TopKVenue []struct {
		Payload Venue `json:"payload"`
	} `json:"top_k_venues"`
}

func (c *httpClient) Recommend(ctx context.Context, phone, query string, kVenue int) (*Recommendation, error) {
	url := c.baseURL + "/api/v1/recommendation/inquiry/whatsapp"
	rec, err := c.inquire(ctx, url, inquiryRequest{
		PhoneNumber: phone,
		TextBody:    query,
		KVenue:      kVenue,
	})
	if err != nil {
		return nil, err
	}
	c.tickets.put(phone, rec)
	return rec, nil
}

func (c *httpClient) Next(ctx context.Context, phone, ticketId string) (*Recommendation, error) {
	url := fmt.Sprintf("%s/api/v1/recommendation/inquiry/whatsapp/%s/next-recommendation", c.baseURL, ticketId)
	rec, err := c.inquire(ctx, url, inquiryRequest{PhoneNumber: phone})
	if err != nil {
		return nil, err
	}
	if rec.TicketId == "" {
		rec.TicketId = ticketId
	}
	c.tickets.put(phone, rec)
	return rec, nil
}

func (c *httpClient) inquire(ctx context.Context, url string, payload inquiryRequest) (*Recommendation, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal inquiry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create inquiry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inquiry request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read inquiry response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inquiry error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var parsed inquiryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal inquiry response: %w", err)
	}

	rec := &Recommendation{TicketId: parsed.TicketId}
	for _, v := range parsed.TopKVenue {
		rec.Venues = append(rec.Venues, v.Payload)
	}
	return rec, nil
}

func (c *httpClient) Book(ctx context.Context, ticketId, venueId string) error {
	url := fmt.Sprintf("%s/api/v1/recommendation/inquiry/book/%s/%s", c.baseURL, ticketId, venueId)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create booking request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("booking request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("booking error: status %d", resp.StatusCode)
	}
	return nil
}

func (c *httpClient) LastRecommendation(phone string) (*Recommendation, bool) {
	return c.tickets.get(phone)
}
