package wa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GatewayClient talks to an open-wa style HTTP gateway (EASY API).
type GatewayClient struct {
	baseURL string
	client  *http.Client
}

var _ Sender = &GatewayClient{}

func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type sendTextRequest struct {
	Args sendTextArgs `json:"args"`
}

type sendTextArgs struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

func (c *GatewayClient) SendText(ctx context.Context, phone, text string) error {
	payload := sendTextRequest{
		Args: sendTextArgs{
			To:      ToJID(phone),
			Content: text,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendText: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendText", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create sendText request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendText request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendText error: status %d", resp.StatusCode)
	}
	return nil
}

// ToJID converts a bare phone number to the gateway's chat id form.
func ToJID(phone string) string {
	if strings.Contains(phone, "@") {
		return phone
	}
	return phone + "@c.us"
}

// FromJID strips the gateway suffix back to a bare phone number.
func FromJID(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}
