package dto

// WhatsAppWebhookRequest is the inbound payload posted by the WhatsApp
// gateway on every message event.
type WhatsAppWebhookRequest struct {
	Event string              `json:"event"`
	Data  WhatsAppWebhookData `json:"data"`
}

type WhatsAppWebhookData struct {
	Id     string               `json:"id"`
	From   string               `json:"from"`
	Body   string               `json:"body"`
	FromMe bool                 `json:"fromMe"`
	Sender WhatsAppWebhookParty `json:"sender"`
}

type WhatsAppWebhookParty struct {
	Pushname string `json:"pushname"`
}

// InboundMessage is the internal bus payload handed from the webhook to the
// conversation consumer.
type InboundMessage struct {
	MessageId   string `json:"message_id"`
	Phone       string `json:"phone"`
	DisplayName string `json:"display_name"`
	Body        string `json:"body"`
}
