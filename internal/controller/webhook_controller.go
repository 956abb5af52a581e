package controller

import (
	"encoding/json"
	"strings"

	"wa-concierge-be/internal/config"
	"wa-concierge-be/internal/dto"
	"wa-concierge-be/internal/pkg/dedup"
	"wa-concierge-be/internal/pkg/logger"
	"wa-concierge-be/internal/pkg/serverutils"
	"wa-concierge-be/internal/service"
	"wa-concierge-be/pkg/wa"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	Receive(ctx *fiber.Ctx) error
}

type webhookController struct {
	publisherService service.IPublisherService
	deduper          dedup.IMessageDeduper
	logger           logger.ILogger
	waCfg            config.WAConfig
}

func NewWebhookController(
	publisherService service.IPublisherService,
	deduper dedup.IMessageDeduper,
	sysLogger logger.ILogger,
	waCfg config.WAConfig,
) IWebhookController {
	return &webhookController{
		publisherService: publisherService,
		deduper:          deduper,
		logger:           sysLogger,
		waCfg:            waCfg,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/webhook/v1")
	h.Post("whatsapp", c.Receive)
}

// Receive accepts gateway message events. It always answers 200 for valid
// payloads; the gateway retries on anything else and retries are exactly
// what the deduper exists to absorb.
func (c *webhookController) Receive(ctx *fiber.Ctx) error {
	if c.waCfg.WebhookSecret != "" && ctx.Get("X-Webhook-Secret") != c.waCfg.WebhookSecret {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid webhook secret"))
	}

	var req dto.WhatsAppWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid payload"))
	}

	if req.Event != "onMessage" || req.Data.FromMe || req.Data.Body == "" ||
		strings.HasSuffix(req.Data.From, "@g.us") {
		return ctx.JSON(serverutils.SuccessResponse("Ignored", nil))
	}

	seen, err := c.deduper.Seen(ctx.Context(), req.Data.Id)
	if err != nil {
		// Dedup is best effort: a redis outage must not drop messages.
		c.logger.Warn("webhook", "dedup check failed", map[string]interface{}{
			"message_id": req.Data.Id,
			"error":      err.Error(),
		})
	} else if seen {
		return ctx.JSON(serverutils.SuccessResponse("Duplicate", nil))
	}

	inbound := dto.InboundMessage{
		MessageId:   req.Data.Id,
		Phone:       wa.FromJID(req.Data.From),
		DisplayName: req.Data.Sender.Pushname,
		Body:        req.Data.Body,
	}
	payload, _ := json.Marshal(inbound)

	if err := c.publisherService.Publish(ctx.Context(), payload); err != nil {
		c.logger.Error("webhook", "failed to enqueue inbound message", map[string]interface{}{
			"message_id": inbound.MessageId,
			"error":      err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, "Failed to enqueue message"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Accepted", nil))
}
