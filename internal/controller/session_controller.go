package controller

import (
	"wa-concierge-be/internal/constant"
	"wa-concierge-be/internal/dto"
	"wa-concierge-be/internal/pkg/serverutils"
	"wa-concierge-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
	Requirements(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
}

type sessionController struct {
	store    service.IChatStoreService
	registry service.ISessionRegistry
}

func NewSessionController(store service.IChatStoreService, registry service.ISessionRegistry) ISessionController {
	return &sessionController{
		store:    store,
		registry: registry,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Get(":id/messages", c.Messages)
	h.Get(":id/requirements", c.Requirements)
	h.Post("end", c.End)
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	sessions, err := c.store.ListSessions(ctx.Context())
	if err != nil {
		return err
	}

	res := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, dto.SessionResponse{
			Id:           s.Id,
			Phone:        s.Phone,
			DisplayName:  s.DisplayName,
			StartedAt:    s.StartedAt,
			LastActivity: s.LastActivity,
			Status:       s.Status,
			EndedAt:      s.EndedAt,
			EndReason:    s.EndReason,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *sessionController) Messages(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	limit := ctx.QueryInt("limit", 50)
	messages, err := c.store.ListMessages(ctx.Context(), id, limit)
	if err != nil {
		return err
	}

	res := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, dto.ChatMessageResponse{
			Id:     m.Id,
			Sender: m.Sender,
			Body:   m.Body,
			SentAt: m.SentAt,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list messages", res))
}

func (c *sessionController) Requirements(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	requirements, err := c.store.GetRequirements(ctx.Context(), id)
	if err != nil {
		return err
	}
	if requirements == nil {
		return ctx.JSON(serverutils.SuccessResponse("No requirements collected", dto.RequirementsResponse{}))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show requirements", dto.RequirementsResponse{
		EventType:    requirements.EventType,
		Location:     requirements.Location,
		Attendees:    requirements.Attendees,
		Budget:       requirements.Budget,
		StartDate:    requirements.StartDate,
		EndDate:      requirements.EndDate,
		Email:        requirements.Email,
		CustomerName: requirements.CustomerName,
	}))
}

func (c *sessionController) End(ctx *fiber.Ctx) error {
	var req dto.EndSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	reason := req.Reason
	if reason == "" {
		reason = constant.ChatSessionEndReasonEnded
	}

	ended, err := c.registry.EndSession(ctx.Context(), req.Phone, reason)
	if err != nil {
		return err
	}
	if !ended {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "No active session for phone"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success end session", dto.EndSessionResponse{Ended: ended}))
}
