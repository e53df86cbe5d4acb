package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trouble-ticket/internal/api/dto"
	"github.com/spec-kit/trouble-ticket/internal/domain"
	"github.com/spec-kit/trouble-ticket/internal/service"
	apperrors "github.com/spec-kit/trouble-ticket/pkg/util/errorutil"
)

// TicketsHandler serves the trouble ticket collection and items.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /troubleTicket.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseListQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTroubleTicketList(tickets))
}

// CreateTicket POST /troubleTicket.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTroubleTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload(err)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Description:            req.Description,
		Severity:               req.Severity,
		Priority:               req.Priority,
		Type:                   req.Type,
		Channel:                req.Channel,
		ExternalID:             req.ExternalID,
		ExpectedResolutionDate: req.ExpectedResolutionDate,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTroubleTicketResponse(ticket))
}

// GetTicket GET /troubleTicket/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTroubleTicketResponse(ticket))
}

// PatchTicket PATCH /troubleTicket/:id.
func (h *TicketsHandler) PatchTicket(c *fiber.Ctx) error {
	var req dto.UpdateTroubleTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload(err)
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), c.Params("id"), req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTroubleTicketResponse(ticket))
}

// DeleteTicket DELETE /troubleTicket/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseListQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	var filter service.TicketListFilter
	if v := c.Query("severity"); v != "" {
		severity := domain.Severity(v)
		filter.Severity = &severity
	}
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid query", map[string]any{
				"fields": map[string]string{"limit": "limit must be an integer"},
			})
		}
		filter.Limit = limit
	}
	return filter, nil
}

func invalidPayload(err error) error {
	return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
}
