package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/moderation-service/internal/api/dto"
	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/service"
	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

// StaffTicketsHandler handles the moderation side of tickets: scoped
// listing and the state machine.
type StaffTicketsHandler struct {
	tickets *service.TicketService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService}
}

// ListTickets GET /tickets?scope=platform|shop&shop_id=&status=.
func (h *StaffTicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	filter, err := parseStaffTicketFilter(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummaries(tickets)})
}

// Assign POST /tickets/:id/assign.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.tickets.AssignTicket(c.UserContext(), principal, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Resolve POST /tickets/:id/resolve.
func (h *StaffTicketsHandler) Resolve(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.ResolveTicket(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Reject POST /tickets/:id/reject.
func (h *StaffTicketsHandler) Reject(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.RejectTicket(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

func parseStaffTicketFilter(c *fiber.Ctx) (service.TicketListFilter, error) {
	var filter service.TicketListFilter
	switch strings.ToLower(c.Query("scope")) {
	case "":
	case "platform":
		scope := domain.PlatformScope()
		filter.Scope = &scope
	case "shop":
		scope := domain.ShopScope(c.Query("shop_id"))
		filter.Scope = &scope
	default:
		return filter, apperrors.NewValidationError("scope must be platform or shop", map[string]any{"field": "scope"})
	}

	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part)))
			if !status.Valid() {
				return filter, apperrors.NewValidationError("unknown status", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	filter.Limit, filter.Offset = parsePage(c)
	return filter, nil
}
