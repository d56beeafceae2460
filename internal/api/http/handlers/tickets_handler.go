package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/moderation-service/internal/api/dto"
	"github.com/spec-kit/moderation-service/internal/auth"
	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/service"
	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

// TicketsHandler manages reporter-facing ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	chats   *service.ChatService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, chatService *service.ChatService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, chats: chatService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), principal, service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		TargetUserID: req.TargetUserID,
		Scope:        requestScope(req.Scope, req.ShopID),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// ListMine GET /tickets/mine.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := parsePage(c)
	tickets, err := h.tickets.ListReportedTickets(c.UserContext(), principal, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummaries(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	details, err := h.tickets.GetTicket(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(details.Ticket, details.Messages, details.History)})
}

// ListMessages GET /tickets/:id/messages.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	messages, err := h.chats.ListTicketMessages(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketMessages(messages)})
}

// AddMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.chats.AppendTicketMessage(c.UserContext(), principal, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketMessage(msg)})
}

// requestScope accepts the scope kind in any case. Without a kind, a shop id
// selects SHOP and its absence PLATFORM.
func requestScope(kind domain.ScopeKind, shopID string) domain.TicketScope {
	kind = domain.ScopeKind(strings.ToUpper(strings.TrimSpace(string(kind))))
	shopID = strings.TrimSpace(shopID)
	if kind == "" {
		if shopID == "" {
			return domain.PlatformScope()
		}
		kind = domain.ScopeShop
	}
	return domain.TicketScope{Kind: kind, ShopID: shopID}
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	return principal, nil
}

// Paging bounds keep (page-1)*page_size from overflowing.
const (
	maxPage     = 1 << 20
	maxPageSize = 200
)

// parsePage reads page and page_size, one-based.
func parsePage(c *fiber.Ctx) (limit, offset int) {
	page := min(parseInt(c.Query("page"), 1), maxPage)
	pageSize := min(parseInt(c.Query("page_size"), 20), maxPageSize)
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
