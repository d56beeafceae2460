package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/moderation-service/internal/api/dto"
	"github.com/spec-kit/moderation-service/internal/service"
	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

// UsersHandler exposes account moderation and per-user counters.
type UsersHandler struct {
	blocking *service.BlockingService
	counts   *service.CountsService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(blockingService *service.BlockingService, countsService *service.CountsService) *UsersHandler {
	return &UsersHandler{blocking: blockingService, counts: countsService}
}

// Block handles POST /users/:id/block.
func (h *UsersHandler) Block(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.BlockUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.blocking.BlockUser(c.UserContext(), principal, c.Params("id"), service.BlockInput{
		Reason:   req.Reason,
		Duration: req.Duration,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUser(user)})
}

// Unblock handles POST /users/:id/unblock.
func (h *UsersHandler) Unblock(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.blocking.UnblockUser(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUser(user)})
}

// BlockLog handles GET /users/:id/block-log.
func (h *UsersHandler) BlockLog(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	entries, err := h.blocking.ListBlockLog(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBlockLog(entries)})
}

// Counts handles GET /notifications/counts.
func (h *UsersHandler) Counts(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	counts, err := h.counts.GetNotificationCounts(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNotificationCounts(counts)})
}
