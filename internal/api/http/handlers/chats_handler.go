package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/moderation-service/internal/api/dto"
	"github.com/spec-kit/moderation-service/internal/service"
	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

// ChatsHandler serves shop chat endpoints for customers and shop staff.
type ChatsHandler struct {
	chats *service.ChatService
}

// NewChatsHandler constructs handler.
func NewChatsHandler(chatService *service.ChatService) *ChatsHandler {
	return &ChatsHandler{chats: chatService}
}

// OpenChat POST /shops/:shopId/chats.
func (h *ChatsHandler) OpenChat(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.OpenChatRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	chat, err := h.chats.GetOrCreateShopChat(c.UserContext(), principal, c.Params("shopId"), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChat(chat)})
}

// ListShopChats GET /shops/:shopId/chats.
func (h *ChatsHandler) ListShopChats(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	chats, err := h.chats.ListShopChats(c.UserContext(), principal, c.Params("shopId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChats(chats)})
}

// ListMyChats GET /chats.
func (h *ChatsHandler) ListMyChats(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	chats, err := h.chats.ListCustomerChats(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChats(chats)})
}

// ListMessages GET /chats/:id/messages.
func (h *ChatsHandler) ListMessages(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	messages, err := h.chats.ListChatMessages(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChatMessages(messages)})
}

// AddMessage POST /chats/:id/messages.
func (h *ChatsHandler) AddMessage(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.chats.AppendChatMessage(c.UserContext(), principal, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewChatMessage(msg)})
}

// MarkRead POST /chats/:id/read.
func (h *ChatsHandler) MarkRead(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	marked, err := h.chats.MarkChatRead(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MarkReadResponse{Marked: marked}})
}
