package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-platform/internal/api/dto"
	"github.com/spec-kit/event-platform/internal/auth"
	"github.com/spec-kit/event-platform/internal/service"
	apperrors "github.com/spec-kit/event-platform/pkg/util"
)

// OrdersHandler manages registration endpoints.
type OrdersHandler struct {
	service *service.RegistrationService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(registrationService *service.RegistrationService) *OrdersHandler {
	return &OrdersHandler{service: registrationService}
}

// RegisterForEvent POST /events/:id/register.
func (h *OrdersHandler) RegisterForEvent(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	detail, err := h.service.Register(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.OrderFromDomain(&detail.Order, detail.Event)})
}

// ListMyOrders GET /orders.
func (h *OrdersHandler) ListMyOrders(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	details, err := h.service.ListForUser(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.OrderResponse, 0, len(details))
	for i := range details {
		items = append(items, dto.OrderFromDomain(&details[i].Order, details[i].Event))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetOrder GET /orders/:id.
func (h *OrdersHandler) GetOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	detail, err := h.service.GetForUser(c.Context(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.OrderFromDomain(&detail.Order, detail.Event)})
}

// CancelOrder DELETE /orders/:id.
func (h *OrdersHandler) CancelOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Cancel(c.Context(), c.Params("id"), principal.User.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
