package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-platform/internal/api/dto"
	"github.com/spec-kit/event-platform/internal/auth"
	"github.com/spec-kit/event-platform/internal/domain"
	"github.com/spec-kit/event-platform/internal/service"
	apperrors "github.com/spec-kit/event-platform/pkg/util"
)

// EventsHandler manages event CRUD and listing endpoints.
type EventsHandler struct {
	service *service.EventService
}

// NewEventsHandler constructs handler.
func NewEventsHandler(eventService *service.EventService) *EventsHandler {
	return &EventsHandler{service: eventService}
}

// CreateEvent POST /events.
func (h *EventsHandler) CreateEvent(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.Create(c.Context(), principal.User.ID, service.EventCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		EventTime:   req.EventTime,
		Capacity:    req.Capacity,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.EventFromDomain(&result.Event, result.RegisteredCount)})
}

// ListEvents GET /events.
func (h *EventsHandler) ListEvents(c *fiber.Ctx) error {
	input := parseEventListQuery(c)
	page, err := h.service.List(c.Context(), input)
	if err != nil {
		return err
	}

	items := make([]dto.EventResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.EventFromDomain(&page.Items[i].Event, page.Items[i].RegisteredCount))
	}
	return c.JSON(fiber.Map{"data": dto.EventPageResponse{
		Items: items,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages,
	}})
}

// ListMyEvents GET /events/my.
func (h *EventsHandler) ListMyEvents(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	events, err := h.service.ListMine(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		items = append(items, dto.EventFromDomain(&events[i].Event, events[i].RegisteredCount))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetEvent GET /events/:id.
func (h *EventsHandler) GetEvent(c *fiber.Ctx) error {
	result, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EventFromDomain(&result.Event, result.RegisteredCount)})
}

// UpdateEvent PUT /events/:id.
func (h *EventsHandler) UpdateEvent(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.Update(c.Context(), c.Params("id"), principal.User.ID, service.EventUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		EventTime:   req.EventTime,
		Capacity:    req.Capacity,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EventFromDomain(&result.Event, result.RegisteredCount)})
}

// DeleteEvent DELETE /events/:id.
func (h *EventsHandler) DeleteEvent(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Delete(c.Context(), c.Params("id"), principal.User.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseEventListQuery(c *fiber.Ctx) service.EventListInput {
	input := service.EventListInput{
		Page:  parseInt(c.Query("page"), 1),
		Limit: parseInt(c.Query("limit"), 10),
	}
	if search := c.Query("search"); search != "" {
		input.Search = &search
	}
	if location := c.Query("location"); location != "" {
		input.Location = &location
	}
	if status := c.Query("status"); status != "" {
		input.Status = domain.EventStatus(status)
	}
	if from := parseTime(c.Query("date_from")); from != nil {
		input.DateFrom = from
	}
	if to := parseTime(c.Query("date_to")); to != nil {
		input.DateTo = to
	}
	return input
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
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
