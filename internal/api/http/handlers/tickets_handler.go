package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-generator/internal/api/dto"
	"github.com/spec-kit/ticket-generator/internal/service"
	apperrors "github.com/spec-kit/ticket-generator/pkg/util"
)

// TicketsHandler exposes ticket generation as a JSON API.
type TicketsHandler struct {
	forms   *service.FormService
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(forms *service.FormService, tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{forms: forms, tickets: tickets}
}

// CreateTicket POST /api/v1/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	sessionID, err := requireSession(c)
	if err != nil {
		return err
	}
	input, err := parseSubmission(c)
	if err != nil {
		return err
	}
	sess, err := h.forms.Submit(c.UserContext(), sessionID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(sess.Ticket)})
}

// GetTicket GET /api/v1/tickets/:number.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	raw := strings.TrimPrefix(c.Params("number"), "#")
	number, err := strconv.Atoi(raw)
	if err != nil {
		return apperrors.NewBadRequest("ticket number must be numeric")
	}
	ticket, err := h.tickets.Lookup(c.UserContext(), number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// CurrentSession GET /api/v1/session reports the caller's form state.
func (h *TicketsHandler) CurrentSession(c *fiber.Ctx) error {
	sessionID, err := requireSession(c)
	if err != nil {
		return err
	}
	sess, err := h.forms.State(c.UserContext(), sessionID)
	if err != nil {
		return err
	}
	body := fiber.Map{
		"phase":      sess.Phase,
		"avatar":     dto.NewAvatarStateResponse(sess),
		"validation": sess.Validation.Fields,
		"full_name":  sess.Form.FullName,
		"email":      sess.Form.Email,
		"github":     sess.Form.GitHub,
	}
	if sess.Ticket != nil {
		body["ticket"] = dto.NewTicketResponse(sess.Ticket)
	}
	return c.JSON(fiber.Map{"data": body})
}
