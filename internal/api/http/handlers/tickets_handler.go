package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/api/dto"
	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/service"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util/errorutil"
)

// TicketsHandler manages student ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), principal.User.ID, parseTicketListQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketListResponse{
		Success:    true,
		Tickets:    dto.NewTicketResponses(page.Tickets),
		TotalPages: page.TotalPages,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      page.Total,
	})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), principal.User.ID, service.TicketCreateInput{
		Category:    req.Category,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.TicketEnvelope{Success: true, Ticket: dto.NewTicketResponse(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketEnvelope{Success: true, Ticket: dto.NewTicketResponse(ticket)})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Update(c.UserContext(), principal.User.ID, c.Params("id"), req.Description)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketEnvelope{Success: true, Ticket: dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "Ticket deleted"})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AddComment(c.UserContext(), principal.User.ID, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.TicketEnvelope{Success: true, Ticket: dto.NewTicketResponse(ticket)})
}

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal, nil
}

// parseTicketListQuery leaves unparsable numbers at zero so the service
// applies its defaults; negative values are passed on and rejected there.
func parseTicketListQuery(c *fiber.Ctx) service.TicketListQuery {
	return service.TicketListQuery{
		Page:      parseInt(c.Query("page")),
		Limit:     parseInt(c.Query("limit")),
		Sort:      c.Query("sort"),
		Direction: c.Query("direction"),
	}
}

func parseInt(val string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0
	}
	return parsed
}
