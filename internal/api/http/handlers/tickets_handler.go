package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-workflow/internal/api/dto"
	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/service"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

// TicketsHandler serves ticket workflow endpoints.
type TicketsHandler struct {
	workflow *service.WorkflowService
	queries  *service.QueryService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(workflow *service.WorkflowService, queries *service.QueryService) *TicketsHandler {
	return &TicketsHandler{workflow: workflow, queries: queries}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, validate, &req); err != nil {
		return err
	}
	ticket, err := h.workflow.CreateTicket(c.UserContext(), actor, service.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter, err := ticketFilter(c)
	if err != nil {
		return err
	}
	result, err := h.queries.ListTickets(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketPageResponse(result))
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Ticket")
	if err != nil {
		return err
	}
	detail, err := h.queries.GetTicketDetail(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(detail)})
}

// ClaimTicket POST /api/tickets/:id/claim.
func (h *TicketsHandler) ClaimTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Ticket")
	if err != nil {
		return err
	}
	ticket, err := h.workflow.ClaimTicket(c.UserContext(), id, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// AssignTicket POST /api/tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Ticket")
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := bind(c, validate, &req); err != nil {
		return err
	}
	ticket, err := h.workflow.AssignTicket(c.UserContext(), id, actor, req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ChangeStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Ticket")
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := bind(c, validate, &req); err != nil {
		return err
	}
	ticket, err := h.workflow.ChangeStatus(c.UserContext(), id, actor, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// AddMessage POST /api/tickets/:id/messages. Only participants who can see
// the ticket may write to it.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "Ticket")
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := bind(c, validate, &req); err != nil {
		return err
	}
	ticket, err := h.queries.GetTicket(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	if !domain.CanWriteTicket(actor, ticket) {
		return apperrors.NewPermissionDenied("You cannot post messages on this ticket")
	}
	msg, err := h.workflow.AddMessage(c.UserContext(), id, actor, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketMessageResponse(msg)})
}

// AgentQueue GET /api/agent/queue.
func (h *TicketsHandler) AgentQueue(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter, err := ticketFilter(c)
	if err != nil {
		return err
	}
	result, err := h.queries.AgentQueue(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketPageResponse(result))
}
