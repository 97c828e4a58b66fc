package dto

import (
	"time"

	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title" validate:"required,max=180"`
	Description string                `json:"description" validate:"max=10000"`
	Priority    domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AgentID string `json:"agent_id" validate:"required,uuid"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

// TicketResponse is the public shape of a ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	CreatedBy   string                `json:"created_by"`
	AssignedTo  *string               `json:"assigned_to"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	DueAt       *time.Time            `json:"due_at"`
	ResolvedAt  *time.Time            `json:"resolved_at"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketMessageResponse represents a conversation entry.
type TicketMessageResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketHistoryResponse represents an audit entry.
type TicketHistoryResponse struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketResponse
	Messages []TicketMessageResponse `json:"messages"`
	History  []TicketHistoryResponse `json:"history"`
}

// TicketPageResponse is one page of a ticket listing.
type TicketPageResponse struct {
	Data   []TicketResponse `json:"data"`
	Count  int              `json:"count"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		CreatedBy:   t.CreatedBy,
		AssignedTo:  t.AssignedTo,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		DueAt:       t.DueAt,
		ResolvedAt:  t.ResolvedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTicketMessageResponse maps a message.
func NewTicketMessageResponse(m *domain.TicketMessage) TicketMessageResponse {
	return TicketMessageResponse{
		ID:        m.ID,
		TicketID:  m.TicketID,
		AuthorID:  m.AuthorID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

// NewTicketDetailResponse maps a ticket with its conversation and history.
func NewTicketDetailResponse(detail *service.TicketDetail) TicketDetailResponse {
	messages := make([]TicketMessageResponse, 0, len(detail.Messages))
	for i := range detail.Messages {
		messages = append(messages, NewTicketMessageResponse(&detail.Messages[i]))
	}
	history := make([]TicketHistoryResponse, 0, len(detail.History))
	for _, h := range detail.History {
		history = append(history, TicketHistoryResponse{
			ID:        h.ID,
			ActorID:   h.ActorID,
			Field:     h.Field,
			OldValue:  h.OldValue,
			NewValue:  h.NewValue,
			CreatedAt: h.CreatedAt,
		})
	}
	return TicketDetailResponse{
		TicketResponse: NewTicketResponse(detail.Ticket),
		Messages:       messages,
		History:        history,
	}
}

// NewTicketPageResponse maps a listing page.
func NewTicketPageResponse(page *service.TicketPage) TicketPageResponse {
	items := make([]TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewTicketResponse(&page.Items[i]))
	}
	return TicketPageResponse{Data: items, Count: page.Count, Limit: page.Limit, Offset: page.Offset}
}
