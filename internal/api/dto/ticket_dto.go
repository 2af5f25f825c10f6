package dto

import (
	"time"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Category    string `json:"category"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// UpdateTicketRequest payload. Only the description is editable.
type UpdateTicketRequest struct {
	Description string `json:"description"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Text string `json:"text"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	Student     string                `json:"student"`
	Category    domain.TicketCategory `json:"category"`
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	AssignedTo  *string               `json:"assignedTo"`
	Comments    []CommentResponse     `json:"comments"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// CommentResponse is one entry of a ticket thread.
type CommentResponse struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// TicketEnvelope wraps a single ticket response.
type TicketEnvelope struct {
	Success bool           `json:"success"`
	Ticket  TicketResponse `json:"ticket"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Success    bool             `json:"success"`
	Tickets    []TicketResponse `json:"tickets"`
	TotalPages int              `json:"totalPages"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int              `json:"total"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TicketEvent is the data of a realtime ticketUpdate frame.
type TicketEvent struct {
	Action string         `json:"action"`
	Ticket TicketResponse `json:"ticket"`
}

// Notification is the data of a realtime notification frame.
type Notification struct {
	Type      string    `json:"type"`
	TicketID  string    `json:"ticketId"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTicketResponse maps a domain ticket to its wire form.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	comments := make([]CommentResponse, 0, len(ticket.Comments))
	for _, comment := range ticket.Comments {
		comments = append(comments, CommentResponse{
			ID:        comment.ID,
			User:      comment.UserID,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		})
	}
	return TicketResponse{
		ID:          ticket.ID,
		Student:     ticket.OwnerID,
		Category:    ticket.Category,
		Subject:     ticket.Subject,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		AssignedTo:  ticket.AssignedTo,
		Comments:    comments,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketResponses maps a slice of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}
