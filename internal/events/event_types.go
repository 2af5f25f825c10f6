package events

import (
	"time"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketUpdated   EventType = "ticket_updated"
	EventTicketDeleted   EventType = "ticket_deleted"
	EventTicketCommented EventType = "ticket_commented"
)

// TicketEventTypes lists every ticket mutation event.
var TicketEventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketDeleted,
	EventTicketCommented,
}

// Action is the realtime action label for the event type.
func (t EventType) Action() string {
	switch t {
	case EventTicketCreated:
		return "created"
	case EventTicketDeleted:
		return "deleted"
	default:
		return "updated"
	}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string
	Type      EventType
	TicketID  string
	OwnerID   string
	ActorID   string
	Timestamp time.Time
	Payload   interface{}
}

// TicketPayload carries the ticket state after the mutation. For deletions
// it is the last state before removal.
type TicketPayload struct {
	Ticket *domain.Ticket
}

// CommentPayload accompanies EventTicketCommented.
type CommentPayload struct {
	Ticket  *domain.Ticket
	Comment domain.TicketComment
}

// TicketFromEvent extracts the ticket snapshot from a ticket event payload.
func TicketFromEvent(event Event) (*domain.Ticket, bool) {
	switch payload := event.Payload.(type) {
	case TicketPayload:
		return payload.Ticket, payload.Ticket != nil
	case CommentPayload:
		return payload.Ticket, payload.Ticket != nil
	default:
		return nil, false
	}
}
