package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/api/dto"
	"github.com/spec-kit/complaint-desk/internal/events"
)

// RealtimePublisher delivers frames to connected clients.
type RealtimePublisher interface {
	BroadcastTicketEvent(ticketID, announceTo string, data any)
	NotifyUser(userID string, data any)
}

// NotificationService turns ticket events into realtime frames.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  RealtimePublisher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, publisher RealtimePublisher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.TicketEventTypes {
		n.dispatcher.Subscribe(eventType, n.handleTicketEvent)
	}
}

func (n *NotificationService) handleTicketEvent(_ context.Context, event events.Event) error {
	ticket, ok := events.TicketFromEvent(event)
	if !ok {
		n.logger.Warn("ticket event without ticket payload", zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID))
		return nil
	}
	n.logger.Debug("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("owner_id", event.OwnerID))

	if n.publisher == nil {
		return nil
	}
	// Only creation is announced on the owner's private topic; later changes
	// reach whoever joined the ticket and stop once they leave it.
	announceTo := ""
	if event.Type == events.EventTicketCreated {
		announceTo = event.OwnerID
	}
	n.publisher.BroadcastTicketEvent(event.TicketID, announceTo, dto.TicketEvent{
		Action: event.Type.Action(),
		Ticket: dto.NewTicketResponse(ticket),
	})
	n.publisher.NotifyUser(event.OwnerID, dto.Notification{
		Type:      string(event.Type),
		TicketID:  event.TicketID,
		Subject:   ticket.Subject,
		Message:   notificationMessage(event.Type, ticket.Subject),
		CreatedAt: event.Timestamp,
	})
	return nil
}

func notificationMessage(eventType events.EventType, subject string) string {
	switch eventType {
	case events.EventTicketCreated:
		return "Ticket \"" + subject + "\" was submitted"
	case events.EventTicketDeleted:
		return "Ticket \"" + subject + "\" was deleted"
	case events.EventTicketCommented:
		return "New comment on \"" + subject + "\""
	default:
		return "Ticket \"" + subject + "\" was updated"
	}
}
