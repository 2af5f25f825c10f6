package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/events"
	"github.com/spec-kit/complaint-desk/internal/repository"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util/errorutil"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TicketService coordinates ticket workflows. Every operation is scoped to
// the calling student.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.TicketCommentRepository
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Category    string
	Subject     string
	Description string
	Priority    string
}

// TicketListQuery holds raw paging and sorting input. Zero values select
// the defaults: page 1, 10 per page, newest first.
type TicketListQuery struct {
	Page      int
	Limit     int
	Sort      string
	Direction string
}

// TicketPage is one page of a student's tickets.
type TicketPage struct {
	Tickets    []domain.Ticket
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// List returns the caller's tickets ordered and paginated per query.
func (s *TicketService) List(ctx context.Context, ownerID string, query TicketListQuery) (*TicketPage, error) {
	opts, page, err := normalizeListQuery(query)
	if err != nil {
		return nil, err
	}
	opts.OwnerID = ownerID

	tickets, err := s.tickets.ListByOwner(ctx, opts)
	if err != nil {
		return nil, err
	}
	total, err := s.tickets.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.attachComments(ctx, tickets); err != nil {
		return nil, err
	}

	return &TicketPage{
		Tickets:    tickets,
		Page:       page,
		Limit:      opts.Limit,
		Total:      total,
		TotalPages: (total + opts.Limit - 1) / opts.Limit,
	}, nil
}

// Create files a new pending ticket for the caller.
func (s *TicketService) Create(ctx context.Context, ownerID string, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		OwnerID:     ownerID,
		Category:    domain.TicketCategory(strings.TrimSpace(input.Category)),
		Subject:     strings.TrimSpace(input.Subject),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusPending,
		Priority:    domain.TicketPriority(strings.TrimSpace(input.Priority)),
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if err := validateNewTicket(ticket); err != nil {
		return nil, err
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, err
	}
	ticket.Comments = []domain.TicketComment{}

	s.publishEvent(ctx, events.EventTicketCreated, ownerID, ticket, events.TicketPayload{Ticket: ticket.Clone()})
	return ticket, nil
}

// Get returns a single ticket. Existence is checked before ownership, so a
// non-owner learns that the id exists.
func (s *TicketService) Get(ctx context.Context, ownerID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadOwned(ctx, ownerID, ticketID, "access")
	if err != nil {
		return nil, err
	}
	if err := s.attachComment(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Update replaces the description of a ticket that is not yet closed out.
func (s *TicketService) Update(ctx context.Context, ownerID, ticketID, description string) (*domain.Ticket, error) {
	ticket, err := s.loadMutable(ctx, ownerID, ticketID, "update")
	if err != nil {
		return nil, err
	}

	description = strings.TrimSpace(description)
	if err := validateText("description", description, domain.MaxDescriptionLength); err != nil {
		return nil, err
	}
	ticket.Description = description

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.mapTicketError(err)
	}
	if err := s.attachComment(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventTicketUpdated, ownerID, ticket, events.TicketPayload{Ticket: ticket.Clone()})
	return ticket, nil
}

// Delete removes a ticket and its comment thread. It follows the same
// checks as Update, so closed-out tickets are kept.
func (s *TicketService) Delete(ctx context.Context, ownerID, ticketID string) error {
	ticket, err := s.loadMutable(ctx, ownerID, ticketID, "delete")
	if err != nil {
		return err
	}
	if err := s.attachComment(ctx, ticket); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return s.mapTicketError(err)
	}

	s.publishEvent(ctx, events.EventTicketDeleted, ownerID, ticket, events.TicketPayload{Ticket: ticket.Clone()})
	return nil
}

// AddComment appends a comment by the owner to an open ticket.
func (s *TicketService) AddComment(ctx context.Context, ownerID, ticketID, text string) (*domain.Ticket, error) {
	ticket, err := s.loadMutable(ctx, ownerID, ticketID, "comment on")
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if err := validateText("text", text, domain.MaxCommentLength); err != nil {
		return nil, err
	}
	comment := &domain.TicketComment{TicketID: ticket.ID, UserID: ownerID, Text: text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, s.mapTicketError(err)
	}
	if err := s.attachComment(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventTicketCommented, ownerID, ticket, events.CommentPayload{Ticket: ticket.Clone(), Comment: *comment})
	return ticket, nil
}

// OwnsTicket reports whether userID owns ticketID. Lookup failures count as
// not owned.
func (s *TicketService) OwnsTicket(ctx context.Context, userID, ticketID string) bool {
	if _, err := uuid.Parse(ticketID); err != nil {
		return false
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return false
	}
	return ticket.IsOwnedBy(userID)
}

func (s *TicketService) loadOwned(ctx context.Context, ownerID, ticketID, verb string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(ticketID); err != nil {
		return nil, apperrors.NewValidationError("Invalid ticket ID", map[string]any{"id": ticketID})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.mapTicketError(err)
	}
	if !ticket.IsOwnedBy(ownerID) {
		return nil, apperrors.NewForbidden("Not authorized to " + verb + " this ticket")
	}
	return ticket, nil
}

func (s *TicketService) loadMutable(ctx context.Context, ownerID, ticketID, verb string) (*domain.Ticket, error) {
	ticket, err := s.loadOwned(ctx, ownerID, ticketID, verb)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewInvalidState("Cannot "+verb+" a resolved or rejected ticket", map[string]any{"status": ticket.Status})
	}
	return ticket, nil
}

func (s *TicketService) attachComment(ctx context.Context, ticket *domain.Ticket) error {
	tickets := []domain.Ticket{*ticket}
	if err := s.attachComments(ctx, tickets); err != nil {
		return err
	}
	ticket.Comments = tickets[0].Comments
	return nil
}

func (s *TicketService) attachComments(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 || s.comments == nil {
		for i := range tickets {
			tickets[i].Comments = []domain.TicketComment{}
		}
		return nil
	}
	ids := make([]string, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
	}
	threads, err := s.comments.ListByTickets(ctx, ids)
	if err != nil {
		return err
	}
	for i := range tickets {
		thread := threads[tickets[i].ID]
		if thread == nil {
			thread = []domain.TicketComment{}
		}
		tickets[i].Comments = thread
	}
	return nil
}

func (s *TicketService) mapTicketError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("Ticket", nil)
	}
	return err
}

func (s *TicketService) publishEvent(ctx context.Context, eventType events.EventType, actorID string, ticket *domain.Ticket, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		OwnerID:   ticket.OwnerID,
		ActorID:   actorID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

func normalizeListQuery(query TicketListQuery) (repository.TicketListOptions, int, error) {
	details := map[string]any{}

	page := query.Page
	switch {
	case page == 0:
		page = 1
	case page < 0:
		details["page"] = "must be a positive integer"
	}

	limit := query.Limit
	switch {
	case limit == 0:
		limit = DefaultPageSize
	case limit < 0:
		details["limit"] = "must be a positive integer"
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if page > 1 && limit > 0 && page-1 > math.MaxInt32/limit {
		details["page"] = "is out of range"
	}

	sortField := repository.SortByCreatedAt
	if raw := strings.TrimSpace(query.Sort); raw != "" {
		field, ok := repository.ParseTicketSortField(raw)
		if !ok {
			details["sort"] = "must be one of subject, category, status, priority, createdAt"
		}
		sortField = field
	}

	descending := true
	switch strings.ToLower(strings.TrimSpace(query.Direction)) {
	case "", "desc":
	case "asc":
		descending = false
	default:
		details["direction"] = "must be asc or desc"
	}

	if len(details) > 0 {
		return repository.TicketListOptions{}, 0, apperrors.NewValidationError("Invalid list parameters", details)
	}
	return repository.TicketListOptions{
		SortField:  sortField,
		Descending: descending,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}, page, nil
}

func validateNewTicket(ticket *domain.Ticket) error {
	if ticket.Category == "" || ticket.Subject == "" || ticket.Description == "" {
		missing := map[string]any{}
		if ticket.Category == "" {
			missing["category"] = "required"
		}
		if ticket.Subject == "" {
			missing["subject"] = "required"
		}
		if ticket.Description == "" {
			missing["description"] = "required"
		}
		return apperrors.NewValidationError("Please provide all required fields", missing)
	}

	details := map[string]any{}
	if !ticket.Category.Valid() {
		details["category"] = "must be one of bullying, grade-consultation, teacher-abuse, facility-issue, other"
	}
	if !ticket.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high"
	}
	if utf8.RuneCountInString(ticket.Subject) > domain.MaxSubjectLength {
		details["subject"] = "must be at most 100 characters"
	}
	if utf8.RuneCountInString(ticket.Description) > domain.MaxDescriptionLength {
		details["description"] = "must be at most 1000 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("Invalid ticket", details)
	}
	return nil
}

func validateText(field, value string, max int) error {
	if value == "" {
		return apperrors.NewValidationError("Please provide "+field, map[string]any{field: "required"})
	}
	if utf8.RuneCountInString(value) > max {
		return apperrors.NewValidationError(field+" is too long", map[string]any{field: "too long"})
	}
	return nil
}
