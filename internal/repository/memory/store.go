// Package memory provides process-local implementations of the repository
// interfaces. The API falls back to it when no Postgres DSN is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

// Store holds users, tickets and comments behind a single lock.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[string]*domain.User
	tickets  map[string]*domain.Ticket
	comments map[string][]domain.TicketComment
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[string]*domain.User),
		tickets:  make(map[string]*domain.Ticket),
		comments: make(map[string][]domain.TicketComment),
	}
}

// WithClock replaces the timestamp source; intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Users exposes the store as a UserRepository.
func (s *Store) Users() repository.UserRepository { return userStore{s} }

// Tickets exposes the store as a TicketRepository.
func (s *Store) Tickets() repository.TicketRepository { return ticketStore{s} }

// Comments exposes the store as a TicketCommentRepository.
func (s *Store) Comments() repository.TicketCommentRepository { return commentStore{s} }

type userStore struct{ s *Store }

func (u userStore) Create(_ context.Context, user *domain.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.StudentID == user.StudentID || strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (u userStore) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	return nil
}

func (u userStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (u userStore) GetByStudentID(_ context.Context, studentID string) (*domain.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.StudentID == studentID {
			out := *user
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

type ticketStore struct{ s *Store }

func (t ticketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ticket.OwnerID]; !ok {
		return repository.ErrNotFound
	}
	now := s.now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (t ticketStore) Update(_ context.Context, ticket *domain.Ticket) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Description = ticket.Description
	stored.Status = ticket.Status
	stored.Priority = ticket.Priority
	stored.AssignedTo = ticket.Clone().AssignedTo
	stored.UpdatedAt = s.now()
	ticket.UpdatedAt = stored.UpdatedAt
	return nil
}

func (t ticketStore) Delete(_ context.Context, id string) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.tickets, id)
	delete(s.comments, id)
	return nil
}

func (t ticketStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s := t.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ticket.Clone(), nil
}

func (t ticketStore) ListByOwner(_ context.Context, opts repository.TicketListOptions) ([]domain.Ticket, error) {
	s := t.s
	s.mu.RLock()
	owned := make([]domain.Ticket, 0)
	for _, ticket := range s.tickets {
		if ticket.OwnerID == opts.OwnerID {
			owned = append(owned, *ticket.Clone())
		}
	}
	s.mu.RUnlock()

	less := lessFor(opts.SortField)
	sort.SliceStable(owned, func(i, j int) bool {
		a, b := &owned[i], &owned[j]
		if opts.Descending {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.ID < b.ID
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(owned) {
		return []domain.Ticket{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (t ticketStore) CountByOwner(_ context.Context, ownerID string) (int, error) {
	s := t.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, ticket := range s.tickets {
		if ticket.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func lessFor(field repository.TicketSortField) func(a, b *domain.Ticket) bool {
	switch field {
	case repository.SortBySubject:
		return func(a, b *domain.Ticket) bool { return a.Subject < b.Subject }
	case repository.SortByCategory:
		return func(a, b *domain.Ticket) bool { return a.Category < b.Category }
	case repository.SortByStatus:
		return func(a, b *domain.Ticket) bool { return a.Status < b.Status }
	case repository.SortByPriority:
		return func(a, b *domain.Ticket) bool { return a.Priority < b.Priority }
	default:
		return func(a, b *domain.Ticket) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

type commentStore struct{ s *Store }

func (c commentStore) Create(_ context.Context, comment *domain.TicketComment) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[comment.TicketID]; !ok {
		return repository.ErrNotFound
	}
	comment.ID = uuid.NewString()
	comment.CreatedAt = s.now()
	s.comments[comment.TicketID] = append(s.comments[comment.TicketID], *comment)
	return nil
}

func (c commentStore) ListByTickets(_ context.Context, ticketIDs []string) (map[string][]domain.TicketComment, error) {
	s := c.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]domain.TicketComment, len(ticketIDs))
	for _, id := range ticketIDs {
		if thread, ok := s.comments[id]; ok {
			result[id] = append([]domain.TicketComment(nil), thread...)
		}
	}
	return result, nil
}
