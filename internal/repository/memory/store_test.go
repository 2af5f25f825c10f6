package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

type steppingClock struct {
	t time.Time
}

func (c *steppingClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func seedUser(t *testing.T, store *Store, studentID, email string) *domain.User {
	t.Helper()
	user := &domain.User{StudentID: studentID, Email: email, Name: "Student " + studentID}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	return user
}

func TestUserUniqueness(t *testing.T) {
	store := NewStore()
	seedUser(t, store, "21-0001", "a@school.edu")

	err := store.Users().Create(context.Background(), &domain.User{StudentID: "21-0001", Email: "b@school.edu"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("duplicate student id error = %v, want ErrDuplicate", err)
	}
	err = store.Users().Create(context.Background(), &domain.User{StudentID: "21-0002", Email: "A@school.edu"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("duplicate email error = %v, want ErrDuplicate", err)
	}
}

func TestListByOwnerSortsAndPaginates(t *testing.T) {
	clock := &steppingClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewStore().WithClock(clock.Now)
	ctx := context.Background()
	owner := seedUser(t, store, "21-0001", "a@school.edu")
	other := seedUser(t, store, "21-0002", "b@school.edu")

	for _, subject := range []string{"b", "c", "a"} {
		ticket := &domain.Ticket{OwnerID: owner.ID, Subject: subject, Status: domain.TicketStatusPending}
		if err := store.Tickets().Create(ctx, ticket); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
	}
	if err := store.Tickets().Create(ctx, &domain.Ticket{OwnerID: other.ID, Subject: "z"}); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	newest, err := store.Tickets().ListByOwner(ctx, repository.TicketListOptions{
		OwnerID: owner.ID, SortField: repository.SortByCreatedAt, Descending: true, Limit: 2,
	})
	if err != nil {
		t.Fatalf("ListByOwner() unexpected error: %v", err)
	}
	if len(newest) != 2 || newest[0].Subject != "a" || newest[1].Subject != "c" {
		t.Errorf("newest first = %v, want [a c]", subjects(newest))
	}

	bySubject, err := store.Tickets().ListByOwner(ctx, repository.TicketListOptions{
		OwnerID: owner.ID, SortField: repository.SortBySubject, Limit: 10, Offset: 1,
	})
	if err != nil {
		t.Fatalf("ListByOwner() unexpected error: %v", err)
	}
	if got := subjects(bySubject); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("subject asc offset 1 = %v, want [b c]", got)
	}

	count, err := store.Tickets().CountByOwner(ctx, owner.ID)
	if err != nil || count != 3 {
		t.Errorf("CountByOwner() = %d, %v, want 3", count, err)
	}
}

func TestDeleteRemovesComments(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	owner := seedUser(t, store, "21-0001", "a@school.edu")
	ticket := &domain.Ticket{OwnerID: owner.ID, Subject: "s"}
	if err := store.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if err := store.Comments().Create(ctx, &domain.TicketComment{TicketID: ticket.ID, UserID: owner.ID, Text: "hi"}); err != nil {
		t.Fatalf("Create comment unexpected error: %v", err)
	}

	if err := store.Tickets().Delete(ctx, ticket.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := store.Tickets().GetByID(ctx, ticket.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	threads, _ := store.Comments().ListByTickets(ctx, []string{ticket.ID})
	if len(threads[ticket.ID]) != 0 {
		t.Errorf("comments survived ticket deletion")
	}
	if err := store.Tickets().Delete(ctx, ticket.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestGetByIDReturnsCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	owner := seedUser(t, store, "21-0001", "a@school.edu")
	ticket := &domain.Ticket{OwnerID: owner.ID, Description: "original"}
	if err := store.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	fetched, _ := store.Tickets().GetByID(ctx, ticket.ID)
	fetched.Description = "mutated without Update"

	again, _ := store.Tickets().GetByID(ctx, ticket.ID)
	if again.Description != "original" {
		t.Errorf("Description = %q, store must not alias returned tickets", again.Description)
	}
}

func subjects(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, ticket.Subject)
	}
	return out
}
