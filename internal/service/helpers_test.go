package service

import (
	"context"
	"testing"

	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/events"
	"github.com/spec-kit/complaint-desk/internal/repository/memory"
)

var testAuthConfig = config.AuthConfig{JWTSecret: "test-secret", TokenTTLHours: 168, BcryptCost: 4}

type fixture struct {
	store      *memory.Store
	auth       *AuthService
	tickets    *TicketService
	dispatcher events.Dispatcher
	published  []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), dispatcher: events.NewInMemoryDispatcher()}
	for _, eventType := range events.TicketEventTypes {
		f.dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			f.published = append(f.published, event)
			return nil
		})
	}
	f.auth = NewAuthService(testAuthConfig, f.store.Users())
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:  f.store.Tickets(),
		CommentRepo: f.store.Comments(),
		Dispatcher:  f.dispatcher,
	})
	return f
}

func (f *fixture) student(t *testing.T, studentID string) *domain.User {
	t.Helper()
	user, err := f.auth.RegisterStudent(context.Background(), RegisterStudentInput{
		StudentID: studentID,
		Name:      "Student " + studentID,
		Email:     studentID + "@school.edu",
		Course:    "BSCS",
		YearLevel: "3",
		Password:  "secret123",
	})
	if err != nil {
		t.Fatalf("RegisterStudent(%s) unexpected error: %v", studentID, err)
	}
	return user
}

func (f *fixture) ticket(t *testing.T, owner *domain.User, subject string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Create(context.Background(), owner.ID, TicketCreateInput{
		Category:    "facility-issue",
		Subject:     subject,
		Description: "description of " + subject,
	})
	if err != nil {
		t.Fatalf("Create(%s) unexpected error: %v", subject, err)
	}
	return ticket
}
