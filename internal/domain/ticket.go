package domain

import "time"

// TicketCategory enumerates complaint categories.
type TicketCategory string

const (
	CategoryBullying          TicketCategory = "bullying"
	CategoryGradeConsultation TicketCategory = "grade-consultation"
	CategoryTeacherAbuse      TicketCategory = "teacher-abuse"
	CategoryFacilityIssue     TicketCategory = "facility-issue"
	CategoryOther             TicketCategory = "other"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusRejected   TicketStatus = "rejected"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Field limits enforced on create and update.
const (
	MaxSubjectLength     = 100
	MaxDescriptionLength = 1000
	MaxCommentLength     = 1000
)

// Ticket is a complaint or inquiry owned by exactly one student.
type Ticket struct {
	ID          string
	OwnerID     string
	Category    TicketCategory
	Subject     string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	AssignedTo  *string
	Comments    []TicketComment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TicketComment is an entry in a ticket's ordered comment thread.
type TicketComment struct {
	ID        string
	TicketID  string
	UserID    string
	Text      string
	CreatedAt time.Time
}

// Valid reports whether c is one of the known categories.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryBullying, CategoryGradeConsultation, CategoryTeacherAbuse, CategoryFacilityIssue, CategoryOther:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusResolved, TicketStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further edits are accepted in this status.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusRejected
}

// Valid reports whether p is one of the known priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// IsOwnedBy reports whether userID filed the ticket.
func (t *Ticket) IsOwnedBy(userID string) bool {
	return t != nil && t.OwnerID == userID
}

// Clone returns a deep copy so stores never share comment slices with callers.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	out := *t
	if t.AssignedTo != nil {
		assignee := *t.AssignedTo
		out.AssignedTo = &assignee
	}
	out.Comments = append([]TicketComment(nil), t.Comments...)
	return &out
}
