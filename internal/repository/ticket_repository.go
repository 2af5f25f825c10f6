package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// TicketSortField is a caller-selectable ordering key.
type TicketSortField string

const (
	SortBySubject   TicketSortField = "subject"
	SortByCategory  TicketSortField = "category"
	SortByStatus    TicketSortField = "status"
	SortByPriority  TicketSortField = "priority"
	SortByCreatedAt TicketSortField = "createdAt"
)

var ticketSortColumns = map[TicketSortField]string{
	SortBySubject:   "subject",
	SortByCategory:  "category",
	SortByStatus:    "status",
	SortByPriority:  "priority",
	SortByCreatedAt: "created_at",
}

// ParseTicketSortField maps a query value onto the sort allowlist.
func ParseTicketSortField(value string) (TicketSortField, bool) {
	field := TicketSortField(value)
	_, ok := ticketSortColumns[field]
	return field, ok
}

// TicketListOptions scopes a listing to one owner, ordered and paginated.
type TicketListOptions struct {
	OwnerID    string
	SortField  TicketSortField
	Descending bool
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByOwner(ctx context.Context, opts TicketListOptions) ([]domain.Ticket, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, owner_id, category, subject, description, status, priority, assigned_to, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (owner_id, category, subject, description, status, priority, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.OwnerID,
		ticket.Category,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translateError(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET description=$1, status=$2, priority=$3, assigned_to=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return translateError(err)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	row := r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
	if err := scanTicket(row, &ticket); err != nil {
		return nil, translateError(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByOwner(ctx context.Context, opts TicketListOptions) ([]domain.Ticket, error) {
	query, args := buildListQuery(opts)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE owner_id=$1`, ownerID).Scan(&count); err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// buildListQuery only interpolates allowlisted column names; values stay parameterized.
func buildListQuery(opts TicketListOptions) (string, []any) {
	column, ok := ticketSortColumns[opts.SortField]
	if !ok {
		column = ticketSortColumns[SortByCreatedAt]
	}
	direction := "ASC"
	if opts.Descending {
		direction = "DESC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE owner_id=$1 ORDER BY %s %s, id %s LIMIT $2 OFFSET $3`,
		ticketColumns, column, direction, direction)
	return query, []any{opts.OwnerID, limit, offset}
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.OwnerID,
		&ticket.Category,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.AssignedTo,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
