package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// TicketCommentRepository manages the comment thread embedded in each ticket.
type TicketCommentRepository interface {
	Create(ctx context.Context, comment *domain.TicketComment) error
	ListByTickets(ctx context.Context, ticketIDs []string) (map[string][]domain.TicketComment, error)
}

type ticketCommentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketCommentRepository builds repository.
func NewTicketCommentRepository(pool *pgxpool.Pool) TicketCommentRepository {
	return &ticketCommentRepository{pool: pool}
}

func (r *ticketCommentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, user_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.UserID,
		comment.Text,
	).Scan(&comment.ID, &comment.CreatedAt)
	return translateError(err)
}

func (r *ticketCommentRepository) ListByTickets(ctx context.Context, ticketIDs []string) (map[string][]domain.TicketComment, error) {
	result := make(map[string][]domain.TicketComment, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT id, ticket_id, user_id, body, created_at
        FROM ticket_comments WHERE ticket_id = ANY($1) ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var comment domain.TicketComment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.UserID,
			&comment.Text,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[comment.TicketID] = append(result[comment.TicketID], comment)
	}
	return result, rows.Err()
}
