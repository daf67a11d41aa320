package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complaintrack/complaint-service/internal/domain"
)

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates the Postgres-backed comment gateway.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, author_id, content, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Content,
		comment.CreatedAt,
		comment.UpdatedAt,
	).Scan(&comment.ID)
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.TicketComment) error {
	const query = `UPDATE ticket_comments SET content=$1, updated_at=$2 WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, comment.Content, comment.UpdatedAt, comment.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*domain.TicketComment, error) {
	const query = `
        SELECT c.id, c.ticket_id, c.author_id, c.content, c.created_at, c.updated_at,
               u.name, u.email, u.roles
        FROM ticket_comments c
        JOIN users u ON u.id = c.author_id
        WHERE c.id=$1`
	comment, err := scanComment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketComment, error) {
	const query = `
        SELECT c.id, c.ticket_id, c.author_id, c.content, c.created_at, c.updated_at,
               u.name, u.email, u.roles
        FROM ticket_comments c
        JOIN users u ON u.id = c.author_id
        WHERE c.ticket_id=$1
        ORDER BY c.created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows)
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanComment(row rowScanner) (*domain.TicketComment, error) {
	var (
		comment     domain.TicketComment
		authorName  string
		authorEmail string
		authorRoles []string
	)
	if err := row.Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.AuthorID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
		&authorName,
		&authorEmail,
		&authorRoles,
	); err != nil {
		return nil, err
	}
	comment.Author = &domain.User{
		ID:    comment.AuthorID,
		Name:  authorName,
		Email: authorEmail,
		Roles: toRoles(authorRoles),
	}
	return &comment, nil
}

func scanComments(rows pgx.Rows) ([]domain.TicketComment, error) {
	var result []domain.TicketComment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *comment)
	}
	return result, rows.Err()
}
