package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complaintrack/complaint-service/internal/domain"
)

const ticketColumns = `t.id, t.title, t.description, t.category, t.priority, t.status,
       t.created_at, t.updated_at, t.closed_at, t.attachment_path, t.submitter_id, t.assigned_agent_id`

const ticketJoins = `
       s.name, s.email, s.roles,
       a.name, a.email, a.roles
  FROM tickets t
  JOIN users s ON s.id = t.submitter_id
  LEFT JOIN users a ON a.id = t.assigned_agent_id`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed ticket gateway.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, priority, status, created_at,
                             updated_at, closed_at, attachment_path, submitter_id, assigned_agent_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.ClosedAt,
		ticket.AttachmentPath,
		ticket.SubmitterID,
		ticket.AssignedAgentID,
	).Scan(&ticket.ID)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, priority=$4, status=$5,
            updated_at=$6, closed_at=$7, attachment_path=$8, assigned_agent_id=$9
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.UpdatedAt,
		ticket.ClosedAt,
		ticket.AttachmentPath,
		ticket.AssignedAgentID,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `,` + ticketJoins + ` WHERE t.id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	ticket, err := scanTicketRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	comments, err := r.commentsForTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Comments = comments
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, q TicketQuery) ([]domain.Ticket, int, error) {
	where := "1=1"
	args := []any{}
	if q.OwnerID != nil {
		args = append(args, *q.OwnerID)
		where = "(t.submitter_id=$1 OR t.assigned_agent_id=$1)"
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tickets t WHERE %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	query := fmt.Sprintf(`SELECT %s,%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		ticketColumns, ticketJoins, where, orderClause(q.Sort), pageSize, q.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{TicketsByCategory: map[string]int{}}

	const countsQuery = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='OPENED'),
               COUNT(*) FILTER (WHERE status='RESOLVED')
        FROM tickets`
	if err := r.pool.QueryRow(ctx, countsQuery).Scan(
		&stats.TotalTickets, &stats.OpenTickets, &stats.ResolvedTickets); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT category, COUNT(*) FROM tickets WHERE category <> '' GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.TicketsByCategory[category] = count
	}
	return stats, rows.Err()
}

func (r *ticketRepository) commentsForTicket(ctx context.Context, ticketID int64) ([]domain.TicketComment, error) {
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

// orderClause maps a sort key to SQL ordering. Priority sorts by severity
// rank descending; status sorts by enum ordinal ascending; anything else
// falls back to newest first.
func orderClause(sort string) string {
	switch sort {
	case SortPriority:
		return `CASE t.priority WHEN 'CRITICAL' THEN 3 WHEN 'HIGH' THEN 2 WHEN 'MEDIUM' THEN 1 ELSE 0 END DESC`
	case SortStatus:
		return `CASE t.status WHEN 'OPENED' THEN 0 WHEN 'ASSIGNED' THEN 1 WHEN 'RESOLVED' THEN 2 ELSE 3 END ASC`
	default:
		return `t.created_at DESC`
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketRow(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket         domain.Ticket
		submitterName  string
		submitterEmail string
		submitterRoles []string
		agentName      *string
		agentEmail     *string
		agentRoles     []string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
		&ticket.AttachmentPath,
		&ticket.SubmitterID,
		&ticket.AssignedAgentID,
		&submitterName,
		&submitterEmail,
		&submitterRoles,
		&agentName,
		&agentEmail,
		&agentRoles,
	); err != nil {
		return nil, err
	}

	ticket.Submitter = &domain.User{
		ID:    ticket.SubmitterID,
		Name:  submitterName,
		Email: submitterEmail,
		Roles: toRoles(submitterRoles),
	}
	if ticket.AssignedAgentID != nil && agentName != nil {
		ticket.AssignedAgent = &domain.User{
			ID:    *ticket.AssignedAgentID,
			Name:  *agentName,
			Email: derefString(agentEmail),
			Roles: toRoles(agentRoles),
		}
	}
	return &ticket, nil
}

func toRoles(raw []string) []domain.Role {
	roles := make([]domain.Role, 0, len(raw))
	for _, r := range raw {
		roles = append(roles, domain.Role(r))
	}
	return roles
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
