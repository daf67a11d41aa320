package repository

import (
	"context"
	"errors"

	"github.com/complaintrack/complaint-service/internal/domain"
)

// ErrNotFound is returned when a record does not exist. Implementations
// translate their driver-level sentinel to this one.
var ErrNotFound = errors.New("record not found")

// Ticket sort keys. Unrecognized keys fall back to SortDate.
const (
	SortPriority = "priority"
	SortDate     = "date"
	SortStatus   = "status"
)

// TicketQuery captures listing parameters. Page is 1-based; a page past the
// end of the data yields an empty slice. OwnerID, when set, restricts results
// to tickets the user submitted or is assigned to.
type TicketQuery struct {
	OwnerID  *string
	Sort     string
	Page     int
	PageSize int
}

// Offset returns the slice offset for the query.
func (q TicketQuery) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.PageSize
}

// TicketRepository is the persistence gateway for tickets. GetByID eagerly
// resolves submitter, assigned agent, and comments with their authors; List
// resolves submitter and agent only.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, query TicketQuery) ([]domain.Ticket, int, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*domain.DashboardStats, error)
}

// CommentRepository is the persistence gateway for ticket comments.
// ListByTicket resolves authors and orders newest first.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.TicketComment) error
	Update(ctx context.Context, comment *domain.TicketComment) error
	GetByID(ctx context.Context, id int64) (*domain.TicketComment, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketComment, error)
	Delete(ctx context.Context, id int64) error
}

// UserRepository resolves identity-provider accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
}
