package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/complaintrack/complaint-service/internal/domain"
)

// MemoryStore is an in-process persistence gateway used when no Postgres DSN
// is configured, and by the test suite. Individual record writes are
// serialized by a single mutex; read-modify-write sequences spanning calls
// are not, so concurrent updaters resolve last-writer-wins, same as the SQL
// gateway.
type MemoryStore struct {
	mu            sync.RWMutex
	tickets       map[int64]domain.Ticket
	comments      map[int64]domain.TicketComment
	users         map[string]domain.User
	nextTicketID  int64
	nextCommentID int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets:  make(map[int64]domain.Ticket),
		comments: make(map[int64]domain.TicketComment),
		users:    make(map[string]domain.User),
	}
}

// Tickets returns the ticket gateway view.
func (s *MemoryStore) Tickets() TicketRepository { return &memoryTicketRepo{store: s} }

// Comments returns the comment gateway view.
func (s *MemoryStore) Comments() CommentRepository { return &memoryCommentRepo{store: s} }

// Users returns the user gateway view.
func (s *MemoryStore) Users() UserRepository { return &memoryUserRepo{store: s} }

type memoryTicketRepo struct {
	store *MemoryStore
}

func (r *memoryTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTicketID++
	ticket.ID = s.nextTicketID
	s.tickets[ticket.ID] = stripTicket(*ticket)
	return nil
}

func (r *memoryTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[ticket.ID]; !ok {
		return ErrNotFound
	}
	s.tickets[ticket.ID] = stripTicket(*ticket)
	return nil
}

func (r *memoryTicketRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	ticket := stored
	s.resolveTicketUsers(&ticket)
	ticket.Comments = s.commentsLocked(id)
	return &ticket, nil
}

func (r *memoryTicketRepo) List(ctx context.Context, q TicketQuery) ([]domain.Ticket, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if q.OwnerID != nil && !ownedBy(&t, *q.OwnerID) {
			continue
		}
		ticket := t
		s.resolveTicketUsers(&ticket)
		matched = append(matched, ticket)
	}

	// Newest id first as the base order so ties on the sort key resolve the
	// same way on every call; map iteration order would not.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	switch q.Sort {
	case SortPriority:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Priority.Rank() > matched[j].Priority.Rank()
		})
	case SortStatus:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Status.Ordinal() < matched[j].Status.Ordinal()
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	}

	total := len(matched)
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	offset := q.Offset()
	if offset >= total {
		return []domain.Ticket{}, total, nil
	}
	end := offset + pageSize
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *memoryTicketRepo) Delete(ctx context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(s.tickets, id)
	for cid, c := range s.comments {
		if c.TicketID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (r *memoryTicketRepo) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.DashboardStats{TicketsByCategory: map[string]int{}}
	for _, t := range s.tickets {
		stats.TotalTickets++
		switch t.Status {
		case domain.TicketStatusOpened:
			stats.OpenTickets++
		case domain.TicketStatusResolved:
			stats.ResolvedTickets++
		}
		if strings.TrimSpace(t.Category) != "" {
			stats.TicketsByCategory[t.Category]++
		}
	}
	return stats, nil
}

type memoryCommentRepo struct {
	store *MemoryStore
}

func (r *memoryCommentRepo) Create(ctx context.Context, comment *domain.TicketComment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCommentID++
	comment.ID = s.nextCommentID
	s.comments[comment.ID] = stripComment(*comment)
	return nil
}

func (r *memoryCommentRepo) Update(ctx context.Context, comment *domain.TicketComment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.comments[comment.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Content = comment.Content
	existing.UpdatedAt = comment.UpdatedAt
	s.comments[comment.ID] = existing
	return nil
}

func (r *memoryCommentRepo) GetByID(ctx context.Context, id int64) (*domain.TicketComment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	comment := stored
	s.resolveCommentAuthor(&comment)
	return &comment, nil
}

func (r *memoryCommentRepo) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketComment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commentsLocked(ticketID), nil
}

func (r *memoryCommentRepo) Delete(ctx context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type memoryUserRepo struct {
	store *MemoryStore
}

func (r *memoryUserRepo) Create(ctx context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.User
	for _, user := range s.users {
		if (&user).HasRole(role) {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memoryUserRepo) Count(ctx context.Context) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// commentsLocked returns resolved comments for a ticket, newest first.
// Caller must hold at least a read lock.
func (s *MemoryStore) commentsLocked(ticketID int64) []domain.TicketComment {
	result := []domain.TicketComment{}
	for _, c := range s.comments {
		if c.TicketID != ticketID {
			continue
		}
		comment := c
		s.resolveCommentAuthor(&comment)
		result = append(result, comment)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *MemoryStore) resolveTicketUsers(ticket *domain.Ticket) {
	if submitter, ok := s.users[ticket.SubmitterID]; ok {
		u := submitter
		ticket.Submitter = &u
	}
	if ticket.AssignedAgentID != nil {
		if agent, ok := s.users[*ticket.AssignedAgentID]; ok {
			u := agent
			ticket.AssignedAgent = &u
		}
	}
}

func (s *MemoryStore) resolveCommentAuthor(comment *domain.TicketComment) {
	if author, ok := s.users[comment.AuthorID]; ok {
		u := author
		comment.Author = &u
	}
}

func ownedBy(t *domain.Ticket, userID string) bool {
	if t.SubmitterID == userID {
		return true
	}
	return t.AssignedAgentID != nil && *t.AssignedAgentID == userID
}

// stripTicket stores the record without resolved relations so stale
// projections never leak back out of the store.
func stripTicket(t domain.Ticket) domain.Ticket {
	t.Submitter = nil
	t.AssignedAgent = nil
	t.Comments = nil
	return t
}

func stripComment(c domain.TicketComment) domain.TicketComment {
	c.Author = nil
	return c
}
