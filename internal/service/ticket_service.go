package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/complaintrack/complaint-service/internal/cache"
	"github.com/complaintrack/complaint-service/internal/domain"
	"github.com/complaintrack/complaint-service/internal/events"
	"github.com/complaintrack/complaint-service/internal/repository"
	"github.com/complaintrack/complaint-service/internal/storage"
	"github.com/complaintrack/complaint-service/pkg/util/errorutil"
)

// TicketService owns the complaint lifecycle: it is the only writer of
// ticket status, assignment, close timestamps, and attachment references.
// Authorization is the caller's concern; this service trusts the ids it is
// handed.
type TicketService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	attachments storage.AttachmentStore
	dispatcher  events.Dispatcher
	stats       *cache.StatsCache
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo      repository.TicketRepository
	UserRepo        repository.UserRepository
	AttachmentStore storage.AttachmentStore
	Dispatcher      events.Dispatcher
	StatsCache      *cache.StatsCache
	Logger          *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Priority    domain.TicketPriority
	Attachment  *AttachmentUpload
}

// AttachmentUpload carries raw upload bytes and the client-side filename.
type AttachmentUpload struct {
	Data     []byte
	Filename string
}

// PaginatedResult is one page of a ticket listing, with enough metadata for
// the caller to compute page count without re-querying.
type PaginatedResult struct {
	Items       []domain.Ticket `json:"items"`
	TotalCount  int             `json:"total_count"`
	PageNumber  int             `json:"page_number"`
	PageSize    int             `json:"page_size"`
}

// TotalPages derives the page count.
func (p *PaginatedResult) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

// DefaultPageSize applies when the caller passes no positive page size.
const DefaultPageSize = 10

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		attachments: deps.AttachmentStore,
		dispatcher:  deps.Dispatcher,
		stats:       deps.StatsCache,
		logger:      deps.Logger,
	}
}

// Create validates and persists a new ticket for the submitter. An attachment,
// when present, is stored before the record; a stored file is not rolled back
// if the insert then fails. The admin address is notified after persistence.
func (s *TicketService) Create(ctx context.Context, submitterID string, input TicketCreateInput) (*domain.Ticket, error) {
	now := time.Now().UTC()
	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Priority:    input.Priority,
		Status:      domain.TicketStatusOpened,
		CreatedAt:   now,
		SubmitterID: submitterID,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if err := ticket.Validate(); err != nil {
		return nil, err
	}

	if input.Attachment != nil && len(input.Attachment.Data) > 0 {
		path, err := s.attachments.Save(input.Attachment.Data, input.Attachment.Filename)
		if err != nil {
			s.logger.Error("store attachment", zap.Error(err))
			return nil, errorutil.NewStorageError("failed to store attachment", err)
		}
		ticket.AttachmentPath = &path
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.logger.Error("create ticket", zap.Error(err))
		return nil, errorutil.NewStorageError("failed to create ticket", err)
	}
	s.logger.Info("ticket created", zap.Int64("ticket_id", ticket.ID), zap.String("submitter_id", submitterID))

	submitterEmail := ""
	if submitter, err := s.users.GetByID(ctx, submitterID); err == nil {
		ticket.Submitter = submitter
		submitterEmail = submitter.Email
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:          ticket.Title,
			Priority:       ticket.Priority,
			SubmitterEmail: submitterEmail,
		},
	})
	s.stats.Invalidate(ctx)
	return ticket, nil
}

// GetByID returns the ticket with submitter, assigned agent, and comments
// (each with its author) resolved.
func (s *TicketService) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapLoadErr(err, "ticket", id)
	}
	return ticket, nil
}

// Assign routes the ticket to an agent and moves it to ASSIGNED. The agent id
// is resolved against the identity store but no role membership is checked;
// that policy belongs to the caller.
func (s *TicketService) Assign(ctx context.Context, ticketID int64, agentID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.mapLoadErr(err, "ticket", ticketID)
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorutil.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		s.logger.Error("resolve agent", zap.String("agent_id", agentID), zap.Error(err))
		return nil, errorutil.NewStorageError("failed to resolve agent", err)
	}

	now := time.Now().UTC()
	ticket.AssignedAgentID = &agentID
	ticket.AssignedAgent = agent
	ticket.Status = domain.TicketStatusAssigned
	ticket.UpdatedAt = &now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		s.logger.Error("assign ticket", zap.Int64("ticket_id", ticketID), zap.Error(err))
		return nil, s.mapWriteErr(err, "ticket", ticketID)
	}
	s.logger.Info("ticket assigned", zap.Int64("ticket_id", ticketID), zap.String("agent_id", agentID))

	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Payload: events.TicketAssignedPayload{
			Title:      ticket.Title,
			AgentID:    agent.ID,
			AgentEmail: agent.Email,
		},
	})
	s.stats.Invalidate(ctx)
	return ticket, nil
}

// UpdateStatus writes the target status unconditionally: any transition is
// accepted, including moving out of CLOSED. Entering CLOSED stamps ClosedAt;
// a later transition never clears it. The submitter is notified.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.Valid() {
		return nil, errorutil.NewValidationError("unknown status", map[string]any{"status": string(status)})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.mapLoadErr(err, "ticket", ticketID)
	}

	now := time.Now().UTC()
	ticket.Status = status
	ticket.UpdatedAt = &now
	if status == domain.TicketStatusClosed {
		ticket.ClosedAt = &now
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		s.logger.Error("update ticket status", zap.Int64("ticket_id", ticketID), zap.Error(err))
		return nil, s.mapWriteErr(err, "ticket", ticketID)
	}
	s.logger.Info("ticket status updated",
		zap.Int64("ticket_id", ticketID), zap.String("status", string(status)))

	submitterEmail := ""
	if ticket.Submitter != nil {
		submitterEmail = ticket.Submitter.Email
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			Title:          ticket.Title,
			NewStatus:      status,
			SubmitterEmail: submitterEmail,
		},
	})
	s.stats.Invalidate(ctx)
	return ticket, nil
}

// Update overwrites only the identity-preserving content fields: title,
// description, category, priority. Submitter, status, assignment, attachment,
// and timestamps on the incoming value are ignored so this path cannot bypass
// Assign or UpdateStatus.
func (s *TicketService) Update(ctx context.Context, incoming *domain.Ticket) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, incoming.ID)
	if err != nil {
		return nil, s.mapLoadErr(err, "ticket", incoming.ID)
	}

	ticket.Title = strings.TrimSpace(incoming.Title)
	ticket.Description = strings.TrimSpace(incoming.Description)
	ticket.Category = strings.TrimSpace(incoming.Category)
	ticket.Priority = incoming.Priority
	if err := ticket.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ticket.UpdatedAt = &now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		s.logger.Error("update ticket", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return nil, s.mapWriteErr(err, "ticket", ticket.ID)
	}
	s.logger.Info("ticket updated", zap.Int64("ticket_id", ticket.ID))
	s.stats.Invalidate(ctx)
	return ticket, nil
}

// Delete removes the ticket and its comments. A stored attachment is deleted
// first; a file that is already gone is logged and tolerated.
func (s *TicketService) Delete(ctx context.Context, ticketID int64) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return s.mapLoadErr(err, "ticket", ticketID)
	}

	if ticket.AttachmentPath != nil && *ticket.AttachmentPath != "" {
		if err := s.attachments.Delete(*ticket.AttachmentPath); err != nil {
			s.logger.Error("delete attachment",
				zap.Int64("ticket_id", ticketID), zap.String("path", *ticket.AttachmentPath), zap.Error(err))
			return errorutil.NewStorageError("failed to delete attachment", err)
		}
	}

	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		s.logger.Error("delete ticket", zap.Int64("ticket_id", ticketID), zap.Error(err))
		return s.mapWriteErr(err, "ticket", ticketID)
	}
	s.logger.Info("ticket deleted", zap.Int64("ticket_id", ticketID))
	s.stats.Invalidate(ctx)
	return nil
}

// List returns one page of tickets. Page is 1-based; a page past the data
// yields an empty slice. When ownerID is set, only tickets the user submitted
// or is assigned to are returned.
func (s *TicketService) List(ctx context.Context, page, pageSize int, sort string, ownerID *string) (*PaginatedResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	items, total, err := s.tickets.List(ctx, repository.TicketQuery{
		OwnerID:  ownerID,
		Sort:     sort,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		s.logger.Error("list tickets", zap.Error(err))
		return nil, errorutil.NewStorageError("failed to list tickets", err)
	}
	if items == nil {
		items = []domain.Ticket{}
	}
	return &PaginatedResult{
		Items:      items,
		TotalCount: total,
		PageNumber: page,
		PageSize:   pageSize,
	}, nil
}

// DashboardStats computes summary counts and the category histogram over all
// tickets, serving from cache when fresh.
func (s *TicketService) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	if cached := s.stats.Get(ctx); cached != nil {
		return cached, nil
	}

	stats, err := s.tickets.Stats(ctx)
	if err != nil {
		s.logger.Error("dashboard stats", zap.Error(err))
		return nil, errorutil.NewStorageError("failed to compute dashboard stats", err)
	}
	s.stats.Set(ctx, stats)
	return stats, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *TicketService) mapLoadErr(err error, resource string, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errorutil.NewNotFound(resource, map[string]any{"id": id})
	}
	s.logger.Error("load "+resource, zap.Int64("id", id), zap.Error(err))
	return errorutil.NewStorageError("failed to load "+resource, err)
}

func (s *TicketService) mapWriteErr(err error, resource string, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errorutil.NewNotFound(resource, map[string]any{"id": id})
	}
	return errorutil.NewStorageError("failed to write "+resource, err)
}
