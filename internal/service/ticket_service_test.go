package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/complaintrack/complaint-service/internal/config"
	"github.com/complaintrack/complaint-service/internal/domain"
	"github.com/complaintrack/complaint-service/internal/events"
	"github.com/complaintrack/complaint-service/internal/repository"
	"github.com/complaintrack/complaint-service/internal/storage"
	"github.com/complaintrack/complaint-service/pkg/util/errorutil"
)

// captureGateway records outbound notifications for assertions.
type captureGateway struct {
	mu    sync.Mutex
	sends []capturedSend
}

type capturedSend struct {
	To      string
	Subject string
	Body    string
}

func (g *captureGateway) Send(_ context.Context, to, subject, body string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sends = append(g.sends, capturedSend{To: to, Subject: subject, Body: body})
	return nil
}

func (g *captureGateway) all() []capturedSend {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]capturedSend{}, g.sends...)
}

func (g *captureGateway) last() (capturedSend, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sends) == 0 {
		return capturedSend{}, false
	}
	return g.sends[len(g.sends)-1], true
}

type testEnv struct {
	store    *repository.MemoryStore
	tickets  *TicketService
	comments *CommentService
	gateway  *captureGateway
	uploads  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	uploads := t.TempDir()
	attachments := storage.NewDiskStore(uploads, "/uploads", logger)
	dispatcher := events.NewInMemoryDispatcher()
	gateway := &captureGateway{}

	notifications := NewNotificationService(dispatcher, gateway, logger, config.NotificationConfig{
		EmailFrom:  "noreply@system.com",
		AdminEmail: "admin@system.com",
	})
	notifications.RegisterHandlers()

	tickets := NewTicketService(TicketDependencies{
		TicketRepo:      store.Tickets(),
		UserRepo:        store.Users(),
		AttachmentStore: attachments,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	comments := NewCommentService(store.Comments(), dispatcher, logger)

	return &testEnv{
		store:    store,
		tickets:  tickets,
		comments: comments,
		gateway:  gateway,
		uploads:  uploads,
	}
}

func (e *testEnv) addUser(t *testing.T, id, name, email string, roles ...domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:        id,
		Name:      name,
		Email:     email,
		Roles:     roles,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, e.store.Users().Create(context.Background(), user))
	return user
}

func validInput() TicketCreateInput {
	return TicketCreateInput{
		Title:       "Laptop will not boot",
		Description: "Screen stays black after pressing the power button.",
		Category:    "Hardware",
		Priority:    domain.TicketPriorityHigh,
	}
}

func TestCreateSetsLifecycleDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	assert.NotZero(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpened, ticket.Status)
	assert.Nil(t, ticket.AssignedAgentID)
	assert.Nil(t, ticket.ClosedAt)
	assert.Nil(t, ticket.UpdatedAt)
	assert.False(t, ticket.CreatedAt.IsZero())
	assert.Equal(t, "user-1", ticket.SubmitterID)

	send, ok := env.gateway.last()
	require.True(t, ok, "admin notification expected")
	assert.Equal(t, "admin@system.com", send.To)
	assert.Equal(t, "New Ticket Created", send.Subject)
	assert.Contains(t, send.Body, fmt.Sprintf("Ticket #%d", ticket.ID))
	assert.Contains(t, send.Body, "pat@example.com")
}

func TestCreateDefaultsPriorityToMedium(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	input := validInput()
	input.Priority = ""
	ticket, err := env.tickets.Create(context.Background(), "user-1", input)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
}

func TestCreateRejectsInvalidContent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	input := validInput()
	input.Title = "nope"
	_, err := env.tickets.Create(context.Background(), "user-1", input)
	require.Error(t, err)
	assert.Equal(t, errorutil.CodeValidationFailed, errorutil.CodeOf(err))

	result, err := env.tickets.List(context.Background(), 1, 10, "", nil)
	require.NoError(t, err)
	assert.Zero(t, result.TotalCount, "invalid ticket must not be persisted")
}

func TestCreateStoresAttachment(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	input := validInput()
	input.Attachment = &AttachmentUpload{Data: []byte("screenshot bytes"), Filename: "error.png"}
	ticket, err := env.tickets.Create(context.Background(), "user-1", input)
	require.NoError(t, err)

	require.NotNil(t, ticket.AttachmentPath)
	assert.True(t, strings.HasPrefix(*ticket.AttachmentPath, "/uploads/"))
	assert.True(t, strings.HasSuffix(*ticket.AttachmentPath, ".png"))

	stored := filepath.Join(env.uploads, filepath.Base(*ticket.AttachmentPath))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, []byte("screenshot bytes"), data)
}

func TestCreateSkipsEmptyAttachment(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	input := validInput()
	input.Attachment = &AttachmentUpload{Data: nil, Filename: "empty.txt"}
	ticket, err := env.tickets.Create(context.Background(), "user-1", input)
	require.NoError(t, err)
	assert.Nil(t, ticket.AttachmentPath)
}

func TestAssignMovesTicketToAgent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	env.addUser(t, "agent-1", "Sam", "sam@example.com", domain.RoleAgent)

	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	assigned, err := env.tickets.Assign(context.Background(), ticket.ID, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedAgentID)
	assert.Equal(t, "agent-1", *assigned.AssignedAgentID)
	require.NotNil(t, assigned.UpdatedAt)

	reloaded, err := env.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, reloaded.Status)
	require.NotNil(t, reloaded.AssignedAgent)
	assert.Equal(t, "Sam", reloaded.AssignedAgent.Name)

	send, ok := env.gateway.last()
	require.True(t, ok)
	assert.Equal(t, "sam@example.com", send.To)
	assert.Equal(t, "Ticket Assigned", send.Subject)
	assert.Contains(t, send.Body, "has been assigned to you")
}

func TestAssignUnknownTicketOrAgent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	env.addUser(t, "agent-1", "Sam", "sam@example.com", domain.RoleAgent)

	_, err := env.tickets.Assign(context.Background(), 999, "agent-1")
	require.Error(t, err)
	assert.Equal(t, errorutil.CodeNotFound, errorutil.CodeOf(err))

	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	_, err = env.tickets.Assign(context.Background(), ticket.ID, "ghost")
	require.Error(t, err)
	assert.Equal(t, errorutil.CodeNotFound, errorutil.CodeOf(err))
}

func TestUpdateStatusClosedStampsClosedAt(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	closed, err := env.tickets.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	assert.False(t, closed.ClosedAt.Before(closed.CreatedAt))

	send, ok := env.gateway.last()
	require.True(t, ok)
	assert.Equal(t, "pat@example.com", send.To)
	assert.Equal(t, "Ticket Status Updated", send.Subject)
	assert.Contains(t, send.Body, string(domain.TicketStatusClosed))
}

func TestReopeningDoesNotClearClosedAt(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	closed, err := env.tickets.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	closedAt := *closed.ClosedAt

	// Transitions are unconditional, so a closed ticket can go back to
	// OPENED; the close timestamp must survive that.
	reopened, err := env.tickets.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusOpened)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpened, reopened.Status)
	require.NotNil(t, reopened.ClosedAt)
	assert.Equal(t, closedAt, *reopened.ClosedAt)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	_, err = env.tickets.UpdateStatus(context.Background(), ticket.ID, "ARCHIVED")
	require.Error(t, err)
	assert.Equal(t, errorutil.CodeValidationFailed, errorutil.CodeOf(err))
}

func TestUpdateOnlyTouchesContentFields(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	env.addUser(t, "agent-1", "Sam", "sam@example.com", domain.RoleAgent)

	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)
	_, err = env.tickets.Assign(context.Background(), ticket.ID, "agent-1")
	require.NoError(t, err)

	updated, err := env.tickets.Update(context.Background(), &domain.Ticket{
		ID:          ticket.ID,
		Title:       "Laptop will not boot at all",
		Description: "Screen stays black, power LED blinks three times.",
		Category:    "Hardware",
		Priority:    domain.TicketPriorityCritical,
		// Fields below must be ignored by the generic update path.
		Status:      domain.TicketStatusClosed,
		SubmitterID: "someone-else",
	})
	require.NoError(t, err)

	assert.Equal(t, "Laptop will not boot at all", updated.Title)
	assert.Equal(t, domain.TicketPriorityCritical, updated.Priority)
	assert.Equal(t, domain.TicketStatusAssigned, updated.Status, "status must not change via update")
	assert.Equal(t, "user-1", updated.SubmitterID)
	assert.Nil(t, updated.ClosedAt)
	require.NotNil(t, updated.UpdatedAt)
}

func TestDeleteRemovesRecordAttachmentAndComments(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	input := validInput()
	input.Attachment = &AttachmentUpload{Data: []byte("log contents"), Filename: "boot.log"}
	ticket, err := env.tickets.Create(context.Background(), "user-1", input)
	require.NoError(t, err)

	comment := &domain.TicketComment{TicketID: ticket.ID, AuthorID: "user-1", Content: "any update?"}
	require.NoError(t, env.comments.Add(context.Background(), comment))

	stored := filepath.Join(env.uploads, filepath.Base(*ticket.AttachmentPath))
	require.FileExists(t, stored)

	require.NoError(t, env.tickets.Delete(context.Background(), ticket.ID))

	assert.NoFileExists(t, stored)
	_, err = env.tickets.GetByID(context.Background(), ticket.ID)
	assert.Equal(t, errorutil.CodeNotFound, errorutil.CodeOf(err))
	remaining, err := env.comments.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining, "comments must cascade with the ticket")
}

func TestDeleteToleratesMissingAttachmentFile(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	input := validInput()
	input.Attachment = &AttachmentUpload{Data: []byte("x"), Filename: "a.txt"}
	ticket, err := env.tickets.Create(context.Background(), "user-1", input)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(env.uploads, filepath.Base(*ticket.AttachmentPath))))
	assert.NoError(t, env.tickets.Delete(context.Background(), ticket.ID))
}

func TestDeleteWithoutAttachment(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)
	assert.NoError(t, env.tickets.Delete(context.Background(), ticket.ID))

	err = env.tickets.Delete(context.Background(), ticket.ID)
	assert.Equal(t, errorutil.CodeNotFound, errorutil.CodeOf(err))
}

func TestListPagesPartitionTheDataset(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	const total = 25
	for i := 0; i < total; i++ {
		input := validInput()
		input.Title = fmt.Sprintf("Complaint number %02d about things", i)
		_, err := env.tickets.Create(context.Background(), "user-1", input)
		require.NoError(t, err)
	}

	seen := map[int64]bool{}
	for page := 1; page <= 3; page++ {
		result, err := env.tickets.List(context.Background(), page, 10, repository.SortDate, nil)
		require.NoError(t, err)
		assert.Equal(t, total, result.TotalCount)
		assert.Equal(t, page, result.PageNumber)
		for _, item := range result.Items {
			assert.False(t, seen[item.ID], "ticket %d appeared twice", item.ID)
			seen[item.ID] = true
		}
	}
	assert.Len(t, seen, total, "pages must partition the full set")

	beyond, err := env.tickets.List(context.Background(), 4, 10, repository.SortDate, nil)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, total, beyond.TotalCount)
	assert.Equal(t, 3, beyond.TotalPages())
}

func TestListSortByPriorityRank(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	priorities := []domain.TicketPriority{
		domain.TicketPriorityLow,
		domain.TicketPriorityCritical,
		domain.TicketPriorityMedium,
		domain.TicketPriorityHigh,
		domain.TicketPriorityLow,
	}
	for _, p := range priorities {
		input := validInput()
		input.Priority = p
		_, err := env.tickets.Create(context.Background(), "user-1", input)
		require.NoError(t, err)
	}

	result, err := env.tickets.List(context.Background(), 1, len(priorities), repository.SortPriority, nil)
	require.NoError(t, err)
	require.Len(t, result.Items, len(priorities))
	for i := 1; i < len(result.Items); i++ {
		assert.GreaterOrEqual(t,
			result.Items[i-1].Priority.Rank(), result.Items[i].Priority.Rank(),
			"priority order must be non-increasing")
	}
}

func TestListSortByStatusOrdinal(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	env.addUser(t, "agent-1", "Sam", "sam@example.com", domain.RoleAgent)

	for i := 0; i < 4; i++ {
		_, err := env.tickets.Create(context.Background(), "user-1", validInput())
		require.NoError(t, err)
	}
	_, err := env.tickets.Assign(context.Background(), 2, "agent-1")
	require.NoError(t, err)
	_, err = env.tickets.UpdateStatus(context.Background(), 3, domain.TicketStatusResolved)
	require.NoError(t, err)
	_, err = env.tickets.UpdateStatus(context.Background(), 4, domain.TicketStatusClosed)
	require.NoError(t, err)

	result, err := env.tickets.List(context.Background(), 1, 10, repository.SortStatus, nil)
	require.NoError(t, err)
	require.Len(t, result.Items, 4)

	// Ordinal order: OPENED, ASSIGNED, RESOLVED, CLOSED. A severity ordering
	// would put CLOSED elsewhere; this pins the enum order.
	got := make([]domain.TicketStatus, 0, 4)
	for _, item := range result.Items {
		got = append(got, item.Status)
	}
	assert.Equal(t, []domain.TicketStatus{
		domain.TicketStatusOpened,
		domain.TicketStatusAssigned,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	}, got)
}

func TestListOwnerFilterMatchesSubmitterOrAgent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	env.addUser(t, "user-2", "Kim", "kim@example.com", domain.RoleUser)
	env.addUser(t, "agent-1", "Sam", "sam@example.com", domain.RoleAgent)

	mine, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)
	other, err := env.tickets.Create(context.Background(), "user-2", validInput())
	require.NoError(t, err)
	assignedToMe, err := env.tickets.Create(context.Background(), "user-2", validInput())
	require.NoError(t, err)
	_, err = env.tickets.Assign(context.Background(), assignedToMe.ID, "user-1")
	require.NoError(t, err)

	owner := "user-1"
	result, err := env.tickets.List(context.Background(), 1, 10, repository.SortDate, &owner)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)

	ids := map[int64]bool{}
	for _, item := range result.Items {
		ids[item.ID] = true
	}
	assert.True(t, ids[mine.ID])
	assert.True(t, ids[assignedToMe.ID])
	assert.False(t, ids[other.ID])
}

func TestDashboardStatsExcludesEmptyCategories(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)

	categories := []string{"Hardware", "Hardware", "", "", "Network", "Network", "Network"}
	for _, category := range categories {
		input := validInput()
		input.Category = category
		_, err := env.tickets.Create(context.Background(), "user-1", input)
		require.NoError(t, err)
	}
	_, err := env.tickets.UpdateStatus(context.Background(), 1, domain.TicketStatusResolved)
	require.NoError(t, err)

	stats, err := env.tickets.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalTickets)
	assert.Equal(t, 6, stats.OpenTickets)
	assert.Equal(t, 1, stats.ResolvedTickets)
	assert.Equal(t, map[string]int{"Hardware": 2, "Network": 3}, stats.TicketsByCategory)
}

func TestConcurrentAssignLastWriterWins(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	agents := []string{"agent-1", "agent-2"}
	env.addUser(t, "agent-1", "Sam", "sam@example.com", domain.RoleAgent)
	env.addUser(t, "agent-2", "Alex", "alex@example.com", domain.RoleAgent)

	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(agent string) {
			defer wg.Done()
			_, err := env.tickets.Assign(context.Background(), ticket.ID, agent)
			assert.NoError(t, err)
		}(agents[i%2])
	}
	wg.Wait()

	final, err := env.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, final.Status)
	require.NotNil(t, final.AssignedAgentID)
	assert.Contains(t, agents, *final.AssignedAgentID, "final agent must be one of the writers")
	require.NotNil(t, final.UpdatedAt)
}

func TestNotificationFailureDoesNotAbortOperation(t *testing.T) {
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
		return fmt.Errorf("smtp down")
	})

	tickets := NewTicketService(TicketDependencies{
		TicketRepo:      store.Tickets(),
		UserRepo:        store.Users(),
		AttachmentStore: storage.NewDiskStore(t.TempDir(), "/uploads", logger),
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	require.NoError(t, store.Users().Create(context.Background(), &domain.User{
		ID: "user-1", Name: "Pat", Email: "pat@example.com", Roles: []domain.Role{domain.RoleUser},
	}))

	ticket, err := tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err, "a failed notification must not roll back the ticket")
	assert.NotZero(t, ticket.ID)
}
