package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complaintrack/complaint-service/internal/domain"
	"github.com/complaintrack/complaint-service/pkg/util/errorutil"
)

func TestAddCommentStampsCreatedAt(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	comment := &domain.TicketComment{TicketID: ticket.ID, AuthorID: "user-1", Content: "  any news?  "}
	require.NoError(t, env.comments.Add(context.Background(), comment))

	assert.NotZero(t, comment.ID)
	assert.Equal(t, "any news?", comment.Content)
	assert.False(t, comment.CreatedAt.IsZero())
	assert.Nil(t, comment.UpdatedAt)
}

func TestAddCommentKeepsPresetCreatedAt(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	preset := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	comment := &domain.TicketComment{TicketID: ticket.ID, AuthorID: "user-1", Content: "imported note", CreatedAt: preset}
	require.NoError(t, env.comments.Add(context.Background(), comment))
	assert.Equal(t, preset, comment.CreatedAt)
}

func TestAddCommentRejectsInvalidContent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	err = env.comments.Add(context.Background(), &domain.TicketComment{
		TicketID: ticket.ID, AuthorID: "user-1", Content: "   ",
	})
	require.Error(t, err)
	assert.Equal(t, errorutil.CodeValidationFailed, errorutil.CodeOf(err))
}

func TestListByTicketNewestFirstWithAuthors(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	env.addUser(t, "agent-1", "Sam", "sam@example.com", domain.RoleAgent)
	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	first := &domain.TicketComment{TicketID: ticket.ID, AuthorID: "user-1", Content: "first", CreatedAt: base}
	second := &domain.TicketComment{TicketID: ticket.ID, AuthorID: "agent-1", Content: "second", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, env.comments.Add(context.Background(), first))
	require.NoError(t, env.comments.Add(context.Background(), second))

	comments, err := env.comments.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Content)
	assert.Equal(t, "first", comments[1].Content)
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, "Sam", comments[0].Author.Name)
	require.NotNil(t, comments[1].Author)
	assert.Equal(t, "Pat", comments[1].Author.Name)
}

func TestListByTicketEmptyTicket(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	comments, err := env.comments.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}

func TestUpdateCommentStampsUpdatedAt(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	comment := &domain.TicketComment{TicketID: ticket.ID, AuthorID: "user-1", Content: "original"}
	require.NoError(t, env.comments.Add(context.Background(), comment))

	comment.Content = "edited"
	require.NoError(t, env.comments.Update(context.Background(), comment))
	require.NotNil(t, comment.UpdatedAt)

	reloaded, err := env.comments.GetByID(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", reloaded.Content)
	require.NotNil(t, reloaded.UpdatedAt)
}

func TestUpdateMissingComment(t *testing.T) {
	env := newTestEnv(t)
	err := env.comments.Update(context.Background(), &domain.TicketComment{
		ID: 404, TicketID: 1, AuthorID: "user-1", Content: "ghost edit",
	})
	require.Error(t, err)
	assert.Equal(t, errorutil.CodeNotFound, errorutil.CodeOf(err))
}

func TestDeleteComment(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1", "Pat", "pat@example.com", domain.RoleUser)
	ticket, err := env.tickets.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	comment := &domain.TicketComment{TicketID: ticket.ID, AuthorID: "user-1", Content: "to be removed"}
	require.NoError(t, env.comments.Add(context.Background(), comment))

	require.NoError(t, env.comments.Delete(context.Background(), comment.ID))
	_, err = env.comments.GetByID(context.Background(), comment.ID)
	assert.Equal(t, errorutil.CodeNotFound, errorutil.CodeOf(err))

	err = env.comments.Delete(context.Background(), comment.ID)
	assert.Equal(t, errorutil.CodeNotFound, errorutil.CodeOf(err))
}
