package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/complaintrack/complaint-service/internal/domain"
	"github.com/complaintrack/complaint-service/internal/events"
	"github.com/complaintrack/complaint-service/internal/repository"
	"github.com/complaintrack/complaint-service/pkg/util/errorutil"
)

// CommentService owns comment records. Who may edit or delete a comment is
// decided by the caller's policy layer, not here.
type CommentService struct {
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, dispatcher events.Dispatcher, logger *zap.Logger) *CommentService {
	return &CommentService{comments: comments, dispatcher: dispatcher, logger: logger}
}

// ListByTicket returns the ticket's comments with authors resolved, newest
// first.
func (s *CommentService) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketComment, error) {
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		s.logger.Error("list comments", zap.Int64("ticket_id", ticketID), zap.Error(err))
		return nil, errorutil.NewStorageError("failed to list comments", err)
	}
	if comments == nil {
		comments = []domain.TicketComment{}
	}
	return comments, nil
}

// Add persists a new comment. CreatedAt is stamped here only if the caller
// left it zero.
func (s *CommentService) Add(ctx context.Context, comment *domain.TicketComment) error {
	comment.Content = strings.TrimSpace(comment.Content)
	if err := comment.Validate(); err != nil {
		return err
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Error("add comment", zap.Int64("ticket_id", comment.TicketID), zap.Error(err))
		return errorutil.NewStorageError("failed to add comment", err)
	}
	s.logger.Info("comment added",
		zap.Int64("comment_id", comment.ID), zap.Int64("ticket_id", comment.TicketID))

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCommentAdded,
			TicketID:  comment.TicketID,
			Timestamp: time.Now().UTC(),
			Payload: events.CommentAddedPayload{
				CommentID: comment.ID,
				AuthorID:  comment.AuthorID,
			},
		})
	}
	return nil
}

// Update overwrites the comment's content and stamps UpdatedAt.
func (s *CommentService) Update(ctx context.Context, comment *domain.TicketComment) error {
	comment.Content = strings.TrimSpace(comment.Content)
	if err := comment.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	comment.UpdatedAt = &now

	if err := s.comments.Update(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorutil.NewNotFound("comment", map[string]any{"id": comment.ID})
		}
		s.logger.Error("update comment", zap.Int64("comment_id", comment.ID), zap.Error(err))
		return errorutil.NewStorageError("failed to update comment", err)
	}
	s.logger.Info("comment updated", zap.Int64("comment_id", comment.ID))
	return nil
}

// GetByID resolves a single comment with its author.
func (s *CommentService) GetByID(ctx context.Context, id int64) (*domain.TicketComment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorutil.NewNotFound("comment", map[string]any{"id": id})
		}
		s.logger.Error("load comment", zap.Int64("comment_id", id), zap.Error(err))
		return nil, errorutil.NewStorageError("failed to load comment", err)
	}
	return comment, nil
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorutil.NewNotFound("comment", map[string]any{"id": id})
		}
		s.logger.Error("delete comment", zap.Int64("comment_id", id), zap.Error(err))
		return errorutil.NewStorageError("failed to delete comment", err)
	}
	s.logger.Info("comment deleted", zap.Int64("comment_id", id))
	return nil
}
