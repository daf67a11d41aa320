package dto

import (
	"time"

	"github.com/complaintrack/complaint-service/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// UpdateCommentRequest payload.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID        int64        `json:"id"`
	TicketID  int64        `json:"ticket_id"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
	Author    *UserSummary `json:"author,omitempty"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.TicketComment) CommentResponse {
	resp := CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
	if comment.Author != nil {
		resp.Author = &UserSummary{
			ID:    comment.Author.ID,
			Name:  comment.Author.Name,
			Email: comment.Author.Email,
		}
	}
	return resp
}
