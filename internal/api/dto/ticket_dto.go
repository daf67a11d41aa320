package dto

import (
	"time"

	"github.com/complaintrack/complaint-service/internal/domain"
)

// CreateTicketRequest payload. Attachments arrive as a multipart file part
// alongside these fields.
type CreateTicketRequest struct {
	Title       string                `json:"title" form:"title"`
	Description string                `json:"description" form:"description"`
	Category    string                `json:"category" form:"category"`
	Priority    domain.TicketPriority `json:"priority" form:"priority"`
}

// UpdateTicketRequest carries the editable content fields.
type UpdateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AgentID string `json:"agent_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// UserSummary is the attribution projection embedded in responses.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TicketSummary response.
type TicketSummary struct {
	ID             int64                 `json:"id"`
	Title          string                `json:"title"`
	Category       string                `json:"category,omitempty"`
	Priority       domain.TicketPriority `json:"priority"`
	Status         domain.TicketStatus   `json:"status"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      *time.Time            `json:"updated_at,omitempty"`
	ClosedAt       *time.Time            `json:"closed_at,omitempty"`
	AttachmentPath *string               `json:"attachment_path,omitempty"`
	Submitter      *UserSummary          `json:"submitter,omitempty"`
	AssignedAgent  *UserSummary          `json:"assigned_agent,omitempty"`
}

// TicketDetailResponse provides full ticket info with the comment thread.
type TicketDetailResponse struct {
	TicketSummary
	Description string            `json:"description"`
	Comments    []CommentResponse `json:"comments"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items      []TicketSummary `json:"items"`
	TotalCount int             `json:"total_count"`
	PageNumber int             `json:"page_number"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// NewTicketSummary maps a domain ticket.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	summary := TicketSummary{
		ID:             ticket.ID,
		Title:          ticket.Title,
		Category:       ticket.Category,
		Priority:       ticket.Priority,
		Status:         ticket.Status,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
		ClosedAt:       ticket.ClosedAt,
		AttachmentPath: ticket.AttachmentPath,
	}
	if ticket.Submitter != nil {
		summary.Submitter = &UserSummary{
			ID:    ticket.Submitter.ID,
			Name:  ticket.Submitter.Name,
			Email: ticket.Submitter.Email,
		}
	}
	if ticket.AssignedAgent != nil {
		summary.AssignedAgent = &UserSummary{
			ID:    ticket.AssignedAgent.ID,
			Name:  ticket.AssignedAgent.Name,
			Email: ticket.AssignedAgent.Email,
		}
	}
	return summary
}

// NewTicketDetail maps a fully resolved domain ticket.
func NewTicketDetail(ticket *domain.Ticket) TicketDetailResponse {
	comments := make([]CommentResponse, 0, len(ticket.Comments))
	for i := range ticket.Comments {
		comments = append(comments, NewCommentResponse(&ticket.Comments[i]))
	}
	return TicketDetailResponse{
		TicketSummary: NewTicketSummary(ticket),
		Description:   ticket.Description,
		Comments:      comments,
	}
}
