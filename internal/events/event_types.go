package events

import (
	"time"

	"github.com/complaintrack/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventCommentAdded        EventType = "comment_added"
)

// Event represents a domain event emitted by the ticket services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload. SubmitterEmail may be empty when the
// submitter could not be resolved.
type TicketCreatedPayload struct {
	Title          string                `json:"title"`
	Priority       domain.TicketPriority `json:"priority"`
	SubmitterEmail string                `json:"submitter_email"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Title      string `json:"title"`
	AgentID    string `json:"agent_id"`
	AgentEmail string `json:"agent_email"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Title          string              `json:"title"`
	NewStatus      domain.TicketStatus `json:"new_status"`
	SubmitterEmail string              `json:"submitter_email"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID int64  `json:"comment_id"`
	AuthorID  string `json:"author_id"`
}
