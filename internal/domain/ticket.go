package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/complaintrack/complaint-service/pkg/util/errorutil"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpened   TicketStatus = "OPENED"
	TicketStatusAssigned TicketStatus = "ASSIGNED"
	TicketStatusResolved TicketStatus = "RESOLVED"
	TicketStatusClosed   TicketStatus = "CLOSED"
)

// Ordinal returns the declaration-order position of a status. Listing by
// status sorts on this value, not on any notion of severity.
func (s TicketStatus) Ordinal() int {
	switch s {
	case TicketStatusOpened:
		return 0
	case TicketStatusAssigned:
		return 1
	case TicketStatusResolved:
		return 2
	case TicketStatusClosed:
		return 3
	}
	return -1
}

// Valid reports whether the status is a known lifecycle state.
func (s TicketStatus) Valid() bool {
	return s.Ordinal() >= 0
}

// TicketPriority enumerates complaint urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Rank returns the severity rank of a priority, CRITICAL highest.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityLow:
		return 0
	case TicketPriorityMedium:
		return 1
	case TicketPriorityHigh:
		return 2
	case TicketPriorityCritical:
		return 3
	}
	return -1
}

// Valid reports whether the priority is a known value.
func (p TicketPriority) Valid() bool {
	return p.Rank() >= 0
}

// Ticket is the aggregate for a tracked complaint.
type Ticket struct {
	ID              int64
	Title           string
	Description     string
	Category        string // empty means uncategorized
	Priority        TicketPriority
	Status          TicketStatus
	CreatedAt       time.Time
	UpdatedAt       *time.Time
	ClosedAt        *time.Time
	AttachmentPath  *string
	SubmitterID     string
	AssignedAgentID *string

	// Eagerly resolved relations, populated by the persistence gateway.
	Submitter     *User
	AssignedAgent *User
	Comments      []TicketComment
}

// Field length bounds for tickets and comments.
const (
	TitleMinLen       = 5
	TitleMaxLen       = 200
	DescriptionMinLen = 10
	DescriptionMaxLen = 2000
	CategoryMaxLen    = 100
	CommentMinLen     = 1
	CommentMaxLen     = 1000
)

// Validate checks field constraints on user-editable ticket content.
func (t *Ticket) Validate() error {
	details := map[string]any{}
	if n := utf8.RuneCountInString(t.Title); n < TitleMinLen || n > TitleMaxLen {
		details["title"] = fmt.Sprintf("must be between %d and %d characters", TitleMinLen, TitleMaxLen)
	}
	if n := utf8.RuneCountInString(t.Description); n < DescriptionMinLen || n > DescriptionMaxLen {
		details["description"] = fmt.Sprintf("must be between %d and %d characters", DescriptionMinLen, DescriptionMaxLen)
	}
	if utf8.RuneCountInString(t.Category) > CategoryMaxLen {
		details["category"] = fmt.Sprintf("must be at most %d characters", CategoryMaxLen)
	}
	if !t.Priority.Valid() {
		details["priority"] = "unknown priority"
	}
	if len(details) > 0 {
		return errorutil.NewValidationError("ticket validation failed", details)
	}
	return nil
}

// DashboardStats aggregates counts over all tickets.
type DashboardStats struct {
	TotalTickets      int            `json:"total_tickets"`
	OpenTickets       int            `json:"open_tickets"`
	ResolvedTickets   int            `json:"resolved_tickets"`
	TicketsByCategory map[string]int `json:"tickets_by_category"`
}
