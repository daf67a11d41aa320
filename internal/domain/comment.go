package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/complaintrack/complaint-service/pkg/util/errorutil"
)

// TicketComment is a threaded note on a ticket. Comments are owned by the
// ticket and removed with it.
type TicketComment struct {
	ID        int64
	TicketID  int64
	AuthorID  string
	Content   string
	CreatedAt time.Time
	UpdatedAt *time.Time

	Author *User
}

// Validate checks comment content bounds.
func (c *TicketComment) Validate() error {
	details := map[string]any{}
	if n := utf8.RuneCountInString(c.Content); n < CommentMinLen || n > CommentMaxLen {
		details["content"] = fmt.Sprintf("must be between %d and %d characters", CommentMinLen, CommentMaxLen)
	}
	if c.TicketID == 0 {
		details["ticket_id"] = "required"
	}
	if c.AuthorID == "" {
		details["author_id"] = "required"
	}
	if len(details) > 0 {
		return errorutil.NewValidationError("comment validation failed", details)
	}
	return nil
}
