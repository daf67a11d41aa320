package auth

import "github.com/complaintrack/complaint-service/internal/domain"

// Policy consolidates the access rules the HTTP layer applies before calling
// into the ticket and comment services. The services themselves stay free of
// authorization concerns.
type Policy struct{}

// NewPolicy constructs the rule set.
func NewPolicy() *Policy {
	return &Policy{}
}

// CanViewAll reports whether the user sees every ticket rather than only
// their own submissions and assignments.
func (p *Policy) CanViewAll(user *domain.User) bool {
	return user.IsStaff()
}

// CanView reports whether the user may read a specific ticket.
func (p *Policy) CanView(user *domain.User, ticket *domain.Ticket) bool {
	if user.IsStaff() {
		return true
	}
	if ticket.SubmitterID == user.ID {
		return true
	}
	return ticket.AssignedAgentID != nil && *ticket.AssignedAgentID == user.ID
}

// CanEdit reports whether the user may change ticket content fields.
func (p *Policy) CanEdit(user *domain.User, ticket *domain.Ticket) bool {
	return user.HasRole(domain.RoleAdmin) || ticket.SubmitterID == user.ID
}

// CanAssign reports whether the user may route tickets to agents.
func (p *Policy) CanAssign(user *domain.User) bool {
	return user.IsStaff()
}

// CanDelete reports whether the user may remove a ticket entirely.
func (p *Policy) CanDelete(user *domain.User) bool {
	return user.HasRole(domain.RoleAdmin)
}

// CanModerateComment reports whether the user may edit or delete a comment.
func (p *Policy) CanModerateComment(user *domain.User, comment *domain.TicketComment) bool {
	return user.HasRole(domain.RoleAdmin) || comment.AuthorID == user.ID
}
