package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/complaintrack/complaint-service/internal/api/dto"
	"github.com/complaintrack/complaint-service/internal/auth"
	"github.com/complaintrack/complaint-service/internal/domain"
	"github.com/complaintrack/complaint-service/internal/service"
	apperrors "github.com/complaintrack/complaint-service/pkg/util/errorutil"
)

// CommentsHandler exposes ticket comment threads over HTTP.
type CommentsHandler struct {
	comments *service.CommentService
	tickets  *service.TicketService
	policy   *auth.Policy
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(comments *service.CommentService, tickets *service.TicketService, policy *auth.Policy) *CommentsHandler {
	return &CommentsHandler{comments: comments, tickets: tickets, policy: policy}
}

// ListByTicket GET /api/tickets/:id/comments.
func (h *CommentsHandler) ListByTicket(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	ticket, err := h.tickets.GetByID(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	if !h.policy.CanView(user, ticket) {
		return apperrors.NewForbidden("no access to this ticket")
	}

	comments, err := h.comments.ListByTicket(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Add POST /api/tickets/:id/comments.
func (h *CommentsHandler) Add(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	ticket, err := h.tickets.GetByID(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	if !h.policy.CanView(user, ticket) {
		return apperrors.NewForbidden("no access to this ticket")
	}

	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment := &domain.TicketComment{
		TicketID: ticketID,
		AuthorID: user.ID,
		Content:  req.Content,
	}
	if err := h.comments.Add(c.UserContext(), comment); err != nil {
		return err
	}
	comment.Author = user
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// Update PUT /api/comments/:id.
func (h *CommentsHandler) Update(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	existing, err := h.comments.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !h.policy.CanModerateComment(user, existing) {
		return apperrors.NewForbidden("only the author or an admin may edit a comment")
	}

	var req dto.UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	existing.Content = req.Content
	if err := h.comments.Update(c.UserContext(), existing); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponse(existing)})
}

// Delete DELETE /api/comments/:id.
func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	existing, err := h.comments.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !h.policy.CanModerateComment(user, existing) {
		return apperrors.NewForbidden("only the author or an admin may delete a comment")
	}

	if err := h.comments.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
