package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/complaintrack/complaint-service/internal/api/dto"
	"github.com/complaintrack/complaint-service/internal/auth"
	"github.com/complaintrack/complaint-service/internal/domain"
	"github.com/complaintrack/complaint-service/internal/service"
	apperrors "github.com/complaintrack/complaint-service/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket lifecycle over HTTP.
type TicketsHandler struct {
	service *service.TicketService
	policy  *auth.Policy
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, policy *auth.Policy) *TicketsHandler {
	return &TicketsHandler{service: ticketService, policy: policy}
}

// List GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), service.DefaultPageSize)
	sort := c.Query("sort")

	var ownerID *string
	if !h.policy.CanViewAll(user) || c.QueryBool("mine") {
		ownerID = &user.ID
	}

	result, err := h.service.List(c.UserContext(), page, pageSize, sort, ownerID)
	if err != nil {
		return err
	}

	items := make([]dto.TicketSummary, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, dto.NewTicketSummary(&result.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		PageNumber: result.PageNumber,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages(),
	}})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	ticket, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !h.policy.CanView(user, ticket) {
		return apperrors.NewForbidden("no access to this ticket")
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Create POST /api/tickets. Accepts JSON, or multipart form data with an
// optional "attachment" file part.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if fileHeader, err := c.FormFile("attachment"); err == nil && fileHeader != nil {
			file, err := fileHeader.Open()
			if err != nil {
				return apperrors.NewValidationError("unreadable attachment", nil)
			}
			data, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				return apperrors.NewValidationError("unreadable attachment", nil)
			}
			input.Attachment = &service.AttachmentUpload{
				Data:     data,
				Filename: fileHeader.Filename,
			}
		}
	}

	ticket, err := h.service.Create(c.UserContext(), user.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Update PUT /api/tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}

	existing, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !h.policy.CanEdit(user, existing) {
		return apperrors.NewForbidden("no access to edit this ticket")
	}

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Update(c.UserContext(), &domain.Ticket{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Assign POST /api/tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !h.policy.CanAssign(user) {
		return apperrors.NewForbidden("no access to assign tickets")
	}
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil || req.AgentID == "" {
		return apperrors.NewValidationError("agent_id required", nil)
	}

	ticket, err := h.service.Assign(c.UserContext(), id, req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// UpdateStatus POST /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Delete DELETE /api/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !h.policy.CanDelete(user) {
		return apperrors.NewForbidden("no access to delete tickets")
	}
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": raw})
	}
	return id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
