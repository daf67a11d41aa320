package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/complaintrack/complaint-service/internal/api/dto"
	"github.com/complaintrack/complaint-service/internal/domain"
	"github.com/complaintrack/complaint-service/internal/service"
	apperrors "github.com/complaintrack/complaint-service/pkg/util/errorutil"
)

// UsersHandler exposes the identity collaborator endpoints.
type UsersHandler struct {
	identity *service.IdentityService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(identity *service.IdentityService) *UsersHandler {
	return &UsersHandler{identity: identity}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.identity.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, token, expiresAt, err := h.identity.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}})
}

// ListAgents GET /api/agents. Populates the agent selection list used when
// assigning tickets.
func (h *UsersHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.identity.UsersInRole(c.UserContext(), domain.RoleAgent)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(agents))
	for i := range agents {
		items = append(items, dto.NewUserResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
