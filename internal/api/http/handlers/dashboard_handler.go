package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/complaintrack/complaint-service/internal/service"
)

// DashboardHandler serves operational aggregates.
type DashboardHandler struct {
	tickets *service.TicketService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(tickets *service.TicketService) *DashboardHandler {
	return &DashboardHandler{tickets: tickets}
}

// Stats GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.tickets.DashboardStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
