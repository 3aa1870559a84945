package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// ReportsHandler serves statistics, analytics and the knowledge base.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Stats GET /api/stats.
func (h *ReportsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Analytics GET /api/analytics.
func (h *ReportsHandler) Analytics(c *fiber.Ctx) error {
	dashboard, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDashboardResponse(dashboard)})
}

// KnowledgeCatalog GET /api/knowledge-base.
func (h *ReportsHandler) KnowledgeCatalog(c *fiber.Ctx) error {
	catalog, err := h.service.KnowledgeCatalog()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": catalog})
}

// KnowledgeBase GET /api/knowledge-base/:category. Categories with a slash
// ("Login/Access") must be URL-encoded.
func (h *ReportsHandler) KnowledgeBase(c *fiber.Ctx) error {
	category, err := decodeParam(c, "category")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.service.KnowledgeBase(category)})
}
