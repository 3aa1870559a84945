package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/analytics"
	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ExportFilename is the download name of the CSV export.
const ExportFilename = "helpdesk_tickets.csv"

// TicketsHandler manages the submit and browse endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CommonIssues GET /api/common-issues.
func (h *TicketsHandler) CommonIssues(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.CommonIssues()})
}

// Analyze POST /api/analyze.
func (h *TicketsHandler) Analyze(c *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Analyze(c.UserContext(), req.UserQuery)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AnalysisResponse{
		UserQuery:            strings.TrimSpace(req.UserQuery),
		ClassificationResult: *result,
	}})
}

// Resolve POST /api/tickets/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	return h.submit(c, service.DecisionResolve)
}

// Escalate POST /api/tickets/escalate.
func (h *TicketsHandler) Escalate(c *fiber.Ctx) error {
	return h.submit(c, service.DecisionEscalate)
}

func (h *TicketsHandler) submit(c *fiber.Ctx, decision service.Decision) error {
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.UserQuery) == "" {
		return apperrors.NewValidationError("user_query is required", map[string]any{"field": "user_query"})
	}

	var (
		ticket *domain.Ticket
		err    error
	)
	if decision == service.DecisionEscalate {
		ticket, err = h.service.Escalate(c.UserContext(), req.UserQuery, req.Analysis)
	} else {
		ticket, err = h.service.Resolve(c.UserContext(), req.UserQuery, req.Analysis)
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SubmitTicketResponse{
		TicketID: ticket.ID,
		Ticket:   dto.NewTicketResponse(*ticket),
	}})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	result, err := h.service.List(c.UserContext(), parseTicketFilter(c))
	if err != nil {
		return err
	}
	items := dto.NewTicketResponses(result.Tickets)
	if limit := parseInt(c.Query("limit"), 0); limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return c.JSON(fiber.Map{
		"data":    items,
		"total":   result.Total,
		"showing": len(items),
	})
}

// FilterOptions GET /api/tickets/filters.
func (h *TicketsHandler) FilterOptions(c *fiber.Ctx) error {
	opts, err := h.service.FilterOptions(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": opts})
}

// Export GET /api/tickets/export.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if _, err := h.service.Export(c.UserContext(), &buf, parseTicketFilter(c)); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(ExportFilename)
	return c.Send(buf.Bytes())
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// UpdateStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status, req.Department)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// parseTicketFilter reads comma-separated multiselect values. Values are
// matched exactly as stored, so unknown spellings simply match nothing.
func parseTicketFilter(c *fiber.Ctx) analytics.TicketFilter {
	filter := analytics.TicketFilter{Search: c.Query("search")}
	for _, v := range splitList(c.Query("category")) {
		filter.Categories = append(filter.Categories, domain.Category(v))
	}
	for _, v := range splitList(c.Query("urgency")) {
		filter.Urgencies = append(filter.Urgencies, domain.Urgency(v))
	}
	for _, v := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(v))
	}
	for _, v := range splitList(c.Query("resolved_by")) {
		filter.ResolvedBy = append(filter.ResolvedBy, domain.ResolvedBy(v))
	}
	return filter
}

func splitList(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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
