package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/knowledge"
	"github.com/spec-kit/helpdesk-service/internal/llm"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

const adminPassword = "letmein"

type stubClassifier struct{}

func (stubClassifier) Classify(context.Context, string) (*domain.ClassificationResult, error) {
	return &domain.ClassificationResult{
		Category:              domain.CategoryNetwork,
		Urgency:               domain.UrgencyMedium,
		Solution:              "Restart the router",
		Department:            domain.DepartmentNetworkTeam,
		KnowledgeBaseArticles: []string{"Slow Network Speed"},
		Confidence:            0.9,
	}, nil
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Total   int             `json:"total"`
	Showing int             `json:"showing"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func setupTestApp(t *testing.T, classifier llm.Classifier, withAdmin bool) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	repo, err := repository.NewCSVTicketRepository(filepath.Join(dir, "tickets.csv"), nil)
	if err != nil {
		t.Fatalf("NewCSVTicketRepository: %v", err)
	}
	kb := knowledge.NewFileStore(filepath.Join(dir, "knowledge_base.json"), zap.NewNop())
	if err := kb.EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}

	metrics := observability.NewMetrics()
	var classifierErr error
	if classifier == nil {
		classifierErr = config.ErrMissingAPIKey
	}
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    repo,
		Classifier:    classifier,
		ClassifierErr: classifierErr,
		Dispatcher:    events.NewInMemoryDispatcher(),
		Metrics:       metrics,
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	routes := RouteConfig{
		Health: handlers.NewHealthHandler(handlers.HealthDependencies{
			ServiceName: "helpdesk-test",
			StoreName:   config.StoreCSV,
			Classifier:  tickets.ClassifierAvailable,
			Metrics:     metrics,
		}),
		Tickets: handlers.NewTicketsHandler(tickets),
		Reports: handlers.NewReportsHandler(service.NewReportService(repo, kb)),
	}
	if withAdmin {
		hash, err := auth.HashPassword(adminPassword, bcrypt.MinCost)
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		tokens := auth.NewTokenManager("test-secret", 5)
		routes.Auth = handlers.NewAuthHandler(service.NewAuthService(config.AuthConfig{AdminPasswordHash: hash}, tokens))
		routes.AuthMiddleware = auth.NewAuthMiddleware(tokens)
	}
	RegisterRoutes(app, routes)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body any, header map[string]string) (*nethttp.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decodeEnvelope(t *testing.T, raw []byte) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return env
}

func TestAnalyzeResolveAndBrowse(t *testing.T) {
	app := setupTestApp(t, stubClassifier{}, false)

	resp, raw := doRequest(t, app, fiber.MethodPost, "/api/analyze", map[string]string{"user_query": "  My WiFi keeps disconnecting  "}, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("analyze status = %d: %s", resp.StatusCode, raw)
	}
	if resp.Header.Get(observability.RequestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
	var analysis struct {
		UserQuery string `json:"user_query"`
		domain.ClassificationResult
	}
	if err := json.Unmarshal(decodeEnvelope(t, raw).Data, &analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if analysis.UserQuery != "My WiFi keeps disconnecting" || analysis.Category != domain.CategoryNetwork {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}

	resp, raw = doRequest(t, app, fiber.MethodPost, "/api/tickets/resolve", map[string]any{
		"user_query": analysis.UserQuery,
		"analysis":   analysis.ClassificationResult,
	}, nil)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("resolve status = %d: %s", resp.StatusCode, raw)
	}
	var created struct {
		TicketID string `json:"ticket_id"`
		Ticket   struct {
			Status     string `json:"status"`
			ResolvedBy string `json:"resolved_by"`
		} `json:"ticket"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, raw).Data, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if !strings.HasPrefix(created.TicketID, "TKT-") || created.Ticket.Status != "Resolved" || created.Ticket.ResolvedBy != "AI" {
		t.Fatalf("unexpected ticket: %+v", created)
	}

	_, raw = doRequest(t, app, fiber.MethodPost, "/api/tickets/escalate", map[string]any{
		"user_query": "Printer on fire",
		"analysis":   analysis.ClassificationResult,
	}, nil)
	if env := decodeEnvelope(t, raw); env.Error != nil {
		t.Fatalf("escalate failed: %+v", env.Error)
	}

	resp, raw = doRequest(t, app, fiber.MethodGet, "/api/tickets?status=Escalated", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, raw)
	if env.Total != 2 || env.Showing != 1 {
		t.Fatalf("total/showing = %d/%d, want 2/1", env.Total, env.Showing)
	}

	_, raw = doRequest(t, app, fiber.MethodGet, "/api/tickets/"+created.TicketID, nil, nil)
	if env := decodeEnvelope(t, raw); env.Error != nil {
		t.Fatalf("get ticket failed: %+v", env.Error)
	}

	_, raw = doRequest(t, app, fiber.MethodGet, "/api/stats", nil, nil)
	var stats domain.Statistics
	if err := json.Unmarshal(decodeEnvelope(t, raw).Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalTickets != 2 || stats.AIResolved != 1 || stats.Escalated != 1 || stats.ResolutionRate != 50 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	_, raw = doRequest(t, app, fiber.MethodGet, "/api/analytics", nil, nil)
	var dashboard struct {
		Recent []json.RawMessage `json:"recent"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, raw).Data, &dashboard); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if len(dashboard.Recent) != 2 {
		t.Fatalf("recent = %d, want 2", len(dashboard.Recent))
	}
}

func TestAnalyzeErrors(t *testing.T) {
	app := setupTestApp(t, nil, false)

	resp, raw := doRequest(t, app, fiber.MethodPost, "/api/analyze", map[string]string{"user_query": "   "}, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("blank query status = %d", resp.StatusCode)
	}
	if env := decodeEnvelope(t, raw); env.Error == nil || env.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("unexpected error body: %s", raw)
	}

	resp, raw = doRequest(t, app, fiber.MethodPost, "/api/analyze", map[string]string{"user_query": "VPN down"}, nil)
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("no classifier status = %d", resp.StatusCode)
	}
	if env := decodeEnvelope(t, raw); env.Error == nil || env.Error.Code != "CLASSIFIER_UNAVAILABLE" {
		t.Fatalf("unexpected error body: %s", raw)
	}

	// Browsing keeps working without a classifier.
	resp, _ = doRequest(t, app, fiber.MethodGet, "/api/tickets", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
}

func TestNotFoundResponses(t *testing.T) {
	app := setupTestApp(t, stubClassifier{}, false)

	resp, raw := doRequest(t, app, fiber.MethodGet, "/api/tickets/TKT-20260101-0001", nil, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if env := decodeEnvelope(t, raw); env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("unexpected body: %s", raw)
	}

	resp, raw = doRequest(t, app, fiber.MethodGet, "/api/does-not-exist", nil, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown route status = %d", resp.StatusCode)
	}
	if env := decodeEnvelope(t, raw); env.Error == nil {
		t.Fatalf("unknown route should use the error envelope: %s", raw)
	}
}

func TestExportAndKnowledgeBase(t *testing.T) {
	app := setupTestApp(t, stubClassifier{}, false)
	doRequest(t, app, fiber.MethodPost, "/api/tickets/resolve", map[string]any{
		"user_query": "Slow, \"very\" slow network",
		"analysis":   map[string]any{"category": "Network", "urgency": "Low", "department": "Network Team", "confidence": 0.8},
	}, nil)

	resp, raw := doRequest(t, app, fiber.MethodGet, "/api/tickets/export", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderContentDisposition); !strings.Contains(got, handlers.ExportFilename) {
		t.Fatalf("content disposition = %q", got)
	}
	tickets, err := repository.DecodeCSV(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(tickets) != 1 || tickets[0].UserQuery != "Slow, \"very\" slow network" {
		t.Fatalf("unexpected export: %+v", tickets)
	}

	_, raw = doRequest(t, app, fiber.MethodGet, "/api/knowledge-base/Network", nil, nil)
	var articles []domain.KnowledgeBaseEntry
	if err := json.Unmarshal(decodeEnvelope(t, raw).Data, &articles); err != nil {
		t.Fatalf("decode articles: %v", err)
	}
	if len(articles) == 0 {
		t.Fatal("expected seeded network articles")
	}

	_, raw = doRequest(t, app, fiber.MethodGet, "/api/knowledge-base/Quantum", nil, nil)
	if string(decodeEnvelope(t, raw).Data) != "[]" {
		t.Fatalf("unknown category should be empty, got %s", raw)
	}
}

func TestAdminStatusUpdate(t *testing.T) {
	app := setupTestApp(t, stubClassifier{}, true)
	_, raw := doRequest(t, app, fiber.MethodPost, "/api/tickets/resolve", map[string]any{
		"user_query": "Laptop will not boot",
		"analysis":   map[string]any{"category": "Hardware", "urgency": "High", "department": "Hardware Team"},
	}, nil)
	var created struct {
		TicketID string `json:"ticket_id"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, raw).Data, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	target := "/api/tickets/" + created.TicketID + "/status"
	update := map[string]string{"status": "Escalated", "department": "IT Security"}

	resp, _ := doRequest(t, app, fiber.MethodPatch, target, update, nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("anonymous update status = %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, app, fiber.MethodPost, "/auth/admin/login", map[string]string{"password": "wrong"}, nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("bad login status = %d", resp.StatusCode)
	}

	resp, raw = doRequest(t, app, fiber.MethodPost, "/auth/admin/login", map[string]string{"password": adminPassword}, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login status = %d: %s", resp.StatusCode, raw)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, raw).Data, &login); err != nil || login.Token == "" {
		t.Fatalf("decode login: %v (%s)", err, raw)
	}
	bearer := map[string]string{fiber.HeaderAuthorization: "Bearer " + login.Token}

	resp, _ = doRequest(t, app, fiber.MethodPatch, target, map[string]string{"status": "Closed"}, bearer)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("invalid status code = %d", resp.StatusCode)
	}

	resp, raw = doRequest(t, app, fiber.MethodPatch, target, update, bearer)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("update status = %d: %s", resp.StatusCode, raw)
	}
	var updated struct {
		Status     string `json:"status"`
		Department string `json:"department"`
		ResolvedBy string `json:"resolved_by"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, raw).Data, &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Status != "Escalated" || updated.Department != "IT Security" || updated.ResolvedBy != "Escalated" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	resp, _ = doRequest(t, app, fiber.MethodPatch, "/api/tickets/TKT-19990101-0001/status", update, bearer)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("missing ticket status = %d", resp.StatusCode)
	}
}

func TestAdminRoutesAbsentWithoutCredential(t *testing.T) {
	app := setupTestApp(t, stubClassifier{}, false)
	resp, _ := doRequest(t, app, fiber.MethodPost, "/auth/admin/login", map[string]string{"password": adminPassword}, nil)
	if resp.StatusCode != fiber.StatusNotFound && resp.StatusCode != fiber.StatusMethodNotAllowed {
		t.Fatalf("login without admin credential status = %d", resp.StatusCode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	app := setupTestApp(t, nil, false)
	resp, raw := doRequest(t, app, fiber.MethodGet, "/health/ready", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("ready status = %d: %s", resp.StatusCode, raw)
	}
	var body struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode ready: %v", err)
	}
	if body.Dependencies["classifier"] != "not configured" || body.Dependencies["ticket_store"] != "csv" {
		t.Fatalf("unexpected dependencies: %+v", body.Dependencies)
	}

	resp, _ = doRequest(t, app, fiber.MethodGet, "/metrics", nil, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
}
