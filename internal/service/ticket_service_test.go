package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/analytics"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/llm"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type fakeClassifier struct {
	result *domain.ClassificationResult
	err    error
}

func (f *fakeClassifier) Classify(context.Context, string) (*domain.ClassificationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.result
	return &copied, nil
}

func networkAnalysis() *domain.ClassificationResult {
	return &domain.ClassificationResult{
		Category:              domain.CategoryNetwork,
		Urgency:               domain.UrgencyMedium,
		Solution:              "Restart the router",
		Department:            domain.DepartmentNetworkTeam,
		KnowledgeBaseArticles: []string{"Slow Network Speed"},
		Confidence:            0.9,
	}
}

type serviceFixture struct {
	svc        *TicketService
	repo       repository.TicketRepository
	metrics    *observability.Metrics
	dispatched []events.Event
}

func setupTicketService(t *testing.T, classifier llm.Classifier, classifierErr error) *serviceFixture {
	t.Helper()
	repo, err := repository.NewCSVTicketRepository(filepath.Join(t.TempDir(), "tickets.csv"), nil)
	if err != nil {
		t.Fatalf("NewCSVTicketRepository: %v", err)
	}
	fx := &serviceFixture{repo: repo, metrics: observability.NewMetrics()}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		fx.dispatched = append(fx.dispatched, e)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketCreated, record)
	dispatcher.Subscribe(events.EventTicketEscalated, record)
	dispatcher.Subscribe(events.EventTicketStatusChanged, record)

	fx.svc = NewTicketService(TicketDependencies{
		TicketRepo:    repo,
		Classifier:    classifier,
		ClassifierErr: classifierErr,
		Dispatcher:    dispatcher,
		Metrics:       fx.metrics,
	})
	return fx
}

func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return apperrors.ToDomainError(err).HTTPStatus
}

func TestAnalyzeWithoutClassifier(t *testing.T) {
	fx := setupTicketService(t, nil, config.ErrMissingAPIKey)

	_, err := fx.svc.Analyze(context.Background(), "printer broken")
	if statusOf(err) != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want 503", err)
	}
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("err should wrap ErrMissingAPIKey: %v", err)
	}
	if fx.svc.ClassifierAvailable() {
		t.Error("ClassifierAvailable = true")
	}
}

func TestAnalyzeValidatesInput(t *testing.T) {
	fx := setupTicketService(t, &fakeClassifier{result: networkAnalysis()}, nil)

	_, err := fx.svc.Analyze(context.Background(), "   ")
	if statusOf(err) != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestAnalyzeClassificationFailure(t *testing.T) {
	failing := &fakeClassifier{err: &llm.ClassificationError{Reason: llm.ReasonMalformedJSON, Err: errors.New("bad json")}}
	fx := setupTicketService(t, failing, nil)

	_, err := fx.svc.Analyze(context.Background(), "printer broken")
	de := apperrors.ToDomainError(err)
	if de.HTTPStatus != http.StatusBadGateway || de.Details["reason"] != llm.ReasonMalformedJSON {
		t.Fatalf("err = %+v", de)
	}
	if got := fx.metrics.Snapshot().Classification[llm.ReasonMalformedJSON]; got != 1 {
		t.Errorf("malformed counter = %d", got)
	}

	tickets, _ := fx.repo.Load(context.Background())
	if len(tickets) != 0 {
		t.Errorf("failed classification stored %d tickets", len(tickets))
	}
}

type replyCompleter string

func (r replyCompleter) Name() string { return "stub" }

func (r replyCompleter) Complete(context.Context, string, string) (*llm.Completion, error) {
	return &llm.Completion{Text: string(r)}, nil
}

func TestSubmitWithEmptyModelReplyStoresNothing(t *testing.T) {
	for _, reply := range []string{"null", "{}", "```json\nnull\n```"} {
		fx := setupTicketService(t, llm.NewGateway(replyCompleter(reply), nil), nil)

		ticket, analysis, err := fx.svc.Submit(context.Background(), "printer broken", DecisionResolve)
		de := apperrors.ToDomainError(err)
		if de.HTTPStatus != http.StatusBadGateway || de.Details["reason"] != llm.ReasonMalformedJSON {
			t.Errorf("reply %q: err = %+v", reply, de)
		}
		if ticket != nil || analysis != nil {
			t.Errorf("reply %q: ticket = %+v, analysis = %+v", reply, ticket, analysis)
		}
		tickets, _ := fx.repo.Load(context.Background())
		if len(tickets) != 0 {
			t.Errorf("reply %q stored %d tickets", reply, len(tickets))
		}
	}
}

func TestResolveAndEscalate(t *testing.T) {
	fx := setupTicketService(t, &fakeClassifier{result: networkAnalysis()}, nil)
	ctx := context.Background()

	resolved, _, err := fx.svc.Submit(ctx, "The Wi-Fi is slow or disconnecting frequently.", DecisionResolve)
	if err != nil {
		t.Fatalf("Submit resolve: %v", err)
	}
	if resolved.Status != domain.TicketStatusResolved || resolved.ResolvedBy != domain.ResolvedByAI {
		t.Errorf("resolved = %+v", resolved)
	}

	escalated, err := fx.svc.Escalate(ctx, "VPN down for the whole office", *networkAnalysis())
	if err != nil {
		t.Fatalf("Escalate: %v", err)
	}
	if escalated.Status != domain.TicketStatusEscalated || escalated.ResolvedBy != domain.ResolvedByEscalated ||
		escalated.Department != domain.DepartmentNetworkTeam || escalated.Confidence != 0.9 {
		t.Errorf("escalated = %+v", escalated)
	}

	var types []events.EventType
	for _, e := range fx.dispatched {
		types = append(types, e.Type)
	}
	want := []events.EventType{events.EventTicketCreated, events.EventTicketCreated, events.EventTicketEscalated}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}

	if _, err := fx.svc.Resolve(ctx, "", *networkAnalysis()); statusOf(err) != http.StatusBadRequest {
		t.Errorf("empty query err = %v", err)
	}
}

func TestListExportAndUpdateStatus(t *testing.T) {
	fx := setupTicketService(t, &fakeClassifier{result: networkAnalysis()}, nil)
	ctx := context.Background()

	first, err := fx.svc.Resolve(ctx, "wifi", *networkAnalysis())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := fx.svc.Escalate(ctx, "switch on fire", *networkAnalysis()); err != nil {
		t.Fatalf("Escalate: %v", err)
	}

	list, err := fx.svc.List(ctx, analytics.TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusEscalated}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Total != 2 || len(list.Tickets) != 1 {
		t.Errorf("list = %d of %d", len(list.Tickets), list.Total)
	}

	var buf bytes.Buffer
	n, err := fx.svc.Export(ctx, &buf, analytics.TicketFilter{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 2 || strings.Count(buf.String(), "\n") != 3 {
		t.Errorf("export rows = %d:\n%s", n, buf.String())
	}

	updated, err := fx.svc.UpdateStatus(ctx, first.ID, "escalated", domain.DepartmentITSecurity)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.TicketStatusEscalated || updated.Department != domain.DepartmentITSecurity {
		t.Errorf("updated = %+v", updated)
	}
	last := fx.dispatched[len(fx.dispatched)-1]
	payload, ok := last.Payload.(events.TicketStatusChangedPayload)
	if !ok || payload.OldStatus != domain.TicketStatusResolved || payload.NewStatus != domain.TicketStatusEscalated {
		t.Errorf("status event = %+v", last)
	}

	if _, err := fx.svc.UpdateStatus(ctx, first.ID, "closed", ""); statusOf(err) != http.StatusBadRequest {
		t.Errorf("invalid status err = %v", err)
	}
	if _, err := fx.svc.UpdateStatus(ctx, "TKT-00000000-0000", "Resolved", ""); statusOf(err) != http.StatusNotFound {
		t.Errorf("unknown id err = %v", err)
	}
	if _, err := fx.svc.Get(ctx, "missing"); statusOf(err) != http.StatusNotFound {
		t.Errorf("Get missing err = %v", err)
	}
}
