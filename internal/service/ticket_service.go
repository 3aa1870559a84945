package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/analytics"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/llm"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Decision is what the requester chose after reading the analysis.
type Decision string

const (
	DecisionResolve  Decision = "resolve"
	DecisionEscalate Decision = "escalate"
)

// TicketService coordinates the classify, decide, store workflow.
type TicketService struct {
	tickets       repository.TicketRepository
	classifier    llm.Classifier
	classifierErr error
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	// Classifier is nil when no model is configured; ClassifierErr says why.
	Classifier    llm.Classifier
	ClassifierErr error
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// ListResult is a filtered ticket listing.
type ListResult struct {
	Tickets []domain.Ticket
	// Total counts every stored ticket, before filtering.
	Total int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:       deps.TicketRepo,
		classifier:    deps.Classifier,
		classifierErr: deps.ClassifierErr,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        logger,
	}
}

// ClassifierAvailable reports whether Analyze can succeed.
func (s *TicketService) ClassifierAvailable() bool {
	return s.classifier != nil
}

// CommonIssues returns the quick-pick issue texts.
func (s *TicketService) CommonIssues() []string {
	return append([]string(nil), domain.CommonIssues...)
}

// Analyze classifies an issue without storing anything.
func (s *TicketService) Analyze(ctx context.Context, userQuery string) (*domain.ClassificationResult, error) {
	userQuery = strings.TrimSpace(userQuery)
	if userQuery == "" {
		return nil, apperrors.NewValidationError("please describe your issue first", map[string]any{"field": "user_query"})
	}
	if s.classifier == nil {
		msg := "classification service is not configured"
		if s.classifierErr != nil {
			msg = s.classifierErr.Error()
		}
		return nil, apperrors.NewUnavailable("CLASSIFIER_UNAVAILABLE", msg, s.classifierErr)
	}

	result, err := s.classifier.Classify(ctx, userQuery)
	if err != nil {
		var ce *llm.ClassificationError
		if errors.As(err, &ce) {
			s.metrics.RecordClassification(ce.Reason)
			return nil, apperrors.NewBadGateway("CLASSIFICATION_FAILED", "could not classify the issue",
				map[string]any{"reason": ce.Reason}, err)
		}
		if errors.Is(err, llm.ErrEmptyIssue) {
			return nil, apperrors.NewValidationError("please describe your issue first", map[string]any{"field": "user_query"})
		}
		s.metrics.RecordClassification("error")
		return nil, apperrors.NewInternalError(err)
	}
	s.metrics.RecordClassification("ok")
	return result, nil
}

// Resolve stores the analysis as a ticket the requester solved with the AI's help.
func (s *TicketService) Resolve(ctx context.Context, userQuery string, analysis domain.ClassificationResult) (*domain.Ticket, error) {
	return s.save(ctx, userQuery, analysis.TicketInput(userQuery, domain.TicketStatusResolved, domain.ResolvedByAI))
}

// Escalate stores the analysis as a ticket handed to the routed department.
func (s *TicketService) Escalate(ctx context.Context, userQuery string, analysis domain.ClassificationResult) (*domain.Ticket, error) {
	return s.save(ctx, userQuery, analysis.TicketInput(userQuery, domain.TicketStatusEscalated, domain.ResolvedByEscalated))
}

// Submit classifies the issue and stores it according to decision.
func (s *TicketService) Submit(ctx context.Context, userQuery string, decision Decision) (*domain.Ticket, *domain.ClassificationResult, error) {
	analysis, err := s.Analyze(ctx, userQuery)
	if err != nil {
		return nil, nil, err
	}
	var ticket *domain.Ticket
	switch decision {
	case DecisionEscalate:
		ticket, err = s.Escalate(ctx, userQuery, *analysis)
	default:
		ticket, err = s.Resolve(ctx, userQuery, *analysis)
	}
	if err != nil {
		return nil, analysis, err
	}
	return ticket, analysis, nil
}

func (s *TicketService) save(ctx context.Context, userQuery string, input domain.TicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(userQuery) == "" {
		return nil, apperrors.NewValidationError("user_query is required", map[string]any{"field": "user_query"})
	}
	ticket, err := s.tickets.Save(ctx, input)
	if err != nil {
		s.logger.Error("ticket save failed", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	s.metrics.RecordTicketSaved(string(ticket.Status))
	s.logger.Info("ticket saved",
		zap.String("ticket_id", ticket.ID),
		zap.String("status", string(ticket.Status)),
		zap.String("department", ticket.Department))

	payload := events.PayloadFromTicket(*ticket)
	s.publishEvent(ctx, events.NewEvent(events.EventTicketCreated, ticket.ID, events.ActorRequester, payload))
	if ticket.Status == domain.TicketStatusEscalated {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketEscalated, ticket.ID, events.ActorRequester, payload))
	}
	return ticket, nil
}

// Get returns one ticket.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, mapRepositoryError(err, id)
	}
	return ticket, nil
}

// List returns tickets matching filter, newest first.
func (s *TicketService) List(ctx context.Context, filter analytics.TicketFilter) (*ListResult, error) {
	all, err := s.tickets.Load(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &ListResult{Tickets: analytics.Filter(all, filter), Total: len(all)}, nil
}

// FilterOptions lists the values present in the store for each filter.
func (s *TicketService) FilterOptions(ctx context.Context) (analytics.FilterOptions, error) {
	all, err := s.tickets.Load(ctx)
	if err != nil {
		return analytics.FilterOptions{}, apperrors.NewInternalError(err)
	}
	return analytics.Options(all), nil
}

// Export writes tickets as CSV. An empty filter exports the store in
// insertion order; otherwise the filtered listing order is kept.
func (s *TicketService) Export(ctx context.Context, w io.Writer, filter analytics.TicketFilter) (int, error) {
	all, err := s.tickets.Load(ctx)
	if err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	selected := all
	if !filter.IsZero() {
		selected = analytics.Filter(all, filter)
	}
	if err := repository.EncodeCSV(w, selected); err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	return len(selected), nil
}

// UpdateStatus changes a ticket's status and, when department is set, routes
// it there as an escalation.
func (s *TicketService) UpdateStatus(ctx context.Context, id, status, department string) (*domain.Ticket, error) {
	newStatus, ok := domain.ParseStatus(status)
	if !ok {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"field":   "status",
			"allowed": []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusEscalated},
		})
	}
	before, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, id)
	}
	after, err := s.tickets.UpdateStatus(ctx, id, newStatus, department)
	if err != nil {
		return nil, mapRepositoryError(err, id)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventTicketStatusChanged, after.ID, events.ActorAdmin,
		events.TicketStatusChangedPayload{
			OldStatus:     before.Status,
			NewStatus:     after.Status,
			OldDepartment: before.Department,
			NewDepartment: after.Department,
		}))
	return after, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func mapRepositoryError(err error, id string) error {
	if errors.Is(err, repository.ErrTicketNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return apperrors.NewInternalError(err)
}
