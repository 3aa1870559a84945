package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/analytics"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/knowledge"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ReportService serves read-only aggregates and reference material.
type ReportService struct {
	tickets   repository.TicketRepository
	knowledge knowledge.Store
}

// NewReportService constructs the service.
func NewReportService(tickets repository.TicketRepository, kb knowledge.Store) *ReportService {
	return &ReportService{tickets: tickets, knowledge: kb}
}

// Statistics summarizes the whole store.
func (s *ReportService) Statistics(ctx context.Context) (domain.Statistics, error) {
	stats, err := s.tickets.Statistics(ctx)
	if err != nil {
		return domain.Statistics{}, apperrors.NewInternalError(err)
	}
	return stats, nil
}

// Dashboard aggregates every chart the analytics view shows.
func (s *ReportService) Dashboard(ctx context.Context) (analytics.Dashboard, error) {
	all, err := s.tickets.Load(ctx)
	if err != nil {
		return analytics.Dashboard{}, apperrors.NewInternalError(err)
	}
	return analytics.BuildDashboard(all), nil
}

// KnowledgeBase returns the articles for category; unknown categories are empty.
func (s *ReportService) KnowledgeBase(category string) []domain.KnowledgeBaseEntry {
	if s.knowledge == nil {
		return []domain.KnowledgeBaseEntry{}
	}
	return s.knowledge.ArticlesFor(category)
}

// KnowledgeCatalog returns the whole knowledge base.
func (s *ReportService) KnowledgeCatalog() (knowledge.Catalog, error) {
	if s.knowledge == nil {
		return knowledge.Catalog{}, nil
	}
	catalog, err := s.knowledge.Catalog()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return catalog, nil
}
