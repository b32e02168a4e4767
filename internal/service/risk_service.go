package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/export"
	"github.com/andresuchdata/stockrisk/internal/heatmap"
	"github.com/andresuchdata/stockrisk/internal/repository"
	"github.com/andresuchdata/stockrisk/internal/risk"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// CacheInvalidator drops memoized query results.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type RiskService struct {
	repo  repository.StockMetricsRepository
	cache CacheInvalidator
}

// NewRiskService wires the engine to a metrics repository. cache may be nil
// when the repository is not backed by a query cache.
func NewRiskService(repo repository.StockMetricsRepository, cache CacheInvalidator) *RiskService {
	return &RiskService{repo: repo, cache: cache}
}

func (s *RiskService) Heatmap(ctx context.Context, filter domain.MetricsFilter) (domain.Heatmap, error) {
	view := filter.View
	if view == "" {
		view = domain.ViewCurrent
	}

	var (
		rows []domain.StockMetricRow
		err  error
	)
	if view == domain.ViewDaily {
		rows, err = s.repo.DailyTrend(ctx, filter)
	} else {
		rows, err = s.repo.CurrentRisk(ctx, filter)
	}
	if err != nil {
		return domain.Heatmap{}, err
	}

	return heatmap.Pivot(view, rows), nil
}

func (s *RiskService) Alerts(ctx context.Context, filter domain.MetricsFilter) ([]domain.AlertRow, error) {
	rows, err := s.repo.AlertCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}
	return risk.BuildAlertSet(rows), nil
}

func (s *RiskService) Summary(ctx context.Context, filter domain.MetricsFilter) (domain.RiskSummary, []domain.KPI, error) {
	alerts, err := s.Alerts(ctx, filter)
	if err != nil {
		return domain.RiskSummary{}, nil, err
	}
	summary := risk.Summarize(alerts)
	return summary, risk.KPIs(summary), nil
}

func (s *RiskService) Insight(ctx context.Context, filter domain.MetricsFilter) (string, error) {
	alerts, err := s.Alerts(ctx, filter)
	if err != nil {
		return "", err
	}
	return risk.BuildInsight(risk.Summarize(alerts), alerts), nil
}

// Dashboard loads the heatmap and the alert set in parallel. Either failure
// fails the whole dashboard.
func (s *RiskService) Dashboard(ctx context.Context, filter domain.MetricsFilter) (*domain.RiskDashboard, error) {
	var (
		hm     domain.Heatmap
		alerts []domain.AlertRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hm, err = s.Heatmap(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		alerts, err = s.Alerts(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if alerts == nil {
		alerts = make([]domain.AlertRow, 0)
	}
	summary := risk.Summarize(alerts)

	return &domain.RiskDashboard{
		Heatmap: hm,
		Alerts:  alerts,
		Summary: summary,
		KPIs:    risk.KPIs(summary),
		Insight: risk.BuildInsight(summary, alerts),
	}, nil
}

// ExportCSV writes the alert set as reorder recommendations. Nothing is
// written when the fetch fails.
func (s *RiskService) ExportCSV(ctx context.Context, filter domain.MetricsFilter, w io.Writer) (int, error) {
	alerts, err := s.Alerts(ctx, filter)
	if err != nil {
		return 0, err
	}
	if err := export.WriteAlertsCSV(w, alerts); err != nil {
		return 0, fmt.Errorf("error writing reorder recommendations: %w", err)
	}
	return len(alerts), nil
}

func (s *RiskService) AvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	return s.repo.GetAvailableDates(ctx, limit)
}

func (s *RiskService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("error invalidating query cache: %w", err)
	}
	log.Info().Msg("stock metrics: query cache invalidated")
	return nil
}
