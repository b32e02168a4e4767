package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) DailyTrend(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]domain.StockMetricRow)
	return rows, args.Error(1)
}

func (m *MockRepository) CurrentRisk(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]domain.StockMetricRow)
	return rows, args.Error(1)
}

func (m *MockRepository) AlertCandidates(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]domain.StockMetricRow)
	return rows, args.Error(1)
}

func (m *MockRepository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	args := m.Called(ctx, limit)
	dates, _ := args.Get(0).([]time.Time)
	return dates, args.Error(1)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func alertRows() []domain.StockMetricRow {
	return []domain.StockMetricRow{
		{
			Location: "Clinic A", Item: "ORS",
			DaysOfCover: domain.Float(2), ClosingStock: domain.Float(5),
			AvgDailyConsumption: domain.Float(3), LeadTimeDays: domain.Float(4),
		},
		{
			Location: "Clinic B", Item: "Zinc",
			DaysOfCover: domain.Float(5), ClosingStock: domain.Float(20),
			AvgDailyConsumption: domain.Float(4), LeadTimeDays: domain.Float(10),
		},
	}
}

func TestRiskServiceDashboard(t *testing.T) {
	repo := new(MockRepository)
	filter := domain.MetricsFilter{}
	repo.On("CurrentRisk", mock.Anything, filter).Return([]domain.StockMetricRow{
		{Location: "Clinic A", Item: "ORS", DaysOfCover: domain.Float(2)},
		{Location: "Clinic B", Item: "Zinc", DaysOfCover: domain.Float(20)},
	}, nil)
	repo.On("AlertCandidates", mock.Anything, filter).Return(alertRows(), nil)

	svc := NewRiskService(repo, nil)
	dash, err := svc.Dashboard(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, domain.ViewCurrent, dash.Heatmap.View)
	assert.Equal(t, []string{"ORS", "Zinc"}, dash.Heatmap.Items)
	require.Len(t, dash.Alerts, 2)
	assert.Equal(t, domain.TierCritical, dash.Alerts[0].RiskLevel)
	assert.Equal(t, 1, dash.Summary.CriticalCount)
	assert.Equal(t, 1, dash.Summary.HighCount)
	assert.Equal(t, 27, dash.Summary.TotalReorderUnits)
	assert.Len(t, dash.KPIs, 6)
	assert.True(t, strings.HasPrefix(dash.Insight, "2 items are at high or critical risk."))
	repo.AssertExpectations(t)
}

func TestRiskServiceHeatmapDailyView(t *testing.T) {
	repo := new(MockRepository)
	filter := domain.MetricsFilter{View: domain.ViewDaily}
	repo.On("DailyTrend", mock.Anything, filter).Return([]domain.StockMetricRow{}, nil)

	hm, err := NewRiskService(repo, nil).Heatmap(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, domain.ViewDaily, hm.View)
	repo.AssertNotCalled(t, "CurrentRisk", mock.Anything, mock.Anything)
}

func TestRiskServicePropagatesDataSourceError(t *testing.T) {
	repo := new(MockRepository)
	upstream := &domain.DataSourceError{Op: "query", Err: errors.New("connection refused")}
	repo.On("AlertCandidates", mock.Anything, mock.Anything).Return(nil, upstream)

	svc := NewRiskService(repo, nil)

	var buf bytes.Buffer
	n, err := svc.ExportCSV(context.Background(), domain.MetricsFilter{}, &buf)
	assert.Zero(t, n)
	assert.Empty(t, buf.String())

	var dsErr *domain.DataSourceError
	require.True(t, errors.As(err, &dsErr))

	_, err = svc.Insight(context.Background(), domain.MetricsFilter{})
	assert.ErrorAs(t, err, &dsErr)
}

func TestRiskServiceEmptyAlertSet(t *testing.T) {
	repo := new(MockRepository)
	repo.On("AlertCandidates", mock.Anything, mock.Anything).Return(nil, nil)

	svc := NewRiskService(repo, nil)
	ctx := context.Background()

	summary, kpis, err := svc.Summary(ctx, domain.MetricsFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskSummary{}, summary)
	assert.Equal(t, "–", kpis[4].Value)

	insight, err := svc.Insight(ctx, domain.MetricsFilter{})
	require.NoError(t, err)
	assert.Equal(t, "No items are currently at high or critical risk. No immediate reordering is required.", insight)

	var buf bytes.Buffer
	n, err := svc.ExportCSV(ctx, domain.MetricsFilter{}, &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "LOCATION,ITEM,RISK_LEVEL,DAYS_OF_COVER,CLOSING_STOCK,AVG_DAILY_CONSUMPTION,LEAD_TIME_DAYS,REORDER_QUANTITY,ACTION_REQUIRED\n", buf.String())
}

func TestRiskServiceInvalidateCache(t *testing.T) {
	inv := new(MockInvalidator)
	inv.On("Invalidate", mock.Anything).Return(nil).Once()

	svc := NewRiskService(new(MockRepository), inv)
	require.NoError(t, svc.InvalidateCache(context.Background()))
	inv.AssertExpectations(t)

	assert.NoError(t, NewRiskService(new(MockRepository), nil).InvalidateCache(context.Background()))
}
