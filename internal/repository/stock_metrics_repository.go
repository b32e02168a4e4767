package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/risk"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
)

const defaultMetricsTable = "stock_metrics"

var dialect = goqu.Dialect("postgres")

var metricColumns = []interface{}{
	"location", "item", "date", "days_of_cover",
	"closing_stock", "avg_daily_consumption", "lead_time_days",
}

type StockMetricsRepository interface {
	// DailyTrend returns one row per (location, date, item) with days of cover.
	DailyTrend(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error)
	// CurrentRisk returns the average days of cover per (location, item).
	CurrentRisk(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error)
	// AlertCandidates returns full rows below the alert threshold, most urgent first.
	AlertCandidates(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error)
	GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error)
}

type stockMetricsRepository struct {
	db     Querier
	schema string
	table  string
}

func NewStockMetricsRepository(db Querier, schema, table string) StockMetricsRepository {
	if strings.TrimSpace(table) == "" {
		table = defaultMetricsTable
	}
	return &stockMetricsRepository{db: db, schema: strings.TrimSpace(schema), table: strings.TrimSpace(table)}
}

func (r *stockMetricsRepository) DailyTrend(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error) {
	query, args, err := r.dailyTrendQuery(filter)
	if err != nil {
		return nil, err
	}
	return r.db.QueryMetrics(ctx, query, args...)
}

func (r *stockMetricsRepository) CurrentRisk(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error) {
	query, args, err := r.currentRiskQuery(filter)
	if err != nil {
		return nil, err
	}
	return r.db.QueryMetrics(ctx, query, args...)
}

func (r *stockMetricsRepository) AlertCandidates(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error) {
	query, args, err := r.alertQuery(filter)
	if err != nil {
		return nil, err
	}
	return r.db.QueryMetrics(ctx, query, args...)
}

func (r *stockMetricsRepository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	query, args, err := r.from().
		Select("date").
		Distinct().
		Where(goqu.C("date").IsNotNull()).
		Order(goqu.C("date").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("error building available dates query: %w", err)
	}

	return r.db.QueryDates(ctx, query, args...)
}

func (r *stockMetricsRepository) dailyTrendQuery(filter domain.MetricsFilter) (string, []interface{}, error) {
	query, args, err := r.from().
		Select("location", "item", "date", "days_of_cover").
		Where(filterConditions(filter)...).
		Order(goqu.C("location").Asc(), goqu.C("date").Asc(), goqu.C("item").Asc()).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("error building daily trend query: %w", err)
	}
	return query, args, nil
}

func (r *stockMetricsRepository) currentRiskQuery(filter domain.MetricsFilter) (string, []interface{}, error) {
	query, args, err := r.from().
		Select("location", "item", goqu.AVG("days_of_cover").As("days_of_cover")).
		Where(filterConditions(filter)...).
		GroupBy("location", "item").
		Order(goqu.C("location").Asc(), goqu.C("item").Asc()).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("error building current risk query: %w", err)
	}
	return query, args, nil
}

// alertQuery filters on the engine's threshold; tier, reorder quantity and
// action are derived in Go so the thresholds live in one place.
func (r *stockMetricsRepository) alertQuery(filter domain.MetricsFilter) (string, []interface{}, error) {
	conditions := append(filterConditions(filter), goqu.C("days_of_cover").Lt(risk.AlertThreshold))

	query, args, err := r.from().
		Select(metricColumns...).
		Where(conditions...).
		Order(goqu.C("days_of_cover").Asc(), goqu.C("location").Asc(), goqu.C("item").Asc()).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("error building alert query: %w", err)
	}
	return query, args, nil
}

func (r *stockMetricsRepository) from() *goqu.SelectDataset {
	var table exp.IdentifierExpression
	if r.schema != "" {
		table = goqu.S(r.schema).Table(r.table)
	} else {
		table = goqu.T(r.table)
	}
	return dialect.From(table).Prepared(true)
}

func filterConditions(filter domain.MetricsFilter) []exp.Expression {
	var conditions []exp.Expression

	if locations := normalize(filter.Locations); len(locations) > 0 {
		conditions = append(conditions, goqu.C("location").In(locations))
	}
	if items := normalize(filter.Items); len(items) > 0 {
		conditions = append(conditions, goqu.C("item").In(items))
	}
	if stockDate := strings.TrimSpace(filter.StockDate); stockDate != "" {
		conditions = append(conditions, goqu.C("date").Eq(goqu.Cast(goqu.V(stockDate), "DATE")))
	}

	return conditions
}

func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
