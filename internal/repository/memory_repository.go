package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/risk"
)

// memoryRepository answers the stock metrics queries over a loaded snapshot,
// e.g. a CSV extract, with the same semantics as the SQL versions.
type memoryRepository struct {
	rows []domain.StockMetricRow
}

func NewMemoryRepository(rows []domain.StockMetricRow) StockMetricsRepository {
	copied := make([]domain.StockMetricRow, len(rows))
	copy(copied, rows)
	return &memoryRepository{rows: copied}
}

func (r *memoryRepository) DailyTrend(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error) {
	var out []domain.StockMetricRow
	for _, row := range r.filtered(filter) {
		out = append(out, domain.StockMetricRow{
			Location:    row.Location,
			Item:        row.Item,
			Date:        row.Date,
			DaysOfCover: row.DaysOfCover,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if c := compareDates(a.Date, b.Date); c != 0 {
			return c < 0
		}
		return a.Item < b.Item
	})
	return out, nil
}

// CurrentRisk averages known values only, like SQL AVG skipping NULLs.
func (r *memoryRepository) CurrentRisk(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error) {
	type key struct{ location, item string }
	type acc struct {
		sum   float64
		count int
	}

	var order []key
	sums := make(map[key]*acc)
	for _, row := range r.filtered(filter) {
		k := key{row.Location, row.Item}
		a, ok := sums[k]
		if !ok {
			a = &acc{}
			sums[k] = a
			order = append(order, k)
		}
		if domain.Known(row.DaysOfCover) {
			a.sum += *row.DaysOfCover
			a.count++
		}
	}

	out := make([]domain.StockMetricRow, 0, len(order))
	for _, k := range order {
		row := domain.StockMetricRow{Location: k.location, Item: k.item}
		if a := sums[k]; a.count > 0 {
			row.DaysOfCover = domain.Float(a.sum / float64(a.count))
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Item < out[j].Item
	})
	return out, nil
}

func (r *memoryRepository) AlertCandidates(ctx context.Context, filter domain.MetricsFilter) ([]domain.StockMetricRow, error) {
	var out []domain.StockMetricRow
	for _, row := range r.filtered(filter) {
		if risk.IsAlert(row.DaysOfCover) {
			out = append(out, row)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if *a.DaysOfCover != *b.DaysOfCover {
			return *a.DaysOfCover < *b.DaysOfCover
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		return a.Item < b.Item
	})
	return out, nil
}

func (r *memoryRepository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, row := range r.rows {
		if row.Date == nil {
			continue
		}
		d := row.Date.Truncate(24 * time.Hour)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	if len(dates) > limit {
		dates = dates[:limit]
	}
	return dates, nil
}

func (r *memoryRepository) filtered(filter domain.MetricsFilter) []domain.StockMetricRow {
	locations := toSet(normalize(filter.Locations))
	items := toSet(normalize(filter.Items))

	var stockDate *time.Time
	if raw := strings.TrimSpace(filter.StockDate); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			stockDate = &d
		} else {
			// an unparseable date matches nothing, as the SQL cast would fail
			return nil
		}
	}

	var out []domain.StockMetricRow
	for _, row := range r.rows {
		if len(locations) > 0 {
			if _, ok := locations[row.Location]; !ok {
				continue
			}
		}
		if len(items) > 0 {
			if _, ok := items[row.Item]; !ok {
				continue
			}
		}
		if stockDate != nil {
			if row.Date == nil || row.Date.Format("2006-01-02") != stockDate.Format("2006-01-02") {
				continue
			}
		}
		out = append(out, row)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// compareDates orders nil dates first.
func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
