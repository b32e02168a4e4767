package risk

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// BuildAlertSet keeps rows with known days of cover below AlertThreshold,
// annotates them and orders them most urgent first. Equal covers keep their
// input order. Tier and action are derived from the unrounded value; only the
// presented fields are rounded.
func BuildAlertSet(rows []domain.StockMetricRow) []domain.AlertRow {
	candidates := make([]domain.StockMetricRow, 0, len(rows))
	for _, row := range rows {
		if IsAlert(row.DaysOfCover) {
			candidates = append(candidates, row)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].DaysOfCover < *candidates[j].DaysOfCover
	})

	alerts := make([]domain.AlertRow, 0, len(candidates))
	for _, row := range candidates {
		alerts = append(alerts, domain.AlertRow{
			Location:            row.Location,
			Item:                row.Item,
			Date:                row.Date,
			RiskLevel:           ClassifyRisk(row.DaysOfCover),
			DaysOfCover:         RoundHalfUp(*row.DaysOfCover, DaysOfCoverPlaces),
			ClosingStock:        knownOrNil(row.ClosingStock),
			AvgDailyConsumption: roundPtr(row.AvgDailyConsumption, AvgDailyConsumptionPlaces),
			LeadTimeDays:        knownOrNil(row.LeadTimeDays),
			ReorderQuantity:     ReorderQuantity(row),
			ActionRequired:      RecommendedAction(row.DaysOfCover),
		})
	}

	return alerts
}

func knownOrNil(v *float64) *float64 {
	if !domain.Known(v) {
		return nil
	}
	return v
}

// ParseMinLevel reads a minimum alert level such as "critical". Empty input
// means no minimum and returns the zero tier.
func ParseMinLevel(raw string) (domain.RiskTier, error) {
	if raw == "" {
		return "", nil
	}
	tier, ok := domain.ParseRiskTier(raw)
	if !ok || !tier.IsClassified() {
		return "", fmt.Errorf("unknown risk level %q", raw)
	}
	return tier, nil
}

// FilterMinLevel keeps alerts ranked at or above level, preserving order. The
// zero tier keeps everything.
func FilterMinLevel(alerts []domain.AlertRow, level domain.RiskTier) []domain.AlertRow {
	if level == "" {
		return alerts
	}
	kept := make([]domain.AlertRow, 0, len(alerts))
	for _, a := range alerts {
		if a.RiskLevel.Rank() >= level.Rank() {
			kept = append(kept, a)
		}
	}
	return kept
}
