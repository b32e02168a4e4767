package risk

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// Summarize derives the KPI figures of an alert set. An empty set yields the
// zero summary with MinDaysOfCover nil.
func Summarize(alerts []domain.AlertRow) domain.RiskSummary {
	var summary domain.RiskSummary

	locations := make(map[string]struct{})
	items := make(map[string]struct{})
	for _, a := range alerts {
		locations[a.Location] = struct{}{}
		items[a.Item] = struct{}{}

		switch a.RiskLevel {
		case domain.TierCritical:
			summary.CriticalCount++
		case domain.TierHigh:
			summary.HighCount++
		}

		if summary.MinDaysOfCover == nil || a.DaysOfCover < *summary.MinDaysOfCover {
			cover := a.DaysOfCover
			summary.MinDaysOfCover = &cover
		}

		if a.ReorderQuantity != nil {
			summary.TotalReorderUnits += *a.ReorderQuantity
		} else {
			summary.UncomputedReorderCount++
		}
	}

	summary.LocationCount = len(locations)
	summary.ItemCount = len(items)
	return summary
}

const noRiskInsight = "No items are currently at high or critical risk. No immediate reordering is required."

// BuildInsight renders the plain-language status line.
func BuildInsight(summary domain.RiskSummary, alerts []domain.AlertRow) string {
	if len(alerts) == 0 || summary.MinDaysOfCover == nil {
		return noRiskInsight
	}

	return fmt.Sprintf(
		"%d items are at high or critical risk. "+
			"The most urgent shortages are observed at %s. "+
			"Some items have as little as %.1f days of stock remaining. "+
			"Immediate reordering is recommended.",
		summary.AtRiskCount(),
		strings.Join(distinctLocations(alerts), ", "),
		*summary.MinDaysOfCover,
	)
}

// distinctLocations keeps first-seen order.
func distinctLocations(alerts []domain.AlertRow) []string {
	seen := make(map[string]struct{}, len(alerts))
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		if _, ok := seen[a.Location]; ok {
			continue
		}
		seen[a.Location] = struct{}{}
		out = append(out, a.Location)
	}
	return out
}

// KPIs builds the six summary cards.
func KPIs(summary domain.RiskSummary) []domain.KPI {
	minCover := "–"
	if summary.MinDaysOfCover != nil {
		minCover = fmt.Sprintf("%.1f", *summary.MinDaysOfCover)
	}

	return []domain.KPI{
		{Label: "Locations", Value: fmt.Sprintf("%d", summary.LocationCount)},
		{Label: "Items", Value: fmt.Sprintf("%d", summary.ItemCount)},
		{Label: "Critical Items", Value: fmt.Sprintf("%d", summary.CriticalCount)},
		{Label: "High Risk Items", Value: fmt.Sprintf("%d", summary.HighCount)},
		{Label: "Min Days Cover", Value: minCover},
		{Label: "Units to Reorder", Value: fmt.Sprintf("%d", summary.TotalReorderUnits)},
	}
}
