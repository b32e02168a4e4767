// Package risk classifies stock rows by days of cover and derives reorder
// recommendations. Every consumer (heatmap colouring, alert filter, KPI
// counts, SQL alert predicate) reads the thresholds below.
package risk

import (
	"github.com/andresuchdata/stockrisk/internal/domain"
)

// Days-of-cover thresholds. Intervals are half-open: [lower, upper).
const (
	CriticalThreshold = 3.0
	HighThreshold     = 7.0
	MediumThreshold   = 14.0

	// AlertThreshold is the exclusive upper bound of the alert set.
	AlertThreshold = HighThreshold
)

const (
	ActionOrderImmediately = "Order immediately"
	ActionOrderWithin24h   = "Order within 24 hrs"
	ActionMonitor          = "Monitor"
)

// ClassifyRisk maps days of cover to a tier. Unknown (nil or NaN) is UNCLASSIFIED.
func ClassifyRisk(daysOfCover *float64) domain.RiskTier {
	if !domain.Known(daysOfCover) {
		return domain.TierUnclassified
	}

	d := *daysOfCover
	switch {
	case d < CriticalThreshold:
		return domain.TierCritical
	case d < HighThreshold:
		return domain.TierHigh
	case d < MediumThreshold:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

// RecommendedAction is the 3-way split of the same thresholds.
func RecommendedAction(daysOfCover *float64) string {
	return ActionForTier(ClassifyRisk(daysOfCover))
}

func ActionForTier(tier domain.RiskTier) string {
	switch tier {
	case domain.TierCritical:
		return ActionOrderImmediately
	case domain.TierHigh:
		return ActionOrderWithin24h
	default:
		return ActionMonitor
	}
}

// IsAlert reports whether a row belongs in the alert set.
func IsAlert(daysOfCover *float64) bool {
	return domain.Known(daysOfCover) && *daysOfCover < AlertThreshold
}
