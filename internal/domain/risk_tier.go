package domain

import "strings"

// RiskTier is the stock-out risk bucket of a row, derived from days of cover.
type RiskTier string

const (
	TierCritical     RiskTier = "CRITICAL"
	TierHigh         RiskTier = "HIGH"
	TierMedium       RiskTier = "MEDIUM"
	TierLow          RiskTier = "LOW"
	TierUnclassified RiskTier = "UNCLASSIFIED"
)

var tierRanks = map[RiskTier]int{
	TierCritical: 4,
	TierHigh:     3,
	TierMedium:   2,
	TierLow:      1,
}

// Rank orders tiers by urgency. UNCLASSIFIED ranks 0.
func (t RiskTier) Rank() int {
	return tierRanks[t]
}

// IsClassified is false for UNCLASSIFIED and unknown values.
func (t RiskTier) IsClassified() bool {
	_, ok := tierRanks[t]
	return ok
}

// ParseRiskTier returns the tier for a label (case-insensitive).
func ParseRiskTier(label string) (RiskTier, bool) {
	tier := RiskTier(strings.ToUpper(strings.TrimSpace(label)))
	if tier == TierUnclassified {
		return tier, true
	}
	_, ok := tierRanks[tier]
	return tier, ok
}
