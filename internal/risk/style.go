package risk

import (
	"math"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

var tierStyles = map[domain.RiskTier]domain.CellStyle{
	domain.TierCritical: {Background: "#b11226", Foreground: "white"},
	domain.TierHigh:     {Background: "#f04e23", Foreground: "white"},
	domain.TierMedium:   {Background: "#f6c343", Foreground: "black"},
	domain.TierLow:      {Background: "#2ca25f", Foreground: "white"},
}

// TierStyle returns the fixed colour of a tier. UNCLASSIFIED gets the zero style.
func TierStyle(tier domain.RiskTier) domain.CellStyle {
	return tierStyles[tier]
}

// ColorDays is the heatmap colouring callback: value in, style out.
func ColorDays(daysOfCover *float64) domain.CellStyle {
	return TierStyle(ClassifyRisk(daysOfCover))
}

// TierInfo describes one tier for a legend
type TierInfo struct {
	Tier   domain.RiskTier  `json:"tier"`
	Min    *float64         `json:"min_days"`
	Max    *float64         `json:"max_days"`
	Action string           `json:"action"`
	Style  domain.CellStyle `json:"style"`
}

// Tiers lists the classified tiers from most to least urgent.
func Tiers() []TierInfo {
	bounds := []struct {
		tier     domain.RiskTier
		min, max float64
	}{
		{domain.TierCritical, math.Inf(-1), CriticalThreshold},
		{domain.TierHigh, CriticalThreshold, HighThreshold},
		{domain.TierMedium, HighThreshold, MediumThreshold},
		{domain.TierLow, MediumThreshold, math.Inf(1)},
	}

	infos := make([]TierInfo, 0, len(bounds))
	for _, b := range bounds {
		info := TierInfo{
			Tier:   b.tier,
			Action: ActionForTier(b.tier),
			Style:  TierStyle(b.tier),
		}
		if !math.IsInf(b.min, 0) {
			info.Min = domain.Float(b.min)
		}
		if !math.IsInf(b.max, 0) {
			info.Max = domain.Float(b.max)
		}
		infos = append(infos, info)
	}
	return infos
}
