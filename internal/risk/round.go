package risk

import (
	"math"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/shopspring/decimal"
)

// Presentation precision of alert rows.
const (
	DaysOfCoverPlaces         = 1
	AvgDailyConsumptionPlaces = 2
)

// RoundHalfUp rounds v to places decimals, half away from zero, on the
// shortest decimal representation of v (so 5.45 → 5.5, not 5.4).
func RoundHalfUp(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundPtr(v *float64, places int32) *float64 {
	if !domain.Known(v) {
		return nil
	}
	r := RoundHalfUp(*v, places)
	return &r
}
