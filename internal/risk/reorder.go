package risk

import (
	"math"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// MaxReorderQuantity bounds a computable reorder. Anything larger is treated
// as bad input and reported as "cannot compute".
const MaxReorderQuantity = 1 << 40

// ComputeReorderQuantity returns the units needed to cover consumption through
// the lead time: ceil(leadTime × consumption) − closingStock, floored at zero
// and rounded up to a whole unit. ok is false when any input is unknown.
func ComputeReorderQuantity(leadTimeDays, avgDailyConsumption, closingStock *float64) (qty int, ok bool) {
	if !domain.Known(leadTimeDays) || !domain.Known(avgDailyConsumption) || !domain.Known(closingStock) {
		return 0, false
	}

	demand := math.Ceil(*leadTimeDays * *avgDailyConsumption)
	need := math.Ceil(math.Max(0, demand-*closingStock))
	if math.IsNaN(need) || need > MaxReorderQuantity {
		return 0, false
	}

	return int(need), true
}

// ReorderQuantity is ComputeReorderQuantity for a row, nil when unknown.
func ReorderQuantity(row domain.StockMetricRow) *int {
	qty, ok := ComputeReorderQuantity(row.LeadTimeDays, row.AvgDailyConsumption, row.ClosingStock)
	if !ok {
		return nil
	}
	return &qty
}
