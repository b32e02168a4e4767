// internal/domain/models.go
package domain

import (
	"math"
	"time"
)

// StockMetricRow is one observation of an item's stock state at a location.
// Numeric fields are nil when the warehouse has no value for them.
type StockMetricRow struct {
	Location            string     `json:"location" db:"location"`
	Item                string     `json:"item" db:"item"`
	Date                *time.Time `json:"date,omitempty" db:"date"`
	DaysOfCover         *float64   `json:"days_of_cover" db:"days_of_cover"`
	ClosingStock        *float64   `json:"closing_stock" db:"closing_stock"`
	AvgDailyConsumption *float64   `json:"avg_daily_consumption" db:"avg_daily_consumption"`
	LeadTimeDays        *float64   `json:"lead_time_days" db:"lead_time_days"`
}

// AlertRow is a StockMetricRow at or above HIGH risk, annotated for the alert table.
// DaysOfCover is rounded to 1 decimal and AvgDailyConsumption to 2 decimals.
// ReorderQuantity is nil when it cannot be computed, which is not the same as zero.
type AlertRow struct {
	Location            string     `json:"location"`
	Item                string     `json:"item"`
	Date                *time.Time `json:"date,omitempty"`
	RiskLevel           RiskTier   `json:"risk_level"`
	DaysOfCover         float64    `json:"days_of_cover"`
	ClosingStock        *float64   `json:"closing_stock"`
	AvgDailyConsumption *float64   `json:"avg_daily_consumption"`
	LeadTimeDays        *float64   `json:"lead_time_days"`
	ReorderQuantity     *int       `json:"reorder_quantity"`
	ActionRequired      string     `json:"action_required"`
}

// RiskSummary holds the KPI figures derived from an alert set
type RiskSummary struct {
	LocationCount          int      `json:"location_count"`
	ItemCount              int      `json:"item_count"`
	CriticalCount          int      `json:"critical_count"`
	HighCount              int      `json:"high_count"`
	MinDaysOfCover         *float64 `json:"min_days_of_cover"`
	TotalReorderUnits      int      `json:"total_reorder_units"`
	UncomputedReorderCount int      `json:"uncomputed_reorder_count"`
}

// AtRiskCount is the number of alert rows at HIGH or CRITICAL.
func (s RiskSummary) AtRiskCount() int {
	return s.CriticalCount + s.HighCount
}

// MetricsFilter narrows the rows read from the stock metrics table
type MetricsFilter struct {
	Locations []string    `json:"locations"`
	Items     []string    `json:"items"`
	StockDate string      `json:"stock_date"`
	View      HeatmapView `json:"view"`
}

// Known reports whether v holds a usable number. NaN and ±Inf are unknown.
func Known(v *float64) bool {
	return v != nil && finite(*v)
}

// Float returns a pointer to v. NaN and ±Inf are stored as nil.
func Float(v float64) *float64 {
	if !finite(v) {
		return nil
	}
	return &v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
