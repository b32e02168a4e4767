package domain

import "time"

// HeatmapView selects the heatmap granularity
type HeatmapView string

const (
	// ViewCurrent averages days of cover per (location, item)
	ViewCurrent HeatmapView = "current"
	// ViewDaily keeps one value per (location, date, item)
	ViewDaily HeatmapView = "daily"
)

// ParseHeatmapView defaults to the aggregated view.
func ParseHeatmapView(raw string) HeatmapView {
	switch HeatmapView(raw) {
	case ViewDaily, "trend", "daily_trend":
		return ViewDaily
	default:
		return ViewCurrent
	}
}

// CellStyle is the background/foreground pair a renderer paints a cell with.
// The zero value means "do not paint".
type CellStyle struct {
	Background string `json:"background,omitempty"`
	Foreground string `json:"foreground,omitempty"`
}

// CSS renders the style the way a table styler expects it.
func (s CellStyle) CSS() string {
	if s.Background == "" {
		return ""
	}
	return "background-color:" + s.Background + ";color:" + s.Foreground
}

// HeatmapCell is one (row, item) value of the pivoted matrix
type HeatmapCell struct {
	Item        string    `json:"item"`
	DaysOfCover *float64  `json:"days_of_cover"`
	RiskLevel   RiskTier  `json:"risk_level"`
	Style       CellStyle `json:"style"`
}

// HeatmapRow is one index entry of the pivoted matrix
type HeatmapRow struct {
	Location string        `json:"location"`
	Date     *time.Time    `json:"date,omitempty"`
	Cells    []HeatmapCell `json:"cells"`
}

// Heatmap is the pivoted days-of-cover matrix
type Heatmap struct {
	View  HeatmapView  `json:"view"`
	Items []string     `json:"items"`
	Rows  []HeatmapRow `json:"rows"`
}

// KPI is one summary card
type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// RiskDashboard aggregates everything the dashboard renders
type RiskDashboard struct {
	Heatmap Heatmap     `json:"heatmap"`
	Alerts  []AlertRow  `json:"alerts"`
	Summary RiskSummary `json:"summary"`
	KPIs    []KPI       `json:"kpis"`
	Insight string      `json:"insight"`
}
