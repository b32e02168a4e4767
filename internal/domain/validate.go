package domain

import "strings"

// ValidateRows checks every row of a batch and returns the first problem as a
// *SchemaError. A single bad row rejects the whole batch.
func ValidateRows(rows []StockMetricRow) error {
	for i := range rows {
		if err := validateRow(i+1, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateRow(n int, row *StockMetricRow) error {
	if strings.TrimSpace(row.Location) == "" {
		return &SchemaError{Row: n, Field: "location", Reason: "missing"}
	}
	if strings.TrimSpace(row.Item) == "" {
		return &SchemaError{Row: n, Field: "item", Reason: "missing"}
	}

	numerics := []struct {
		field string
		value *float64
	}{
		{"days_of_cover", row.DaysOfCover},
		{"closing_stock", row.ClosingStock},
		{"avg_daily_consumption", row.AvgDailyConsumption},
		{"lead_time_days", row.LeadTimeDays},
	}
	for _, f := range numerics {
		if Known(f.value) && *f.value < 0 {
			return &SchemaError{Row: n, Field: f.field, Reason: "negative value"}
		}
	}
	return nil
}
