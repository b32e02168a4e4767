// Package export writes alert rows in the reorder-recommendations CSV layout.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/risk"
	"github.com/shopspring/decimal"
)

const (
	DefaultFileName = "reorder_recommendations.csv"
	ContentType     = "text/csv"
)

// Header is the column order of the export.
var Header = []string{
	"LOCATION",
	"ITEM",
	"RISK_LEVEL",
	"DAYS_OF_COVER",
	"CLOSING_STOCK",
	"AVG_DAILY_CONSUMPTION",
	"LEAD_TIME_DAYS",
	"REORDER_QUANTITY",
	"ACTION_REQUIRED",
}

// WriteAlertsCSV writes the header and one record per alert. Unknown values
// are written as empty fields.
func WriteAlertsCSV(w io.Writer, alerts []domain.AlertRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, a := range alerts {
		if err := writer.Write(Record(a)); err != nil {
			return fmt.Errorf("failed to write CSV record %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// Record renders one alert in Header order.
func Record(a domain.AlertRow) []string {
	return []string{
		a.Location,
		a.Item,
		string(a.RiskLevel),
		fixed(&a.DaysOfCover, risk.DaysOfCoverPlaces),
		plain(a.ClosingStock),
		fixed(a.AvgDailyConsumption, risk.AvgDailyConsumptionPlaces),
		plain(a.LeadTimeDays),
		quantity(a.ReorderQuantity),
		a.ActionRequired,
	}
}

func fixed(v *float64, places int32) string {
	if !domain.Known(v) {
		return ""
	}
	return decimal.NewFromFloat(*v).StringFixed(places)
}

func plain(v *float64) string {
	if !domain.Known(v) {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func quantity(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
