package risk

import (
	"math"
	"testing"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(loc, item string, cover, stock, cons, lead *float64) domain.StockMetricRow {
	return domain.StockMetricRow{
		Location:            loc,
		Item:                item,
		DaysOfCover:         cover,
		ClosingStock:        stock,
		AvgDailyConsumption: cons,
		LeadTimeDays:        lead,
	}
}

func TestEndToEnd(t *testing.T) {
	rows := []domain.StockMetricRow{
		row("A", "X", f(2), f(5), f(3), f(4)),
		row("B", "Y", f(10), f(50), f(5), f(2)),
	}

	alerts := BuildAlertSet(rows)
	require.Len(t, alerts, 1)

	a := alerts[0]
	assert.Equal(t, "A", a.Location)
	assert.Equal(t, "X", a.Item)
	assert.Equal(t, domain.TierCritical, a.RiskLevel)
	require.NotNil(t, a.ReorderQuantity)
	assert.Equal(t, 7, *a.ReorderQuantity)
	assert.Equal(t, ActionOrderImmediately, a.ActionRequired)

	summary := Summarize(alerts)
	assert.Equal(t, 1, summary.LocationCount)
	assert.Equal(t, 1, summary.ItemCount)
	assert.Equal(t, 1, summary.CriticalCount)
	assert.Equal(t, 0, summary.HighCount)
	require.NotNil(t, summary.MinDaysOfCover)
	assert.Equal(t, 2.0, *summary.MinDaysOfCover)
	assert.Equal(t, 7, summary.TotalReorderUnits)

	assert.Equal(t,
		"1 items are at high or critical risk. The most urgent shortages are observed at A. "+
			"Some items have as little as 2.0 days of stock remaining. Immediate reordering is recommended.",
		BuildInsight(summary, alerts))
}

func TestBuildAlertSetFiltersAndSorts(t *testing.T) {
	rows := []domain.StockMetricRow{
		row("A", "1", f(6.5), nil, nil, nil),
		row("A", "2", nil, f(1), f(1), f(1)),
		row("B", "3", f(7), nil, nil, nil),
		row("B", "4", f(0.2), nil, nil, nil),
		row("C", "5", f(30), nil, nil, nil),
		row("C", "6", f(3), nil, nil, nil),
		row("D", "7", f(6.96), nil, nil, nil),
	}

	alerts := BuildAlertSet(rows)
	require.Len(t, alerts, 4)

	items := make([]string, 0, len(alerts))
	for i, a := range alerts {
		items = append(items, a.Item)
		assert.Less(t, a.DaysOfCover, 7.0+0.05)
		if i > 0 {
			assert.LessOrEqual(t, alerts[i-1].DaysOfCover, a.DaysOfCover)
		}
	}
	assert.Equal(t, []string{"4", "6", "1", "7"}, items)

	// 6.96 displays as 7.0 but stays HIGH
	assert.Equal(t, 7.0, alerts[3].DaysOfCover)
	assert.Equal(t, domain.TierHigh, alerts[3].RiskLevel)
	assert.Nil(t, alerts[3].ReorderQuantity)
}

func TestBuildAlertSetStableTies(t *testing.T) {
	rows := []domain.StockMetricRow{
		row("B", "first", f(4), nil, nil, nil),
		row("A", "second", f(4), nil, nil, nil),
		row("C", "zero", f(1), nil, nil, nil),
		row("A", "third", f(4), nil, nil, nil),
	}

	alerts := BuildAlertSet(rows)
	require.Len(t, alerts, 4)
	assert.Equal(t, "zero", alerts[0].Item)
	assert.Equal(t, "first", alerts[1].Item)
	assert.Equal(t, "second", alerts[2].Item)
	assert.Equal(t, "third", alerts[3].Item)
}

func TestDisplayRoundingDoesNotAffectTier(t *testing.T) {
	alerts := BuildAlertSet([]domain.StockMetricRow{
		row("A", "X", f(20.0/3.0), f(1), f(2.345678), f(1)),
	})
	require.Len(t, alerts, 1)
	assert.Equal(t, 6.7, alerts[0].DaysOfCover)
	assert.Equal(t, domain.TierHigh, alerts[0].RiskLevel)
	assert.Equal(t, ActionOrderWithin24h, alerts[0].ActionRequired)
	require.NotNil(t, alerts[0].AvgDailyConsumption)
	assert.Equal(t, 2.35, *alerts[0].AvgDailyConsumption)
	// reorder uses the unrounded consumption: ceil(2.345678) - 1 = 2
	assert.Equal(t, 2, *alerts[0].ReorderQuantity)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, domain.RiskSummary{}, summary)
	assert.Nil(t, summary.MinDaysOfCover)

	insight := BuildInsight(summary, nil)
	assert.Equal(t, noRiskInsight, insight)

	kpis := KPIs(summary)
	require.Len(t, kpis, 6)
	assert.Equal(t, "–", kpis[4].Value)
	assert.Equal(t, "0", kpis[5].Value)
}

func TestSummarizeCounts(t *testing.T) {
	alerts := BuildAlertSet([]domain.StockMetricRow{
		row("North", "X", f(1), f(0), f(2), f(3)),
		row("South", "X", f(5), f(10), f(2), f(10)),
		row("North", "Y", f(2.5), nil, f(1), f(1)),
		row("East", "Z", f(6), f(100), f(1), f(1)),
	})

	summary := Summarize(alerts)
	assert.Equal(t, 3, summary.LocationCount)
	assert.Equal(t, 3, summary.ItemCount)
	assert.Equal(t, 2, summary.CriticalCount)
	assert.Equal(t, 2, summary.HighCount)
	assert.Equal(t, 1.0, *summary.MinDaysOfCover)
	// 6 + 10 + 0, one row uncomputable
	assert.Equal(t, 16, summary.TotalReorderUnits)
	assert.Equal(t, 1, summary.UncomputedReorderCount)

	insight := BuildInsight(summary, alerts)
	assert.Contains(t, insight, "4 items are at high or critical risk.")
	assert.Contains(t, insight, "observed at North, South, East.")
	assert.Contains(t, insight, "as little as 1.0 days")

	kpis := KPIs(summary)
	assert.Equal(t, domain.KPI{Label: "Min Days Cover", Value: "1.0"}, kpis[4])
	assert.Equal(t, domain.KPI{Label: "Units to Reorder", Value: "16"}, kpis[5])
}

func TestBuildAlertSetNonFiniteInputs(t *testing.T) {
	inf := math.Inf(1)
	alerts := BuildAlertSet([]domain.StockMetricRow{
		{Location: "A", Item: "X", DaysOfCover: &inf, ClosingStock: f(1), AvgDailyConsumption: f(1), LeadTimeDays: f(1)},
		{Location: "B", Item: "Y", DaysOfCover: f(1), ClosingStock: &inf, AvgDailyConsumption: f(2), LeadTimeDays: &inf},
	})

	require.Len(t, alerts, 1)
	assert.Equal(t, "B", alerts[0].Location)
	assert.Nil(t, alerts[0].ClosingStock)
	assert.Nil(t, alerts[0].LeadTimeDays)
	assert.Nil(t, alerts[0].ReorderQuantity)
}

func TestSummarizeSkipsOversizedReorder(t *testing.T) {
	alerts := BuildAlertSet([]domain.StockMetricRow{
		row("North", "X", f(1), f(0), f(1e10), f(1e10)),
		row("South", "Y", f(2), f(1), f(2), f(3)),
	})

	summary := Summarize(alerts)
	assert.Equal(t, 5, summary.TotalReorderUnits)
	assert.Equal(t, 1, summary.UncomputedReorderCount)
}

func TestParseMinLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    domain.RiskTier
		wantErr bool
	}{
		{"", "", false},
		{"critical", domain.TierCritical, false},
		{" High ", domain.TierHigh, false},
		{"LOW", domain.TierLow, false},
		{"unclassified", "", true},
		{"severe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseMinLevel(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterMinLevel(t *testing.T) {
	alerts := BuildAlertSet([]domain.StockMetricRow{
		row("A", "X", f(1), nil, nil, nil),
		row("B", "Y", f(5), nil, nil, nil),
		row("C", "Z", f(2), nil, nil, nil),
	})

	critical := FilterMinLevel(alerts, domain.TierCritical)
	require.Len(t, critical, 2)
	assert.Equal(t, "A", critical[0].Location)
	assert.Equal(t, "C", critical[1].Location)

	assert.Len(t, FilterMinLevel(alerts, domain.TierHigh), 3)
	assert.Len(t, FilterMinLevel(alerts, domain.TierLow), 3)
	assert.Equal(t, alerts, FilterMinLevel(alerts, ""))
}
