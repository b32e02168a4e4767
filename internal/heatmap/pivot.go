// Package heatmap pivots stock metric rows into the days-of-cover matrix the
// dashboard paints.
package heatmap

import (
	"sort"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/risk"
)

type rowKey struct {
	location string
	date     time.Time
	hasDate  bool
}

type accumulator struct {
	sum   float64
	count int
}

// Pivot builds the matrix for a view. The current view indexes by location,
// the daily view by (location, date). Cells average every known value that
// falls on them; rows and item columns without any known value are dropped.
func Pivot(view domain.HeatmapView, rows []domain.StockMetricRow) domain.Heatmap {
	cells := make(map[rowKey]map[string]*accumulator)
	itemSet := make(map[string]struct{})

	for _, r := range rows {
		if !domain.Known(r.DaysOfCover) {
			continue
		}

		key := rowKey{location: r.Location}
		if view == domain.ViewDaily && r.Date != nil {
			key.date = truncateDay(*r.Date)
			key.hasDate = true
		}

		byItem, ok := cells[key]
		if !ok {
			byItem = make(map[string]*accumulator)
			cells[key] = byItem
		}
		acc, ok := byItem[r.Item]
		if !ok {
			acc = &accumulator{}
			byItem[r.Item] = acc
		}
		acc.sum += *r.DaysOfCover
		acc.count++
		itemSet[r.Item] = struct{}{}
	}

	items := make([]string, 0, len(itemSet))
	for item := range itemSet {
		items = append(items, item)
	}
	sort.Strings(items)

	keys := make([]rowKey, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].location != keys[j].location {
			return keys[i].location < keys[j].location
		}
		if keys[i].hasDate != keys[j].hasDate {
			return !keys[i].hasDate
		}
		return keys[i].date.Before(keys[j].date)
	})

	heatmap := domain.Heatmap{
		View:  view,
		Items: items,
		Rows:  make([]domain.HeatmapRow, 0, len(keys)),
	}
	for _, key := range keys {
		hr := domain.HeatmapRow{
			Location: key.location,
			Cells:    make([]domain.HeatmapCell, 0, len(items)),
		}
		if key.hasDate {
			d := key.date
			hr.Date = &d
		}
		for _, item := range items {
			hr.Cells = append(hr.Cells, newCell(item, cells[key][item]))
		}
		heatmap.Rows = append(heatmap.Rows, hr)
	}

	return heatmap
}

func newCell(item string, acc *accumulator) domain.HeatmapCell {
	cell := domain.HeatmapCell{Item: item}
	if acc != nil && acc.count > 0 {
		cell.DaysOfCover = domain.Float(acc.sum / float64(acc.count))
	}
	cell.RiskLevel = risk.ClassifyRisk(cell.DaysOfCover)
	cell.Style = risk.TierStyle(cell.RiskLevel)
	return cell
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
