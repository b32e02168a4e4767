package drive

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

var requiredColumns = []string{"location", "item"}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "20060102"}

// ParseMetricsCSV reads a stock_metrics extract. Header names are matched
// case-insensitively; only LOCATION and ITEM are required. Empty, "NaN" and
// "NULL" cells are unknown. Any malformed row rejects the whole file.
func ParseMetricsCSV(r io.Reader) ([]domain.StockMetricRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &domain.SchemaError{Field: "header", Reason: "empty file"}
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &domain.SchemaError{Field: "header", Reason: "malformed CSV", Err: err}
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Map header to indices
	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}

	for _, col := range requiredColumns {
		if _, ok := colMap[col]; !ok {
			return nil, &domain.SchemaError{Field: col, Reason: "missing required column"}
		}
	}

	var rows []domain.StockMetricRow
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &domain.SchemaError{Row: line, Field: "record", Reason: "malformed CSV", Err: err}
			}
			return nil, fmt.Errorf("failed to read CSV record %d: %w", line, err)
		}

		row, err := parseRecord(line, record, colMap)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if err := domain.ValidateRows(rows); err != nil {
		return nil, err
	}

	return rows, nil
}

func parseRecord(line int, record []string, colMap map[string]int) (domain.StockMetricRow, error) {
	get := func(col string) string {
		if idx, ok := colMap[col]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	row := domain.StockMetricRow{
		Location: get("location"),
		Item:     get("item"),
	}

	if raw := get("date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return row, &domain.SchemaError{Row: line, Field: "date", Reason: fmt.Sprintf("invalid date %q", raw), Err: err}
		}
		row.Date = &d
	}

	numerics := []struct {
		col  string
		dest **float64
	}{
		{"days_of_cover", &row.DaysOfCover},
		{"closing_stock", &row.ClosingStock},
		{"avg_daily_consumption", &row.AvgDailyConsumption},
		{"lead_time_days", &row.LeadTimeDays},
	}
	for _, n := range numerics {
		v, err := parseNumber(get(n.col))
		if err != nil {
			return row, &domain.SchemaError{Row: line, Field: n.col, Reason: "not a number", Err: err}
		}
		*n.dest = v
	}

	return row, nil
}

func parseNumber(raw string) (*float64, error) {
	switch strings.ToLower(raw) {
	case "", "nan", "null", "none", "n/a":
		return nil, nil
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return nil, err
	}
	return domain.Float(v), nil
}

func parseDate(raw string) (time.Time, error) {
	var errs []error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		errs = append(errs, err)
	}
	return time.Time{}, errors.Join(errs...)
}

// Loader pulls a metrics extract from Drive and parses it.
type Loader struct {
	driveService *Service
}

func NewLoader(driveService *Service) *Loader {
	return &Loader{driveService: driveService}
}

// LoadFile streams a Drive file straight into the CSV parser.
func (l *Loader) LoadFile(ctx context.Context, fileID string) ([]domain.StockMetricRow, error) {
	pr, pw := io.Pipe()
	go func() {
		err := l.driveService.DownloadFile(ctx, fileID, pw)
		pw.CloseWithError(err)
	}()

	rows, err := ParseMetricsCSV(pr)
	// unblock the downloader if parsing stopped early
	pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		var schemaErr *domain.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, err
		}
		return nil, &domain.DataSourceError{Op: "download drive file " + fileID, Err: err}
	}
	return rows, nil
}

// LoadLatest loads the most recently modified CSV in a folder.
func (l *Loader) LoadLatest(ctx context.Context, folderID string) ([]domain.StockMetricRow, *File, error) {
	files, err := l.driveService.ListCSVFiles(ctx, folderID)
	if err != nil {
		return nil, nil, &domain.DataSourceError{Op: "list drive folder", Err: err}
	}
	if len(files) == 0 {
		return nil, nil, &domain.DataSourceError{Op: "list drive folder", Err: fmt.Errorf("no CSV files in folder %s", folderID)}
	}

	rows, err := l.LoadFile(ctx, files[0].ID)
	if err != nil {
		return nil, nil, err
	}
	return rows, files[0], nil
}
