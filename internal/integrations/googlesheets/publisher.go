package googlesheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/export"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Publisher replaces the contents of one sheet tab with the current alert table.
type Publisher struct {
	sheetsService *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewPublisher(ctx context.Context, cfg config.SheetsConfig) (*Publisher, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("spreadsheet id must be provided")
	}
	if strings.TrimSpace(cfg.CredentialsJSON) == "" {
		return nil, fmt.Errorf("sheets credentials must be provided")
	}

	service, err := sheets.NewService(ctx,
		option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return NewPublisherWithService(service, cfg.SpreadsheetID, cfg.SheetName), nil
}

func NewPublisherWithService(service *sheets.Service, spreadsheetID, sheetName string) *Publisher {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Alerts"
	}
	return &Publisher{sheetsService: service, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// Publish clears the tab and writes the header plus one row per alert.
func (p *Publisher) Publish(ctx context.Context, alerts []domain.AlertRow) error {
	sheetRange := quoteSheet(p.sheetName)

	_, err := p.sheetsService.Spreadsheets.Values.
		Clear(p.spreadsheetID, sheetRange, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("clear range %s: %w", sheetRange, err)
	}

	payload := &sheets.ValueRange{Values: Values(alerts)}
	_, err = p.sheetsService.Spreadsheets.Values.
		Update(p.spreadsheetID, sheetRange+"!A1", payload).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update range %s: %w", sheetRange, err)
	}

	log.Info().
		Str("spreadsheet_id", p.spreadsheetID).
		Str("sheet", p.sheetName).
		Int("rows", len(alerts)).
		Msg("reorder recommendations published")
	return nil
}

// Values lays out alerts exactly like the CSV export.
func Values(alerts []domain.AlertRow) [][]interface{} {
	values := make([][]interface{}, 0, len(alerts)+1)
	values = append(values, toCells(export.Header))
	for _, a := range alerts {
		values = append(values, toCells(export.Record(a)))
	}
	return values
}

func toCells(record []string) []interface{} {
	cells := make([]interface{}, len(record))
	for i, v := range record {
		cells[i] = v
	}
	return cells
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
