package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/export"
	"github.com/andresuchdata/stockrisk/internal/storage"
)

// AlertSource is the part of the risk service the export job needs.
type AlertSource interface {
	Alerts(ctx context.Context, filter domain.MetricsFilter) ([]domain.AlertRow, error)
}

// SheetPublisher mirrors the alert table somewhere people can read it.
type SheetPublisher interface {
	Publish(ctx context.Context, alerts []domain.AlertRow) error
}

type ExportResult struct {
	Key       string
	Rows      int
	Uploaded  bool
	Published bool
}

// ExportJob builds the reorder recommendations once and fans them out to
// object storage and, when configured, a spreadsheet.
type ExportJob struct {
	alerts    AlertSource
	store     storage.ObjectStorage
	publisher SheetPublisher
	prefix    string
	fileName  string
}

// NewExportJob accepts nil store or publisher to skip that destination.
func NewExportJob(alerts AlertSource, store storage.ObjectStorage, publisher SheetPublisher, prefix, fileName string) *ExportJob {
	if fileName == "" {
		fileName = export.DefaultFileName
	}
	return &ExportJob{
		alerts:    alerts,
		store:     store,
		publisher: publisher,
		prefix:    prefix,
		fileName:  fileName,
	}
}

func (j *ExportJob) Run(ctx context.Context, now time.Time) (ExportResult, error) {
	result := ExportResult{Key: storage.ExportKey(j.prefix, now, j.fileName)}

	alerts, err := j.alerts.Alerts(ctx, domain.MetricsFilter{})
	if err != nil {
		return result, err
	}
	result.Rows = len(alerts)

	if j.store != nil {
		var buf bytes.Buffer
		if err := export.WriteAlertsCSV(&buf, alerts); err != nil {
			return result, fmt.Errorf("error writing export: %w", err)
		}
		if err := j.store.UploadObject(ctx, result.Key, buf.Bytes(), export.ContentType); err != nil {
			return result, err
		}
		result.Uploaded = true
	}

	if j.publisher != nil {
		if err := j.publisher.Publish(ctx, alerts); err != nil {
			return result, fmt.Errorf("error publishing export: %w", err)
		}
		result.Published = true
	}

	return result, nil
}
