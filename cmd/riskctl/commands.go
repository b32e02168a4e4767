package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/stockrisk/internal/cache"
	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/export"
	"github.com/andresuchdata/stockrisk/internal/integrations/googlesheets"
	"github.com/andresuchdata/stockrisk/internal/risk"
	"github.com/andresuchdata/stockrisk/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func runAlerts(c *cli.Context) error {
	minLevel, err := risk.ParseMinLevel(c.String("min-level"))
	if err != nil {
		return err
	}
	svc, err := riskService(c)
	if err != nil {
		return err
	}

	alerts, err := svc.Alerts(c.Context, filterFromFlags(c))
	if err != nil {
		return err
	}
	alerts = risk.FilterMinLevel(alerts, minLevel)

	if c.String("format") == "json" {
		return writeJSON(c.App.Writer, alerts)
	}
	return writeAlertTable(c.App.Writer, alerts)
}

func runSummary(c *cli.Context) error {
	svc, err := riskService(c)
	if err != nil {
		return err
	}

	summary, kpis, err := svc.Summary(c.Context, filterFromFlags(c))
	if err != nil {
		return err
	}

	if c.String("format") == "json" {
		return writeJSON(c.App.Writer, map[string]interface{}{"summary": summary, "kpis": kpis})
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	for _, kpi := range kpis {
		fmt.Fprintf(tw, "%s\t%s\n", kpi.Label, kpi.Value)
	}
	return tw.Flush()
}

func runInsight(c *cli.Context) error {
	svc, err := riskService(c)
	if err != nil {
		return err
	}

	insight, err := svc.Insight(c.Context, filterFromFlags(c))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, insight)
	return err
}

func runExport(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		svc, err := riskService(c)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		rows, err := svc.ExportCSV(c.Context, filterFromFlags(c), &buf)
		if err != nil {
			return err
		}

		if out := c.String("output"); out == "-" {
			if _, err := c.App.Writer.Write(buf.Bytes()); err != nil {
				return err
			}
		} else {
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed writing %s: %w", out, err)
			}
			log.Info().Str("file", out).Int("rows", rows).Msg("reorder recommendations written")
		}

		if !c.Bool("upload") {
			return nil
		}

		store, err := newObjectStorage(cfg.Storage)
		if err != nil {
			return err
		}
		key := storage.ExportKey(cfg.Storage.Prefix, time.Now(), cfg.Report.FileName)
		if err := store.UploadObject(c.Context, key, buf.Bytes(), export.ContentType); err != nil {
			return err
		}
		log.Info().Str("key", key).Int("rows", rows).Msg("reorder recommendations uploaded")
		return nil
	}
}

var newObjectStorage = func(cfg config.StorageConfig) (storage.ObjectStorage, error) {
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func runExportsList(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		var day time.Time
		if raw := c.String("date"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", raw, err)
			}
			day = parsed
		}

		store, err := newObjectStorage(cfg.Storage)
		if err != nil {
			return err
		}
		exports, err := storage.ListExports(c.Context, store, cfg.Storage.Prefix, day, cfg.Report.FileName)
		if err != nil {
			return err
		}

		if c.String("format") == "json" {
			return writeJSON(c.App.Writer, exports)
		}
		tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tSIZE")
		for _, obj := range exports {
			fmt.Fprintf(tw, "%s\t%d\n", obj.Key, obj.Size)
		}
		return tw.Flush()
	}
}

func runExportsGet(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := newObjectStorage(cfg.Storage)
		if err != nil {
			return err
		}

		out := c.String("output")
		if out == "" {
			out = cfg.Report.FileName
		}
		if out == "" {
			out = export.DefaultFileName
		}

		key := c.String("key")
		if key == "" {
			key, err = storage.FetchLatestExport(c.Context, store, cfg.Storage.Prefix, cfg.Report.FileName, out)
		} else {
			err = store.DownloadObject(c.Context, key, out)
		}
		if err != nil {
			return err
		}
		log.Info().Str("key", key).Str("file", out).Msg("export downloaded")
		return nil
	}
}

func runPublish(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		svc, err := riskService(c)
		if err != nil {
			return err
		}

		alerts, err := svc.Alerts(c.Context, filterFromFlags(c))
		if err != nil {
			return err
		}

		publisher, err := googlesheets.NewPublisher(c.Context, cfg.Sheets)
		if err != nil {
			return err
		}
		return publisher.Publish(c.Context, alerts)
	}
}

// runCacheFlush clears the shared backend. An in-memory cache lives inside
// the server process, so it is flushed through DELETE /api/v1/risk/cache.
func runCacheFlush(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		if !cfg.Cache.Enabled || strings.ToLower(cfg.Cache.Backend) != cache.BackendRedis {
			log.Warn().Str("backend", cfg.Cache.Backend).Msg("nothing to flush; only the redis backend is shared")
			return nil
		}

		queryCache, err := cache.NewQueryCache(cfg.Cache)
		if err != nil {
			return err
		}
		if err := queryCache.InvalidateAll(c.Context); err != nil {
			return fmt.Errorf("failed to flush cache: %w", err)
		}
		log.Info().Msg("query cache flushed")
		return nil
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeAlertTable(w io.Writer, alerts []domain.AlertRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tITEM\tRISK\tDAYS\tREORDER\tACTION")
	for _, a := range alerts {
		record := export.Record(a)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			record[0], record[1], record[2], record[3], record[7], record[8])
	}
	return tw.Flush()
}
