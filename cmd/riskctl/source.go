package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/stockrisk/internal/cache"
	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/drive"
	"github.com/andresuchdata/stockrisk/internal/repository"
	"github.com/andresuchdata/stockrisk/internal/repository/postgres"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

type ctxKey string

const (
	serviceKey ctxKey = "risk_service"
	dbKey      ctxKey = "db"
)

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db-url",
			Usage:   "Warehouse connection string",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:  "csv",
			Usage: "Read a stock_metrics CSV extract instead of the warehouse",
		},
		&cli.StringFlag{
			Name:  "drive-file-id",
			Usage: "Read a stock_metrics CSV extract from Google Drive",
		},
		&cli.StringFlag{
			Name:  "drive-folder",
			Usage: "Read the newest CSV extract in this Google Drive folder path",
		},
		&cli.StringFlag{
			Name:    "drive-credentials",
			Usage:   "Service account JSON for Google Drive",
			EnvVars: []string{"GOOGLE_DRIVE_CREDENTIALS_JSON"},
		},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "location", Usage: "Only these locations (repeatable)"},
		&cli.StringSliceFlag{Name: "item", Usage: "Only these items (repeatable)"},
		&cli.StringFlag{Name: "stock-date", Usage: "Only rows for this date (YYYY-MM-DD)"},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{Name: "format", Usage: "table or json", Value: "table"}
}

func filterFromFlags(c *cli.Context) domain.MetricsFilter {
	return domain.MetricsFilter{
		Locations: c.StringSlice("location"),
		Items:     c.StringSlice("item"),
		StockDate: c.String("stock-date"),
	}
}

// openSource picks the metrics source: a local CSV, a Drive file or folder,
// or the warehouse, in that order.
func openSource(cfg *config.Config) cli.BeforeFunc {
	return func(c *cli.Context) error {
		var (
			repo  repository.StockMetricsRepository
			inval service.CacheInvalidator
		)

		switch {
		case c.String("csv") != "":
			rows, err := loadCSV(c.String("csv"))
			if err != nil {
				return err
			}
			repo = repository.NewMemoryRepository(rows)

		case c.String("drive-file-id") != "" || c.String("drive-folder") != "":
			rows, err := loadDrive(c)
			if err != nil {
				return err
			}
			repo = repository.NewMemoryRepository(rows)

		default:
			dbCfg := cfg.Database
			if url := c.String("db-url"); url != "" {
				dbCfg.URL = url
			}
			db, err := postgres.NewDB(&dbCfg)
			if err != nil {
				return err
			}
			c.Context = context.WithValue(c.Context, dbKey, db)

			queryCache, err := cache.NewQueryCache(cfg.Cache)
			if err != nil {
				return err
			}
			querier := repository.NewCachedQuerier(db, queryCache)
			repo = repository.NewStockMetricsRepository(querier, dbCfg.Schema, dbCfg.Table)
			inval = querier
		}

		c.Context = context.WithValue(c.Context, serviceKey, service.NewRiskService(repo, inval))
		return nil
	}
}

func closeSource(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func riskService(c *cli.Context) (*service.RiskService, error) {
	svc, ok := c.Context.Value(serviceKey).(*service.RiskService)
	if !ok || svc == nil {
		return nil, fmt.Errorf("no metrics source configured")
	}
	return svc, nil
}

func loadCSV(path string) ([]domain.StockMetricRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := drive.ParseMetricsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	log.Debug().Str("file", path).Int("rows", len(rows)).Msg("loaded metrics extract")
	return rows, nil
}

func loadDrive(c *cli.Context) ([]domain.StockMetricRow, error) {
	driveService, err := drive.NewService(c.Context, c.String("drive-credentials"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Drive service: %w", err)
	}
	loader := drive.NewLoader(driveService)

	if fileID := c.String("drive-file-id"); fileID != "" {
		return loader.LoadFile(c.Context, fileID)
	}

	folderID, err := driveService.FindFolderByPath(c.Context, c.String("drive-folder"))
	if err != nil {
		return nil, err
	}
	rows, file, err := loader.LoadLatest(c.Context, folderID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", file.Name).Str("modified", file.ModifiedTime).Int("rows", len(rows)).Msg("loaded drive extract")
	return rows, nil
}
