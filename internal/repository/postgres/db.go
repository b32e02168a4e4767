package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/semaphore"
)

const defaultMaxConcurrentQueries = 10

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

// NewDB creates a new database connection pool from config
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	return Open(cfg.Driver, DSN(cfg), cfg.MaxConns)
}

// DSN prefers DATABASE_URL and falls back to a key/value connection string,
// which both lib/pq and pgx understand.
func DSN(cfg *config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// Open connects with driver "pgx" or "postgres" (lib/pq).
func Open(driver, dsn string, maxConcurrent int) (*DB, error) {
	if driver == "" {
		driver = "pgx"
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentQueries
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, &domain.DataSourceError{Op: "connect", Err: err}
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DB{
		DB:  db,
		sem: semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

// metricRecord mirrors a stock_metrics row with every column nullable, so a
// NULL location surfaces as a schema error rather than a scan failure.
type metricRecord struct {
	Location            sql.NullString  `db:"location"`
	Item                sql.NullString  `db:"item"`
	Date                sql.NullTime    `db:"date"`
	DaysOfCover         sql.NullFloat64 `db:"days_of_cover"`
	ClosingStock        sql.NullFloat64 `db:"closing_stock"`
	AvgDailyConsumption sql.NullFloat64 `db:"avg_daily_consumption"`
	LeadTimeDays        sql.NullFloat64 `db:"lead_time_days"`
}

func (r metricRecord) toRow() domain.StockMetricRow {
	row := domain.StockMetricRow{
		Location:            r.Location.String,
		Item:                r.Item.String,
		DaysOfCover:         nullableFloat(r.DaysOfCover),
		ClosingStock:        nullableFloat(r.ClosingStock),
		AvgDailyConsumption: nullableFloat(r.AvgDailyConsumption),
		LeadTimeDays:        nullableFloat(r.LeadTimeDays),
	}
	if r.Date.Valid {
		d := r.Date.Time
		row.Date = &d
	}
	return row
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Float(v.Float64)
}

// QueryMetrics runs a metrics query and validates the whole batch.
func (db *DB) QueryMetrics(ctx context.Context, query string, args ...interface{}) ([]domain.StockMetricRow, error) {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return nil, &domain.DataSourceError{Op: "acquire connection slot", Query: query, Err: err}
	}
	defer db.sem.Release(1)

	var records []metricRecord
	if err := db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, &domain.DataSourceError{Op: "query stock metrics", Query: query, Err: err}
	}

	rows := make([]domain.StockMetricRow, len(records))
	for i, rec := range records {
		rows[i] = rec.toRow()
	}

	if err := domain.ValidateRows(rows); err != nil {
		return nil, err
	}

	return rows, nil
}

func (db *DB) QueryDates(ctx context.Context, query string, args ...interface{}) ([]time.Time, error) {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return nil, &domain.DataSourceError{Op: "acquire connection slot", Query: query, Err: err}
	}
	defer db.sem.Release(1)

	var dates []time.Time
	if err := db.SelectContext(ctx, &dates, query, args...); err != nil {
		return nil, &domain.DataSourceError{Op: "query available dates", Query: query, Err: err}
	}
	return dates, nil
}

// Ping reports whether the warehouse is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return &domain.DataSourceError{Op: "ping", Err: err}
	}
	return nil
}
