package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"orderpulse/internal/errors"
	"orderpulse/pkg/contracts/domain"
)

// Supported warehouse drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Warehouse table names
const (
	AnalyticsTableName   = "analytics_table"
	RevenueByCountryName = "revenue_by_country"
	MonthlyRevenueName   = "monthly_revenue"
)

// analyticsColumns lists the analytics_table columns in insert order
var analyticsColumns = []struct {
	name, kind string
}{
	{"order_id", "TEXT"},
	{"user_id", "TEXT"},
	{"amount", "REAL"},
	{"quantity", "INTEGER"},
	{"created_at", "TEXT"},
	{"status", "TEXT"},
	{"status_clean", "TEXT"},
	{"amount__isna", "INTEGER"},
	{"quantity__isna", "INTEGER"},
	{"year", "INTEGER"},
	{"month", "INTEGER"},
	{"day", "INTEGER"},
	{"hour", "INTEGER"},
	{"weekday", "INTEGER"},
	{"date_only", "TEXT"},
	{"country", "TEXT"},
	{"signup_date", "TEXT"},
	{"amount_winsor", "REAL"},
	{"amount__is_outlier", "INTEGER"},
}

// Warehouse mirrors the analytics outputs into a SQL database for ad hoc
// queries: a local SQLite file or a Postgres server.
type Warehouse struct {
	db     *sql.DB
	driver string
	target string
	logger *slog.Logger
}

// OpenWarehouse opens or creates the SQLite database at path
func OpenWarehouse(ctx context.Context, path string, logger *slog.Logger) (*Warehouse, error) {
	return OpenWarehouseDriver(ctx, DriverSQLite, path, logger)
}

// OpenWarehouseDriver opens a warehouse with driver. For DriverSQLite dsn is
// a file path; for DriverPostgres it is a connection string.
func OpenWarehouseDriver(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Warehouse, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var sqlDriver, target string
	switch driver {
	case DriverSQLite, "":
		driver, sqlDriver, target = DriverSQLite, "sqlite", dsn
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, errors.NewStorageError("failed to create directory for "+dsn, err)
		}
	case DriverPostgres:
		// the connection string may carry credentials
		sqlDriver, target = "pgx", DriverPostgres
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported warehouse driver %q", driver), nil)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, errors.NewStorageError("failed to open warehouse "+target, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewStorageError("failed to connect to warehouse "+target, err)
	}

	return &Warehouse{db: db, driver: driver, target: target, logger: logger}, nil
}

// Close closes the database
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// ReplaceAnalytics drops and reloads analytics_table in one transaction
func (w *Warehouse) ReplaceAnalytics(ctx context.Context, rows []domain.AnalyticsRow) error {
	defs := make([]string, len(analyticsColumns))
	names := make([]string, len(analyticsColumns))
	for i, c := range analyticsColumns {
		defs[i] = fmt.Sprintf("%q %s", c.name, c.kind)
		names[i] = fmt.Sprintf("%q", c.name)
	}

	return w.replace(ctx, AnalyticsTableName, defs, names, len(rows), func(i int) []any {
		r := rows[i]
		var created any
		if r.CreatedAt != nil {
			created = time.UnixMilli(*r.CreatedAt).UTC().Format(time.RFC3339)
		}
		return []any{
			nullable(r.OrderID), nullable(r.UserID), nullable(r.Amount), nullable(r.Quantity),
			created, nullable(r.Status), nullable(r.StatusClean),
			flag(r.AmountIsNA), flag(r.QuantityIsNA),
			nullable(r.Year), nullable(r.Month), nullable(r.Day), nullable(r.Hour), nullable(r.Weekday),
			nullable(r.DateOnly), nullable(r.Country), nullable(r.SignupDate),
			nullable(r.AmountWinsor), flag(r.AmountIsOutlier),
		}
	}, "CREATE INDEX IF NOT EXISTS idx_analytics_country ON analytics_table(country)",
		"CREATE INDEX IF NOT EXISTS idx_analytics_date ON analytics_table(date_only)")
}

// ReplaceSummary drops and reloads the revenue_by_country and monthly_revenue tables
func (w *Warehouse) ReplaceSummary(ctx context.Context, byCountry []domain.CountryRevenue, monthly []domain.MonthRevenue) error {
	err := w.replace(ctx, RevenueByCountryName,
		[]string{`"country" TEXT PRIMARY KEY`, `"orders" INTEGER`, `"revenue" REAL`},
		[]string{`"country"`, `"orders"`, `"revenue"`},
		len(byCountry), func(i int) []any {
			return []any{byCountry[i].Country, byCountry[i].Orders, byCountry[i].Revenue}
		})
	if err != nil {
		return err
	}
	return w.replace(ctx, MonthlyRevenueName,
		[]string{`"month" TEXT PRIMARY KEY`, `"orders" INTEGER`, `"revenue" REAL`},
		[]string{`"month"`, `"orders"`, `"revenue"`},
		len(monthly), func(i int) []any {
			return []any{monthly[i].Month, monthly[i].Orders, monthly[i].Revenue}
		})
}

// RevenueByCountry recomputes non-refund revenue per country from analytics_table
func (w *Warehouse) RevenueByCountry(ctx context.Context) ([]domain.CountryRevenue, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT country, COUNT(*), COALESCE(SUM(amount), 0)
		FROM analytics_table
		WHERE country IS NOT NULL AND (status_clean IS NULL OR status_clean != 'refund')
		GROUP BY country
		ORDER BY 3 DESC, country ASC`)
	if err != nil {
		return nil, errors.NewStorageError("failed to query revenue by country", err)
	}
	defer rows.Close()

	var out []domain.CountryRevenue
	for rows.Next() {
		var r domain.CountryRevenue
		if err := rows.Scan(&r.Country, &r.Orders, &r.Revenue); err != nil {
			return nil, errors.NewStorageError("failed to scan revenue by country", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read revenue by country", err)
	}
	return out, nil
}

// Count returns the number of rows in a warehouse table
func (w *Warehouse) Count(ctx context.Context, table string) (int, error) {
	var n int
	if err := w.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q", table)).Scan(&n); err != nil {
		return 0, errors.NewStorageError("failed to count "+table, err)
	}
	return n, nil
}

func (w *Warehouse) replace(ctx context.Context, table string, defs, names []string, n int, row func(i int) []any, indexes ...string) error {
	start := time.Now()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", table)); err != nil {
		return errors.NewStorageError("failed to drop "+table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %q (%s)", table, strings.Join(defs, ", "))); err != nil {
		return errors.NewStorageError("failed to create "+table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		table, strings.Join(names, ", "), placeholders(w.driver, len(names))))
	if err != nil {
		return errors.NewStorageError("failed to prepare insert into "+table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to insert row %d into %s", i, table), err)
		}
	}
	for _, idx := range indexes {
		if _, err := tx.ExecContext(ctx, idx); err != nil {
			return errors.NewStorageError("failed to index "+table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit "+table, err)
	}

	w.logger.InfoContext(ctx, "warehouse table replaced",
		slog.String("table", table),
		slog.Int("rows", n),
		slog.String("target", w.target),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// placeholders returns n bind parameters in the driver's syntax
func placeholders(driver string, n int) string {
	marks := make([]string, n)
	for i := range marks {
		if driver == DriverPostgres {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	return strings.Join(marks, ", ")
}

// flag stores a boolean as 0 or 1 in an INTEGER column
func flag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// nullable turns a nil pointer into a SQL NULL
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
