// Package storage persists per-run balance history to SQLite. The history
// store is optional: the aggregation pipeline works identically without it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rodrigocabraln/bank-scraper/internal/core"
	"github.com/rodrigocabraln/bank-scraper/internal/log"

	_ "modernc.org/sqlite"
)

// History records the outcome of every scheduled run and one balance row per
// scraped account, so balances can be charted over time.
type History struct {
	db     *sql.DB
	logger *log.Logger
}

func NewHistory(dbPath string, logger *log.Logger) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	return &History{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (h *History) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// RecordRun inserts one outcome row per source and one balance row per
// account, atomically for the whole snapshot.
func (h *History) RecordRun(ctx context.Context, snap core.Snapshot) error {
	runAt := snap.UpdatedAt.Format("2006-01-02T15:04:05-07:00")

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	var accounts int
	for source, result := range snap.Banks {
		ok := 0
		if !result.Failed() {
			ok = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scrape_runs (run_at, source, ok, error) VALUES (?, ?, ?, ?)`,
			runAt, source, ok, result.Error,
		); err != nil {
			return fmt.Errorf("insert run outcome for %s: %w", source, err)
		}

		for _, acc := range result.Accounts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO balance_history (run_at, source, account_type, currency, account_number, balance, available)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				runAt, source, string(acc.Kind), acc.Currency, acc.AccountNumber,
				nullableFloat(acc.Balance.Number), nullableFloat(acc.Available.Number),
			); err != nil {
				return fmt.Errorf("insert balance for %s/%s: %w", source, acc.AccountNumber, err)
			}
			accounts++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history transaction: %w", err)
	}

	h.logger.Info("Run recorded", "run_at", runAt, "sources", len(snap.Banks), log.FieldAccounts, accounts)
	return nil
}

// BalancePoint is one historical observation of a single account.
type BalancePoint struct {
	RunAt     string
	Currency  string
	Balance   *float64
	Available *float64
}

// AccountHistory returns the most recent observations for one account,
// newest first. limit <= 0 means no limit.
func (h *History) AccountHistory(ctx context.Context, source, accountNumber string, limit int) ([]BalancePoint, error) {
	query := `SELECT run_at, currency, balance, available
		FROM balance_history
		WHERE source = ? AND account_number = ?
		ORDER BY run_at DESC`
	args := []any{source, accountNumber}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query account history: %w", err)
	}
	defer rows.Close()

	var points []BalancePoint
	for rows.Next() {
		var p BalancePoint
		var balance, available sql.NullFloat64
		if err := rows.Scan(&p.RunAt, &p.Currency, &balance, &available); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if balance.Valid {
			p.Balance = &balance.Float64
		}
		if available.Valid {
			p.Available = &available.Float64
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return points, nil
}

// RunOutcome is the recorded result of one source in one run.
type RunOutcome struct {
	RunAt  string
	Source string
	OK     bool
	Error  string
}

// LastOutcomes returns the most recent recorded outcome per source.
func (h *History) LastOutcomes(ctx context.Context) ([]RunOutcome, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT run_at, source, ok, error FROM scrape_runs r
		 WHERE id = (SELECT MAX(id) FROM scrape_runs WHERE source = r.source)
		 ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("query last outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []RunOutcome
	for rows.Next() {
		var o RunOutcome
		var ok int
		if err := rows.Scan(&o.RunAt, &o.Source, &ok, &o.Error); err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		o.OK = ok == 1
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome rows: %w", err)
	}
	return outcomes, nil
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
