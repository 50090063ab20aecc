package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockSentinel/internal/model"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the latest snapshot, the named lists and the request
// counters to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL mode so the serving layer can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshot_records (
			position            INTEGER PRIMARY KEY,
			run_id              TEXT NOT NULL,
			recorded_at         INTEGER NOT NULL,
			symbol              TEXT NOT NULL UNIQUE,
			company_name        TEXT,
			current_price       REAL,
			macd                REAL,
			signal              REAL,
			rsi                 REAL,
			adx                 REAL,
			plus_di             REAL,
			minus_di            REAL,
			moving_averages     TEXT,
			percent_differences TEXT,
			highlighted         INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS list_entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			list_name  TEXT NOT NULL,
			value      TEXT NOT NULL,
			label      TEXT,
			created_at INTEGER NOT NULL,
			UNIQUE(list_name, value)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_list_name ON list_entries(list_name)`,

		`CREATE TABLE IF NOT EXISTS stock_requests (
			symbol     TEXT PRIMARY KEY,
			count      INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// SaveSnapshot replaces the stored snapshot in one transaction.
func (r *SQLiteRecorder) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_records`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_records
		(position, run_id, recorded_at, symbol, company_name, current_price,
		 macd, signal, rsi, adx, plus_di, minus_di,
		 moving_averages, percent_differences, highlighted)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i, rec := range persistable(snap.Records) {
		mas, err := json.Marshal(rec.MovingAverages)
		if err != nil {
			return err
		}
		diffs, err := json.Marshal(rec.PercentDifferences)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			i, snap.RunID, now, rec.Symbol, rec.CompanyName, rec.CurrentPrice,
			rec.MACD, rec.Signal, rec.RSI, rec.ADX, rec.PlusDI, rec.MinusDI,
			string(mas), string(diffs), rec.Highlighted,
		); err != nil {
			return fmt.Errorf("insert %s: %w", rec.Symbol, err)
		}
	}
	return tx.Commit()
}

// LoadSnapshot returns the stored records in snapshot order.
func (r *SQLiteRecorder) LoadSnapshot(ctx context.Context) ([]model.AlertRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol, company_name, current_price,
		macd, signal, rsi, adx, plus_di, minus_di, moving_averages, percent_differences, highlighted
		FROM snapshot_records ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AlertRecord{}
	for rows.Next() {
		var (
			rec        model.AlertRecord
			company    sql.NullString
			mas, diffs string
		)
		if err := rows.Scan(&rec.Symbol, &company, &rec.CurrentPrice,
			&rec.MACD, &rec.Signal, &rec.RSI, &rec.ADX, &rec.PlusDI, &rec.MinusDI,
			&mas, &diffs, &rec.Highlighted); err != nil {
			return nil, err
		}
		rec.CompanyName = company.String
		if err := json.Unmarshal([]byte(mas), &rec.MovingAverages); err != nil {
			return nil, fmt.Errorf("decode moving averages of %s: %w", rec.Symbol, err)
		}
		if err := json.Unmarshal([]byte(diffs), &rec.PercentDifferences); err != nil {
			return nil, fmt.Errorf("decode percent differences of %s: %w", rec.Symbol, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) List(ctx context.Context, name string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT value, label FROM list_entries WHERE list_name = ? ORDER BY id`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e     Entry
			label sql.NullString
		)
		if err := rows.Scan(&e.Value, &label); err != nil {
			return nil, err
		}
		e.Label = label.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Append(ctx context.Context, name string, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO list_entries (list_name, value, label, created_at)
		VALUES (?,?,?,?)
		ON CONFLICT(list_name, value) DO UPDATE SET label = excluded.label`,
		name, e.Value, e.Label, time.Now().Unix())
	return err
}

func (r *SQLiteRecorder) Remove(ctx context.Context, name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM list_entries WHERE list_name = ? AND value = ?`, name, value)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRecorder) IncrementRequest(ctx context.Context, symbol string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var count int
	err := r.db.QueryRowContext(ctx, `INSERT INTO stock_requests (symbol, count, updated_at)
		VALUES (?, 1, ?)
		ON CONFLICT(symbol) DO UPDATE SET count = count + 1, updated_at = excluded.updated_at
		RETURNING count`, symbol, time.Now().Unix()).Scan(&count)
	return count, err
}

func (r *SQLiteRecorder) RequestCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol, count FROM stock_requests`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			symbol string
			count  int
		)
		if err := rows.Scan(&symbol, &count); err != nil {
			return nil, err
		}
		out[symbol] = count
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
