package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"footprint/internal/core"
	applog "footprint/internal/log"
	"footprint/internal/store"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so that TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serializes writers, which SQLite needs anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite schema ready", applog.FieldComponent, applog.ComponentStorage, "path", dbPath, "version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CountFactors returns the size of the reference table.
func (r *SQLiteRepository) CountFactors(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emission_factors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count factors: %w", err)
	}
	return n, nil
}

// SeedFactors loads factors only when the reference table is empty.
func (r *SQLiteRepository) SeedFactors(ctx context.Context, factors []core.EmissionFactor) (int, error) {
	n, err := r.CountFactors(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	return r.UpsertFactors(ctx, factors)
}

func (r *SQLiteRepository) UpsertFactors(ctx context.Context, factors []core.EmissionFactor) (int, error) {
	for _, f := range factors {
		if err := f.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(load_order), 0) FROM emission_factors`).Scan(&next); err != nil {
		return 0, fmt.Errorf("read load order: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO emission_factors (id, name, category, unit, rate, load_order)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			unit = excluded.unit,
			rate = excluded.rate`)
	if err != nil {
		return 0, fmt.Errorf("prepare factor upsert: %w", err)
	}
	defer stmt.Close()

	for _, f := range factors {
		next++
		if _, err := stmt.ExecContext(ctx, f.ID, f.Name, f.Category, f.Unit, f.Rate, next); err != nil {
			return 0, fmt.Errorf("upsert factor %s: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit factors: %w", err)
	}
	return len(factors), nil
}

func (r *SQLiteRepository) GetFactor(ctx context.Context, id string) (core.EmissionFactor, error) {
	var f core.EmissionFactor
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, category, unit, rate FROM emission_factors WHERE id = ?`, id,
	).Scan(&f.ID, &f.Name, &f.Category, &f.Unit, &f.Rate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.EmissionFactor{}, fmt.Errorf("factor %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.EmissionFactor{}, fmt.Errorf("get factor %s: %w", id, err)
	}
	return f, nil
}

func (r *SQLiteRepository) ListFactors(ctx context.Context, filter store.FactorFilter) ([]core.EmissionFactor, error) {
	query := `SELECT id, name, category, unit, rate FROM emission_factors`
	var (
		where []string
		args  []any
	)
	if c := strings.TrimSpace(filter.Category); c != "" {
		where = append(where, `category = ? COLLATE NOCASE`)
		args = append(args, c)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, `instr(lower(name), lower(?)) > 0`)
		args = append(args, s)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY load_order, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list factors: %w", err)
	}
	defer rows.Close()

	out := []core.EmissionFactor{}
	for rows.Next() {
		var f core.EmissionFactor
		if err := rows.Scan(&f.ID, &f.Name, &f.Category, &f.Unit, &f.Rate); err != nil {
			return nil, fmt.Errorf("scan factor: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM emission_factors ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const activityColumns = `id, user_id, factor_id, item_name, category, kind, quantity,
	monetary_amount, unit, occurred_at, emissions, created_at, updated_at`

func (r *SQLiteRepository) ListActivities(ctx context.Context, userID string) ([]core.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE user_id = ? ORDER BY occurred_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	out := []core.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetActivity(ctx context.Context, userID, id string) (core.Activity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE user_id = ? AND id = ?`, userID, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Activity{}, fmt.Errorf("activity %s: %w", id, store.ErrNotFound)
	}
	return a, err
}

func (r *SQLiteRepository) InsertActivity(ctx context.Context, a core.Activity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.FactorID, a.ItemName, a.Category, string(a.Kind), a.Quantity,
		a.MonetaryAmount, a.Unit, formatTime(a.Date), a.Emissions,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert activity %s: %w", a.ID, err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentStorage).DebugContext(ctx, "Activity saved to SQLite",
		applog.FieldActivityID, a.ID,
		applog.FieldUserID, a.UserID,
		applog.FieldFactorID, a.FactorID,
		applog.FieldEmissions, a.Emissions)
	return nil
}

func (r *SQLiteRepository) UpdateActivity(ctx context.Context, a core.Activity) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE activities SET
			factor_id = ?, item_name = ?, category = ?, kind = ?, quantity = ?,
			monetary_amount = ?, unit = ?, occurred_at = ?, emissions = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		a.FactorID, a.ItemName, a.Category, string(a.Kind), a.Quantity,
		a.MonetaryAmount, a.Unit, formatTime(a.Date), a.Emissions, formatTime(a.UpdatedAt),
		a.UserID, a.ID)
	if err != nil {
		return fmt.Errorf("update activity %s: %w", a.ID, err)
	}
	return expectOneRow(res, a.ID)
}

func (r *SQLiteRepository) DeleteActivity(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete activity %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (core.Activity, error) {
	var a core.Activity
	var kind, occurred, created, updated string
	err := s.Scan(&a.ID, &a.UserID, &a.FactorID, &a.ItemName, &a.Category, &kind, &a.Quantity,
		&a.MonetaryAmount, &a.Unit, &occurred, &a.Emissions, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Activity{}, err
		}
		return core.Activity{}, fmt.Errorf("scan activity: %w", err)
	}
	a.Kind = core.Kind(kind)
	if a.Date, err = parseTime(occurred); err != nil {
		return core.Activity{}, err
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return core.Activity{}, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Activity{}, err
	}
	return a, nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("activity %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

var _ store.Store = (*SQLiteRepository)(nil)
