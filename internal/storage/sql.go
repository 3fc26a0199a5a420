package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"expenses/internal/core"
	"expenses/internal/log"
)

// SQLRepository is a Repository backed by SQLite or PostgreSQL.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	newID   func() string
}

// OpenSQLite opens (creating if needed) the database file at dbPath and
// migrates it.
func OpenSQLite(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, dbPath)
}

// OpenPostgres connects to the database at url and migrates it.
func OpenPostgres(url string) (*SQLRepository, error) {
	return open(Postgres, url)
}

func open(dialect Dialect, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dialect == SQLite {
		// a single writer avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{
		db:      db,
		dialect: dialect,
		newID:   func() string { return uuid.NewString() },
	}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Dialect() Dialect {
	return r.dialect
}

const selectExpenses = `SELECT id, description, amount, category, date FROM expenses`

func (r *SQLRepository) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, selectExpenses+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("list expenses: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(selectExpenses+` WHERE id = ?`), id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLRepository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = r.newID()

	_, err := r.db.ExecContext(ctx,
		r.rebind(`INSERT INTO expenses (id, description, amount, category, date) VALUES (?, ?, ?, ?, ?)`),
		e.ID, e.Description, e.Amount.Units, string(e.Category), e.Date.ISO())
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentStorage).DebugContext(ctx, "Expense saved",
		"dialect", r.dialect,
		log.FieldExpenseID, e.ID,
		log.FieldAmount, e.Amount.Units)

	return e, nil
}

func (r *SQLRepository) Update(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = id

	res, err := r.db.ExecContext(ctx,
		r.rebind(`UPDATE expenses SET description = ?, amount = ?, category = ?, date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`),
		e.Description, e.Amount.Units, string(e.Category), e.Date.ISO(), id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, err)
	}
	if err := expectOneRow(res); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM expenses WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e        core.Expense
		category string
		date     string
	)
	if err := s.Scan(&e.ID, &e.Description, &e.Amount.Units, &category, &date); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	e.Category = core.Category(category)
	e.Date = d
	return e, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *SQLRepository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
