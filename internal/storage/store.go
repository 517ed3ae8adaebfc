package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"

	_ "modernc.org/sqlite"
)

// Store owns the single SQLite handle of the process. Create it with New, call
// Initialize once before anything else, and Close it at shutdown.
type Store struct {
	path string

	mu      sync.Mutex
	db      *sql.DB
	queries *Queries
	ready   bool
}

var _ Repository = (*Store)(nil)

// New returns an unopened store for the database file at dbPath.
func New(dbPath string) *Store {
	return &Store{path: dbPath}
}

// Open is New followed by Initialize.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	s := New(dbPath)
	if err := s.Initialize(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Initialize opens the handle and ensures the expenses table exists. After the
// first success further calls return nil without touching the database; a
// failed call can be retried.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}
	if err := s.open(ctx); err != nil {
		return &InitError{Path: s.path, Err: err}
	}
	s.ready = true

	slog.InfoContext(ctx, "SQLite store initialized", "path", s.path)
	return nil
}

func (s *Store) open(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}

	if s.db == nil {
		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			return fmt.Errorf("open sqlite database: %w", err)
		}
		s.db = db
	}

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := applySchema(s.path); err != nil {
		return err
	}

	s.queries = NewQueries(s.db)
	return nil
}

// Close releases the handle. It is meant for process shutdown only.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = false
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) q() (*Queries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil, ErrNotInitialized
	}
	return s.queries, nil
}

// Insert appends a row. The caller should treat RowsAffected other than 1 as a
// failed write even when err is nil.
func (s *Store) Insert(ctx context.Context, in core.ExpenseInput) (InsertResult, error) {
	q, err := s.q()
	if err != nil {
		return InsertResult{}, &WriteError{Op: "insert", Err: err}
	}

	res, err := q.CreateExpense(ctx, CreateExpenseParams{
		Amount:   in.Amount.InexactFloat64(),
		Category: in.Category,
		Date:     core.FormatTimestamp(in.Date),
		Note:     in.Note,
	})
	if err != nil {
		return InsertResult{}, &WriteError{Op: "insert", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return InsertResult{}, &WriteError{Op: "insert", Err: fmt.Errorf("read inserted id: %w", err)}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return InsertResult{}, &WriteError{Op: "insert", ID: id, Err: fmt.Errorf("read rows affected: %w", err)}
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"amount", in.Amount.String(),
		"category", in.Category,
		"date", core.FormatTimestamp(in.Date))

	return InsertResult{ID: id, RowsAffected: affected}, nil
}

// Update replaces every mutable field of the row with the given id.
func (s *Store) Update(ctx context.Context, id int64, in core.ExpenseInput) (WriteResult, error) {
	q, err := s.q()
	if err != nil {
		return WriteResult{}, &WriteError{Op: "update", ID: id, Err: err}
	}

	res, err := q.UpdateExpense(ctx, UpdateExpenseParams{
		ID:       id,
		Amount:   in.Amount.InexactFloat64(),
		Category: in.Category,
		Date:     core.FormatTimestamp(in.Date),
		Note:     in.Note,
	})
	if err != nil {
		return WriteResult{}, &WriteError{Op: "update", ID: id, Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return WriteResult{}, &WriteError{Op: "update", ID: id, Err: fmt.Errorf("read rows affected: %w", err)}
	}

	slog.InfoContext(ctx, "Expense updated in SQLite", "id", id, "rows_affected", affected)
	return WriteResult{RowsAffected: affected}, nil
}

// Delete removes the row with the given id. There is no soft delete.
func (s *Store) Delete(ctx context.Context, id int64) (WriteResult, error) {
	q, err := s.q()
	if err != nil {
		return WriteResult{}, &WriteError{Op: "delete", ID: id, Err: err}
	}

	res, err := q.DeleteExpense(ctx, id)
	if err != nil {
		return WriteResult{}, &WriteError{Op: "delete", ID: id, Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return WriteResult{}, &WriteError{Op: "delete", ID: id, Err: fmt.Errorf("read rows affected: %w", err)}
	}

	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id, "rows_affected", affected)
	return WriteResult{RowsAffected: affected}, nil
}

// Get returns the row with the given id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (core.Expense, error) {
	q, err := s.q()
	if err != nil {
		return core.Expense{}, err
	}

	row, err := q.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return toExpense(row)
}

// ListAll returns every row, most recently created first.
func (s *Store) ListAll(ctx context.Context) ([]core.Expense, error) {
	q, err := s.q()
	if err != nil {
		return nil, err
	}

	rows, err := q.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return toExpenses(rows)
}

// ListInRange returns rows whose date lies in [start, end], most recently
// created first. Bounds are rendered with core.FormatTimestamp so the string
// comparison in SQL matches time order.
func (s *Store) ListInRange(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	q, err := s.q()
	if err != nil {
		return nil, err
	}

	rows, err := q.ListExpensesBetween(ctx, ListExpensesBetweenParams{
		Start: core.FormatTimestamp(start),
		End:   core.FormatTimestamp(end),
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses in range: %w", err)
	}

	slog.DebugContext(ctx, "Listed expenses in range",
		"start", core.FormatTimestamp(start),
		"end", core.FormatTimestamp(end),
		"count", len(rows))
	return toExpenses(rows)
}

// SumTotal returns the sum of every amount, zero for an empty table. Amounts
// are added as decimals, so the result equals core.Total over ListAll.
func (s *Store) SumTotal(ctx context.Context) (decimal.Decimal, error) {
	q, err := s.q()
	if err != nil {
		return decimal.Zero, err
	}

	amounts, err := q.ListAmounts(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total, nil
}

func toExpenses(rows []ExpenseRow) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(rows))
	for _, r := range rows {
		e, err := toExpense(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func toExpense(r ExpenseRow) (core.Expense, error) {
	date, err := core.ParseTimestamp(r.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", r.ID, err)
	}
	return core.Expense{
		ID:       r.ID,
		Amount:   decimal.NewFromFloat(r.Amount),
		Category: r.Category,
		Date:     date,
		Note:     r.Note.String,
	}, nil
}
