// Package memory is an in-process storage.Repository with the same contract as
// the SQLite store. Nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/storage"
)

type row struct {
	id       int64
	amount   decimal.Decimal
	category string
	date     string
	note     string
}

type Store struct {
	mu     sync.Mutex
	ready  bool
	lastID int64
	rows   []row // insertion order
}

var _ storage.Repository = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Initialize(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Insert stores the expense under the next id. Ids are never reused.
func (s *Store) Insert(_ context.Context, in core.ExpenseInput) (storage.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return storage.InsertResult{}, &storage.WriteError{Op: "insert", Err: storage.ErrNotInitialized}
	}

	s.lastID++
	s.rows = append(s.rows, toRow(s.lastID, in))
	return storage.InsertResult{ID: s.lastID, RowsAffected: 1}, nil
}

func (s *Store) Update(_ context.Context, id int64, in core.ExpenseInput) (storage.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return storage.WriteResult{}, &storage.WriteError{Op: "update", ID: id, Err: storage.ErrNotInitialized}
	}

	i := s.indexOf(id)
	if i < 0 {
		return storage.WriteResult{}, nil
	}
	s.rows[i] = toRow(id, in)
	return storage.WriteResult{RowsAffected: 1}, nil
}

func (s *Store) Delete(_ context.Context, id int64) (storage.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return storage.WriteResult{}, &storage.WriteError{Op: "delete", ID: id, Err: storage.ErrNotInitialized}
	}

	i := s.indexOf(id)
	if i < 0 {
		return storage.WriteResult{}, nil
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return storage.WriteResult{RowsAffected: 1}, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return core.Expense{}, storage.ErrNotInitialized
	}

	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, storage.ErrNotFound
	}
	return toExpense(s.rows[i])
}

func (s *Store) ListAll(_ context.Context) ([]core.Expense, error) {
	return s.collect(func(row) bool { return true })
}

// ListInRange compares the formatted dates as strings, exactly like the SQL
// BETWEEN of the SQLite store.
func (s *Store) ListInRange(_ context.Context, start, end time.Time) ([]core.Expense, error) {
	lo, hi := core.FormatTimestamp(start), core.FormatTimestamp(end)
	return s.collect(func(r row) bool { return r.date >= lo && r.date <= hi })
}

func (s *Store) SumTotal(_ context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return decimal.Zero, storage.ErrNotInitialized
	}

	total := decimal.Zero
	for _, r := range s.rows {
		total = total.Add(r.amount)
	}
	return total, nil
}

func (s *Store) collect(keep func(row) bool) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, storage.ErrNotInitialized
	}

	out := make([]core.Expense, 0, len(s.rows))
	for i := len(s.rows) - 1; i >= 0; i-- {
		if !keep(s.rows[i]) {
			continue
		}
		e, err := toExpense(s.rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) indexOf(id int64) int {
	for i, r := range s.rows {
		if r.id == id {
			return i
		}
	}
	return -1
}

func toRow(id int64, in core.ExpenseInput) row {
	return row{
		id:       id,
		amount:   in.Amount,
		category: in.Category,
		date:     core.FormatTimestamp(in.Date),
		note:     in.Note,
	}
}

func toExpense(r row) (core.Expense, error) {
	date, err := core.ParseTimestamp(r.date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:       r.id,
		Amount:   r.amount,
		Category: r.category,
		Date:     date,
		Note:     r.note,
	}, nil
}
