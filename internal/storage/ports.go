package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// InsertResult carries the id assigned to a new row and the affected-row count.
type InsertResult struct {
	ID           int64
	RowsAffected int64
}

// WriteResult carries the affected-row count of an update or delete. Zero means
// no row matched the id; it is not an error.
type WriteResult struct {
	RowsAffected int64
}

// Repository is the expense persistence contract shared by the SQLite store and
// the in-memory store.
type Repository interface {
	Initialize(ctx context.Context) error
	Insert(ctx context.Context, in core.ExpenseInput) (InsertResult, error)
	Update(ctx context.Context, id int64, in core.ExpenseInput) (WriteResult, error)
	Delete(ctx context.Context, id int64) (WriteResult, error)
	Get(ctx context.Context, id int64) (core.Expense, error)
	ListAll(ctx context.Context) ([]core.Expense, error)
	ListInRange(ctx context.Context, start, end time.Time) ([]core.Expense, error)
	SumTotal(ctx context.Context) (decimal.Decimal, error)
	Close() error
}
