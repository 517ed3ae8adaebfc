package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the parameterized statements of the expenses table.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// ExpenseRow mirrors one row of the expenses table.
type ExpenseRow struct {
	ID       int64
	Amount   float64
	Category string
	Date     string
	Note     sql.NullString
}

const createExpense = `INSERT INTO expenses (amount, category, date, note)
VALUES (?, ?, ?, ?)`

type CreateExpenseParams struct {
	Amount   float64
	Category string
	Date     string
	Note     string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, createExpense, arg.Amount, arg.Category, arg.Date, arg.Note)
}

const updateExpense = `UPDATE expenses
SET amount = ?, category = ?, date = ?, note = ?
WHERE id = ?`

type UpdateExpenseParams struct {
	ID       int64
	Amount   float64
	Category string
	Date     string
	Note     string
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, updateExpense, arg.Amount, arg.Category, arg.Date, arg.Note, arg.ID)
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (sql.Result, error) {
	return q.db.ExecContext(ctx, deleteExpense, id)
}

const getExpense = `SELECT id, amount, category, date, note FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (ExpenseRow, error) {
	var i ExpenseRow
	err := q.db.QueryRowContext(ctx, getExpense, id).Scan(&i.ID, &i.Amount, &i.Category, &i.Date, &i.Note)
	return i, err
}

const listExpenses = `SELECT id, amount, category, date, note FROM expenses ORDER BY id DESC`

func (q *Queries) ListExpenses(ctx context.Context) ([]ExpenseRow, error) {
	return q.list(ctx, listExpenses)
}

const listExpensesBetween = `SELECT id, amount, category, date, note FROM expenses
WHERE date BETWEEN ? AND ?
ORDER BY id DESC`

type ListExpensesBetweenParams struct {
	Start string
	End   string
}

func (q *Queries) ListExpensesBetween(ctx context.Context, arg ListExpensesBetweenParams) ([]ExpenseRow, error) {
	return q.list(ctx, listExpensesBetween, arg.Start, arg.End)
}

const listAmounts = `SELECT amount FROM expenses`

func (q *Queries) ListAmounts(ctx context.Context) ([]float64, error) {
	rows, err := q.db.QueryContext(ctx, listAmounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []float64{}
	for rows.Next() {
		var amount float64
		if err := rows.Scan(&amount); err != nil {
			return nil, err
		}
		items = append(items, amount)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) list(ctx context.Context, query string, args ...interface{}) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []ExpenseRow{}
	for rows.Next() {
		var i ExpenseRow
		if err := rows.Scan(&i.ID, &i.Amount, &i.Category, &i.Date, &i.Note); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
