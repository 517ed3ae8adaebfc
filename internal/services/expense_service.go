package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// Publisher announces committed changes. It is optional.
type Publisher interface {
	PublishExpenseEvent(ctx context.Context, eventType amqp.EventType, id int64) error
}

// ExpenseService validates input, writes through the backend and publishes a
// change event after every successful write.
type ExpenseService struct {
	backend   backend.Backend
	publisher Publisher
	logger    *log.Logger
}

// NewExpenseService wires the service. publisher may be nil.
func NewExpenseService(b backend.Backend, publisher Publisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExpenseService{
		backend:   b,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExpense),
	}
}

// CreateExpense validates and saves a new expense and returns the assigned id.
func (s *ExpenseService) CreateExpense(ctx context.Context, in core.ExpenseInput) (storage.InsertResult, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return storage.InsertResult{}, fmt.Errorf("%w: %w", ErrInvalidExpense, err)
	}

	res, err := s.backend.Insert(ctx, in)
	if err != nil {
		return storage.InsertResult{}, fmt.Errorf("save expense: %w", err)
	}
	if res.RowsAffected != 1 {
		return res, fmt.Errorf("save expense: %w (rows affected %d)", ErrNotPersisted, res.RowsAffected)
	}

	s.logger.InfoContext(ctx, "Expense added", log.NewFields().
		WithExpense(res.ID, in.Amount.StringFixed(2), in.Category, core.FormatTimestamp(in.Date)).
		WithOperation(log.OpCreate).ToSlice()...)

	s.publish(ctx, amqp.EventCreated, res.ID)
	return res, nil
}

// UpdateExpense replaces every field of the expense with the given id.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidExpense, err)
	}

	res, err := s.backend.Update(ctx, id, in)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update expense %d: %w", id, ErrExpenseNotFound)
	}

	s.logger.InfoContext(ctx, "Expense updated", log.NewFields().
		WithExpense(id, in.Amount.StringFixed(2), in.Category, core.FormatTimestamp(in.Date)).
		WithOperation(log.OpUpdate).ToSlice()...)

	s.publish(ctx, amqp.EventUpdated, id)
	return nil
}

// DeleteExpense permanently removes the expense with the given id.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	res, err := s.backend.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete expense %d: %w", id, ErrExpenseNotFound)
	}

	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id, log.FieldOperation, log.OpDelete)

	s.publish(ctx, amqp.EventDeleted, id)
	return nil
}

// GetExpense returns one expense.
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := s.backend.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, ErrExpenseNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// ListExpenses returns the expenses whose date falls in the period containing
// now, newest first. PeriodAll lists everything.
func (s *ExpenseService) ListExpenses(ctx context.Context, p core.Period, now time.Time) ([]core.Expense, error) {
	r, bounded := core.Resolve(p, now)

	var (
		list []core.Expense
		err  error
	)
	if bounded {
		list, err = s.backend.ListInRange(ctx, r.Start, r.End)
	} else {
		list, err = s.backend.ListAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list expenses for %s: %w", p, err)
	}

	s.logger.DebugContext(ctx, "Listed expenses", log.FieldPeriod, p.String(), log.FieldCount, len(list))
	return list, nil
}

// Total returns the all-time sum of every amount.
func (s *ExpenseService) Total(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.backend.SumTotal(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// publish never fails the write that triggered it.
func (s *ExpenseService) publish(ctx context.Context, eventType amqp.EventType, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, eventType, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			log.FieldEventType, string(eventType),
			log.FieldExpenseID, id,
			log.FieldError, err)
	}
}
