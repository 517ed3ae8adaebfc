package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// Report is the dashboard view of one period.
type Report struct {
	Period     core.Period
	Range      core.Range
	Bounded    bool
	Expenses   []core.Expense
	Total      decimal.Decimal // sum of Expenses
	AllTime    decimal.Decimal
	ByCategory []core.CategoryTotal
}

// ReportService builds period reports on top of ExpenseService.
type ReportService struct {
	expenses *ExpenseService
}

func NewReportService(expenses *ExpenseService) *ReportService {
	return &ReportService{expenses: expenses}
}

// Build lists the period, totals the listed rows and breaks them down by
// category. AllTime comes from the store independently of the period.
func (s *ReportService) Build(ctx context.Context, p core.Period, now time.Time) (Report, error) {
	list, err := s.expenses.ListExpenses(ctx, p, now)
	if err != nil {
		return Report{}, fmt.Errorf("build report: %w", err)
	}

	allTime, err := s.expenses.Total(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("build report: %w", err)
	}

	r, bounded := core.Resolve(p, now)
	return Report{
		Period:     p,
		Range:      r,
		Bounded:    bounded,
		Expenses:   list,
		Total:      core.Total(list),
		AllTime:    allTime,
		ByCategory: core.Breakdown(list),
	}, nil
}
