package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Closed set of categories offered by the entry form.
const (
	CategoryFood      = "Food"
	CategoryTransport = "Transport"
	CategoryPersonal  = "Personal"
	CategoryWork      = "Work"
	CategoryShopping  = "Shopping"
	CategoryOther     = "Other"
)

const (
	MaxNoteLength = 500
)

// MaxAmount is the largest amount accepted from the entry form (six digits).
var MaxAmount = decimal.NewFromInt(999999)

// Categories lists the closed category set in display order.
var Categories = []string{
	CategoryFood,
	CategoryTransport,
	CategoryPersonal,
	CategoryWork,
	CategoryShopping,
	CategoryOther,
}

type (
	// Expense is a persisted expense row.
	Expense struct {
		ID       int64
		Amount   decimal.Decimal
		Category string
		Date     time.Time // occurrence date, not creation time
		Note     string
	}

	// ExpenseInput carries the mutable fields of an expense for insert and update.
	ExpenseInput struct {
		Amount   decimal.Decimal
		Category string
		Date     time.Time
		Note     string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrAmountTooLarge  = errors.New("amount must be at most 6 digits")
	ErrEmptyCategory   = errors.New("category is required")
	ErrInvalidCategory = errors.New("unknown category")
	ErrEmptyDate       = errors.New("date is required")
	ErrDateOutOfRange  = errors.New("date year must be between 0 and 9999")
	ErrNoteTooLong     = fmt.Errorf("note cannot exceed %d characters", MaxNoteLength)
)

// IsCategory reports whether name belongs to the closed category set.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Input returns the mutable fields of e.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		Amount:   e.Amount,
		Category: e.Category,
		Date:     e.Date,
		Note:     e.Note,
	}
}

// Normalize trims the free-text fields.
func (in ExpenseInput) Normalize() ExpenseInput {
	in.Category = strings.TrimSpace(in.Category)
	in.Note = strings.TrimSpace(in.Note)
	return in
}

// Validate applies the entry form rules. The store itself accepts any value.
func (in ExpenseInput) Validate() error {
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if in.Amount.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	if !IsCategory(strings.TrimSpace(in.Category)) {
		return ErrInvalidCategory
	}
	if in.Date.IsZero() {
		return ErrEmptyDate
	}
	if y := in.Date.UTC().Year(); y < 0 || y > 9999 {
		return ErrDateOutOfRange
	}
	if len([]rune(in.Note)) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}
