package services

import "errors"

var (
	// ErrInvalidExpense wraps the validation error of a rejected input.
	ErrInvalidExpense = errors.New("invalid expense")
	// ErrExpenseNotFound is returned when an update or delete matched no row.
	ErrExpenseNotFound = errors.New("expense not found")
	// ErrNotPersisted is returned when an insert reported no error but did not
	// affect exactly one row.
	ErrNotPersisted = errors.New("expense not persisted")
)
