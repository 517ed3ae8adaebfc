package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by every operation issued before a successful Initialize.
	ErrNotInitialized = errors.New("storage not initialized")
	ErrNotFound       = errors.New("expense not found")
)

// InitError reports that the storage handle could not be opened or the schema
// could not be applied. Nothing can proceed without the store.
type InitError struct {
	Path string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize storage %q: %v", e.Path, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// WriteError reports a failed insert, update or delete. Prior state is unchanged.
type WriteError struct {
	Op  string
	ID  int64 // zero for inserts
	Err error
}

func (e *WriteError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s expense %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s expense: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
