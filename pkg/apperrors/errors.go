package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrMissingColumn  = errors.New("missing required column")
	ErrSheetNotFound  = errors.New("sheet not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrStoreDisabled  = errors.New("run storage is disabled")
	ErrDuplicateTable = errors.New("duplicate table name")
)

// MissingColumnError reports a required column absent from an input table.
// It matches ErrMissingColumn with errors.Is.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: table %q has no column %q", ErrMissingColumn, e.Table, e.Column)
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}
