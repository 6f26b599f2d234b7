package schema

import (
	"errors"
	"fmt"
)

var ErrRegistryClosed = errors.New("schema registry is closed")

type DuplicateTableError struct {
	Table string
}

func (e *DuplicateTableError) Error() string {
	return fmt.Sprintf("table %q is already registered", e.Table)
}

type UnknownTableError struct {
	Table string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("table %q is not registered", e.Table)
}

// UnresolvedForeignKeyError is returned by Validate when a foreign key points
// at a table or column that is not in the registry.
type UnresolvedForeignKeyError struct {
	Table     string
	Column    string
	RefTable  string
	RefColumn string
}

func (e *UnresolvedForeignKeyError) Error() string {
	return fmt.Sprintf("foreign key %s.%s references unknown column %s.%s", e.Table, e.Column, e.RefTable, e.RefColumn)
}

type InvalidTableError struct {
	Table  string
	Reason string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("invalid table %q: %s", e.Table, e.Reason)
}
