package services

import (
	"errors"
	"fmt"
)

// ErrUnknownTable is returned for table names the pipeline never writes
var ErrUnknownTable = errors.New("unknown table")

// TableMissingError reports a known table that has not been generated yet
type TableMissingError struct {
	Table string
	Err   error
}

func (e *TableMissingError) Error() string {
	return fmt.Sprintf("table %s has not been generated: %v", e.Table, e.Err)
}

func (e *TableMissingError) Unwrap() error { return e.Err }
