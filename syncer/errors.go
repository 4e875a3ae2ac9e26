package syncer

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when no table yielded any rows; db.json is not written
var ErrNoData = errors.New("no table yielded any data")

// Operations a TableError can come from
const (
	OpFetch = "fetch"
	OpParse = "parse"
	OpWrite = "write"
)

// TableError is the failure of one unit of work on one table
type TableError struct {
	Table string
	GID   string
	Op    string
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("%s table %q (gid %s): %v", e.Op, e.Table, e.GID, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}
