package strtable

import "github.com/cockroachdb/errors"

// ErrFull indicates the table has no free bin for a new key.
var ErrFull = errors.New("strtable: table full")
