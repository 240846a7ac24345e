package inttable

import "github.com/cockroachdb/errors"

// ErrFull indicates a fixed-capacity table has no free slot for a new key.
var ErrFull = errors.New("inttable: table full")
