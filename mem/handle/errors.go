package handle

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidHandle indicates a zero handle or an id the registry does not know.
	ErrInvalidHandle = errors.New("handle: invalid handle")

	// ErrRefcountUnderflow marks a Drop on a value whose count is already zero.
	// It is always reported as an assertion failure.
	ErrRefcountUnderflow = errors.New("handle: refcount underflow")
)
