package alloc

import "github.com/cockroachdb/errors"

var (
	// ErrExhausted indicates an allocator or arena could not satisfy a request.
	ErrExhausted = errors.New("alloc: exhausted")

	// ErrUnknownBlock indicates a buffer was returned that the allocator never
	// handed out or already released (double free).
	ErrUnknownBlock = errors.New("alloc: unknown block")

	// ErrSizeMismatch indicates a buffer was returned with a different length
	// than it was allocated with.
	ErrSizeMismatch = errors.New("alloc: block size mismatch")

	// ErrPointerType indicates a pointer-carrying element type was requested
	// from memory the garbage collector does not scan.
	ErrPointerType = errors.New("alloc: element type holds pointers")
)

// negativeSize reports a programmer error for a negative request.
func negativeSize(size int) error {
	return errors.AssertionFailedf("alloc: negative size %d", size)
}
