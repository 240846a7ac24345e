// Package inttable provides a fixed-storage hash table from uint64 keys to
// uint64 values.
//
// # Layout
//
// A Table is one flat slot array obtained from an alloc.Allocator. The first
// ActiveCap slots are hash buckets; the remaining fifth of the table is a
// reserve that only serves collisions. Collisions are chained through index
// links stored in the slots themselves, so the table never allocates nodes:
//
//	bucket = murmur(key) % ActiveCap
//
// When the bucket is taken, a free slot is found by scanning backward from
// the last slot and linked onto the end of the bucket's chain. Overflow
// slots are therefore consumed from the tail inward regardless of which
// bucket collided.
//
// # Deletion
//
// Delete clears a slot but leaves its links in place, so chains running
// through it stay intact. Such dead slots are reused by later inserts that
// walk the same chain, and the tail scan may hand one to another chain as
// long as its old link does not lead back into that chain. In the rare case
// where every free slot does, Set relinks the table at the same capacity.
//
// # Growth
//
// By default a Set on a full table doubles it, rehashes every
// live entry and retries. Growth is atomic: if the allocator cannot supply
// the larger table the old one is untouched and the error is returned. Pass
// NoGrow for a fixed-capacity table that fails with ErrFull instead.
//
// # Pooling
//
// AcquireTable and ReleaseTable recycle heap-backed tables through a
// sync.Pool for workloads that build many short-lived tables.
//
// A Table is not safe for concurrent use.
package inttable
