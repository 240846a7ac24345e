// Package strtable provides a fixed-capacity hash table keyed by strings.
//
// Keys are stored in bins: the first PrefixSize bytes inline, and any
// remainder in an overflow buffer obtained from the table's allocator, so
// short keys never allocate. Collisions use the same tail-scan chaining as
// package inttable, with about 14% of the bins held back for chains. The
// table never grows; Set fails with ErrFull once every bin is used.
//
// Keys may be normalized before hashing and storage, which makes lookups
// case-insensitive (FoldCase) or insensitive to Unicode composition (NFC):
//
//	names, _ := strtable.New[uint32](nil, 1024, strtable.FoldCase())
//	_ = names.Set("Textures/Stone.KTX2", 7)
//	id, ok := names.Get("textures/stone.ktx2") // 7, true
//
// A Table is not safe for concurrent use.
package strtable
