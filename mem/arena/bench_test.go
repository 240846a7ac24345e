package arena

import (
	"testing"
)

func BenchmarkArena_Alloc(b *testing.B) {
	a, err := New(1<<20, nil)
	if err != nil {
		b.Fatal(err)
	}
	defer a.Free()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := a.Alloc(64, 16); err != nil {
			a.Reset()
		}
	}
}

func BenchmarkAtomicArena_AllocParallel(b *testing.B) {
	a, err := NewAtomic(1<<24, nil)
	if err != nil {
		b.Fatal(err)
	}
	defer a.Free()

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			// Exhaustion is expected once the budget is spent; the cost of the
			// failing path is part of what is measured.
			_, _ = a.Alloc(64, 16)
		}
	})
}
