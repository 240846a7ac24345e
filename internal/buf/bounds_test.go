package buf

import (
	"math"
	"testing"
)

func TestOverflowHelpers(t *testing.T) {
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected add overflow to fail")
	}
	if v, ok := AddOverflowSafe(10, -3); !ok || v != 7 {
		t.Fatalf("AddOverflowSafe(10, -3) = %d, %v", v, ok)
	}
	if _, ok := MulOverflowSafe(math.MaxInt/2+1, 2); ok {
		t.Fatalf("expected mul overflow to fail")
	}
	if _, ok := MulOverflowSafe(-1, 8); ok {
		t.Fatalf("negative operand must be rejected")
	}
	if v, ok := MulOverflowSafe(0, math.MaxInt); !ok || v != 0 {
		t.Fatalf("MulOverflowSafe(0, MaxInt) = %d, %v", v, ok)
	}
	if v, ok := MulOverflowSafe(6, 7); !ok || v != 42 {
		t.Fatalf("MulOverflowSafe(6, 7) = %d, %v", v, ok)
	}
}

func TestAlignHelpers(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 64, 4096} {
		if !IsPow2(n) {
			t.Fatalf("IsPow2(%d) = false", n)
		}
	}
	for _, n := range []int{0, -8, 3, 12, 100} {
		if IsPow2(n) {
			t.Fatalf("IsPow2(%d) = true", n)
		}
	}

	cases := []struct {
		addr, align, want uintptr
	}{
		{0, 8, 0},
		{1, 8, 7},
		{8, 8, 0},
		{13, 4, 3},
		{65, 64, 63},
	}
	for _, c := range cases {
		if got := AlignPad(c.addr, c.align); got != c.want {
			t.Fatalf("AlignPad(%d, %d) = %d, want %d", c.addr, c.align, got, c.want)
		}
	}
}
