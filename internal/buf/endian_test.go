package buf

import "testing"

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := U32LE(data); got != 0x67452301 {
		t.Fatalf("U32LE = 0x%x, want 0x67452301", got)
	}
	if got := U64LE(data); got != 0xefcdab8967452301 {
		t.Fatalf("U64LE = 0x%x, want 0xefcdab8967452301", got)
	}

	short := []byte{0xAA}
	if U32LE(short) != 0 || U64LE(short) != 0 {
		t.Fatalf("short reads should return 0")
	}
}

func TestPutU64LE_RoundTrip(t *testing.T) {
	var b [8]byte
	PutU64LE(b[:], 0xefcdab8967452301)
	want := [8]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	if b != want {
		t.Fatalf("PutU64LE = %x, want %x", b, want)
	}
	if got := U64LE(b[:]); got != 0xefcdab8967452301 {
		t.Fatalf("U64LE after PutU64LE = 0x%x", got)
	}

	short := []byte{0xAA, 0xBB}
	PutU64LE(short, 1)
	if short[0] != 0xAA || short[1] != 0xBB {
		t.Fatalf("PutU64LE must not touch a short buffer")
	}
}
