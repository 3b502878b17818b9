package endian

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestHostBigEndian(t *testing.T) {
	var probe [2]byte
	binary.NativeEndian.PutUint16(probe[:], 0x0102)
	if got := probe[0] == 0x01; got != HostBigEndian {
		t.Fatalf("HostBigEndian = %v, native order says %v", HostBigEndian, got)
	}
}

func TestSwap(t *testing.T) {
	u16 := uint16(0x0102)
	i16 := int16(0x0102)
	u32 := uint32(0x01020304)
	i32 := int32(-2)
	u64 := uint64(0x0102030405060708)

	Swap(&u16)
	Swap(&i16)
	Swap(&u32)
	Swap(&i32)
	Swap(&u64)

	if u16 != 0x0201 {
		t.Errorf("u16 = %#x", u16)
	}
	if i16 != 0x0201 {
		t.Errorf("i16 = %#x", i16)
	}
	if u32 != 0x04030201 {
		t.Errorf("u32 = %#x", u32)
	}
	if uint32(i32) != 0xfeffffff {
		t.Errorf("i32 = %#x", uint32(i32))
	}
	if u64 != 0x0807060504030201 {
		t.Errorf("u64 = %#x", u64)
	}
}

func TestSwapFloats(t *testing.T) {
	f32 := float32(1.5)
	f64 := 2.25

	Swap(&f32)
	Swap(&f64)

	if math.Float32bits(f32) != Swapped(math.Float32bits(1.5)) {
		t.Errorf("f32 bits = %#x", math.Float32bits(f32))
	}
	if math.Float64bits(f64) != Swapped(math.Float64bits(2.25)) {
		t.Errorf("f64 bits = %#x", math.Float64bits(f64))
	}

	Swap(&f32)
	Swap(&f64)
	if f32 != 1.5 || f64 != 2.25 {
		t.Errorf("double swap = %v, %v", f32, f64)
	}
}

func TestSwapVariadic(t *testing.T) {
	a, b := uint32(1), uint32(2)
	Swap(&a, &b)
	if a != 0x01000000 || b != 0x02000000 {
		t.Errorf("a=%#x b=%#x", a, b)
	}
}

func TestSlice(t *testing.T) {
	s := []uint16{1, 2, 3}
	Slice(s)
	want := []uint16{256, 512, 768}
	for i := range s {
		if s[i] != want[i] {
			t.Errorf("s[%d] = %d, want %d", i, s[i], want[i])
		}
	}
}

func TestDirection(t *testing.T) {
	if NeedsSwap(HostBigEndian) {
		t.Error("host order should not need a swap")
	}
	if !NeedsSwap(!HostBigEndian) {
		t.Error("foreign order should need a swap")
	}
	if DirectionFor(HostBigEndian) != ToHost {
		t.Error("target host order should be ToHost")
	}
	if DirectionFor(!HostBigEndian) != ToFile {
		t.Error("target foreign order should be ToFile")
	}
	for _, d := range []Direction{ToHost, ToFile} {
		if DirectionFor(d.Target()) != d {
			t.Errorf("Target/DirectionFor mismatch for %v", d)
		}
	}
}
