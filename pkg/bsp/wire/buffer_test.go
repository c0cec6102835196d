package wire

import "testing"

func TestBuffer_FixedWidthRoundTrip(t *testing.T) {
	buf := NewBuffer(1 + 2 + 4 + 8 + 8)
	buf.PutUint8(0xAB)
	buf.PutUint16(0xBEEF)
	buf.PutUint32(0xDEADBEEF)
	buf.PutUint64(0x0102030405060708)
	buf.PutFloat64(3.5)

	read := WrapBuffer(buf.Bytes())
	if got := read.GetUint8(); got != 0xAB {
		t.Errorf("GetUint8 = %x, want %x", got, 0xAB)
	}
	if got := read.GetUint16(); got != 0xBEEF {
		t.Errorf("GetUint16 = %x, want %x", got, 0xBEEF)
	}
	if got := read.GetUint32(); got != 0xDEADBEEF {
		t.Errorf("GetUint32 = %x, want %x", got, 0xDEADBEEF)
	}
	if got := read.GetUint64(); got != 0x0102030405060708 {
		t.Errorf("GetUint64 = %x, want %x", got, 0x0102030405060708)
	}
	if got := read.GetFloat64(); got != 3.5 {
		t.Errorf("GetFloat64 = %v, want 3.5", got)
	}
}

func TestBuffer_StringRoundTrip(t *testing.T) {
	s := "hello, superstep"
	buf := NewBuffer(StringSize(s))
	buf.PutString(s)

	read := WrapBuffer(buf.Bytes())
	if got := read.GetString(); got != s {
		t.Errorf("GetString = %q, want %q", got, s)
	}
}

func TestBuffer_ArrayRoundTrip(t *testing.T) {
	elems := []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}
	buf := NewBuffer(ArraySize(4, 3))
	buf.PutArray(4, 3, elems)

	read := WrapBuffer(buf.Bytes())
	count, got := read.GetArray(4)
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	for i, b := range got {
		if b != elems[i] {
			t.Errorf("byte %d = %d, want %d", i, b, elems[i])
		}
	}
}

func TestBuffer_OverrunPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on write overrun, got none")
		}
	}()
	buf := NewBuffer(1)
	buf.PutUint64(1)
}
