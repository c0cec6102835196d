package wire

import "testing"

func TestFixedCodec_Int32RoundTrip(t *testing.T) {
	codec := FixedCodec[int32]()
	buf := NewBuffer(codec.Size())
	codec.Encode(buf, -42)

	read := WrapBuffer(buf.Bytes())
	if got := codec.Decode(read); got != -42 {
		t.Errorf("Decode = %d, want -42", got)
	}
}

func TestFixedCodec_Float64RoundTrip(t *testing.T) {
	codec := FixedCodec[float64]()
	buf := NewBuffer(codec.Size())
	codec.Encode(buf, 2.71828)

	read := WrapBuffer(buf.Bytes())
	if got := codec.Decode(read); got != 2.71828 {
		t.Errorf("Decode = %v, want 2.71828", got)
	}
}

func TestScaler_AccumulatesAcrossShapes(t *testing.T) {
	s := NewScaler().Fixed(8).String("ab").Array(4, 3)
	want := 8 + StringSize("ab") + ArraySize(4, 3)
	if got := s.Size(); got != want {
		t.Errorf("Size = %d, want %d", got, want)
	}
}
