package analysis

import (
	"encoding/binary"
	"testing"
)

func TestScanAsciiRuns(t *testing.T) {
	cfg := DefaultConfig()
	data := []byte("Hello\x00World\x00\x01\x02\x03Test")

	got := scanAscii(data, 0, &cfg)
	if len(got) != 3 {
		t.Fatalf("got %d strings, want 3: %+v", len(got), got)
	}

	want := []struct {
		text   string
		offset uint64
	}{
		{"Hello", 0},
		{"World", 6},
		{"Test", 15},
	}
	for i, w := range want {
		if got[i].Text != w.text || got[i].Offset != w.offset {
			t.Errorf("run %d = (%q, %d), want (%q, %d)", i, got[i].Text, got[i].Offset, w.text, w.offset)
		}
		if got[i].Encoding != EncAscii {
			t.Errorf("run %d encoding = %v, want ascii", i, got[i].Encoding)
		}
	}
}

func TestScanAsciiMinLength(t *testing.T) {
	cfg := DefaultConfig()
	got := scanAscii([]byte("abc\x00abcd"), 0, &cfg)
	if len(got) != 1 || got[0].Text != "abcd" {
		t.Errorf("got %+v, want only \"abcd\"", got)
	}
}

func TestScanAsciiBaseOffset(t *testing.T) {
	cfg := DefaultConfig()
	got := scanAscii([]byte("\x00marker"), 0x1000, &cfg)
	if len(got) != 1 || got[0].Offset != 0x1001 {
		t.Errorf("got %+v, want offset 0x1001", got)
	}
}

func TestScanAsciiUtf8(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Encodings = []Encoding{EncAscii, EncUtf8}

	got := scanAscii([]byte("caf\xc3\xa9 au lait\x00"), 0, &cfg)
	if len(got) != 1 {
		t.Fatalf("got %d strings, want 1", len(got))
	}
	if got[0].Text != "café au lait" {
		t.Errorf("text = %q, want %q", got[0].Text, "café au lait")
	}
	if got[0].Encoding != EncUtf8 {
		t.Errorf("encoding = %v, want utf8", got[0].Encoding)
	}
}

func TestScanAsciiUtf8Disabled(t *testing.T) {
	// With only the ASCII scanner, a multi-byte sequence splits the run.
	cfg := DefaultConfig()
	got := scanAscii([]byte("left\xc3\xa9right"), 0, &cfg)
	if len(got) != 2 || got[0].Text != "left" || got[1].Text != "right" {
		t.Errorf("got %+v, want left/right split", got)
	}
}

func TestScanUtf16LeHello(t *testing.T) {
	cfg := DefaultConfig()
	data := []byte{0x48, 0x00, 0x65, 0x00, 0x6C, 0x00, 0x6C, 0x00, 0x6F, 0x00, 0x00, 0x00}

	got := scanUtf16(data, 0, binary.LittleEndian, &cfg)
	if len(got) != 1 {
		t.Fatalf("got %d strings, want 1", len(got))
	}
	if got[0].Text != "Hello" {
		t.Errorf("text = %q, want Hello", got[0].Text)
	}
	if got[0].Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", got[0].Confidence)
	}
	if got[0].Encoding != EncUtf16Le {
		t.Errorf("encoding = %v, want utf16le", got[0].Encoding)
	}
	if got[0].ByteLen != 10 {
		t.Errorf("byte length = %d, want 10", got[0].ByteLen)
	}
}

func TestScanUtf16Be(t *testing.T) {
	cfg := DefaultConfig()
	data := []byte{0x00, 0x48, 0x00, 0x69, 0x00, 0x21, 0x00, 0x00}

	got := scanUtf16(data, 0, binary.BigEndian, &cfg)
	if len(got) != 1 || got[0].Text != "Hi!" {
		t.Fatalf("got %+v, want \"Hi!\"", got)
	}
	if got[0].Encoding != EncUtf16Be {
		t.Errorf("encoding = %v, want utf16be", got[0].Encoding)
	}
}

func TestScanUtf16RoundTrip(t *testing.T) {
	// Byte-swapping an LE buffer yields a BE buffer; both scans must agree
	// on text, offsets, and confidence, differing only in the encoding.
	cfg := DefaultConfig()

	var le []byte
	for _, r := range "Hello, Würld" {
		le = binary.LittleEndian.AppendUint16(le, uint16(r))
	}
	le = append(le, 0, 0)

	be := make([]byte, len(le))
	for i := 0; i < len(le); i += 2 {
		be[i], be[i+1] = le[i+1], le[i]
	}

	gotLe := scanUtf16(le, 0, binary.LittleEndian, &cfg)
	gotBe := scanUtf16(be, 0, binary.BigEndian, &cfg)
	if len(gotLe) != 1 || len(gotBe) != 1 {
		t.Fatalf("got %d LE and %d BE strings, want 1 each", len(gotLe), len(gotBe))
	}
	if gotLe[0].Text != gotBe[0].Text {
		t.Errorf("text mismatch: LE %q, BE %q", gotLe[0].Text, gotBe[0].Text)
	}
	if gotLe[0].Offset != gotBe[0].Offset || gotLe[0].ByteLen != gotBe[0].ByteLen {
		t.Errorf("location mismatch: LE (%d, %d), BE (%d, %d)",
			gotLe[0].Offset, gotLe[0].ByteLen, gotBe[0].Offset, gotBe[0].ByteLen)
	}
	if gotLe[0].Confidence != gotBe[0].Confidence {
		t.Errorf("confidence mismatch: LE %v, BE %v", gotLe[0].Confidence, gotBe[0].Confidence)
	}
	if gotLe[0].Encoding != EncUtf16Le || gotBe[0].Encoding != EncUtf16Be {
		t.Errorf("encodings = %v/%v, want utf16le/utf16be", gotLe[0].Encoding, gotBe[0].Encoding)
	}
}

func TestScanUtf16ConfidenceGate(t *testing.T) {
	cfg := DefaultConfig()

	// Three non-Latin units and one ASCII unit: confidence 0.25, below the
	// 0.5 default, so the run is discarded.
	var data []byte
	for _, u := range []uint16{0x0416, 0x0417, 0x0418, 'A'} {
		data = binary.LittleEndian.AppendUint16(data, u)
	}
	data = append(data, 0, 0)

	if got := scanUtf16(data, 0, binary.LittleEndian, &cfg); len(got) != 0 {
		t.Errorf("low-confidence run survived: %+v", got)
	}

	// The same run passes with the gate lowered.
	cfg.Utf16Confidence = 0.2
	got := scanUtf16(data, 0, binary.LittleEndian, &cfg)
	if len(got) != 1 {
		t.Fatalf("got %d strings, want 1", len(got))
	}
	if got[0].Confidence != 0.25 {
		t.Errorf("confidence = %v, want 0.25", got[0].Confidence)
	}
}

func TestScanUtf16RejectsBinaryNoise(t *testing.T) {
	cfg := DefaultConfig()
	// High code units way past the accepted ceiling.
	data := []byte{0x34, 0x12, 0x78, 0x56, 0xBC, 0x9A, 0xF0, 0xDE}
	if got := scanUtf16(data, 0, binary.LittleEndian, &cfg); len(got) != 0 {
		t.Errorf("noise produced strings: %+v", got)
	}
}

func TestScanUtf16MinLength(t *testing.T) {
	cfg := DefaultConfig()
	// "Hi" is two code units, below the default minimum of three.
	data := []byte{0x48, 0x00, 0x69, 0x00, 0x00, 0x00}
	if got := scanUtf16(data, 0, binary.LittleEndian, &cfg); len(got) != 0 {
		t.Errorf("short run survived: %+v", got)
	}
}

func TestScanMaxLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLength = 8

	long := make([]byte, 16)
	for i := range long {
		long[i] = 'A'
	}
	if got := scanAscii(long, 0, &cfg); len(got) != 0 {
		t.Errorf("over-long run survived: %+v", got)
	}
}

func TestIsPrintableByte(t *testing.T) {
	for _, b := range []byte{' ', '~', 'a', '0', '\t', '\n', '\r'} {
		if !isPrintableByte(b) {
			t.Errorf("byte %#x should be printable", b)
		}
	}
	for _, b := range []byte{0x00, 0x1F, 0x7F, 0x80, 0xFF} {
		if isPrintableByte(b) {
			t.Errorf("byte %#x should not be printable", b)
		}
	}
}
