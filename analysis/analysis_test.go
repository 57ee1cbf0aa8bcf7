package analysis

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

// makeElf builds a minimal 64-bit little-endian ELF with a single .rodata
// section holding payload. Enough structure for debug/elf to parse: header,
// null section, .rodata, .shstrtab.
func makeElf(t *testing.T, payload []byte) []byte {
	t.Helper()

	shstr := []byte("\x00.rodata\x00.shstrtab\x00")
	rodataOff := uint64(64)
	shstrOff := rodataOff + uint64(len(payload))
	shoff := (shstrOff + uint64(len(shstr)) + 7) &^ 7
	buf := make([]byte, shoff+3*64)

	le := binary.LittleEndian
	copy(buf, []byte{0x7f, 'E', 'L', 'F', 2, 1, 1})
	le.PutUint16(buf[0x10:], 2)    // ET_EXEC
	le.PutUint16(buf[0x12:], 0x3e) // EM_X86_64
	le.PutUint32(buf[0x14:], 1)
	le.PutUint64(buf[0x28:], shoff)
	le.PutUint16(buf[0x34:], 64)
	le.PutUint16(buf[0x3a:], 64)
	le.PutUint16(buf[0x3c:], 3)
	le.PutUint16(buf[0x3e:], 2)

	copy(buf[rodataOff:], payload)
	copy(buf[shstrOff:], shstr)

	section := func(i int, name, typ uint32, flags, addr, off, size uint64) {
		base := shoff + uint64(i)*64
		le.PutUint32(buf[base:], name)
		le.PutUint32(buf[base+4:], typ)
		le.PutUint64(buf[base+8:], flags)
		le.PutUint64(buf[base+16:], addr)
		le.PutUint64(buf[base+24:], off)
		le.PutUint64(buf[base+32:], size)
		le.PutUint64(buf[base+48:], 1)
	}
	section(1, 1, 1 /* SHT_PROGBITS */, 0x2 /* SHF_ALLOC */, 0x400000, rodataOff, uint64(len(payload)))
	section(2, 9, 3 /* SHT_STRTAB */, 0, 0, shstrOff, uint64(len(shstr)))

	return buf
}

func findText(strs []FoundString, text string) *FoundString {
	for i := range strs {
		if strs[i].Text == text {
			return &strs[i]
		}
	}
	return nil
}

func TestAnalyzeElf(t *testing.T) {
	payload := []byte("Hello\x00World\x00\x01\x02\x03Test\x00https://example.com/gate\x00")
	data := makeElf(t, payload)

	report, err := Analyze(data, DefaultConfig())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.Container.Format != FormatElf {
		t.Errorf("format = %v, want ELF", report.Container.Format)
	}

	for _, want := range []string{"Hello", "World", "Test", "https://example.com/gate"} {
		if findText(report.Strings, want) == nil {
			t.Errorf("missing string %q", want)
		}
	}

	url := findText(report.Strings, "https://example.com/gate")
	hello := findText(report.Strings, "Hello")
	if url == nil || hello == nil {
		t.Fatal("expected strings not found")
	}
	if !url.HasTag(TagUrl) {
		t.Errorf("url string tags = %v, want url", url.Tags)
	}
	if url.Score <= hello.Score {
		t.Errorf("url score %d should beat plain text score %d", url.Score, hello.Score)
	}
	if len(hello.Tags) != 0 {
		t.Errorf("plain text tags = %v, want none", hello.Tags)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	data := makeElf(t, []byte("alpha\x00beta\x00gamma\x00delta delta\x00"))

	first, err := Analyze(data, DefaultConfig())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Analyze(data, DefaultConfig())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first.Strings, second.Strings) {
		t.Error("two runs over the same input differ")
	}
}

func TestAnalyzeUnsupported(t *testing.T) {
	if _, err := Analyze([]byte{}, DefaultConfig()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("empty input: err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Analyze([]byte("not a binary at all"), DefaultConfig()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("text input: err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestAnalyzeTruncatedElf(t *testing.T) {
	// Valid magic, garbage after. Must not error; must yield zero strings.
	data := append([]byte{0x7f, 'E', 'L', 'F'}, []byte("garbage")...)
	report, err := Analyze(data, DefaultConfig())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.Container.Format != FormatElf {
		t.Errorf("format = %v, want ELF", report.Container.Format)
	}
	if len(report.Container.Sections) != 0 {
		t.Errorf("sections = %d, want 0", len(report.Container.Sections))
	}
	if len(report.Strings) != 0 {
		t.Errorf("strings = %d, want 0", len(report.Strings))
	}
}

func TestAnalyzeInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinAsciiLength = 5000

	_, err := Analyze(makeElf(t, []byte("payload\x00")), cfg)
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Errorf("err = %v, want ConfigError", err)
	}
}

func TestAnalyzeSectionFilter(t *testing.T) {
	data := makeElf(t, []byte("visible-string\x00"))

	cfg := DefaultConfig()
	cfg.ExcludeSections = []string{".rodata"}

	report, err := Analyze(data, cfg)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(report.Strings) != 0 {
		t.Errorf("excluded section still produced %d strings", len(report.Strings))
	}
}
