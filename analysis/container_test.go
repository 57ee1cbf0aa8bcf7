package analysis

import (
	"errors"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want BinaryFormat
	}{
		{"elf", []byte{0x7f, 'E', 'L', 'F', 2, 1, 1}, FormatElf},
		{"pe", []byte{'M', 'Z', 0x90, 0x00}, FormatPe},
		{"macho 64-bit", []byte{0xcf, 0xfa, 0xed, 0xfe}, FormatMachO},
		{"macho fat", []byte{0xca, 0xfe, 0xba, 0xbe}, FormatMachO},
		{"empty", nil, FormatUnknown},
		{"text", []byte("#!/bin/sh\n"), FormatUnknown},
		{"short", []byte{0x7f}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data); got != tt.want {
				t.Errorf("DetectFormat = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseContainerUnsupported(t *testing.T) {
	_, err := ParseContainer([]byte("plain text file"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseContainerMalformed(t *testing.T) {
	// Recognized magic with a broken body must yield a partial result, not
	// an error.
	for _, tt := range []struct {
		name   string
		data   []byte
		format BinaryFormat
	}{
		{"elf", append([]byte{0x7f, 'E', 'L', 'F'}, make([]byte, 16)...), FormatElf},
		{"pe", append([]byte("MZ"), make([]byte, 16)...), FormatPe},
		{"macho", append([]byte{0xcf, 0xfa, 0xed, 0xfe}, make([]byte, 16)...), FormatMachO},
	} {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseContainer(tt.data)
			if err != nil {
				t.Fatalf("ParseContainer failed: %v", err)
			}
			if info.Format != tt.format {
				t.Errorf("format = %v, want %v", info.Format, tt.format)
			}
			if len(info.Sections) != 0 {
				t.Errorf("sections = %d, want 0", len(info.Sections))
			}
		})
	}
}

func TestClampSection(t *testing.T) {
	tests := []struct {
		name         string
		offset, size uint64
		bufLen       int
		wantSize     uint64
		ok           bool
	}{
		{"fits", 10, 20, 100, 20, true},
		{"clamped", 90, 20, 100, 10, true},
		{"starts past end", 100, 20, 100, 0, false},
		{"starts way past end", 1 << 40, 20, 100, 0, false},
		{"zero size", 10, 0, 100, 0, false},
		{"huge size", 0, 1 << 60, 100, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, size, ok := clampSection(tt.offset, tt.size, tt.bufLen)
			if ok != tt.ok || size != tt.wantSize {
				t.Errorf("clampSection(%d, %d, %d) = (%d, %v), want (%d, %v)",
					tt.offset, tt.size, tt.bufLen, size, ok, tt.wantSize, tt.ok)
			}
		})
	}
}
