package analysis

import (
	"encoding/binary"
)

// A rawParser converts input bytes into a ContainerInfo. Detect must inspect
// magic bytes only; it never requires the rest of the file to be well-formed.
// Parse may return a partial ContainerInfo together with a *ParseError when
// the structure breaks down mid-file.
type rawParser interface {
	detect(data []byte) bool
	parse(data []byte) (*ContainerInfo, error)
	format() BinaryFormat
}

// Detectors are tried in a fixed priority order: ELF, PE, Mach-O. The set is
// closed; adding a format means adding a parser here, not a plugin registry.
var parsers = []rawParser{
	elfParser{},
	peParser{},
	machoParser{},
}

// DetectFormat returns the container format of data, or FormatUnknown.
func DetectFormat(data []byte) BinaryFormat {
	for _, p := range parsers {
		if p.detect(data) {
			return p.format()
		}
	}
	return FormatUnknown
}

// ParseContainer detects the format of data and parses it into a
// ContainerInfo. A recognized but malformed file yields a partial
// ContainerInfo (possibly with zero sections) and a nil error: downstream
// stages operate on whatever was recovered. Only an unrecognized format is
// terminal.
func ParseContainer(data []byte) (*ContainerInfo, error) {
	for _, p := range parsers {
		if !p.detect(data) {
			continue
		}
		info, _ := p.parse(data)
		if info == nil {
			// Structure invalid beyond recovery; still report the format
			// with an empty section table rather than failing the run.
			info = &ContainerInfo{Format: p.format()}
		}
		return info, nil
	}
	return nil, ErrUnsupportedFormat
}

// clampSection bounds a file-derived (offset, size) pair against the input
// buffer. Sections that start past the end are rejected; sections that run
// past the end are clamped. All offset arithmetic on attacker-controlled
// input goes through here.
func clampSection(offset, size uint64, bufLen int) (uint64, uint64, bool) {
	n := uint64(bufLen)
	if offset >= n {
		return 0, 0, false
	}
	if size > n-offset {
		size = n - offset
	}
	if size == 0 {
		return 0, 0, false
	}
	return offset, size, true
}

// Magic numbers checked by the detectors.
var (
	elfMagic = []byte{0x7f, 'E', 'L', 'F'}

	machoMagics = []uint32{
		0xfeedface, // 32-bit
		0xfeedfacf, // 64-bit
		0xcefaedfe, // 32-bit, byte-swapped
		0xcffaedfe, // 64-bit, byte-swapped
		0xcafebabe, // fat
		0xbebafeca, // fat, byte-swapped
	}
)

func hasMachoMagic(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	magic := binary.BigEndian.Uint32(data[:4])
	for _, m := range machoMagics {
		if magic == m {
			return true
		}
	}
	return false
}
