package analysis

import (
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"
)

// isPrintableByte reports whether b may appear inside an ASCII string run.
// The range is 0x20..0x7E plus a small whitespace allowlist.
func isPrintableByte(b byte) bool {
	if b >= 0x20 && b <= 0x7E {
		return true
	}
	return b == '\t' || b == '\n' || b == '\r'
}

// scanAscii walks data for printable-byte runs and emits each run meeting
// the configured minimum as a RawString. Null bytes terminate a run at any
// alignment. When the UTF-8 scanner is enabled, valid multi-byte sequences
// extend a run and the emitted encoding becomes Utf8.
//
// Offsets in the result are base+index, i.e. absolute file offsets. The
// scan never reads past len(data) and assumes no trailing padding: a run
// still open at the end of the slice is closed and emitted.
func scanAscii(data []byte, base uint64, cfg *Config) []RawString {
	allowUtf8 := cfg.wantsEncoding(EncUtf8)

	var out []RawString
	var run []byte
	var runStart int
	multibyte := 0

	flush := func() {
		if len(run) >= cfg.MinAsciiLength && len(run) <= cfg.MaxLength {
			enc := EncAscii
			conf := 1.0
			if multibyte > 0 {
				enc = EncUtf8
				// Multi-byte text is real but slightly less certain than a
				// clean ASCII run.
				conf = 0.95
			}
			out = append(out, RawString{
				Text:       string(run),
				Offset:     base + uint64(runStart),
				Encoding:   enc,
				Confidence: conf,
				ByteLen:    uint32(len(run)),
			})
		}
		run = nil
		multibyte = 0
	}

	for i := 0; i < len(data); {
		b := data[i]

		if b < 0x80 {
			if isPrintableByte(b) {
				if len(run) == 0 {
					runStart = i
				}
				run = append(run, b)
			} else {
				flush()
			}
			i++
			continue
		}

		if allowUtf8 {
			r, size := utf8.DecodeRune(data[i:])
			if r != utf8.RuneError && size > 1 {
				if len(run) == 0 {
					runStart = i
				}
				run = append(run, data[i:i+size]...)
				multibyte++
				i += size
				continue
			}
		}

		flush()
		i++
	}
	flush()

	return out
}

// UTF-16 code units with a non-zero high byte are accepted only below this
// ceiling (through Cyrillic). Anything higher is more likely incidental
// binary data than text.
const utf16WeakCeiling = 0x04FF

// utf16Accept classifies one UTF-16 code unit: strong (high byte zero, low
// byte printable), weak (plausible non-Latin text), or rejected.
func utf16Accept(u uint16) (accept, strong bool) {
	if u < 0x80 {
		return isPrintableByte(byte(u)), true
	}
	if u >= 0x00A0 && u <= utf16WeakCeiling {
		return true, false
	}
	return false, false
}

// scanUtf16 walks data two bytes at a time looking for UTF-16 runs in the
// given byte order. A run ends at a double-zero code unit (the explicit
// terminator) or at any rejected unit. Each emitted run carries a
// confidence value: the fraction of strongly accepted code units within the
// run's span. Runs below the configured low-water mark are discarded; this
// is the primary defense against false-positive UTF-16 detection on
// naturally occurring byte patterns.
func scanUtf16(data []byte, base uint64, order binary.ByteOrder, cfg *Config) []RawString {
	enc := EncUtf16Le
	if order == binary.ByteOrder(binary.BigEndian) {
		enc = EncUtf16Be
	}


	var out []RawString
	var units []uint16
	var runStart int
	strongCount := 0

	flush := func() {
		defer func() {
			units = units[:0]
			strongCount = 0
		}()
		if len(units) < cfg.MinUtf16Length || len(units) > cfg.MaxLength {
			return
		}
		conf := float64(strongCount) / float64(len(units))
		if conf < cfg.Utf16Confidence {
			return
		}
		out = append(out, RawString{
			Text:       string(utf16.Decode(units)),
			Offset:     base + uint64(runStart),
			Encoding:   enc,
			Confidence: conf,
			ByteLen:    uint32(len(units) * 2),
		})
	}

	for i := 0; i+1 < len(data); i += 2 {
		u := order.Uint16(data[i : i+2])

		if u == 0 {
			flush()
			continue
		}

		accept, strong := utf16Accept(u)
		if !accept {
			flush()
			continue
		}

		if len(units) == 0 {
			runStart = i
		}
		units = append(units, u)
		if strong {
			strongCount++
		}
	}
	flush()

	return out
}
