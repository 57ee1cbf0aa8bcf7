package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"stringy/analysis"
)

// writeHuman prints a flat view for interactive use. Full detail, including
// per-occurrence provenance, is only in the JSON formats.
func writeHuman(w io.Writer, report *analysis.Report, strs []analysis.FoundString) error {
	fmt.Fprintln(w, "----stringy----")
	fmt.Fprintf(w, "%-12s %s\n", "Format:", report.Container.Format)
	fmt.Fprintf(w, "%-12s %d\n", "Sections:", len(report.Container.Sections))
	fmt.Fprintf(w, "%-12s %d\n", "Imports:", len(report.Container.Imports))
	fmt.Fprintf(w, "%-12s %d\n", "Exports:", len(report.Container.Exports))
	fmt.Fprintf(w, "%-12s %d\n\n", "Strings:", len(strs))

	fmt.Fprintf(w, "%5s  %-10s  %-8s  %-16s  %-24s  %s\n",
		"SCORE", "OFFSET", "ENC", "SECTION", "TAGS", "TEXT")
	for i := range strs {
		s := &strs[i]
		tags := make([]string, 0, len(s.Tags))
		for _, t := range s.Tags {
			tags = append(tags, string(t))
		}
		section := s.Section
		if section == "" {
			section = s.SourceName
		}
		fmt.Fprintf(w, "%5d  0x%08x  %-8s  %-16s  %-24s  %s\n",
			s.Score, s.Offset, s.EncodingName, section,
			strings.Join(tags, ","), printableText(s.Text))
	}
	return nil
}

// writeJSON emits the whole report as one indented document.
func writeJSON(w io.Writer, report *analysis.Report, strs []analysis.FoundString) error {
	out := analysis.Report{Container: report.Container, Strings: strs}
	raw, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", raw)
	return err
}

// writeJSONL emits one JSON object per line, one per string, for piping
// into jq or a database loader.
func writeJSONL(w io.Writer, strs []analysis.FoundString) error {
	enc := json.NewEncoder(w)
	for i := range strs {
		if err := enc.Encode(&strs[i]); err != nil {
			return err
		}
	}
	return nil
}

// yaraMaxStrings caps how many strings go into a generated rule. YARA
// compilation cost grows with string count and a triage rule does not need
// the long tail.
const yaraMaxStrings = 20

// writeYara renders the top strings as a YARA rule skeleton. Only ASCII
// and UTF-16LE strings are emitted since those are the modifiers YARA
// supports directly.
func writeYara(w io.Writer, inputPath string, strs []analysis.FoundString) error {
	name := yaraIdentifier(filepath.Base(inputPath))

	fmt.Fprintf(w, "rule %s\n{\n", name)
	fmt.Fprintln(w, "    meta:")
	fmt.Fprintf(w, "        description = \"strings extracted from %s\"\n", filepath.Base(inputPath))
	fmt.Fprintln(w, "        generated_by = \"stringy\"")
	fmt.Fprintln(w, "    strings:")

	n := 0
	for i := range strs {
		if n >= yaraMaxStrings {
			break
		}
		s := &strs[i]
		text := yaraEscape(s.Text)
		if text == "" {
			continue
		}
		switch s.Encoding {
		case analysis.EncUtf16Le:
			fmt.Fprintf(w, "        $s%d = \"%s\" wide\n", n, text)
		case analysis.EncAscii, analysis.EncUtf8:
			fmt.Fprintf(w, "        $s%d = \"%s\"\n", n, text)
		default:
			continue
		}
		n++
	}

	fmt.Fprintln(w, "    condition:")
	if n > 1 {
		fmt.Fprintf(w, "        %d of them\n", (n+1)/2)
	} else {
		fmt.Fprintln(w, "        any of them")
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// yaraIdentifier derives a legal rule name from a file name.
func yaraIdentifier(base string) string {
	var b strings.Builder
	b.WriteString("stringy_")
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// yaraEscape renders a string as a YARA double-quoted literal, or "" when
// it contains bytes that cannot be expressed there.
func yaraEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			b.WriteString(`\"`)
		case c == '\\':
			b.WriteString(`\\`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			return ""
		case c >= 0x20 && c <= 0x7E:
			b.WriteByte(c)
		default:
			return ""
		}
	}
	return b.String()
}

// printableText makes a string safe for terminal output: control bytes are
// shown as escapes and very long strings are truncated.
func printableText(s string) string {
	const maxDisplay = 120
	truncated := false
	if len(s) > maxDisplay {
		s = s[:maxDisplay]
		truncated = true
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	if truncated {
		b.WriteString("...")
	}
	return b.String()
}
