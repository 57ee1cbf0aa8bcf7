package analysis

import (
	"encoding/binary"
	"runtime"
	"sync"
)

// extract runs the enabled scanners over every eligible section and injects
// symbol and load-command names as synthetic candidates. Sections are
// scanned concurrently but results are merged in section-table order, so
// the output is deterministic for a given input and configuration.
func extract(data []byte, info *ContainerInfo, cfg *Config) []RawString {
	var targets []*SectionInfo
	for i := range info.Sections {
		if cfg.sectionEligible(&info.Sections[i]) {
			targets = append(targets, &info.Sections[i])
		}
	}

	results := make([][]RawString, len(targets))
	workers := runtime.GOMAXPROCS(0)
	if workers > len(targets) {
		workers = len(targets)
	}
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, sec := range targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, sec *SectionInfo) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = scanSection(data, sec, cfg)
		}(i, sec)
	}
	wg.Wait()

	var out []RawString
	for _, rs := range results {
		out = append(out, rs...)
	}
	if cfg.IncludeSymbols {
		out = append(out, symbolStrings(info, cfg)...)
	}
	return out
}

// scanSection applies each enabled scanner to one section's byte range and
// stamps the results with the section's identity. The slice handed to the
// scanners is already clamped to the buffer, so the scanners themselves
// never see out-of-range offsets.
func scanSection(data []byte, sec *SectionInfo, cfg *Config) []RawString {
	body := data[sec.Offset : sec.Offset+sec.Size]

	source := SourceSectionData
	switch sec.Type {
	case SectionResources:
		source = SourceResourceString
	case SectionDebug:
		source = SourceDebugInfo
	}

	var found []RawString
	if cfg.wantsEncoding(EncAscii) || cfg.wantsEncoding(EncUtf8) {
		found = append(found, scanAscii(body, sec.Offset, cfg)...)
	}
	if cfg.wantsEncoding(EncUtf16Le) {
		found = append(found, scanUtf16(body, sec.Offset, binary.LittleEndian, cfg)...)
	}
	if cfg.wantsEncoding(EncUtf16Be) {
		found = append(found, scanUtf16(body, sec.Offset, binary.BigEndian, cfg)...)
	}

	for i := range found {
		found[i].Section = sec.Name
		found[i].SectionType = sec.Type
		found[i].SectionWeight = sec.Weight
		found[i].Source = source
		if sec.RVA != nil {
			rva := *sec.RVA + (found[i].Offset - sec.Offset)
			found[i].RVA = &rva
		}
	}
	return found
}

// symbolStrings turns import names, export names, and Mach-O dylib install
// paths into synthetic candidates. These do not live at a scannable file
// offset, so they carry no section and full confidence; the ranking stage
// gives them a fixed base instead of a section weight.
func symbolStrings(info *ContainerInfo, cfg *Config) []RawString {
	var out []RawString

	add := func(name string, source StringSource, addr uint64) {
		if name == "" || len(name) > cfg.MaxLength {
			return
		}
		rs := RawString{
			Text:       name,
			Encoding:   EncAscii,
			Confidence: 1.0,
			Source:     source,
			ByteLen:    uint32(len(name)),
		}
		if addr != 0 {
			rva := addr
			rs.RVA = &rva
		}
		out = append(out, rs)
	}

	for _, imp := range info.Imports {
		add(imp.Name, SourceImportName, imp.Address)
	}
	for _, exp := range info.Exports {
		add(exp.Name, SourceExportName, exp.Address)
	}
	for _, path := range info.DylibPaths {
		add(path, SourceLoadCommand, 0)
	}
	return out
}
