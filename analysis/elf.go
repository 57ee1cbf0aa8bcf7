package analysis

import (
	"bytes"
	"debug/elf"
	"strings"
)

// elfParser parses ELF executables (Linux, BSD, and so on) using the
// standard library reader, then layers the string-likelihood classification
// on top of the raw section table.
type elfParser struct{}

func (elfParser) format() BinaryFormat { return FormatElf }

func (elfParser) detect(data []byte) bool {
	return len(data) >= len(elfMagic) && bytes.Equal(data[:len(elfMagic)], elfMagic)
}

func (p elfParser) parse(data []byte) (*ContainerInfo, error) {
	info := &ContainerInfo{Format: FormatElf}

	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		// Magic matched but the header or section table is broken. Report
		// the format with zero sections; the pipeline proceeds on whatever
		// exists, which here is nothing.
		return info, &ParseError{Format: FormatElf, Err: err}
	}

	for _, sec := range f.Sections {
		if sec.Size == 0 || sec.Type == elf.SHT_NULL {
			continue
		}
		// SHT_NOBITS sections (.bss) occupy no file bytes; there is nothing
		// to scan and their declared size would point past real data.
		if sec.Type == elf.SHT_NOBITS {
			continue
		}
		offset, size, ok := clampSection(sec.Offset, sec.Size, len(data))
		if !ok {
			continue
		}

		secType := classifyElfSection(sec.Name, sec.Flags)
		rva := sec.Addr
		info.Sections = append(info.Sections, SectionInfo{
			Name:         sec.Name,
			Offset:       offset,
			Size:         size,
			RVA:          &rva,
			Type:         secType,
			Weight:       elfSectionWeight(secType, sec.Name),
			IsExecutable: sec.Flags&elf.SHF_EXECINSTR != 0,
			IsWritable:   sec.Flags&elf.SHF_WRITE != 0,
		})
	}

	info.Imports, info.Exports = elfSymbols(f)
	return info, nil
}

// classifyElfSection assigns a SectionType from the section name and flags.
// Executable sections win regardless of name.
func classifyElfSection(name string, flags elf.SectionFlag) SectionType {
	if flags&elf.SHF_EXECINSTR != 0 {
		return SectionCode
	}

	switch {
	case name == ".rodata" || strings.HasPrefix(name, ".rodata."):
		return SectionStringData
	case name == ".comment" || name == ".note" || strings.HasPrefix(name, ".note."):
		return SectionStringData
	case name == ".data.rel.ro" || strings.HasPrefix(name, ".data.rel.ro."):
		return SectionReadOnlyData
	case name == ".data" || name == ".bss":
		return SectionWritableData
	case strings.HasPrefix(name, ".debug_"):
		return SectionDebug
	case name == ".strtab" || name == ".shstrtab" || name == ".symtab" ||
		name == ".dynsym" || name == ".dynstr":
		return SectionDebug
	default:
		return SectionOther
	}
}

// elfSectionWeight maps a classified ELF section to its extraction weight.
// Aligned string-literal variants of .rodata keep the top weight; comment
// and note sections are nearly as reliable.
func elfSectionWeight(t SectionType, name string) float64 {
	switch t {
	case SectionStringData:
		switch {
		case name == ".rodata" || strings.HasPrefix(name, ".rodata.str"):
			return 10.0
		case name == ".comment" || name == ".note" || strings.HasPrefix(name, ".note."):
			return 9.0
		default:
			return 8.0
		}
	case SectionReadOnlyData:
		return 7.0
	case SectionWritableData:
		return 5.0
	case SectionCode:
		return 1.0
	case SectionDebug:
		return 2.0
	case SectionResources:
		return 8.0
	default:
		return 0.0
	}
}

// elfSymbols extracts import and export name lists from the dynamic and
// static symbol tables. Imports are undefined global/weak function or object
// symbols; exports are defined globals with a non-zero value. Either table
// may be missing (stripped binaries) and that is not an error.
func elfSymbols(f *elf.File) (imports []ImportInfo, exports []ExportInfo) {
	seen := make(map[string]bool)

	collect := func(syms []elf.Symbol) {
		for _, s := range syms {
			if s.Name == "" {
				continue
			}
			bind := elf.ST_BIND(s.Info)
			typ := elf.ST_TYPE(s.Info)
			if bind != elf.STB_GLOBAL && bind != elf.STB_WEAK {
				continue
			}
			if typ != elf.STT_FUNC && typ != elf.STT_OBJECT && typ != elf.STT_NOTYPE {
				continue
			}
			if s.Section == elf.SHN_UNDEF {
				if !seen["i:"+s.Name] {
					seen["i:"+s.Name] = true
					imports = append(imports, ImportInfo{
						Name:    s.Name,
						Library: s.Library,
						Address: s.Value,
					})
				}
			} else if bind == elf.STB_GLOBAL && s.Value != 0 {
				if !seen["e:"+s.Name] {
					seen["e:"+s.Name] = true
					exports = append(exports, ExportInfo{Name: s.Name, Address: s.Value})
				}
			}
		}
	}

	if dynsyms, err := f.DynamicSymbols(); err == nil {
		collect(dynsyms)
	}
	if syms, err := f.Symbols(); err == nil {
		collect(syms)
	}
	return imports, exports
}
