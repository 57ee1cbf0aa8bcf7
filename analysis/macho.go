package analysis

import (
	"bytes"
	"debug/macho"
	"encoding/binary"
	"strings"
)

// machoParser parses Mach-O binaries, including fat (universal) files, for
// which the first architecture is used.
type machoParser struct{}

func (machoParser) format() BinaryFormat { return FormatMachO }

func (machoParser) detect(data []byte) bool {
	return hasMachoMagic(data)
}

// Mach-O nlist type bits. debug/macho does not export these.
const (
	machoNExt  = 0x01
	machoNType = 0x0e
)

func (p machoParser) parse(data []byte) (*ContainerInfo, error) {
	info := &ContainerInfo{Format: FormatMachO}

	f, base, err := openMacho(data)
	if err != nil {
		return info, &ParseError{Format: FormatMachO, Err: err}
	}

	for _, sec := range f.Sections {
		if sec.Size == 0 {
			continue
		}
		// Zero-fill sections (__bss and friends) have no file backing.
		if sec.Offset == 0 && sec.Seg != "__TEXT" {
			continue
		}
		offset, size, ok := clampSection(base+uint64(sec.Offset), sec.Size, len(data))
		if !ok {
			continue
		}

		secType := classifyMachoSection(sec.Seg, sec.Name)
		rva := sec.Addr
		info.Sections = append(info.Sections, SectionInfo{
			Name:         sec.Seg + "," + sec.Name,
			Offset:       offset,
			Size:         size,
			RVA:          &rva,
			Type:         secType,
			Weight:       machoSectionWeight(secType, sec.Seg, sec.Name),
			IsExecutable: sec.Seg == "__TEXT" && secType == SectionCode,
			IsWritable:   sec.Seg == "__DATA" || sec.Seg == "__DATA_DIRTY",
		})
	}

	info.Imports, info.Exports = machoSymbols(f)
	info.DylibPaths = machoDylibs(f)
	return info, nil
}

// openMacho handles both thin and fat files, parsing the first architecture
// of a fat file. The returned base is that architecture's offset within the
// buffer: section offsets inside an arch are relative to the arch's slice,
// not to the fat file, so every file-offset computation must add it.
func openMacho(data []byte) (*macho.File, uint64, error) {
	if len(data) >= 4 {
		magic := binary.BigEndian.Uint32(data[:4])
		if magic == 0xcafebabe || magic == 0xbebafeca {
			fat, err := macho.NewFatFile(bytes.NewReader(data))
			if err != nil {
				return nil, 0, err
			}
			if len(fat.Arches) == 0 {
				return nil, 0, macho.ErrNotFat
			}
			arch := fat.Arches[0]
			return arch.File, uint64(arch.Offset), nil
		}
	}
	f, err := macho.NewFile(bytes.NewReader(data))
	return f, 0, err
}

// classifyMachoSection assigns a SectionType from the segment/section pair.
func classifyMachoSection(seg, name string) SectionType {
	switch {
	case seg == "__TEXT" && name == "__cstring":
		return SectionStringData
	case seg == "__TEXT" && name == "__const":
		return SectionStringData
	case seg == "__DATA_CONST":
		return SectionReadOnlyData
	case seg == "__DATA" || seg == "__DATA_DIRTY":
		return SectionWritableData
	case seg == "__TEXT" && (name == "__text" || name == "__stubs" || name == "__stub_helper"):
		return SectionCode
	case seg == "__DWARF" || strings.HasPrefix(name, "__debug"):
		return SectionDebug
	default:
		return SectionOther
	}
}

func machoSectionWeight(t SectionType, seg, name string) float64 {
	switch t {
	case SectionStringData:
		if seg == "__TEXT" && name == "__cstring" {
			return 10.0
		}
		return 9.0
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

// machoSymbols splits the symbol table into imports (undefined entries) and
// exports (defined, externally visible entries).
func machoSymbols(f *macho.File) (imports []ImportInfo, exports []ExportInfo) {
	if f.Symtab == nil {
		return nil, nil
	}
	for _, sym := range f.Symtab.Syms {
		if sym.Name == "" {
			continue
		}
		if sym.Sect == 0 && sym.Type&machoNType == 0 {
			imports = append(imports, ImportInfo{Name: sym.Name, Address: sym.Value})
		} else if sym.Sect != 0 && sym.Value != 0 && sym.Type&machoNExt != 0 {
			exports = append(exports, ExportInfo{Name: sym.Name, Address: sym.Value})
		}
	}
	return imports, exports
}

// machoDylibs collects linked dylib install paths from the load commands.
// These are injected downstream as load-command strings.
func machoDylibs(f *macho.File) []string {
	var paths []string
	for _, load := range f.Loads {
		if dylib, ok := load.(*macho.Dylib); ok && dylib.Name != "" {
			paths = append(paths, dylib.Name)
		}
	}
	return paths
}
