package analysis

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"strings"
)

// peParser parses Windows PE executables. Section reading goes through the
// standard library; the export directory is walked by hand since debug/pe
// only surfaces imports.
type peParser struct{}

func (peParser) format() BinaryFormat { return FormatPe }

func (peParser) detect(data []byte) bool {
	return len(data) >= 2 && data[0] == 'M' && data[1] == 'Z'
}

func (p peParser) parse(data []byte) (*ContainerInfo, error) {
	info := &ContainerInfo{Format: FormatPe}

	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return info, &ParseError{Format: FormatPe, Err: err}
	}

	for _, sec := range f.Sections {
		if sec.Size == 0 {
			continue
		}
		offset, size, ok := clampSection(uint64(sec.Offset), uint64(sec.Size), len(data))
		if !ok {
			continue
		}

		secType := classifyPeSection(sec.Name, sec.Characteristics)
		rva := uint64(sec.VirtualAddress)
		info.Sections = append(info.Sections, SectionInfo{
			Name:         sec.Name,
			Offset:       offset,
			Size:         size,
			RVA:          &rva,
			Type:         secType,
			Weight:       peSectionWeight(secType),
			IsExecutable: sec.Characteristics&pe.IMAGE_SCN_CNT_CODE != 0,
			IsWritable:   sec.Characteristics&pe.IMAGE_SCN_MEM_WRITE != 0,
		})
	}

	info.Imports = peImports(f)
	info.Exports = peExports(f, data)
	return info, nil
}

// classifyPeSection assigns a SectionType from the section name and
// characteristics. The code characteristic wins regardless of name, and a
// .data section without the write characteristic counts as read-only.
func classifyPeSection(name string, characteristics uint32) SectionType {
	if characteristics&pe.IMAGE_SCN_CNT_CODE != 0 {
		return SectionCode
	}

	switch {
	case name == ".rdata" || name == ".rodata":
		return SectionStringData
	case name == ".rsrc":
		return SectionResources
	case name == ".data" && characteristics&pe.IMAGE_SCN_MEM_WRITE == 0:
		return SectionReadOnlyData
	case name == ".data" || name == ".bss":
		return SectionWritableData
	case name == ".pdata" || name == ".xdata" || strings.HasPrefix(name, ".debug"):
		return SectionDebug
	default:
		return SectionOther
	}
}

func peSectionWeight(t SectionType) float64 {
	switch t {
	case SectionStringData:
		return 10.0
	case SectionResources:
		return 9.0
	case SectionReadOnlyData:
		return 7.0
	case SectionWritableData:
		return 5.0
	case SectionCode:
		return 1.0
	case SectionDebug:
		return 2.0
	default:
		return 0.0
	}
}

// peImports flattens the import descriptors into name+library pairs.
// debug/pe reports them as "symbol:LIBRARY.dll" strings.
func peImports(f *pe.File) []ImportInfo {
	raw, err := f.ImportedSymbols()
	if err != nil {
		return nil
	}
	imports := make([]ImportInfo, 0, len(raw))
	for _, entry := range raw {
		name, lib, found := strings.Cut(entry, ":")
		if name == "" {
			continue
		}
		if !found {
			lib = ""
		}
		imports = append(imports, ImportInfo{Name: name, Library: lib})
	}
	return imports
}

// The export directory layout is fixed at 40 bytes; only the fields used
// below are pulled out.
const peExportDirSize = 40

// Hostile files can declare absurd export counts; anything past this is
// treated as garbage.
const peMaxExports = 1 << 16

// peExports walks the export directory by hand. Every RVA dereference is
// translated through the section table and bounds-checked against the raw
// buffer, so a truncated or hostile directory yields a short (possibly
// empty) list rather than a fault.
func peExports(f *pe.File, data []byte) []ExportInfo {
	var dd pe.DataDirectory
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes == 0 {
			return nil
		}
		dd = oh.DataDirectory[0]
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes == 0 {
			return nil
		}
		dd = oh.DataDirectory[0]
	default:
		return nil
	}
	if dd.VirtualAddress == 0 || dd.Size < peExportDirSize {
		return nil
	}

	dirOff, ok := peRvaToOffset(f, dd.VirtualAddress)
	if !ok || dirOff+peExportDirSize > uint64(len(data)) {
		return nil
	}
	dir := data[dirOff : dirOff+peExportDirSize]

	ordinalBase := binary.LittleEndian.Uint32(dir[16:20])
	numFuncs := binary.LittleEndian.Uint32(dir[20:24])
	numNames := binary.LittleEndian.Uint32(dir[24:28])
	funcsRva := binary.LittleEndian.Uint32(dir[28:32])
	namesRva := binary.LittleEndian.Uint32(dir[32:36])
	ordsRva := binary.LittleEndian.Uint32(dir[36:40])

	if numNames == 0 || numNames > peMaxExports || numFuncs > peMaxExports {
		return nil
	}

	namesOff, ok1 := peRvaToOffset(f, namesRva)
	ordsOff, ok2 := peRvaToOffset(f, ordsRva)
	funcsOff, ok3 := peRvaToOffset(f, funcsRva)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}

	var exports []ExportInfo
	for i := uint64(0); i < uint64(numNames); i++ {
		nameRvaOff := namesOff + i*4
		ordOff := ordsOff + i*2
		if nameRvaOff+4 > uint64(len(data)) || ordOff+2 > uint64(len(data)) {
			break
		}
		nameRva := binary.LittleEndian.Uint32(data[nameRvaOff : nameRvaOff+4])
		ordinal := binary.LittleEndian.Uint16(data[ordOff : ordOff+2])

		nameOff, ok := peRvaToOffset(f, nameRva)
		if !ok {
			continue
		}
		name := readCString(data, nameOff)
		if name == "" {
			continue
		}

		var addr uint64
		if uint32(ordinal) < numFuncs {
			funcOff := funcsOff + uint64(ordinal)*4
			if funcOff+4 <= uint64(len(data)) {
				addr = uint64(binary.LittleEndian.Uint32(data[funcOff : funcOff+4]))
			}
		}

		exports = append(exports, ExportInfo{
			Name:    name,
			Address: addr,
			Ordinal: uint16(uint32(ordinal) + ordinalBase),
		})
	}
	return exports
}

// peRvaToOffset translates a relative virtual address to a file offset via
// the section table.
func peRvaToOffset(f *pe.File, rva uint32) (uint64, bool) {
	for _, sec := range f.Sections {
		size := sec.VirtualSize
		if size == 0 {
			size = sec.Size
		}
		if rva >= sec.VirtualAddress && rva-sec.VirtualAddress < size {
			return uint64(rva-sec.VirtualAddress) + uint64(sec.Offset), true
		}
	}
	return 0, false
}

// readCString reads a NUL-terminated ASCII string at off, stopping at the
// buffer end if no terminator is found.
func readCString(data []byte, off uint64) string {
	if off >= uint64(len(data)) {
		return ""
	}
	end := bytes.IndexByte(data[off:], 0)
	if end < 0 {
		return string(data[off:])
	}
	return string(data[off : off+uint64(end)])
}
