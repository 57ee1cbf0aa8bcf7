// Package analysis implements the stringy pipeline: binary-format-aware
// container parsing, encoding-aware string extraction, semantic
// classification, and relevance ranking. The package consumes a read-only
// byte buffer and produces an ordered sequence of FoundString values;
// rendering and file IO live in the callers.
package analysis

import (
	"errors"
	"fmt"
)

// BinaryFormat identifies the container format of the input.
type BinaryFormat int

const (
	FormatUnknown BinaryFormat = iota
	FormatElf
	FormatPe
	FormatMachO
)

func (f BinaryFormat) String() string {
	switch f {
	case FormatElf:
		return "ELF"
	case FormatPe:
		return "PE"
	case FormatMachO:
		return "Mach-O"
	default:
		return "Unknown"
	}
}

// SectionType classifies a section by its likelihood of holding meaningful
// text. Assignment is a pure function of (format, section name, flags).
type SectionType int

const (
	// SectionStringData marks sections dedicated to string literals
	// (.rodata, .rdata, __cstring).
	SectionStringData SectionType = iota
	// SectionReadOnlyData marks other read-only data (.data.rel.ro, __DATA_CONST).
	SectionReadOnlyData
	// SectionWritableData marks writable data (.data).
	SectionWritableData
	// SectionCode marks executable sections.
	SectionCode
	// SectionDebug marks debug information (.debug_*, __DWARF).
	SectionDebug
	// SectionResources marks PE resource sections (.rsrc).
	SectionResources
	// SectionOther is everything else.
	SectionOther
)

func (t SectionType) String() string {
	switch t {
	case SectionStringData:
		return "string-data"
	case SectionReadOnlyData:
		return "readonly-data"
	case SectionWritableData:
		return "writable-data"
	case SectionCode:
		return "code"
	case SectionDebug:
		return "debug"
	case SectionResources:
		return "resources"
	default:
		return "other"
	}
}

// SectionInfo describes one named, contiguous byte range of the input.
// Offset+Size never exceeds the input buffer length; parsers clamp sections
// that claim more bytes than the file holds.
type SectionInfo struct {
	Name         string      `json:"name"`
	Offset       uint64      `json:"offset"`
	Size         uint64      `json:"size"`
	RVA          *uint64     `json:"rva,omitempty"`
	Type         SectionType `json:"type"`
	Weight       float64     `json:"weight"`
	IsExecutable bool        `json:"is_executable"`
	IsWritable   bool        `json:"is_writable"`
}

// ImportInfo is one imported symbol name, with its library when the format
// records one (PE import descriptors do, ELF and Mach-O do not).
type ImportInfo struct {
	Name    string `json:"name"`
	Library string `json:"library,omitempty"`
	Address uint64 `json:"address,omitempty"`
}

// ExportInfo is one exported symbol name.
type ExportInfo struct {
	Name    string `json:"name"`
	Address uint64 `json:"address"`
	Ordinal uint16 `json:"ordinal,omitempty"`
}

// ContainerInfo is the structural model of a parsed executable. It is built
// once per run and read-only afterward; concurrent extraction tasks share it
// by reference without synchronization.
type ContainerInfo struct {
	Format   BinaryFormat  `json:"format"`
	Sections []SectionInfo `json:"sections"`
	Imports  []ImportInfo  `json:"imports"`
	Exports  []ExportInfo  `json:"exports"`

	// DylibPaths are Mach-O load-command install paths; empty elsewhere.
	DylibPaths []string `json:"dylib_paths,omitempty"`
}

// Section returns the first section with the given name, or nil.
func (c *ContainerInfo) Section(name string) *SectionInfo {
	for i := range c.Sections {
		if c.Sections[i].Name == name {
			return &c.Sections[i]
		}
	}
	return nil
}

// Encoding identifies how a string's bytes were decoded.
type Encoding int

const (
	EncAscii Encoding = iota
	EncUtf8
	EncUtf16Le
	EncUtf16Be
)

func (e Encoding) String() string {
	switch e {
	case EncAscii:
		return "ascii"
	case EncUtf8:
		return "utf8"
	case EncUtf16Le:
		return "utf16le"
	case EncUtf16Be:
		return "utf16be"
	default:
		return "ascii"
	}
}

// Tag is a semantic category assigned by the classifier. The string forms
// match the original tool's output so downstream consumers keep working.
type Tag string

const (
	TagUrl          Tag = "url"
	TagDomain       Tag = "domain"
	TagIPv4         Tag = "ipv4"
	TagIPv6         Tag = "ipv6"
	TagFilePath     Tag = "filepath"
	TagRegistryPath Tag = "regpath"
	TagGuid         Tag = "guid"
	TagEmail        Tag = "email"
	TagBase64       Tag = "b64"
	TagFormatString Tag = "fmt"
	TagUserAgent    Tag = "user-agent-ish"
	TagImport       Tag = "import"
	TagExport       Tag = "export"
	TagVersion      Tag = "version"
	TagManifest     Tag = "manifest"
	TagResource     Tag = "resource"
)

// StringSource records where a string came from, independent of section.
type StringSource int

const (
	SourceSectionData StringSource = iota
	SourceImportName
	SourceExportName
	SourceResourceString
	SourceLoadCommand
	SourceDebugInfo
)

func (s StringSource) String() string {
	switch s {
	case SourceImportName:
		return "import-name"
	case SourceExportName:
		return "export-name"
	case SourceResourceString:
		return "resource"
	case SourceLoadCommand:
		return "load-command"
	case SourceDebugInfo:
		return "debug-info"
	default:
		return "section-data"
	}
}

// RawString is a single tentative occurrence emitted by a scanner. It is
// transient: deduplication folds occurrences into FoundString values and the
// raw form is discarded.
type RawString struct {
	Text          string
	Offset        uint64
	RVA           *uint64
	Section       string
	SectionType   SectionType
	SectionWeight float64
	Encoding      Encoding
	Confidence    float64
	Source        StringSource
	ByteLen       uint32
}

// Occurrence is one location of a deduplicated string, kept for provenance.
type Occurrence struct {
	Offset       uint64   `json:"offset"`
	Section      string   `json:"section,omitempty"`
	Encoding     Encoding `json:"-"`
	EncodingName string   `json:"encoding"`
}

// FoundString is the final unit of output: one logical string with its
// representative occurrence, full occurrence list, tags, and score.
type FoundString struct {
	Text         string       `json:"text"`
	Encoding     Encoding     `json:"-"`
	EncodingName string       `json:"encoding"`
	Offset       uint64       `json:"offset"`
	RVA          *uint64      `json:"rva,omitempty"`
	Section      string       `json:"section,omitempty"`
	Length       uint32       `json:"length"`
	Tags         []Tag        `json:"tags"`
	Score        int          `json:"score"`
	Source       StringSource `json:"-"`
	SourceName   string       `json:"source"`
	Occurrences  []Occurrence `json:"occurrences,omitempty"`

	// Confidence is the representative occurrence's extraction confidence.
	// It feeds the ranking stage and is not part of the wire format.
	Confidence    float64     `json:"-"`
	SectionType   SectionType `json:"-"`
	SectionWeight float64     `json:"-"`
}

// HasTag reports whether t was assigned to the string.
func (f *FoundString) HasTag(t Tag) bool {
	for _, v := range f.Tags {
		if v == t {
			return true
		}
	}
	return false
}

// AddTag appends t unless already present. Tag sets stay small, so the
// linear scan beats a map.
func (f *FoundString) AddTag(t Tag) {
	if !f.HasTag(t) {
		f.Tags = append(f.Tags, t)
	}
}

// ErrUnsupportedFormat is returned when no format detector matched the
// input. It is the only terminal pipeline error: without a ContainerInfo
// there is nothing to degrade to.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParseError reports a structural problem inside a recognized container.
// Callers treat it as recoverable: the parser hands back whatever sections
// and symbols it recovered before the failure.
type ParseError struct {
	Format BinaryFormat
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse error: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigError reports mutually inconsistent caller-supplied parameters.
// It is raised before the pipeline runs.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Msg
}
