package analysis

// Defaults for the caller-supplied knobs. The pipeline behaves identically
// whether a parameter is explicitly set to its default or omitted.
const (
	DefaultMinAsciiLength  = 4
	DefaultMinUtf16Length  = 3
	DefaultMaxLength       = 1024
	DefaultUtf16Confidence = 0.5
)

// Config carries every tunable the pipeline accepts. The zero value is not
// usable directly; call DefaultConfig and override fields from there, or use
// Normalize to fill omitted values.
type Config struct {
	// MinAsciiLength is the minimum run length (bytes) for ASCII/UTF-8 strings.
	MinAsciiLength int `yaml:"min_ascii_length"`
	// MinUtf16Length is the minimum run length (code units) for UTF-16 strings.
	MinUtf16Length int `yaml:"min_utf16_length"`
	// MaxLength truncates nothing; candidates longer than this are dropped
	// and lengths approaching it are penalized by the ranking stage.
	MaxLength int `yaml:"max_length"`

	// Encodings enables individual scanners. Empty means the default set
	// {Ascii, Utf16Le}.
	Encodings []Encoding `yaml:"-"`

	// IncludeSections/ExcludeSections restrict extraction by section name.
	// Exclude wins over include; empty include means all sections.
	IncludeSections []string `yaml:"include_sections"`
	ExcludeSections []string `yaml:"exclude_sections"`

	// IncludeDebug also scans sections classified as debug info.
	IncludeDebug bool `yaml:"include_debug"`
	// IncludeSymbols injects import/export names as candidate strings.
	IncludeSymbols bool `yaml:"include_symbols"`

	// MinSectionWeight gates which sections are scanned. The default of 0
	// scans any section with positive weight.
	MinSectionWeight float64 `yaml:"min_section_weight"`

	// Utf16Confidence is the low-water mark below which a UTF-16 run is
	// discarded. Tunable because the accept/reject judgment has no ground
	// truth; see the UTF-16 scanner.
	Utf16Confidence float64 `yaml:"utf16_confidence"`

	// normalized guards against double application of defaults.
	normalized bool
}

// DefaultConfig returns the documented default configuration.
func DefaultConfig() Config {
	return Config{
		MinAsciiLength:  DefaultMinAsciiLength,
		MinUtf16Length:  DefaultMinUtf16Length,
		MaxLength:       DefaultMaxLength,
		Encodings:       []Encoding{EncAscii, EncUtf16Le},
		IncludeSymbols:  true,
		Utf16Confidence: DefaultUtf16Confidence,
		normalized:      true,
	}
}

// Normalize fills omitted fields with their defaults so that an explicitly
// supplied default and an omitted parameter are indistinguishable.
func (c Config) Normalize() Config {
	if c.normalized {
		return c
	}
	if c.MinAsciiLength == 0 {
		c.MinAsciiLength = DefaultMinAsciiLength
	}
	if c.MinUtf16Length == 0 {
		c.MinUtf16Length = DefaultMinUtf16Length
	}
	if c.MaxLength == 0 {
		c.MaxLength = DefaultMaxLength
	}
	if len(c.Encodings) == 0 {
		c.Encodings = []Encoding{EncAscii, EncUtf16Le}
	}
	if c.Utf16Confidence == 0 {
		c.Utf16Confidence = DefaultUtf16Confidence
	}
	c.normalized = true
	return c
}

// Validate rejects mutually inconsistent parameters before the pipeline runs.
func (c Config) Validate() error {
	if c.MinAsciiLength < 1 {
		return &ConfigError{Msg: "minimum ASCII length must be at least 1"}
	}
	if c.MinUtf16Length < 1 {
		return &ConfigError{Msg: "minimum UTF-16 length must be at least 1"}
	}
	if c.MinAsciiLength > c.MaxLength {
		return &ConfigError{Msg: "minimum ASCII length exceeds maximum length"}
	}
	if c.MinUtf16Length > c.MaxLength {
		return &ConfigError{Msg: "minimum UTF-16 length exceeds maximum length"}
	}
	if c.Utf16Confidence < 0 || c.Utf16Confidence > 1 {
		return &ConfigError{Msg: "UTF-16 confidence threshold must be within [0,1]"}
	}
	if c.MinSectionWeight < 0 {
		return &ConfigError{Msg: "minimum section weight must not be negative"}
	}
	return nil
}

// wantsEncoding reports whether the given scanner is enabled.
func (c *Config) wantsEncoding(e Encoding) bool {
	for _, v := range c.Encodings {
		if v == e {
			return true
		}
	}
	return false
}

// sectionEligible applies the weight gate, the debug switch, and the
// include/exclude name lists.
func (c *Config) sectionEligible(s *SectionInfo) bool {
	if s.Type == SectionDebug && !c.IncludeDebug {
		return false
	}
	if s.Weight <= c.MinSectionWeight {
		return false
	}
	for _, name := range c.ExcludeSections {
		if name == s.Name {
			return false
		}
	}
	if len(c.IncludeSections) > 0 {
		for _, name := range c.IncludeSections {
			if name == s.Name {
				return true
			}
		}
		return false
	}
	return true
}
