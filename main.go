// Package main implements stringy, a binary string triage tool: it parses
// ELF, PE, and Mach-O executables, extracts human-readable strings, tags
// them semantically, and ranks them by likely analyst relevance.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/exp/mmap"
	"gopkg.in/yaml.v3"

	"stringy/analysis"
	"stringy/internal/logging"
)

const version = "1.0.0"

// Files below this size are read directly; larger ones go through mmap.
const mmapThreshold = 1 << 20

// CLI defines the command-line interface structure. Numeric and list flags
// default to zero values; omitted knobs pick up the documented defaults
// during config normalization, so a config file value is not clobbered by
// an unset flag.
type CLI struct {
	MinLength       int      `short:"n" name:"min-length" help:"Minimum ASCII/UTF-8 string length (default: 4)"`
	MinUtf16        int      `name:"min-utf16" help:"Minimum UTF-16 string length in code units (default: 3)"`
	MaxLength       int      `name:"max-length" help:"Drop strings longer than this (default: 1024)"`
	Encodings       []string `short:"e" name:"encoding" help:"Encodings to scan: ascii,utf8,utf16le,utf16be (default: ascii,utf16le)"`
	Section         []string `name:"section" help:"Only scan these sections"`
	ExcludeSection  []string `name:"exclude-section" help:"Skip these sections"`
	IncludeDebug    bool     `name:"include-debug" help:"Also scan debug-info sections"`
	NoSymbols       bool     `name:"no-symbols" help:"Do not inject import/export names"`
	MinWeight       float64  `name:"min-weight" help:"Minimum section weight to scan (default: 0)"`
	Utf16Confidence float64  `name:"utf16-confidence" help:"Discard UTF-16 runs below this confidence (default: 0.5)"`

	MinScore int    `name:"min-score" help:"Only output strings scoring at least this"`
	Top      int    `name:"top" help:"Only output the N highest-scoring strings"`
	Format   string `short:"f" name:"format" enum:"human,json,jsonl,yara," default:"human" help:"Output format (human/json/jsonl/yara)"`

	Config  string `short:"c" name:"config" type:"path" help:"YAML configuration file"`
	NoMmap  bool   `name:"no-mmap" help:"Never memory-map the input"`
	Version bool   `short:"v" name:"version" help:"Display version information"`

	File string `arg:"" optional:"" name:"file" help:"Binary to analyze" type:"path"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("stringy"),
		kong.Description("Extract, tag, and rank human-readable strings from executables."),
		kong.UsageOnError(),
	)

	if cli.Version {
		fmt.Printf("stringy %s\n", version)
		os.Exit(0)
	}

	logger := logging.NewLogger()

	if cli.File == "" {
		fmt.Fprintln(os.Stderr, "error: no input file")
		os.Exit(1)
	}

	cfg, err := buildConfig(&cli)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	data, err := readInput(cli.File, cli.NoMmap)
	if err != nil {
		logger.Error("cannot read input", "file", cli.File, "err", err)
		os.Exit(1)
	}
	logger.Debug("input loaded", "file", cli.File, "size", len(data))

	report, err := analysis.Analyze(data, cfg)
	if err != nil {
		logger.Error("analysis failed", "file", cli.File, "err", err)
		os.Exit(1)
	}
	logger.Debug("analysis complete",
		"format", report.Container.Format.String(),
		"sections", len(report.Container.Sections),
		"strings", len(report.Strings))

	strs := filterStrings(report.Strings, cli.MinScore, cli.Top)

	switch cli.Format {
	case "json":
		err = writeJSON(os.Stdout, report, strs)
	case "jsonl":
		err = writeJSONL(os.Stdout, strs)
	case "yara":
		err = writeYara(os.Stdout, cli.File, strs)
	default:
		err = writeHuman(os.Stdout, report, strs)
	}
	if err != nil {
		logger.Error("cannot write output", "err", err)
		os.Exit(1)
	}
}

// buildConfig layers the configuration sources: documented defaults, then
// the YAML file, then explicit flags.
func buildConfig(cli *CLI) (analysis.Config, error) {
	// Symbol injection defaults to on; the YAML key, when present,
	// overrides it, and the flag overrides both.
	cfg := analysis.Config{IncludeSymbols: true}

	if cli.Config != "" {
		raw, err := os.ReadFile(cli.Config)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", cli.Config, err)
		}
	}

	if cli.MinLength != 0 {
		cfg.MinAsciiLength = cli.MinLength
	}
	if cli.MinUtf16 != 0 {
		cfg.MinUtf16Length = cli.MinUtf16
	}
	if cli.MaxLength != 0 {
		cfg.MaxLength = cli.MaxLength
	}
	if len(cli.Section) > 0 {
		cfg.IncludeSections = cli.Section
	}
	if len(cli.ExcludeSection) > 0 {
		cfg.ExcludeSections = cli.ExcludeSection
	}
	if cli.IncludeDebug {
		cfg.IncludeDebug = true
	}
	if cli.NoSymbols {
		cfg.IncludeSymbols = false
	}
	if cli.MinWeight != 0 {
		cfg.MinSectionWeight = cli.MinWeight
	}
	if cli.Utf16Confidence != 0 {
		cfg.Utf16Confidence = cli.Utf16Confidence
	}

	if len(cli.Encodings) > 0 {
		encs, err := parseEncodings(cli.Encodings)
		if err != nil {
			return cfg, err
		}
		cfg.Encodings = encs
	}

	cfg = cfg.Normalize()
	return cfg, cfg.Validate()
}

func parseEncodings(names []string) ([]analysis.Encoding, error) {
	var out []analysis.Encoding
	for _, field := range names {
		for _, name := range strings.Split(field, ",") {
			switch strings.ToLower(strings.TrimSpace(name)) {
			case "ascii":
				out = append(out, analysis.EncAscii)
			case "utf8":
				out = append(out, analysis.EncUtf8)
			case "utf16le":
				out = append(out, analysis.EncUtf16Le)
			case "utf16be":
				out = append(out, analysis.EncUtf16Be)
			case "":
			default:
				return nil, fmt.Errorf("unknown encoding %q", name)
			}
		}
	}
	return out, nil
}

// readInput loads the whole file into memory. Large regular files go
// through mmap; anything else, or an mmap failure, falls back to a plain
// read. "-" reads stdin.
func readInput(path string, noMmap bool) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}

	if !noMmap {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() && info.Size() >= mmapThreshold {
			if data, err := readMmap(path, info.Size()); err == nil {
				return data, nil
			}
			// mmap can fail on odd filesystems or OS limits; the plain
			// read below handles it.
		}
	}

	return os.ReadFile(path)
}

func readMmap(path string, size int64) ([]byte, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data := make([]byte, size)
	n, err := reader.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return data[:n], nil
}

// filterStrings applies the output-side --min-score and --top filters. The
// input is already sorted by descending score.
func filterStrings(strs []analysis.FoundString, minScore, top int) []analysis.FoundString {
	if minScore > 0 {
		cut := len(strs)
		for i, s := range strs {
			if s.Score < minScore {
				cut = i
				break
			}
		}
		strs = strs[:cut]
	}
	if top > 0 && top < len(strs) {
		strs = strs[:top]
	}
	return strs
}
