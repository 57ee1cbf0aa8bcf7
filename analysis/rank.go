package analysis

import (
	"math"
	"strings"

	"golang.org/x/exp/slices"
)

// Scoring weights. The total is clamped to [0,100]; the components are
// sized so that a high-confidence string-literal-section hit with one
// strong semantic tag lands in the 70s and plain section noise stays
// below 40.
const (
	sectionScale = 4.0  // section weight 0..10 scaled to 0..40
	symbolBase   = 18.0 // fixed base for import/export/load-command names
	confScale    = 20.0 // extraction confidence 0..1 scaled to 0..20
)

// tagBoost maps each tag to its semantic boost. Network indicators rank
// highest, then identifiers, then filesystem hints, then symbol provenance.
var tagBoost = map[Tag]float64{
	TagUrl:          20,
	TagIPv4:         18,
	TagIPv6:         18,
	TagDomain:       16,
	TagEmail:        15,
	TagUserAgent:    14,
	TagRegistryPath: 14,
	TagGuid:         12,
	TagFilePath:     12,
	TagManifest:     10,
	TagBase64:       8,
	TagVersion:      8,
	TagImport:       6,
	TagExport:       6,
	TagFormatString: 6,
	TagResource:     4,
}

// rank scores every string and sorts the slice into the output order:
// score descending, then file offset ascending, then text ascending. The
// sort is total, so equal inputs always produce byte-identical output.
func rank(found []FoundString, cfg *Config) {
	for i := range found {
		found[i].Score = score(&found[i], cfg)
	}

	slices.SortFunc(found, func(a, b FoundString) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if a.Offset != b.Offset {
			if a.Offset < b.Offset {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Text, b.Text)
	})
}

// score computes the integer relevance score for one string.
func score(fs *FoundString, cfg *Config) int {
	var base float64
	switch fs.Source {
	case SourceImportName, SourceExportName, SourceLoadCommand:
		base = symbolBase
	default:
		base = fs.SectionWeight * sectionScale
	}

	s := base + fs.Confidence*confScale + semanticBoost(fs.Tags) - noisePenalty(fs.Text, cfg)

	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return int(math.Round(s))
}

// semanticBoost sums tag boosts with diminishing returns: the strongest
// tag counts in full, the second at half, everything after at a quarter.
// A string plastered with tags is usually one interesting thing matched
// several ways, not several interesting things.
func semanticBoost(tags []Tag) float64 {
	if len(tags) == 0 {
		return 0
	}
	boosts := make([]float64, 0, len(tags))
	for _, t := range tags {
		boosts = append(boosts, tagBoost[t])
	}
	slices.SortFunc(boosts, func(a, b float64) int {
		if a > b {
			return -1
		}
		if a < b {
			return 1
		}
		return 0
	})

	total := 0.0
	for i, b := range boosts {
		switch i {
		case 0:
			total += b
		case 1:
			total += b * 0.5
		default:
			total += b * 0.25
		}
	}
	return total
}

// noisePenalty estimates how much a string looks like incidental bytes
// rather than authored text: near-random entropy, excessive length, and
// single-character repetition all cost points.
func noisePenalty(text string, cfg *Config) float64 {
	if text == "" {
		return 0
	}

	penalty := 0.0

	if h := shannonEntropy(text); h > 4.5 {
		penalty += math.Min((h-4.5)*10, 15)
	}

	half := cfg.MaxLength / 2
	if half > 0 && len(text) > half {
		penalty += math.Min(float64(len(text)-half)/float64(half)*10, 10)
	}

	if r := repetitionRatio(text); r > 0.5 {
		penalty += (r - 0.5) * 20
	}

	return penalty
}

// shannonEntropy returns bits per byte over the string's byte histogram.
func shannonEntropy(s string) float64 {
	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}
	n := float64(len(s))
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}

// repetitionRatio is the fraction of bytes equal to their predecessor.
// "AAAAAAAA" scores near 1, normal prose near 0.
func repetitionRatio(s string) float64 {
	if len(s) < 2 {
		return 0
	}
	same := 0
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			same++
		}
	}
	return float64(same) / float64(len(s)-1)
}
