package analysis

import (
	"strings"

	"github.com/elliotchance/orderedmap"
)

// canonicalize produces the dedup key for a string: surrounding whitespace
// trimmed, internal whitespace runs collapsed to one space, case preserved.
func canonicalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// dedup folds raw occurrences into one FoundString per canonical text. The
// representative occurrence is the one with the highest section weight,
// ties broken by the lowest file offset, so the result does not depend on
// the order occurrences arrived in. First-seen order of the canonical texts
// is preserved for downstream stages.
func dedup(raw []RawString) []FoundString {
	groups := orderedmap.NewOrderedMap()

	for i := range raw {
		rs := &raw[i]
		key := canonicalize(rs.Text)
		if key == "" {
			continue
		}
		if v, ok := groups.Get(key); ok {
			v.(*group).add(rs)
		} else {
			g := &group{rep: rs}
			g.add(rs)
			groups.Set(key, g)
		}
	}

	out := make([]FoundString, 0, groups.Len())
	for el := groups.Front(); el != nil; el = el.Next() {
		g := el.Value.(*group)
		rep := g.rep
		fs := FoundString{
			Text:          rep.Text,
			Encoding:      rep.Encoding,
			EncodingName:  rep.Encoding.String(),
			Offset:        rep.Offset,
			RVA:           rep.RVA,
			Section:       rep.Section,
			Length:        rep.ByteLen,
			Score:         0,
			Source:        rep.Source,
			SourceName:    rep.Source.String(),
			Confidence:    rep.Confidence,
			SectionType:   rep.SectionType,
			SectionWeight: rep.SectionWeight,
		}
		if len(g.occurrences) > 1 {
			fs.Occurrences = g.occurrences
		}
		out = append(out, fs)
	}
	return out
}

// group accumulates occurrences of one canonical text and tracks the
// current representative.
type group struct {
	rep         *RawString
	occurrences []Occurrence
}

func (g *group) add(rs *RawString) {
	g.occurrences = append(g.occurrences, Occurrence{
		Offset:       rs.Offset,
		Section:      rs.Section,
		Encoding:     rs.Encoding,
		EncodingName: rs.Encoding.String(),
	})
	if betterRepresentative(rs, g.rep) {
		g.rep = rs
	}
}

// betterRepresentative reports whether a should replace b as the group's
// representative: higher section weight first, then lower offset, then the
// lexically smaller section name as a final deterministic tiebreak.
func betterRepresentative(a, b *RawString) bool {
	if a == b {
		return false
	}
	if a.SectionWeight != b.SectionWeight {
		return a.SectionWeight > b.SectionWeight
	}
	if a.Offset != b.Offset {
		return a.Offset < b.Offset
	}
	return a.Section < b.Section
}
