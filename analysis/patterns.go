package analysis

import (
	"net"
	"strings"
	"sync"

	"rsc.io/binaryregexp"
)

// patternSet holds the compiled classifier patterns. Extracted strings can
// contain arbitrary byte sequences that are not valid UTF-8, which trips
// the standard regexp package's rune handling; binaryregexp matches on raw
// bytes and sidesteps the problem.
type patternSet struct {
	url        *binaryregexp.Regexp
	domainCand *binaryregexp.Regexp
	ipv4Cand   *binaryregexp.Regexp
	ipv6Cand   *binaryregexp.Regexp
	posixPath  *binaryregexp.Regexp
	winPath    *binaryregexp.Regexp
	registry   *binaryregexp.Regexp
	guid       *binaryregexp.Regexp
	email      *binaryregexp.Regexp
	base64     *binaryregexp.Regexp
	format     *binaryregexp.Regexp
	userAgent  *binaryregexp.Regexp
	version    *binaryregexp.Regexp
	manifest   *binaryregexp.Regexp

	tlds map[string]bool
}

var (
	patternsOnce sync.Once
	patterns     *patternSet
)

// Domain candidates are only tagged when their final label is on this list.
// Without it, every dotted identifier (symbol names, file names, version
// strings) would light up as a domain.
var knownTlds = []string{
	"com", "net", "org", "io", "dev", "info", "biz", "gov", "edu", "mil",
	"int", "co", "uk", "de", "fr", "ru", "cn", "jp", "br", "in", "au",
	"ca", "nl", "se", "no", "es", "it", "ch", "pl", "kr", "tw",
	"xyz", "top", "site", "online", "cloud", "app", "onion",
}

func getPatterns() *patternSet {
	patternsOnce.Do(func() {
		p := &patternSet{
			url:        binaryregexp.MustCompile(`(?i)\b(?:https?|ftp|wss?)://[^\s"'<>]{3,}`),
			domainCand: binaryregexp.MustCompile(`(?i)\b(?:[a-z0-9](?:[a-z0-9\-]{0,61}[a-z0-9])?\.)+[a-z]{2,12}\b`),
			ipv4Cand:   binaryregexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			ipv6Cand:   binaryregexp.MustCompile(`(?i)\b(?:[0-9a-f]{1,4}:)(?::?[0-9a-f]{1,4}){1,7}(?:::)?\b|::(?:[0-9a-f]{1,4}:?){1,7}`),
			posixPath:  binaryregexp.MustCompile(`(?:^|[^:\w])(/[\w.+\-]+){2,}/?`),
			winPath:    binaryregexp.MustCompile(`(?i)\b[a-z]:\\[^\s"'<>|?*]+|\\\\[\w.\-]+\\[^\s"'<>|?*]+`),
			registry:   binaryregexp.MustCompile(`(?i)\b(?:HKEY_LOCAL_MACHINE|HKEY_CURRENT_USER|HKEY_CLASSES_ROOT|HKEY_USERS|HKEY_CURRENT_CONFIG|HKLM|HKCU|HKCR|HKU)\\[^\s"'<>|?*]*`),
			guid:       binaryregexp.MustCompile(`(?i)\{?[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\}?`),
			email:      binaryregexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,12}\b`),
			base64:     binaryregexp.MustCompile(`[A-Za-z0-9+/]{16,}={0,2}`),
			format:     binaryregexp.MustCompile(`%[-+#0]*\d*(?:\.\d+)?(?:hh|h|ll|l|L|z|j|t)?[diouxXeEfFgGaAcspn]`),
			userAgent:  binaryregexp.MustCompile(`(?i)\bMozilla/\d|\bUser-Agent\b|\b(?:curl|wget|python-requests|okhttp|Go-http-client)/\d`),
			version:    binaryregexp.MustCompile(`(?i)\b(?:version[ :=]*)?v?\d+\.\d+\.\d+(?:[.\-][0-9a-z]+)?\b|\bgo1\.\d+(?:\.\d+)?\b`),
			manifest:   binaryregexp.MustCompile(`(?i)<\?xml\b|<assembly\b|\bmanifestVersion\b`),
			tlds:       make(map[string]bool, len(knownTlds)),
		}
		for _, tld := range knownTlds {
			p.tlds[tld] = true
		}
		patterns = p
	})
	return patterns
}

// isDomain reports whether s contains a dotted hostname whose final label
// is a known TLD. Strings shorter than four characters are never domains;
// that cutoff suppresses two-letter noise like "a.b" from struct field
// dumps.
func (p *patternSet) isDomain(s string) bool {
	if len(s) < 4 {
		return false
	}
	for _, cand := range p.domainCand.FindAllString(s, -1) {
		dot := strings.LastIndexByte(cand, '.')
		if dot < 0 {
			continue
		}
		if p.tlds[strings.ToLower(cand[dot+1:])] {
			return true
		}
	}
	return false
}

// isIPv4 verifies a regex candidate with a real address parse, rejecting
// octets above 255 that the loose pattern lets through.
func (p *patternSet) isIPv4(s string) bool {
	for _, cand := range p.ipv4Cand.FindAllString(s, -1) {
		if ip := net.ParseIP(cand); ip != nil && ip.To4() != nil {
			return true
		}
	}
	return false
}

// isIPv6 verifies candidates the same way. The pattern alone would accept
// things like MAC addresses with too many groups.
func (p *patternSet) isIPv6(s string) bool {
	for _, cand := range p.ipv6Cand.FindAllString(s, -1) {
		if !strings.Contains(cand, ":") {
			continue
		}
		if ip := net.ParseIP(cand); ip != nil && ip.To4() == nil {
			return true
		}
	}
	return false
}

// isBase64 reports whether s contains a plausible Base64 run: at least 16
// alphabet characters, padding included, totalling a multiple of four. The
// runs the regexp yields are maximal, so the length check applies to the
// whole embedded run, not the surrounding string. The mod-4 gate removes
// most hash and identifier noise.
func (p *patternSet) isBase64(s string) bool {
	for _, cand := range p.base64.FindAllString(s, -1) {
		if len(cand)%4 == 0 {
			return true
		}
	}
	return false
}

// isFormatString requires a real conversion specifier; a lone "%%" escape
// does not count.
func (p *patternSet) isFormatString(s string) bool {
	return p.format.MatchString(s)
}
