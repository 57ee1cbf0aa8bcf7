package analysis

import (
	"sync"

	"github.com/ianlancetaylor/demangle"
)

// demangleCache memoizes demangling results. Symbol names repeat heavily
// across imports, exports, and section data, and demangling is not cheap.
var demangleCache sync.Map

// demangleName returns the demangled form of a C++ or Rust symbol name, or
// the input unchanged when it is not mangled.
func demangleName(name string) string {
	if v, ok := demangleCache.Load(name); ok {
		return v.(string)
	}
	d := demangle.Filter(name)
	if d == "" {
		d = name
	}
	demangleCache.Store(name, d)
	return d
}

// surfaceDemangled replaces a mangled symbol name with its demangled form
// as the string's text, keeping the raw name as an extra pattern view. The
// representative offset and byte length still describe the mangled bytes
// in the file.
func surfaceDemangled(fs *FoundString, views []string) []string {
	if d := demangleName(fs.Text); d != fs.Text {
		fs.Text = d
		views = append(views, d)
	}
	return views
}

// classify assigns semantic tags to one deduplicated string. Symbol-derived
// strings always get their import/export tag and are demangled before being
// surfaced; pattern tags are matched against both the raw and demangled
// forms, so a mangled name containing an embedded path or domain still gets
// tagged.
func classify(fs *FoundString) {
	p := getPatterns()

	views := []string{fs.Text}
	switch fs.Source {
	case SourceImportName:
		fs.AddTag(TagImport)
		views = surfaceDemangled(fs, views)
	case SourceExportName:
		fs.AddTag(TagExport)
		views = surfaceDemangled(fs, views)
	case SourceResourceString:
		fs.AddTag(TagResource)
	}

	for _, text := range views {
		if p.url.MatchString(text) {
			fs.AddTag(TagUrl)
		}
		if p.isDomain(text) {
			fs.AddTag(TagDomain)
		}
		if p.isIPv4(text) {
			fs.AddTag(TagIPv4)
		}
		if p.isIPv6(text) {
			fs.AddTag(TagIPv6)
		}
		// A URL's path component satisfies the POSIX path shape; the URL
		// tag wins.
		if !fs.HasTag(TagUrl) && (p.posixPath.MatchString(text) || p.winPath.MatchString(text)) {
			fs.AddTag(TagFilePath)
		}
		if p.registry.MatchString(text) {
			fs.AddTag(TagRegistryPath)
		}
		if p.guid.MatchString(text) {
			fs.AddTag(TagGuid)
		}
		if p.email.MatchString(text) {
			fs.AddTag(TagEmail)
		}
		if p.isBase64(text) {
			fs.AddTag(TagBase64)
		}
		if p.isFormatString(text) {
			fs.AddTag(TagFormatString)
		}
		if p.userAgent.MatchString(text) {
			fs.AddTag(TagUserAgent)
		}
		// An IPv4 literal satisfies the dotted version shape too; the
		// address tag wins.
		if !fs.HasTag(TagIPv4) && p.version.MatchString(text) {
			fs.AddTag(TagVersion)
		}
		if p.manifest.MatchString(text) {
			fs.AddTag(TagManifest)
		}
	}

	if fs.Tags == nil {
		fs.Tags = []Tag{}
	}
}

// classifyAll tags every string in place.
func classifyAll(found []FoundString) {
	for i := range found {
		classify(&found[i])
	}
}
