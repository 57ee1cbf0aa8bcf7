package analysis

// Report is the result of one full pipeline run.
type Report struct {
	Container *ContainerInfo `json:"container"`
	Strings   []FoundString  `json:"strings"`
}

// Analyze runs the whole pipeline over a read-only input buffer: container
// parsing, extraction, deduplication, classification, ranking. The buffer
// is never modified and the result is deterministic for a given (data, cfg)
// pair. Analysis of the same data twice yields identical reports.
//
// A recognized but structurally broken file still produces a Report, with
// whatever sections and symbols the parser recovered. The only errors are
// an invalid configuration and an unrecognized format.
func Analyze(data []byte, cfg Config) (*Report, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	info, err := ParseContainer(data)
	if err != nil {
		return nil, err
	}

	raw := extract(data, info, &cfg)
	found := dedup(raw)
	classifyAll(found)
	rank(found, &cfg)

	return &Report{Container: info, Strings: found}, nil
}
