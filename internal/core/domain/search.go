package domain

// Technique selects which Repository search path serves a query.
type Technique string

const (
	TechniqueNative    Technique = "native"
	TechniqueOptimized Technique = "optimized"
)

// Mode selects the high-level search strategy. ModeAI is accepted by
// the HTTP surface but always fails with ErrNotImplemented.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeAI       Mode = "ai"
)

// SearchQuery is the normalized shape every search path consumes.
// Pointer filter fields distinguish "absent" from "empty string", per
// the controller-level normalization spec §4.6.4 requires.
type SearchQuery struct {
	Term       string
	State      *string
	Postcode   *string
	EntityType *string
	ABNStatus  *string
	Page       int
	Limit      int
}

// Pagination is the shared envelope every search path returns,
// computed from a candidate set capped at maxCandidates.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// SearchResult bundles a page of businesses with its pagination
// envelope and the repository-reported query latency.
type SearchResult struct {
	Data       []Business
	Pagination Pagination
	QueryTimeMs int64
}
