package domain

// IngestEventKind discriminates the Orchestrator's message stream, the
// Go realization of spec §4.5's {progress, done, error} payloads.
type IngestEventKind string

const (
	IngestProgress IngestEventKind = "progress"
	IngestDone     IngestEventKind = "done"
	IngestError    IngestEventKind = "error"
)

// IngestEvent is the single typed message the Orchestrator emits on
// its output channel. Only the fields matching Kind are meaningful.
type IngestEvent struct {
	Kind IngestEventKind

	// IngestProgress
	Processed int64

	// IngestDone
	TotalProcessed int64
	TotalInserted  int64
	TotalUpdated   int64
	DurationMs     int64

	// IngestError
	Err error
}

// RawRecord is the parser's intermediate representation of one <ABR>
// element, before Adapter normalization. Fields are raw strings
// exactly as captured from character data; normalization (date
// parsing, sentinel handling, name derivation) happens in the Adapter.
type RawRecord struct {
	ABN                   string
	ABNStatus             string
	ABNStatusFromDate     string
	EntityTypeCode        string
	EntityTypeText        string
	MainEntityName        string
	GivenNames            []string
	FamilyName            string
	State                 string
	Postcode              string
	GSTStatus             string
	GSTStatusFromDate     string
	ACN                   string
	RecordLastUpdatedDate string
	OtherNames            []RawOtherName
}

// RawOtherName is one alternate name captured from OtherEntity/DGR.
type RawOtherName struct {
	NameType string
	NameText string
}
