package domain

import "time"

// Business is one row per unique ABN. SearchTokens is derived by the
// store on every insert/update and is never set by application code.
type Business struct {
	ID                int64
	ABN               string
	ABNStatus         string
	ABNStatusFrom     *time.Time
	EntityTypeCode    string
	EntityTypeText    string
	EntityName        string
	GivenName         *string
	FamilyName        *string
	State             *string
	Postcode          *string
	GSTStatus         *string
	GSTFromDate       *time.Time
	ACN               *string
	RecordLastUpdated *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// BusinessNames is populated only by FindByABN; bulk operations and
	// search results leave it nil.
	BusinessNames []BusinessName
}

// BusinessName is an alternate name owned by a Business. Its lifetime
// is strictly bound to the parent's: ON DELETE CASCADE at the schema
// level, and wholesale delete-then-reinsert on every re-ingest of the
// owning ABN.
type BusinessName struct {
	ID         int64
	BusinessID int64
	NameType   string
	NameText   string
}

// IndividualEntityTypeCode marks a sole-trader / individual record,
// the one entity type whose name is derived from GivenName+FamilyName
// rather than carried as a literal entity name.
const IndividualEntityTypeCode = "IND"

// SentinelDate is the raw YYYYMMDD "not applicable" marker used
// throughout the ABR source format. Any field carrying this literal
// value normalizes to nil before reaching the store.
const SentinelDate = "19000101"
