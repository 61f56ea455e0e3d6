package xmlsource

import (
	"strings"
	"time"

	"github.com/abrsearch/core/internal/core/domain"
)

// dateLayout is the ABR source's fixed YYYYMMDD encoding.
const dateLayout = "20060102"

// normalize implements the Adapter of spec §4.4.5: raw strings become
// a well-typed domain.Business plus its alternate domain.BusinessName
// rows.
func normalize(rec rawRecord) (domain.Business, []domain.BusinessName) {
	b := domain.Business{
		ABN:            rec.abn,
		ABNStatus:      rec.abnStatus,
		ABNStatusFrom:  parseDate(rec.abnStatusFromDate),
		EntityTypeCode: rec.entityTypeCode,
		EntityTypeText: rec.entityTypeText,
		State:          nilIfEmpty(rec.state),
		Postcode:       nilIfEmpty(rec.postcode),
		GSTStatus:      nilIfEmpty(rec.gstStatus),
		GSTFromDate:    parseDate(rec.gstStatusFromDate),
		ACN:            nilIfEmpty(rec.acn),
	}

	if rec.recordLastUpdatedDate != "" {
		b.RecordLastUpdated = parseDate(rec.recordLastUpdatedDate)
	}

	if rec.entityTypeCode == domain.IndividualEntityTypeCode {
		given := strings.Join(rec.givenNames, " ")
		b.GivenName = nilIfEmpty(given)
		b.FamilyName = nilIfEmpty(rec.familyName)
		b.EntityName = strings.TrimSpace(given + " " + rec.familyName)
	} else {
		b.GivenName = nil
		b.FamilyName = nil
		if rec.mainEntityName != "" {
			b.EntityName = rec.mainEntityName
		} else {
			b.EntityName = "Unknown Entity"
		}
	}

	names := make([]domain.BusinessName, 0, len(rec.otherNames))
	for _, n := range rec.otherNames {
		names = append(names, domain.BusinessName{NameType: n.nameType, NameText: n.nameText})
	}

	return b, names
}

// parseDate parses a YYYYMMDD string, normalizing the "not applicable"
// sentinel 19000101 and any malformed string to nil, per spec §4.4.5.
func parseDate(raw string) *time.Time {
	if raw == "" || raw == domain.SentinelDate {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
