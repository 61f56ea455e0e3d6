package xmlsource

import "testing"

func TestNormalize_Individual(t *testing.T) {
	rec := rawRecord{
		abn:                   "12345678901",
		entityTypeCode:        "IND",
		givenNames:            []string{"MARY", "JANE"},
		familyName:            "DOE",
		abnStatusFromDate:     "19000101",
		gstStatusFromDate:     "19000101",
		recordLastUpdatedDate: "19000101",
	}

	b, _ := normalize(rec)

	if b.EntityName != "MARY JANE DOE" {
		t.Errorf("EntityName = %q, want %q", b.EntityName, "MARY JANE DOE")
	}
	if b.GivenName == nil || *b.GivenName != "MARY JANE" {
		t.Errorf("GivenName = %v, want MARY JANE", b.GivenName)
	}
	if b.FamilyName == nil || *b.FamilyName != "DOE" {
		t.Errorf("FamilyName = %v, want DOE", b.FamilyName)
	}
	if b.ABNStatusFrom != nil || b.GSTFromDate != nil || b.RecordLastUpdated != nil {
		t.Error("expected all sentinel dates to normalize to nil")
	}
}

func TestNormalize_NonIndividual(t *testing.T) {
	rec := rawRecord{
		abn:            "53004085616",
		entityTypeCode: "PRV",
		mainEntityName: "VANTAGE SEARCH PTY LTD",
		otherNames: []rawOtherName{
			{nameType: "TRD", nameText: "VANTAGE DIRECTORY"},
			{nameType: "BN", nameText: "VANTAGE SEARCH"},
		},
	}

	b, names := normalize(rec)

	if b.EntityName != "VANTAGE SEARCH PTY LTD" {
		t.Errorf("EntityName = %q", b.EntityName)
	}
	if b.GivenName != nil || b.FamilyName != nil {
		t.Error("expected nil GivenName/FamilyName for non-individual")
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 alternate names, got %d", len(names))
	}
	if names[0].NameType != "TRD" || names[0].NameText != "VANTAGE DIRECTORY" {
		t.Errorf("unexpected first name: %+v", names[0])
	}
}

func TestNormalize_NonIndividualNoMainName(t *testing.T) {
	rec := rawRecord{abn: "99999999999", entityTypeCode: "PUB"}

	b, _ := normalize(rec)

	if b.EntityName != "Unknown Entity" {
		t.Errorf("EntityName = %q, want %q", b.EntityName, "Unknown Entity")
	}
}

func TestParseDate(t *testing.T) {
	if d := parseDate("19000101"); d != nil {
		t.Errorf("expected sentinel date to parse to nil, got %v", d)
	}
	if d := parseDate("not-a-date"); d != nil {
		t.Errorf("expected malformed date to parse to nil, got %v", d)
	}
	if d := parseDate(""); d != nil {
		t.Errorf("expected empty date to parse to nil, got %v", d)
	}
	d := parseDate("20230615")
	if d == nil || d.Year() != 2023 || d.Month() != 6 || d.Day() != 15 {
		t.Errorf("parseDate(20230615) = %v, want 2023-06-15", d)
	}
}
