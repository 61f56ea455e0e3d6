// Package xmlsource implements C4: a streaming, event-driven reader
// over the ABR XML format. It never builds a document tree —
// encoding/xml.Decoder.Token() is read in a loop, bounding memory to
// O(max record size) rather than O(document size), the idiomatic Go
// equivalent of a SAX reader.
package xmlsource

import (
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/abrsearch/core/internal/core/domain"
)

// elementABR is the record boundary: one <ABR> is one raw record.
const elementABR = "ABR"

// progressInterval matches spec §4.4.2: every 10,000 records, emit a
// progress event.
const progressInterval = 10000

// BusinessWriter is the backpressure boundary: Add is expected to
// block when its internal buffer is full, which IS the pause/resume
// mechanism spec §4.4.3 describes (see SPEC_FULL §C4). The Batch
// Writer implements this interface.
type BusinessWriter interface {
	Add(ctx context.Context, business domain.Business, names []domain.BusinessName) error
}

// Parser holds the streaming state of spec §4.4.1.
type Parser struct {
	writer     BusinessWriter
	onProgress func(processed int64)
	processed  int64
}

// New constructs a Parser. onProgress is called every progressInterval
// records and may be nil.
func New(writer BusinessWriter, onProgress func(processed int64)) *Parser {
	return &Parser{writer: writer, onProgress: onProgress}
}

// Processed returns the running count of well-formed records parsed
// so far, for the Orchestrator's final done event.
func (p *Parser) Processed() int64 {
	return p.processed
}

// rawRecord mirrors domain.RawRecord but stays package-private until
// Adapter normalization; keeping it private here means a malformed,
// discarded record never crosses the package boundary half-built.
type rawRecord struct {
	abn                   string
	abnStatus             string
	abnStatusFromDate     string
	entityTypeCode        string
	entityTypeText        string
	mainEntityName        string
	givenNames            []string
	familyName            string
	state                 string
	postcode              string
	gstStatus             string
	gstStatusFromDate     string
	acn                   string
	recordLastUpdatedDate string
	otherNames            []rawOtherName
}

type rawOtherName struct {
	nameType string
	nameText string
}

// Parse reads r to completion, normalizing and forwarding one
// well-formed <ABR> record at a time to writer.Add, and invoking
// onProgress every 10,000 records. It returns the first error
// encountered, including any returned by writer.Add.
func (p *Parser) Parse(ctx context.Context, r io.Reader) error {
	dec := xml.NewDecoder(r)

	var elementStack []string
	var currentText strings.Builder
	var current *rawRecord
	var currentOtherNameType string

	parent := func() string {
		if len(elementStack) < 2 {
			return ""
		}
		return elementStack[len(elementStack)-2]
	}
	grandparent := func() string {
		if len(elementStack) < 3 {
			return ""
		}
		return elementStack[len(elementStack)-3]
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elementStack = append(elementStack, t.Name.Local)
			currentText.Reset()

			switch t.Name.Local {
			case elementABR:
				current = &rawRecord{}
				current.recordLastUpdatedDate = attr(t, "recordLastUpdatedDate")
			case "ABN":
				if current != nil {
					current.abnStatus = attr(t, "status")
					current.abnStatusFromDate = attr(t, "ABNStatusFromDate")
				}
			case "GST":
				if current != nil {
					current.gstStatus = attr(t, "status")
					current.gstStatusFromDate = attr(t, "GSTStatusFromDate")
				}
			case "NonIndividualName":
				if pp := parent(); pp == "OtherEntity" || pp == "DGR" {
					currentOtherNameType = attr(t, "type")
				}
			}

		case xml.CharData:
			currentText.Write(t)

		case xml.EndElement:
			text := strings.TrimSpace(currentText.String())
			currentText.Reset()

			if current != nil {
				assignField(current, t.Name.Local, parent(), grandparent(), text, currentOtherNameType)
			}

			if t.Name.Local == elementABR && current != nil {
				rec := *current
				current = nil

				if rec.abn != "" {
					business, names := normalize(rec)
					if err := p.writer.Add(ctx, business, names); err != nil {
						return err
					}
					p.processed++
					if p.onProgress != nil && p.processed%progressInterval == 0 {
						p.onProgress(p.processed)
					}
				}
				// Malformed entries (no ABN) are discarded silently,
				// per spec §4.4.2.1.
			}

			if len(elementStack) > 0 {
				elementStack = elementStack[:len(elementStack)-1]
			}
		}
	}
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// assignField is the close-tag dispatch of spec §4.4.2: the tag AND
// its parent (and, for NonIndividualNameText, its grandparent)
// determine which field the accumulated text lands in.
func assignField(rec *rawRecord, tag, parentTag, grandparentTag, text, otherNameType string) {
	switch tag {
	case "EntityTypeInd":
		rec.entityTypeCode = text
	case "EntityTypeText":
		rec.entityTypeText = text
	case "NonIndividualNameText":
		switch grandparentTag {
		case "MainEntity":
			rec.mainEntityName = text
		case "OtherEntity", "DGR":
			if text != "" {
				rec.otherNames = append(rec.otherNames, rawOtherName{nameType: otherNameType, nameText: text})
			}
		}
	case "GivenName":
		if text != "" {
			rec.givenNames = append(rec.givenNames, text)
		}
	case "FamilyName":
		rec.familyName = text
	case "State":
		rec.state = text
	case "Postcode":
		rec.postcode = text
	case "ASICNumber":
		rec.acn = text
	case "ABN":
		if parentTag == "ABR" {
			rec.abn = text
		}
	}
}
