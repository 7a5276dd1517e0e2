package ingest

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/outreach-api/internal/model"
)

// Column headers recognized in connection exports. Matching is
// case-insensitive.
const (
	colFirstName = "first name"
	colLastName  = "last name"
	colCompany   = "company"
	colPosition  = "position"
	colURL       = "url"
)

// ParseResult is the outcome of parsing one CSV upload.
type ParseResult struct {
	Contacts []model.Contact
	// Skipped counts data rows dropped for missing required fields.
	Skipped int
	// Truncated is true when the file held more rows than maxContacts.
	Truncated bool
}

// ParseContacts reads a LinkedIn-style connection export. Exports often open
// with a free-text notes preamble, so rows are scanned until one containing a
// "First Name" column appears and that row becomes the header. A UTF-8 BOM,
// which LinkedIn emits, is stripped transparently.
//
// Rows without a first name or company are counted as skipped rather than
// failing the upload. At most maxContacts contacts are returned.
func ParseContacts(r io.Reader, userID string, maxContacts int) (*ParseResult, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(transform.Nop))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := findHeader(cr)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read csv row")
		}

		contact, ok := contactFromRow(header, record, userID)
		if !ok {
			result.Skipped++
			continue
		}

		if len(result.Contacts) >= maxContacts {
			result.Truncated = true
			break
		}
		result.Contacts = append(result.Contacts, contact)
	}
	return result, nil
}

// findHeader scans rows until one contains a "First Name" column and returns
// a column-name to index mapping.
func findHeader(cr *csv.Reader) (map[string]int, error) {
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil, eris.New("ingest: no header row found")
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: scan for header")
		}

		header := make(map[string]int, len(record))
		for i, cell := range record {
			header[strings.ToLower(strings.TrimSpace(cell))] = i
		}
		if _, ok := header[colFirstName]; ok {
			return header, nil
		}
	}
}

func contactFromRow(header map[string]int, record []string, userID string) (model.Contact, bool) {
	cell := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	firstName := cell(colFirstName)
	company := cell(colCompany)
	if firstName == "" || company == "" {
		return model.Contact{}, false
	}

	fullName := firstName
	if lastName := cell(colLastName); lastName != "" {
		fullName += " " + lastName
	}

	return model.Contact{
		UserID:      userID,
		FullName:    fullName,
		CompanyName: company,
		RawRole:     cell(colPosition),
		LinkedInURL: cell(colURL),
		Status:      model.ContactStatusNew,
	}, true
}
