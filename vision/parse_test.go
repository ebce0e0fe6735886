package vision

import (
	"fmt"
	"strings"
	"testing"
)

// envelope builds a reply with the given entities fragment.
func envelope(fields string) string {
	return fmt.Sprintf(`{"entities":{%s},"summary":"Reviewed."}`, fields)
}

func TestParseFullDocument(t *testing.T) {
	content := `{
	  "entities": {
	    "DocumentType": {"value": "Deed of Trust", "confidence": 0.97},
	    "Borrower": {"value": [
	      {"Name": {"value": "Borrower: John Q. Smith, an unmarried man", "confidence": 0.94},
	       "Alias": {"value": ["JOHN SMITH"], "confidence": 0.9},
	       "Relationship": {"value": "N/A", "confidence": 0.5},
	       "TenantInformation": {"value": "sole ownership", "confidence": 0.88}}
	    ], "confidence": 0.92},
	    "LenderName": {"value": "First National Bank", "confidence": 0.95},
	    "LoanAmount": {"value": "$250,000", "confidence": 0.96},
	    "PropertyAddress": {"value": "12 Oak St, Austin, TX 78701", "confidence": 0.91},
	    "DocumentDate": {"value": "June 1st, 2024", "confidence": 0.9},
	    "RidersPresent": {"value": [
	      {"Name": {"value": "Condo Rider", "confidence": 0.9},
	       "Present": {"value": "Yes", "confidence": 0.92},
	       "SignedAttached": {"value": "No", "confidence": 0.1}}
	    ], "confidence": 0.9},
	    "RecordingBook": {"value": "Book 1234", "confidence": 0.8},
	    "RecordingPage": {"value": "Page 56", "confidence": 0.8},
	    "RecordingDocumentNumber": {"value": "2024-0012345", "confidence": 0.85},
	    "MIN": {"value": "1001234-0000567890-1", "confidence": 0.9},
	    "LegalDescriptionPresent": {"value": "true", "confidence": 0.9},
	    "LegalDescriptionDetail": {"value": "Lot 7, Block 2 of Oakwood Addition", "confidence": 0.93}
	  },
	  "summary": "Deed of trust with one borrower."
	}`

	e, summary, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if summary != "Deed of trust with one borrower." {
		t.Errorf("summary = %q", summary)
	}
	if got := e.DocumentType; got.Value != "Deed of Trust" || got.Confidence != 0.97 {
		t.Errorf("DocumentType = %+v", got)
	}
	if got := e.LoanAmount.Value; got != "250000.00" {
		t.Errorf("LoanAmount = %q, want 250000.00", got)
	}
	if got := e.PropertyAddress.Value; got != "12 Oak St, Austin, Texas 78701" {
		t.Errorf("PropertyAddress = %q, want expanded state", got)
	}
	if got := e.DocumentDate.Value; got != "06/01/2024" {
		t.Errorf("DocumentDate = %q, want 06/01/2024", got)
	}

	if len(e.Borrower) != 1 {
		t.Fatalf("Borrower = %+v, want one entry", e.Borrower)
	}
	b := e.Borrower[0]
	if b.Name.Value != "JOHN Q. SMITH" {
		t.Errorf("borrower name = %q, want JOHN Q. SMITH", b.Name.Value)
	}
	if len(b.Alias) != 1 || b.Alias[0] != "JOHN SMITH" {
		t.Errorf("borrower alias = %v", b.Alias)
	}
	if e.BorrowerConfidence != 0.92 {
		t.Errorf("BorrowerConfidence = %v, want 0.92", e.BorrowerConfidence)
	}

	if len(e.RidersPresent) != 1 {
		t.Fatalf("RidersPresent = %+v, want one entry", e.RidersPresent)
	}
	r := e.RidersPresent[0]
	if r.Name.Value != "Condominium Rider" {
		t.Errorf("rider name = %q, want Condominium Rider", r.Name.Value)
	}
	if r.SignedAttached.Value != "Yes" || r.SignedAttached.Confidence != 0.92 {
		t.Errorf("SignedAttached = %+v, want Yes at presence confidence", r.SignedAttached)
	}
	if e.RidersConfidence != 0.9 {
		t.Errorf("RidersConfidence = %v, want 0.9", e.RidersConfidence)
	}

	if got := e.RecordingBook.Value; got != "1234" {
		t.Errorf("RecordingBook = %q, want 1234", got)
	}
	if got := e.RecordingPage.Value; got != "56" {
		t.Errorf("RecordingPage = %q, want 56", got)
	}
	if got := e.RecordingDocumentNumber.Value; got != "2024-0012345" {
		t.Errorf("RecordingDocumentNumber = %q, want original formatting kept", got)
	}
	if got := e.MIN.Value; got != "1001234-0000567890-1" {
		t.Errorf("MIN = %q, want 18-digit value kept", got)
	}
	if got := e.RecordingStampPresent.Value; got != "Yes" {
		t.Errorf("RecordingStampPresent = %q, want Yes", got)
	}
	if got := e.LegalDescriptionPresent.Value; got != "Yes" {
		t.Errorf("LegalDescriptionPresent = %q, want Yes", got)
	}
}

func TestParseRejectsMalformedReplies(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"not json", "the model apologized instead", "not valid JSON"},
		{"array", `[1,2,3]`, "not valid JSON"},
		{"missing entities", `{"summary":"x"}`, "malformed response"},
		{"missing summary", `{"entities":{}}`, "malformed response"},
	}
	for _, tc := range cases {
		_, _, err := Parse(tc.content)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: err = %v, want %q", tc.name, err, tc.want)
		}
	}
}

func TestParseSummaryFallback(t *testing.T) {
	for _, content := range []string{
		`{"entities":{},"summary":"   "}`,
		`{"entities":{},"summary":42}`,
	} {
		_, summary, err := Parse(content)
		if err != nil {
			t.Fatalf("Parse(%s): %v", content, err)
		}
		if summary != "No summary provided." {
			t.Errorf("summary = %q, want fallback", summary)
		}
	}
}

func TestParseSanitizesBookAndPage(t *testing.T) {
	cases := []struct {
		field, raw, want string
	}{
		{"RecordingBook", "Book 1234", "1234"},
		{"RecordingBook", "123456", "123456"},
		{"RecordingBook", "12345678", "N/A"},
		{"RecordingPage", "Page 56", "56"},
		{"RecordingPage", "12-34", "12-34"},
		{"RecordingPage", " 7 - 9 ", "7-9"},
		{"RecordingPage", "0-5", "N/A"},
		{"RecordingPage", "34-12", "N/A"},
		{"RecordingPage", "123456", "N/A"},
	}
	for _, tc := range cases {
		content := envelope(fmt.Sprintf(`%q:{"value":%q,"confidence":0.9}`, tc.field, tc.raw))
		e, _, err := Parse(content)
		if err != nil {
			t.Fatalf("%s %q: %v", tc.field, tc.raw, err)
		}
		if got := e.Scalar(tc.field).Value; got != tc.want {
			t.Errorf("%s %q = %q, want %q", tc.field, tc.raw, got, tc.want)
		}
	}
}

func TestParseRejectsLoanShapedDocumentNumbers(t *testing.T) {
	cases := []struct {
		name, fields, want string
	}{
		{
			"eighteen digits is a MIN not a recording number",
			`"RecordingDocumentNumber":{"value":"100123400005678901","confidence":0.9}`,
			"N/A",
		},
		{
			"digits equal to the MIN",
			`"RecordingDocumentNumber":{"value":"1001234 0000567890 1","confidence":0.9},"MIN":{"value":"1001234-0000567890-1","confidence":0.9}`,
			"N/A",
		},
		{
			"too few digits",
			`"RecordingDocumentNumber":{"value":"12345","confidence":0.9}`,
			"N/A",
		},
		{
			"plausible number keeps its formatting",
			`"RecordingDocumentNumber":{"value":"2024-0012345","confidence":0.9}`,
			"2024-0012345",
		},
	}
	for _, tc := range cases {
		e, _, err := Parse(envelope(tc.fields))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got := e.RecordingDocumentNumber.Value; got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseMINRequiresEighteenDigits(t *testing.T) {
	cases := []struct{ raw, want string }{
		{"1001234-0000567890-1", "1001234-0000567890-1"},
		{"100123400005678901", "100123400005678901"},
		{"123456", "N/A"},
		{"N/A", "N/A"},
	}
	for _, tc := range cases {
		e, _, err := Parse(envelope(fmt.Sprintf(`"MIN":{"value":%q,"confidence":0.9}`, tc.raw)))
		if err != nil {
			t.Fatalf("MIN %q: %v", tc.raw, err)
		}
		if got := e.MIN.Value; got != tc.want {
			t.Errorf("MIN %q = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParseDerivesRecordingStamp(t *testing.T) {
	// The model claiming a stamp does not make one: with every recording
	// field empty the flag is recomputed to No.
	e, _, err := Parse(envelope(`"RecordingStampPresent":{"value":"Yes","confidence":0.99}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := e.RecordingStampPresent.Value; got != "No" {
		t.Errorf("RecordingStampPresent = %q, want No", got)
	}

	e, _, err = Parse(envelope(`"RecordingStampPresent":{"value":"No","confidence":0.99},"RecordingDate":{"value":"01/02/2024","confidence":0.9}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := e.RecordingStampPresent.Value; got != "Yes" {
		t.Errorf("RecordingStampPresent = %q, want Yes", got)
	}
}

func TestParseRiderGating(t *testing.T) {
	content := envelope(`"RidersPresent":{"value":[
	  {"Name":{"value":"Condo Rider","confidence":0.9},"Present":{"value":"Yes","confidence":0.92}},
	  {"Name":{"value":"Second Home Rider","confidence":0.95},"Present":{"value":"Yes","confidence":0.7}},
	  {"Name":{"value":"Adjustable Rate Rider","confidence":0.99},"Present":{"value":"No","confidence":0.99}},
	  {"Name":{"value":"Other(s) [specify]","confidence":0.99},"Present":{"value":"Yes","confidence":0.99}},
	  {"Name":{"value":"Solar Panel Rider","confidence":0.95},"Present":{"value":"Yes","confidence":0.95}},
	  {"Name":{"value":"Condominium Rider","confidence":0.85},"Present":{"value":"Yes","confidence":0.9}}
	],"confidence":0.88}`)

	e, _, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(e.RidersPresent) != 2 {
		t.Fatalf("riders = %+v, want canonical condo then unclassified solar", e.RidersPresent)
	}
	if got := e.RidersPresent[0].Name; got.Value != "Condominium Rider" || got.Confidence != 0.9 {
		t.Errorf("riders[0] = %+v, want Condominium Rider at the higher name confidence", got)
	}
	if got := e.RidersPresent[1].Name.Value; got != "Solar Panel Rider" {
		t.Errorf("riders[1] = %q, want Solar Panel Rider", got)
	}
	if e.RidersConfidence != 0.88 {
		t.Errorf("RidersConfidence = %v, want 0.88", e.RidersConfidence)
	}
}

func TestParseBorrowerSanitation(t *testing.T) {
	content := envelope(`"Borrower":{"value":[
	  {"Name":{"value":"Borrower: John Smith, an unmarried man","confidence":0.9},"Alias":{"value":["JOHNNY"],"confidence":0.8}},
	  {"Name":{"value":"Borrowers","confidence":0.99}},
	  {"Name":{"value":"john smith","confidence":0.94},"Alias":{"value":["J SMITH"],"confidence":0.85}},
	  {"Name":{"value":"JANE DOE","confidence":0.91}}
	],"confidence":0.9}`)

	e, _, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(e.Borrower) != 2 {
		t.Fatalf("borrowers = %+v, want two entries", e.Borrower)
	}
	first := e.Borrower[0]
	if first.Name.Value != "JOHN SMITH" || first.Name.Confidence != 0.94 {
		t.Errorf("borrowers[0] = %+v, want JOHN SMITH at the higher confidence", first.Name)
	}
	if len(first.Alias) != 2 || first.Alias[0] != "JOHNNY" || first.Alias[1] != "J SMITH" {
		t.Errorf("borrowers[0] alias = %v, want union in order", first.Alias)
	}
	if got := e.Borrower[1].Name.Value; got != "JANE DOE" {
		t.Errorf("borrowers[1] = %q, want JANE DOE", got)
	}
}

func TestParseTolerantValueShapes(t *testing.T) {
	content := envelope(`
	  "APN_ParcelID":{"value":["123-45-678","123-45-678","987"],"confidence":"0.75"},
	  "RecordingCost":{"value":125.5,"confidence":0.8},
	  "InitialedChangesPresent":{"value":true,"confidence":0.9},
	  "LenderName":{"value":null,"confidence":0.9},
	  "TrusteeName":{"value":"ABC Title","confidence":"high"},
	  "DocumentType":{"value":"Mortgage","confidence":1.7}`)

	e, _, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := e.APNParcelID; got.Value != "123-45-678, 987" || got.Confidence != 0.75 {
		t.Errorf("APNParcelID = %+v, want deduped join with quoted confidence", got)
	}
	if got := e.RecordingCost.Value; got != "125.50" {
		t.Errorf("RecordingCost = %q, want 125.50", got)
	}
	if got := e.InitialedChangesPresent.Value; got != "Yes" {
		t.Errorf("InitialedChangesPresent = %q, want Yes", got)
	}
	if got := e.LenderName.Value; got != "N/A" {
		t.Errorf("LenderName = %q, want N/A for null", got)
	}
	if got := e.TrusteeName; got.Value != "ABC Title" || got.Confidence != 0 {
		t.Errorf("TrusteeName = %+v, want value kept with zero confidence", got)
	}
	if got := e.DocumentType.Confidence; got != 1 {
		t.Errorf("DocumentType confidence = %v, want clamped to 1", got)
	}
}
