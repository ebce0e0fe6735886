// Package document holds the mortgage-document entity model and the
// in-memory session history. Every extracted field carries its own
// confidence score; the store merges repeated captures of the same document
// by keeping the higher-confidence valid value per field.
package document

import "strings"

// ConfidenceValue is one extracted scalar plus the model's confidence in it.
// The zero Value convention is "N/A", never the empty string.
type ConfidenceValue struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// NewConfidenceValue clamps conf into [0,1] and substitutes "N/A" for an
// empty value.
func NewConfidenceValue(value string, conf float64) ConfidenceValue {
	if strings.TrimSpace(value) == "" {
		value = "N/A"
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return ConfidenceValue{Value: value, Confidence: conf}
}

// BorrowerEntry is one borrower as signed on the document: the primary name
// plus any AKA/FKA aliases, the relationship clause and tenancy wording.
type BorrowerEntry struct {
	Name              ConfidenceValue `json:"name"`
	Alias             []string        `json:"alias"`
	AliasConfidence   float64         `json:"alias_confidence"`
	Relationship      ConfidenceValue `json:"relationship"`
	TenantInformation ConfidenceValue `json:"tenant_information"`
}

// Rider is one checkbox on the riders section of a security instrument.
// SignedAttached reflects whether the rider is actually executed and
// attached, not merely ticked.
type Rider struct {
	Name           ConfidenceValue `json:"name"`
	Present        ConfidenceValue `json:"present"`
	SignedAttached ConfidenceValue `json:"signed_attached"`
}

// Entities is the full field set extracted from one capture. Scalar fields
// default to "N/A" except where a recorded document leaves a more specific
// resting state ("No" for checkboxes, "Not Listed" for recording cost).
type Entities struct {
	DocumentType            ConfidenceValue `json:"DocumentType"`
	Borrower                []BorrowerEntry `json:"Borrower"`
	BorrowerConfidence      float64         `json:"BorrowerConfidence"`
	BorrowerAddress         ConfidenceValue `json:"BorrowerAddress"`
	LenderName              ConfidenceValue `json:"LenderName"`
	TrusteeName             ConfidenceValue `json:"TrusteeName"`
	TrusteeAddress          ConfidenceValue `json:"TrusteeAddress"`
	LoanAmount              ConfidenceValue `json:"LoanAmount"`
	PropertyAddress         ConfidenceValue `json:"PropertyAddress"`
	DocumentDate            ConfidenceValue `json:"DocumentDate"`
	MaturityDate            ConfidenceValue `json:"MaturityDate"`
	APNParcelID             ConfidenceValue `json:"APN_ParcelID"`
	RecordingStampPresent   ConfidenceValue `json:"RecordingStampPresent"`
	RecordingBook           ConfidenceValue `json:"RecordingBook"`
	RecordingPage           ConfidenceValue `json:"RecordingPage"`
	RecordingDocumentNumber ConfidenceValue `json:"RecordingDocumentNumber"`
	RecordingDate           ConfidenceValue `json:"RecordingDate"`
	RecordingTime           ConfidenceValue `json:"RecordingTime"`
	ReRecordingInformation  ConfidenceValue `json:"ReRecordingInformation"`
	RecordingCost           ConfidenceValue `json:"RecordingCost"`
	RidersPresent           []Rider         `json:"RidersPresent"`
	RidersConfidence        float64         `json:"RidersConfidence"`
	InitialedChangesPresent ConfidenceValue `json:"InitialedChangesPresent"`
	MERSRiderSelected       ConfidenceValue `json:"MERS_RiderSelected"`
	MERSRiderSignedAttached ConfidenceValue `json:"MERS_RiderSignedAttached"`
	MIN                     ConfidenceValue `json:"MIN"`
	LegalDescriptionPresent ConfidenceValue `json:"LegalDescriptionPresent"`
	LegalDescriptionDetail  ConfidenceValue `json:"LegalDescriptionDetail"`
}

// NewEntities returns the resting state every capture starts from.
func NewEntities() Entities {
	na := ConfidenceValue{Value: "N/A"}
	no := ConfidenceValue{Value: "No"}
	return Entities{
		DocumentType:            na,
		BorrowerAddress:         na,
		LenderName:              na,
		TrusteeName:             na,
		TrusteeAddress:          na,
		LoanAmount:              na,
		PropertyAddress:         na,
		DocumentDate:            na,
		MaturityDate:            na,
		APNParcelID:             na,
		RecordingStampPresent:   no,
		RecordingBook:           na,
		RecordingPage:           na,
		RecordingDocumentNumber: na,
		RecordingDate:           na,
		RecordingTime:           na,
		ReRecordingInformation:  na,
		RecordingCost:           ConfidenceValue{Value: "Not Listed"},
		InitialedChangesPresent: na,
		MERSRiderSelected:       no,
		MERSRiderSignedAttached: no,
		MIN:                     na,
		LegalDescriptionPresent: no,
		LegalDescriptionDetail:  na,
	}
}

// ScalarFields enumerates the flat ConfidenceValue fields in a stable order.
// Borrower, RidersPresent and the legal-description pair are handled
// separately by merge and display code.
var ScalarFields = []string{
	"DocumentType",
	"BorrowerAddress",
	"LenderName",
	"TrusteeName",
	"TrusteeAddress",
	"LoanAmount",
	"PropertyAddress",
	"DocumentDate",
	"MaturityDate",
	"APNParcelID",
	"RecordingStampPresent",
	"RecordingBook",
	"RecordingPage",
	"RecordingDocumentNumber",
	"RecordingDate",
	"RecordingTime",
	"ReRecordingInformation",
	"RecordingCost",
	"InitialedChangesPresent",
	"MERSRiderSelected",
	"MERSRiderSignedAttached",
	"MIN",
}

// MoneyFields are the scalar fields rendered and saved as two-decimal
// amounts.
var MoneyFields = map[string]bool{
	"LoanAmount":    true,
	"RecordingCost": true,
}

// DisplayNames maps field names to the short labels the panel shows.
var DisplayNames = map[string]string{
	"DocumentType":            "Doc Type",
	"Borrower":                "Borrowers",
	"BorrowerAddress":         "Borrower Addr.",
	"LenderName":              "Lender",
	"TrusteeName":             "Trustee",
	"TrusteeAddress":          "Trustee Addr.",
	"LoanAmount":              "Loan Amt.",
	"PropertyAddress":         "Prop. Addr.",
	"DocumentDate":            "Doc Date",
	"MaturityDate":            "Maturity Date",
	"APNParcelID":             "APN / Parcel ID",
	"RecordingStampPresent":   "Rec. Stamp?",
	"RecordingBook":           "Rec. Book",
	"RecordingPage":           "Rec. Page",
	"RecordingDocumentNumber": "Rec. Doc No.",
	"RecordingDate":           "Rec. Date",
	"RecordingTime":           "Rec. Time",
	"ReRecordingInformation":  "Re-Rec. Info",
	"RecordingCost":           "Rec. Cost",
	"RidersPresent":           "Checked Riders",
	"InitialedChangesPresent": "Initialed Changes?",
	"MERSRiderSelected":       "MERS Rider Sel.?",
	"MERSRiderSignedAttached": "MERS Rider Signed?",
	"MIN":                     "MIN",
	"LegalDescriptionPresent": "Legal Desc. Present?",
	"LegalDescriptionDetail":  "Legal Desc. Detail",
}

// DisplayName returns the panel label for a field, falling back to the raw
// field name.
func DisplayName(field string) string {
	if n, ok := DisplayNames[field]; ok {
		return n
	}
	return field
}

// invalidValues are the strings that count as "no data" when deciding
// whether a field is worth keeping or displaying.
var invalidValues = map[string]bool{
	"":                             true,
	"n/a":                          true,
	"not listed":                   true,
	"legal description is missing": true,
}

// ValidValue reports whether v carries real extracted data. "No" is
// deliberately invalid here: a checkbox at its resting state adds nothing
// over the default.
func ValidValue(v string) bool {
	s := strings.TrimSpace(v)
	if s == "No" {
		return false
	}
	return !invalidValues[strings.ToLower(s)]
}

// Scalar returns a pointer to the named flat field, or nil for the
// list-valued and legal-description fields.
func (e *Entities) Scalar(field string) *ConfidenceValue {
	switch field {
	case "DocumentType":
		return &e.DocumentType
	case "BorrowerAddress":
		return &e.BorrowerAddress
	case "LenderName":
		return &e.LenderName
	case "TrusteeName":
		return &e.TrusteeName
	case "TrusteeAddress":
		return &e.TrusteeAddress
	case "LoanAmount":
		return &e.LoanAmount
	case "PropertyAddress":
		return &e.PropertyAddress
	case "DocumentDate":
		return &e.DocumentDate
	case "MaturityDate":
		return &e.MaturityDate
	case "APNParcelID":
		return &e.APNParcelID
	case "RecordingStampPresent":
		return &e.RecordingStampPresent
	case "RecordingBook":
		return &e.RecordingBook
	case "RecordingPage":
		return &e.RecordingPage
	case "RecordingDocumentNumber":
		return &e.RecordingDocumentNumber
	case "RecordingDate":
		return &e.RecordingDate
	case "RecordingTime":
		return &e.RecordingTime
	case "ReRecordingInformation":
		return &e.ReRecordingInformation
	case "RecordingCost":
		return &e.RecordingCost
	case "InitialedChangesPresent":
		return &e.InitialedChangesPresent
	case "MERSRiderSelected":
		return &e.MERSRiderSelected
	case "MERSRiderSignedAttached":
		return &e.MERSRiderSignedAttached
	case "MIN":
		return &e.MIN
	}
	return nil
}
