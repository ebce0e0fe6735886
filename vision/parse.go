package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/document"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/normalize"
)

// minRiderPresence is the floor under which a reported rider checkbox is
// treated as label noise rather than a real mark.
const minRiderPresence = 0.85

// wireCV is one {value, confidence} pair as the model emits it. Both sides
// arrive loose: values may be strings, lists, numbers or booleans, and
// confidence is occasionally a quoted string.
type wireCV struct {
	Value      json.RawMessage `json:"value"`
	Confidence json.RawMessage `json:"confidence"`
}

type wireBorrower struct {
	Name              wireCV `json:"Name"`
	Alias             wireCV `json:"Alias"`
	Relationship      wireCV `json:"Relationship"`
	TenantInformation wireCV `json:"TenantInformation"`
}

type wireRider struct {
	Name           wireCV `json:"Name"`
	Present        wireCV `json:"Present"`
	SignedAttached wireCV `json:"SignedAttached"`
}

type wireEnvelope struct {
	Entities map[string]json.RawMessage `json:"entities"`
	Summary  json.RawMessage            `json:"summary"`
}

// Parse converts the model's JSON reply into the entity model, applying the
// recording-field sanitation and normalization guardrails.
func Parse(content string) (document.Entities, string, error) {
	var env wireEnvelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return document.NewEntities(), "", fmt.Errorf("response is not valid JSON: %w", err)
	}
	if env.Entities == nil || len(env.Summary) == 0 {
		return document.NewEntities(), "", fmt.Errorf("malformed response: missing entities or summary")
	}

	summary := "No summary provided."
	var s string
	if json.Unmarshal(env.Summary, &s) == nil && strings.TrimSpace(s) != "" {
		summary = s
	}

	e := document.NewEntities()
	for _, field := range document.ScalarFields {
		if raw, ok := env.Entities[wireKey(field)]; ok {
			*e.Scalar(field) = parseCV(raw)
		}
	}
	if raw, ok := env.Entities["LegalDescriptionPresent"]; ok {
		e.LegalDescriptionPresent = parseCV(raw)
	}
	if raw, ok := env.Entities["LegalDescriptionDetail"]; ok {
		e.LegalDescriptionDetail = parseCV(raw)
	}

	e.Borrower, e.BorrowerConfidence = parseBorrowers(env.Entities["Borrower"])
	e.RidersPresent, e.RidersConfidence = parseRiders(env.Entities["RidersPresent"])

	sanitizeRecording(&e)
	normalizeEntities(&e)
	deriveRecordingStamp(&e)

	return e, summary, nil
}

// wireKey maps a Go field name to the key the schema uses on the wire.
func wireKey(field string) string {
	switch field {
	case "APNParcelID":
		return "APN_ParcelID"
	case "MERSRiderSelected":
		return "MERS_RiderSelected"
	case "MERSRiderSignedAttached":
		return "MERS_RiderSignedAttached"
	}
	return field
}

func clampConf(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// parseConfidence tolerates numbers, quoted numbers and garbage (0).
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return clampConf(f)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return clampConf(v)
		}
	}
	return 0
}

// stringValue flattens a loose JSON value to a display string: lists are
// deduplicated and comma-joined, numbers render as plain decimals, null and
// empty become "N/A".
func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "N/A"
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if strings.TrimSpace(s) == "" {
			return "N/A"
		}
		return s
	}
	var list []any
	if json.Unmarshal(raw, &list) == nil {
		var parts []string
		seen := map[string]bool{}
		for _, v := range list {
			p := strings.TrimSpace(fmt.Sprintf("%v", v))
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			parts = append(parts, p)
		}
		if len(parts) == 0 {
			return "N/A"
		}
		return strings.Join(parts, ", ")
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		if b {
			return "Yes"
		}
		return "No"
	}
	return "N/A"
}

// stringList accepts either a single string or a list of strings.
func stringList(raw json.RawMessage) []string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var list []string
	if json.Unmarshal(raw, &list) != nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, v := range list {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// parseCV decodes one scalar field; anything malformed collapses to the
// "N/A"/0 default rather than failing the whole response.
func parseCV(raw json.RawMessage) document.ConfidenceValue {
	var w wireCV
	if len(raw) == 0 || json.Unmarshal(raw, &w) != nil {
		return document.ConfidenceValue{Value: "N/A"}
	}
	return document.NewConfidenceValue(stringValue(w.Value), parseConfidence(w.Confidence))
}

// parseBorrowers sanitizes names (role labels stripped, upper-cased) and
// drops entries that are only role words, then unions duplicates by
// normalized name.
func parseBorrowers(raw json.RawMessage) ([]document.BorrowerEntry, float64) {
	if len(raw) == 0 {
		return nil, 0
	}
	var w struct {
		Value      []wireBorrower  `json:"value"`
		Confidence json.RawMessage `json:"confidence"`
	}
	if json.Unmarshal(raw, &w) != nil {
		return nil, 0
	}
	listConf := parseConfidence(w.Confidence)

	var entries []document.BorrowerEntry
	for _, b := range w.Value {
		name, ok := normalize.SanitizeBorrowerName(stringValue(b.Name.Value))
		if !ok {
			continue
		}
		entries = append(entries, document.BorrowerEntry{
			Name:              document.ConfidenceValue{Value: name, Confidence: parseConfidence(b.Name.Confidence)},
			Alias:             stringList(b.Alias.Value),
			AliasConfidence:   parseConfidence(b.Alias.Confidence),
			Relationship:      document.NewConfidenceValue(stringValue(b.Relationship.Value), parseConfidence(b.Relationship.Confidence)),
			TenantInformation: document.NewConfidenceValue(stringValue(b.TenantInformation.Value), parseConfidence(b.TenantInformation.Confidence)),
		})
	}
	return document.DedupeBorrowers(entries), listConf
}

// parseRiders keeps riders whose checkbox is convincingly marked.
// SignedAttached derives from Present with the same confidence: a crossed
// box means the rider is executed and attached, an empty box means it is
// not. Canonical rider names come first, unclassified signed riders after.
func parseRiders(raw json.RawMessage) ([]document.Rider, float64) {
	if len(raw) == 0 {
		return nil, 0
	}
	var w struct {
		Value      []wireRider     `json:"value"`
		Confidence json.RawMessage `json:"confidence"`
	}
	if json.Unmarshal(raw, &w) != nil {
		return nil, 0
	}
	listConf := parseConfidence(w.Confidence)

	var canonicalOrder, rawOrder []string
	canonical := map[string]document.Rider{}
	unclassified := map[string]document.Rider{}
	for _, r := range w.Value {
		name := stringValue(r.Name.Value)
		nameConf := parseConfidence(r.Name.Confidence)
		presentVal := normalize.YesNo(stringValue(r.Present.Value))
		presentConf := parseConfidence(r.Present.Confidence)

		signed := "No"
		if presentVal == "Yes" {
			signed = "Yes"
		}
		if signed != "Yes" || !document.ValidValue(name) || presentConf < minRiderPresence {
			continue
		}
		if normalize.IgnoredRider(name) {
			continue
		}

		rider := document.Rider{
			Name:           document.ConfidenceValue{Value: name, Confidence: nameConf},
			Present:        document.ConfidenceValue{Value: presentVal, Confidence: presentConf},
			SignedAttached: document.ConfidenceValue{Value: signed, Confidence: presentConf},
		}
		if canon, ok := normalize.CanonicalRider(name); ok {
			rider.Name.Value = canon
			if existing, seen := canonical[canon]; !seen {
				canonicalOrder = append(canonicalOrder, canon)
				canonical[canon] = rider
			} else if rider.Name.Confidence > existing.Name.Confidence {
				canonical[canon] = rider
			}
			continue
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if existing, seen := unclassified[key]; !seen {
			rawOrder = append(rawOrder, key)
			unclassified[key] = rider
		} else if rider.Name.Confidence > existing.Name.Confidence {
			unclassified[key] = rider
		}
	}

	var riders []document.Rider
	for _, canon := range canonicalOrder {
		riders = append(riders, canonical[canon])
	}
	for _, key := range rawOrder {
		riders = append(riders, unclassified[key])
	}
	if len(riders) == 0 {
		return nil, 0
	}
	return riders, listConf
}

var (
	nonDigitsRe = regexp.MustCompile(`\D`)
	pageRangeRe = regexp.MustCompile(`^\s*(\d{1,5})\s*-\s*(\d{1,5})\s*$`)
)

func digitsOnly(s string) string {
	return nonDigitsRe.ReplaceAllString(s, "")
}

// sanitizeRecording rejects recording-stamp values that are really loan or
// MIN numbers: the book is 1-6 digits, the page digits or an ascending
// range, and a document number that matches the 18-digit MIN shape (or the
// MIN itself, or carries fewer than 6 digits) collapses to "N/A".
func sanitizeRecording(e *document.Entities) {
	book := digitsOnly(e.RecordingBook.Value)
	if book != "" && len(book) <= 6 {
		e.RecordingBook.Value = book
	} else {
		e.RecordingBook = document.ConfidenceValue{Value: "N/A"}
	}

	page := strings.TrimSpace(e.RecordingPage.Value)
	if m := pageRangeRe.FindStringSubmatch(page); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if a > 0 && b >= a {
			e.RecordingPage.Value = fmt.Sprintf("%d-%d", a, b)
		} else {
			e.RecordingPage = document.ConfidenceValue{Value: "N/A"}
		}
	} else if digits := digitsOnly(page); digits != "" && len(digits) <= 5 {
		e.RecordingPage.Value = digits
	} else {
		e.RecordingPage = document.ConfidenceValue{Value: "N/A"}
	}

	minDigits := digitsOnly(e.MIN.Value)
	raw := strings.TrimSpace(e.RecordingDocumentNumber.Value)
	digits := digitsOnly(raw)
	switch {
	case digits == "",
		len(digits) == 18,
		minDigits != "" && digits == minDigits,
		len(digits) < 6:
		e.RecordingDocumentNumber = document.ConfidenceValue{Value: "N/A"}
	default:
		e.RecordingDocumentNumber.Value = raw
	}
}

// normalizeEntities applies the canonical forms: Yes/No tri-state on
// checkbox fields, MM/DD/YYYY dates, HH:MM:SS times, two-decimal money,
// expanded state names and the 18-digit MIN rule.
func normalizeEntities(e *document.Entities) {
	for _, f := range []string{"RecordingStampPresent", "InitialedChangesPresent", "MERSRiderSelected", "MERSRiderSignedAttached"} {
		cv := e.Scalar(f)
		cv.Value = normalize.YesNo(cv.Value)
	}
	e.LegalDescriptionPresent.Value = normalize.YesNo(e.LegalDescriptionPresent.Value)

	for _, f := range []string{"DocumentDate", "MaturityDate", "RecordingDate"} {
		cv := e.Scalar(f)
		cv.Value = normalize.Date(cv.Value)
	}
	e.RecordingTime.Value = normalize.Time(e.RecordingTime.Value)

	for f := range document.MoneyFields {
		cv := e.Scalar(f)
		cv.Value = normalize.Currency(cv.Value)
	}

	e.PropertyAddress.Value = normalize.ExpandState(e.PropertyAddress.Value)

	digits := digitsOnly(e.MIN.Value)
	switch {
	case len(digits) == 18:
		e.MIN.Value = strings.TrimSpace(e.MIN.Value)
	case digits != "":
		e.MIN = document.ConfidenceValue{Value: "N/A"}
	}
}

// deriveRecordingStamp recomputes RecordingStampPresent from the other
// recording fields so the flag never contradicts the data.
func deriveRecordingStamp(e *document.Entities) {
	has := false
	for _, cv := range []document.ConfidenceValue{
		e.RecordingDocumentNumber, e.RecordingBook, e.RecordingPage, e.RecordingDate, e.RecordingTime,
	} {
		if !strings.EqualFold(strings.TrimSpace(cv.Value), "n/a") {
			has = true
			break
		}
	}
	if has {
		e.RecordingStampPresent.Value = "Yes"
	} else {
		e.RecordingStampPresent.Value = "No"
	}
}
