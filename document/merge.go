package document

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/normalize"
)

// legalDetailText reports whether a legal-description detail string carries
// actual text (the "No" resting state of ValidValue does not apply here).
func legalDetailText(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	switch s {
	case "", "n/a", "not listed", "legal description is missing":
		return false
	}
	return true
}

// MergeKeepHighest merges new into base field-by-field: scalars keep the
// higher-confidence valid value, riders union by name, borrowers union by
// normalized name with alias union. Neither argument is mutated.
func MergeKeepHighest(base, next Entities) Entities {
	merged := NewEntities()

	for _, field := range ScalarFields {
		*merged.Scalar(field) = pickScalar(*base.Scalar(field), *next.Scalar(field))
	}
	merged.LegalDescriptionDetail = pickScalar(base.LegalDescriptionDetail, next.LegalDescriptionDetail)
	merged.LegalDescriptionPresent = pickScalar(base.LegalDescriptionPresent, next.LegalDescriptionPresent)

	merged.RidersPresent = unionRiders(base.RidersPresent, next.RidersPresent)
	merged.RidersConfidence = maxFloat(base.RidersConfidence, next.RidersConfidence)

	merged.Borrower = unionBorrowers(base.Borrower, next.Borrower)
	merged.BorrowerConfidence = maxFloat(base.BorrowerConfidence, next.BorrowerConfidence)

	harmonizeLegal(&merged)
	return merged
}

// pickScalar takes the higher-confidence valid value; an invalid base always
// yields to next so a field never regresses from data to "N/A".
func pickScalar(base, next ConfidenceValue) ConfidenceValue {
	if (next.Confidence > base.Confidence && ValidValue(next.Value)) || !ValidValue(base.Value) {
		return next
	}
	return base
}

// unionRiders merges two rider lists by raw name, keeping the entry whose
// name confidence is higher. First-seen order is preserved.
func unionRiders(a, b []Rider) []Rider {
	var order []string
	byName := map[string]Rider{}
	for _, r := range append(append([]Rider{}, a...), b...) {
		name := r.Name.Value
		if strings.TrimSpace(name) == "" {
			continue
		}
		existing, ok := byName[name]
		if !ok {
			order = append(order, name)
			byName[name] = r
			continue
		}
		if r.Name.Confidence > existing.Name.Confidence {
			byName[name] = r
		}
	}
	if len(order) == 0 {
		return nil
	}
	out := make([]Rider, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

// unionBorrowers merges two borrower lists by normalized name. The
// higher-confidence name wins the slot; alias lists union; relationship and
// tenancy keep the higher-confidence value.
func unionBorrowers(a, b []BorrowerEntry) []BorrowerEntry {
	var order []string
	byKey := map[string]BorrowerEntry{}
	for _, entry := range append(append([]BorrowerEntry{}, a...), b...) {
		key := normalize.Key(entry.Name.Value)
		if key == "" {
			continue
		}
		existing, ok := byKey[key]
		if !ok {
			order = append(order, key)
			byKey[key] = entry
			continue
		}
		if entry.Name.Confidence > existing.Name.Confidence {
			existing.Name = entry.Name
		}
		existing.Alias = unionStrings(existing.Alias, entry.Alias)
		existing.AliasConfidence = maxFloat(existing.AliasConfidence, entry.AliasConfidence)
		if entry.Relationship.Confidence > existing.Relationship.Confidence {
			existing.Relationship = entry.Relationship
		}
		if entry.TenantInformation.Confidence > existing.TenantInformation.Confidence {
			existing.TenantInformation = entry.TenantInformation
		}
		byKey[key] = existing
	}
	if len(order) == 0 {
		return nil
	}
	out := make([]BorrowerEntry, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out
}

// DedupeBorrowers unions duplicate entries in a single list by normalized
// name, the same way a cross-capture merge would.
func DedupeBorrowers(entries []BorrowerEntry) []BorrowerEntry {
	return unionBorrowers(nil, entries)
}

func unionStrings(a, b []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// harmonizeLegal keeps LegalDescriptionPresent consistent with the detail
// text after a merge.
func harmonizeLegal(e *Entities) {
	detail := e.LegalDescriptionDetail
	present := &e.LegalDescriptionPresent
	if legalDetailText(detail.Value) {
		present.Value = "Yes"
	} else if present.Value != "No" && present.Value != "N/A" {
		present.Value = "No"
	}
	present.Confidence = maxFloat(present.Confidence, detail.Confidence)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

var spaceRunRe = regexp.MustCompile(`\s+`)

// Combine builds the threshold-gated best-value view across the session:
// scalars take the highest-confidence valid value at or above threshold,
// borrowers and riders include only entries whose name confidence clears it
// (riders additionally signed, canonical and allowlisted), and the legal
// description concatenates deduplicated high-confidence segments in capture
// order.
func Combine(records []Record, threshold float64) Entities {
	combined := NewEntities()

	any := false
	for _, rec := range records {
		if !rec.Failed() {
			any = true
			break
		}
	}
	if !any {
		return combined
	}

	// Legal description segments, deduplicated on collapsed lowercase text.
	var segments []string
	var segmentConf float64
	seenSegment := map[string]bool{}
	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		detail := rec.Entities.LegalDescriptionDetail
		if !ValidValue(detail.Value) || detail.Confidence < threshold {
			continue
		}
		norm := strings.ToLower(strings.TrimSpace(spaceRunRe.ReplaceAllString(detail.Value, " ")))
		if norm == "" || seenSegment[norm] {
			continue
		}
		seenSegment[norm] = true
		segments = append(segments, detail.Value)
		segmentConf = maxFloat(segmentConf, detail.Confidence)
	}

	for _, field := range ScalarFields {
		best := *combined.Scalar(field)
		for _, rec := range records {
			if rec.Failed() {
				continue
			}
			cv := *rec.Entities.Scalar(field)
			if !ValidValue(cv.Value) || cv.Confidence < threshold {
				continue
			}
			if !ValidValue(best.Value) || cv.Confidence > best.Confidence {
				best = cv
			}
		}
		if ValidValue(best.Value) && best.Confidence >= threshold {
			*combined.Scalar(field) = best
		}
	}

	combined.Borrower, combined.BorrowerConfidence = combineBorrowers(records, threshold)
	combined.RidersPresent, combined.RidersConfidence = combineRiders(records, threshold)

	if len(segments) > 0 {
		combined.LegalDescriptionDetail = ConfidenceValue{Value: strings.Join(segments, "\n\n"), Confidence: segmentConf}
		combined.LegalDescriptionPresent = ConfidenceValue{Value: "Yes", Confidence: segmentConf}
	} else {
		combined.LegalDescriptionPresent = ConfidenceValue{Value: "No"}
	}

	return combined
}

// combineBorrowers keeps borrowers whose name confidence clears the
// threshold, clearing subfields that do not clear it themselves. Output is
// sorted by normalized name.
func combineBorrowers(records []Record, threshold float64) ([]BorrowerEntry, float64) {
	byKey := map[string]BorrowerEntry{}
	var listConf float64
	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		listConf = maxFloat(listConf, rec.Entities.BorrowerConfidence)
		for _, b := range rec.Entities.Borrower {
			if !ValidValue(b.Name.Value) || b.Name.Confidence < threshold {
				continue
			}
			key := normalize.Key(b.Name.Value)
			if key == "" {
				continue
			}
			existing, ok := byKey[key]
			if !ok || b.Name.Confidence > existing.Name.Confidence {
				adopted := b
				if adopted.AliasConfidence < threshold {
					adopted.Alias = nil
				}
				if adopted.Relationship.Confidence < threshold {
					adopted.Relationship = ConfidenceValue{Value: "N/A", Confidence: adopted.Relationship.Confidence}
				}
				if adopted.TenantInformation.Confidence < threshold {
					adopted.TenantInformation = ConfidenceValue{Value: "N/A", Confidence: adopted.TenantInformation.Confidence}
				}
				if ok {
					adopted.Alias = unionStrings(existing.Alias, adopted.Alias)
				}
				byKey[key] = adopted
				continue
			}
			if b.AliasConfidence >= threshold {
				existing.Alias = unionStrings(existing.Alias, b.Alias)
				existing.AliasConfidence = maxFloat(existing.AliasConfidence, b.AliasConfidence)
			}
			if b.Relationship.Confidence >= threshold && b.Relationship.Confidence > existing.Relationship.Confidence {
				existing.Relationship = b.Relationship
			}
			if b.TenantInformation.Confidence >= threshold && b.TenantInformation.Confidence > existing.TenantInformation.Confidence {
				existing.TenantInformation = b.TenantInformation
			}
			byKey[key] = existing
		}
	}
	if len(byKey) == 0 {
		return nil, 0
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]BorrowerEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out, listConf
}

// combineRiders keeps signed, allowlisted riders whose name confidence
// clears the threshold, canonical duplicates keeping the higher confidence.
// Output is sorted by canonical name.
func combineRiders(records []Record, threshold float64) ([]Rider, float64) {
	byName := map[string]Rider{}
	var listConf float64
	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		listConf = maxFloat(listConf, rec.Entities.RidersConfidence)
		for _, r := range rec.Entities.RidersPresent {
			if !riderSigned(r) || r.Name.Confidence < threshold || !ValidValue(r.Name.Value) {
				continue
			}
			canon, ok := normalize.CanonicalRider(r.Name.Value)
			if !ok {
				continue
			}
			candidate := Rider{
				Name:           ConfidenceValue{Value: canon, Confidence: r.Name.Confidence},
				Present:        r.Present,
				SignedAttached: r.SignedAttached,
			}
			if existing, seen := byName[canon]; !seen || candidate.Name.Confidence > existing.Name.Confidence {
				byName[canon] = candidate
			}
		}
	}
	if len(byName) == 0 {
		return nil, 0
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Rider, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out, listConf
}

func riderSigned(r Rider) bool {
	return strings.EqualFold(strings.TrimSpace(r.SignedAttached.Value), "yes")
}

// UnclassifiedSignedRiders lists signed, high-confidence rider names that
// did not canonicalize. They are displayed verbatim rather than dropped so
// an unusual rider still reaches the reviewer.
func UnclassifiedSignedRiders(records []Record, threshold float64) []string {
	var out []string
	seen := map[string]bool{}
	for _, rec := range records {
		if rec.Failed() {
			continue
		}
		for _, r := range rec.Entities.RidersPresent {
			if !riderSigned(r) || r.Name.Confidence < threshold || !ValidValue(r.Name.Value) {
				continue
			}
			if _, ok := normalize.CanonicalRider(r.Name.Value); ok {
				continue
			}
			name := strings.TrimSpace(r.Name.Value)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
