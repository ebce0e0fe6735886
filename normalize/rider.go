package normalize

import "strings"

// RiderAllowlist is the closed set of rider names that survive extraction.
// Anything the model reports that cannot be mapped onto one of these is
// dropped rather than guessed at.
var RiderAllowlist = []string{
	"Adjustable Rate Rider",
	"1-4 Family Rider",
	"Condominium Rider",
	"Planned Unit Development Rider",
	"Second Home Rider",
	"V.A. Rider",
	"Biweekly Payment Rider",
}

// riderAliases maps lowercase spellings seen on recorded documents to their
// canonical allowlist entry. An empty target means "recognized but ignored".
var riderAliases = map[string]string{
	"adjustable rate rider":            "Adjustable Rate Rider",
	"arm rider":                        "Adjustable Rate Rider",
	"1-4 family rider":                 "1-4 Family Rider",
	"1 to 4 family rider":              "1-4 Family Rider",
	"one-to-four family rider":         "1-4 Family Rider",
	"one to four family rider":         "1-4 Family Rider",
	"condominium rider":                "Condominium Rider",
	"condo rider":                      "Condominium Rider",
	"planned unit development rider":   "Planned Unit Development Rider",
	"planned unit dev rider":           "Planned Unit Development Rider",
	"pud rider":                        "Planned Unit Development Rider",
	"second home rider":                "Second Home Rider",
	"v.a. rider":                       "V.A. Rider",
	"va rider":                         "V.A. Rider",
	"v a rider":                        "V.A. Rider",
	"biweekly payment rider":           "Biweekly Payment Rider",
	"bi-weekly payment rider":          "Biweekly Payment Rider",
	"bi weekly payment rider":          "Biweekly Payment Rider",
	"other(s) [specify]":               "",
	"others":                           "",
	"other":                            "",
}

const riderSimilarityMin = 0.85

// IgnoredRider reports whether name is a recognized checkbox label that
// never yields a rider, like the "Other(s) [specify]" catch-all.
func IgnoredRider(name string) bool {
	canonical, found := riderAliases[strings.ToLower(strings.TrimSpace(name))]
	return found && canonical == ""
}

// CanonicalRider maps a reported rider name onto its allowlist form.
// Resolution order: exact alias, exact allowlist match, then closest
// allowlist entry by edit-distance similarity. ok is false when the name is
// unknown or deliberately ignored (the "Other" checkbox).
func CanonicalRider(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if canonical, found := riderAliases[key]; found {
		return canonical, canonical != ""
	}
	for _, canonical := range RiderAllowlist {
		if strings.EqualFold(key, canonical) {
			return canonical, true
		}
	}
	best, bestScore := "", 0.0
	for _, canonical := range RiderAllowlist {
		if score := Similarity(key, canonical); score > bestScore {
			best, bestScore = canonical, score
		}
	}
	if bestScore >= riderSimilarityMin {
		return best, true
	}
	return "", false
}
