package normalize

import (
	"regexp"
	"strings"
)

var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
	"PR": "Puerto Rico", "GU": "Guam", "VI": "U.S. Virgin Islands",
	"AS": "American Samoa", "MP": "Northern Mariana Islands",
}

// Tried in order: comma-prefixed abbreviation before a ZIP, comma-prefixed
// abbreviation without one, then a bare word-boundary abbreviation before a ZIP.
var statePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*?,\s*)([A-Za-z]{2})(\s+\d{5}(?:-\d{4})?\b.*)$`),
	regexp.MustCompile(`^(.*?,\s*)([A-Za-z]{2})(\b.*)$`),
	regexp.MustCompile(`^(.*\b)([A-Za-z]{2})(\s+\d{5}(?:-\d{4})?\b.*)$`),
}

// ExpandState rewrites a two-letter US state abbreviation inside a mailing
// address to its full name ("Austin, TX 78701" to "Austin, Texas 78701").
// The address is returned unchanged when no known abbreviation is found.
func ExpandState(addr string) string {
	for _, pat := range statePatterns {
		m := pat.FindStringSubmatch(addr)
		if m == nil {
			continue
		}
		full, ok := stateNames[strings.ToUpper(m[2])]
		if !ok {
			continue
		}
		return m[1] + full + m[3]
	}
	return addr
}
