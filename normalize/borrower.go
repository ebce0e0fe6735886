package normalize

import (
	"regexp"
	"strings"
)

var (
	borrowerRoleRe = regexp.MustCompile(`(?i)^(?:the\s+)?(?:borrowers?|mortgagors?|trustors?|owners?)\b\s*[:;,\-]*\s*`)
	roleWordRe     = regexp.MustCompile(`(?i)^(?:borrowers?|mortgagors?|trustors?|owners?)$`)
	leadingPunctRe = regexp.MustCompile(`^[\s,;:\-]+`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
	descriptorRe   = regexp.MustCompile(`^(.*?)(?:\s*[;,]\s*(?:AN?\s+)?(?:UNMARRIED|MARRIED|SINGLE|HUSBAND|WIFE|WIDOW|WIDOWER|SPOUSE|JOINT|TENANCY|TENANTS|COMMUNITY|SEVERALTY|BY THE ENTIRETY|IN COMMON).*)$`)
)

// SanitizeBorrowerName strips role labels and marital/vesting descriptors
// from a borrower name and uppercases what remains, so "Borrower: John Smith,
// an unmarried man" becomes "JOHN SMITH". ok is false when nothing usable
// survives (empty input or a bare role word).
func SanitizeBorrowerName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", false
	}
	for {
		stripped := borrowerRoleRe.ReplaceAllString(name, "")
		if stripped == name {
			break
		}
		name = strings.TrimSpace(stripped)
	}
	if name == "" || roleWordRe.MatchString(name) {
		return "", false
	}
	name = leadingPunctRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	name = strings.ToUpper(strings.TrimSpace(name))
	if m := descriptorRe.FindStringSubmatch(name); m != nil {
		name = strings.TrimSpace(m[1])
	}
	if name == "" {
		return "", false
	}
	return name, true
}
