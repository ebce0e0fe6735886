// Package normalize canonicalizes extracted field values so repeated
// captures of the same document compare and merge cleanly: dates become
// MM/DD/YYYY, times HH:MM:SS, money two-decimal plain numbers, yes/no flags
// a fixed tri-state, and rider/borrower names their canonical forms.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

var yesValues = map[string]bool{
	"y": true, "yes": true, "true": true, "1": true, "checked": true, "present": true,
}

var noValues = map[string]bool{
	"n": true, "no": true, "false": true, "0": true, "unchecked": true, "absent": true,
}

// YesNo maps common checkbox spellings onto "Yes"/"No"; anything else is "N/A".
func YesNo(v string) string {
	s := strings.ToLower(strings.TrimSpace(v))
	if yesValues[s] {
		return "Yes"
	}
	if noValues[s] {
		return "No"
	}
	return "N/A"
}

var (
	ordinalRe      = regexp.MustCompile(`(?i)(\d+)(st|nd|rd|th)`)
	looseDateRe    = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)
	dateLayouts    = []string{"1/2/2006", "1/2/06", "2006-1-2", "January 2, 2006", "Jan 2, 2006", "2 January 2006", "2 Jan 2006"}
	timeColonRe    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::(\d{2}))?\b`)
	timeDigitsRe   = regexp.MustCompile(`\b(\d{1,2})(\d{2})(\d{2})?\b`)
	timeHourRe     = regexp.MustCompile(`\b(\d{1,2})\b`)
	timeAmPmRe     = regexp.MustCompile(`\b(AM|PM)\b`)
	dotBetweenNums = regexp.MustCompile(`(\d)\.(\d)`)
	nonDigitRe     = regexp.MustCompile(`[^0-9]`)
	currencyJunkRe = regexp.MustCompile(`[,$\s]`)
)

// Date returns s as MM/DD/YYYY when it parses as a date; otherwise s
// unchanged. Ordinal day suffixes ("June 1st, 2024") are tolerated.
func Date(s string) string {
	txt := strings.TrimSpace(s)
	if txt == "" {
		return s
	}
	txt = ordinalRe.ReplaceAllString(txt, "$1")
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, txt); err == nil {
			return dt.Format("01/02/2006")
		}
	}
	if m := looseDateRe.FindStringSubmatch(txt); m != nil {
		mm, _ := strconv.Atoi(m[1])
		dd, _ := strconv.Atoi(m[2])
		yy := m[3]
		if len(yy) == 2 {
			if n, _ := strconv.Atoi(yy); n < 50 {
				yy = "20" + yy
			} else {
				yy = "19" + yy
			}
		}
		year, _ := strconv.Atoi(yy)
		if validDate(year, mm, dd) {
			return fmt.Sprintf("%02d/%02d/%04d", mm, dd, year)
		}
	}
	return s
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	dt := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return dt.Year() == year && int(dt.Month()) == month && dt.Day() == day
}

// Time returns s as 24-hour HH:MM:SS when it parses as a time; otherwise s
// unchanged. Accepts "14:27", "2:27:59 pm", "2 PM", "1427", "14.27".
func Time(s string) string {
	txt := strings.TrimSpace(s)
	if txt == "" {
		return s
	}
	norm := strings.ToUpper(txt)
	norm = strings.ReplaceAll(norm, "A.M.", "AM")
	norm = strings.ReplaceAll(norm, "P.M.", "PM")
	norm = strings.ReplaceAll(norm, "A M", "AM")
	norm = strings.ReplaceAll(norm, "P M", "PM")
	norm = dotBetweenNums.ReplaceAllString(norm, "$1:$2")

	ampm := ""
	if m := timeAmPmRe.FindStringSubmatch(norm); m != nil {
		ampm = m[1]
		norm = strings.TrimSpace(timeAmPmRe.ReplaceAllString(norm, ""))
	}

	var hh, mm, ss int
	matched := false
	if m := timeColonRe.FindStringSubmatch(norm); m != nil {
		hh, _ = strconv.Atoi(m[1])
		mm, _ = strconv.Atoi(m[2])
		if m[3] != "" {
			ss, _ = strconv.Atoi(m[3])
		}
		matched = true
	} else if m := timeDigitsRe.FindStringSubmatch(nonDigitRe.ReplaceAllString(norm, "")); m != nil {
		hh, _ = strconv.Atoi(m[1])
		mm, _ = strconv.Atoi(m[2])
		if m[3] != "" {
			ss, _ = strconv.Atoi(m[3])
		}
		matched = true
	} else if m := timeHourRe.FindStringSubmatch(norm); m != nil && ampm != "" {
		hh, _ = strconv.Atoi(m[1])
		matched = true
	}
	if !matched || mm > 59 || ss > 59 {
		return s
	}

	switch ampm {
	case "AM":
		if hh == 12 {
			hh = 0
		}
	case "PM":
		if hh < 12 {
			hh += 12
		}
	}
	if hh < 0 || hh > 23 {
		return s
	}
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
}

// Currency returns s as a plain two-decimal number ("250000.00") when it
// parses as an amount; otherwise s unchanged. Currency symbols, commas and
// spaces are stripped first.
func Currency(s string) string {
	txt := strings.TrimSpace(s)
	if txt == "" {
		return s
	}
	cleaned := currencyJunkRe.ReplaceAllString(txt, "")
	if cleaned == "" {
		return s
	}
	if parts := strings.Split(cleaned, "."); len(parts) > 2 {
		cleaned = parts[0] + "." + parts[1]
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%.2f", v)
}

// Key reduces s to lowercase alphanumerics for identity comparisons
// ("John  Q. Smith" and "JOHN Q SMITH" collide on purpose).
func Key(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Similarity is a 0..1 edit-distance ratio over Key-normalized strings;
// 1 means identical after normalization.
func Similarity(a, b string) float64 {
	ka, kb := Key(a), Key(b)
	if ka == "" || kb == "" {
		return 0
	}
	if ka == kb {
		return 1
	}
	dist := levenshtein.ComputeDistance(ka, kb)
	maxLen := len(ka)
	if len(kb) > maxLen {
		maxLen = len(kb)
	}
	return 1 - float64(dist)/float64(maxLen)
}
