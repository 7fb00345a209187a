package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lotline/property-cli/internal/model"
)

// sqftPerAcre converts acreage to square feet.
const sqftPerAcre = 43560.0

var (
	stateZipRe = regexp.MustCompile(`^([A-Za-z]{2})\s+(\d{5}(?:-\d{4})?)$`)
	acresRe    = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*acres?`)
	sqftRe     = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(?:sq\.?\s*\.?\s*ft\.?|sqft|square\s+feet)`)
	leadNumRe  = regexp.MustCompile(`^([\d,]+(?:\.\d+)?)`)

	titleCaser = cases.Title(language.AmericanEnglish)
)

// ParseAddress splits a comma-delimited free-text address into components
// using fixed positions: first segment street, second city, third "STATE ZIP".
// This is a lossy best-effort parse; missing components come back empty and
// callers must treat that as legitimate absence.
func ParseAddress(raw string) model.Address {
	addr := model.Address{Raw: strings.TrimSpace(raw)}
	if addr.Raw == "" {
		return addr
	}

	parts := strings.Split(addr.Raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) > 0 && parts[0] != "" {
		addr.Street = titleCaser.String(strings.ToLower(parts[0]))
	}
	if len(parts) > 1 && parts[1] != "" {
		addr.City = titleCaser.String(strings.ToLower(parts[1]))
	}
	if len(parts) > 2 {
		if m := stateZipRe.FindStringSubmatch(parts[2]); m != nil {
			addr.State = strings.ToUpper(m[1])
			addr.Zip = m[2]
		}
	}
	return addr
}

// ParseArea converts a free-text lot or building size into square feet.
// Tries an acres pattern first, then the sqft family, then a bare leading
// number treated as square feet. Returns ok=false for text that matches no
// pattern so completeness scoring naturally reflects the gap.
func ParseArea(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	if m := acresRe.FindStringSubmatch(s); m != nil {
		if n, err := parseNum(m[1]); err == nil {
			return n * sqftPerAcre, true
		}
	}
	if m := sqftRe.FindStringSubmatch(s); m != nil {
		if n, err := parseNum(m[1]); err == nil {
			return n, true
		}
	}
	if m := leadNumRe.FindStringSubmatch(s); m != nil {
		if n, err := parseNum(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

func parseNum(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}
