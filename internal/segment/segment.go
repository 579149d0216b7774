// Package segment locates the boundary between a statement's free-form
// header and its transaction table, and returns the header text.
package segment

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// boundaryPatterns recognize the first line of tabular transaction content.
// A match on any of them ends the header; the earliest match offset on the
// page wins, not the first pattern in list order.
var boundaryPatterns = []*regexp.Regexp{
	// Transaction row starting with a date-like token.
	regexp.MustCompile(`(?mi)^\d{2}[-/]\d{2}[-/]\d{2,4}\b`),
	// Column header lines such as "Date Particulars Amount".
	regexp.MustCompile(`(?mi)Date\s+(Particulars|Description|Transaction|Instruments|Dr Amount)`),
	regexp.MustCompile(`(?mi)^Balance brought forward`),
	regexp.MustCompile(`(?mi)Opening Balance.*Closing Balance`),
	regexp.MustCompile(`(?mi)Transaction Details:`),
}

var (
	nonPrintable = regexp.MustCompile(`[^\x20-\x7E\n:]`)
	spaceRuns    = regexp.MustCompile(` +`)
	newlineRuns  = regexp.MustCompile(`\n+`)
)

// Clean normalizes raw page text: NFKD unicode normalization, non-printable
// characters (except newline and colon) replaced by spaces, whitespace and
// blank-line runs collapsed, surrounding whitespace trimmed.
func Clean(text string) string {
	text = norm.NFKD.String(text)
	text = nonPrintable.ReplaceAllString(text, " ")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// Boundary returns the earliest offset at which any boundary pattern matches
// the cleaned page text, and whether a pattern matched at all.
func Boundary(page string) (int, bool) {
	best := -1
	for _, re := range boundaryPatterns {
		if loc := re.FindStringIndex(page); loc != nil && (best < 0 || loc[0] < best) {
			best = loc[0]
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// Header accumulates cleaned page text in document order and stops at the
// first page where a boundary pattern fires: everything before the earliest
// match on that page closes the header, everything after is assumed
// transactional and discarded. If no page matches, the full concatenation of
// all cleaned pages is the header. Zero pages yield an empty header.
func Header(pages []string) string {
	var sb strings.Builder
	for _, raw := range pages {
		page := Clean(raw)
		if off, ok := Boundary(page); ok {
			sb.WriteString(page[:off])
			return sb.String()
		}
		sb.WriteString(page)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
