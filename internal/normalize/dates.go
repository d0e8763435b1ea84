// Package normalize turns loosely structured report documents into flat,
// canonical records.
//
// Dates are canonicalized to either YYYY-MM-DD (day precision) or YYYY-MM
// (month precision). Month precision values are never expanded to a day so
// that spreadsheet exports keep them as months.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	dayLayout = "2006-01-02"

	// bounds for years read by the generic parser
	minYear = 1
	maxYear = 9999

	// DateRangeSeparator joins the first and last date of a range.
	DateRangeSeparator = " — "
)

// datePattern is one recognizer in the NormalizeDate strategy list.
type datePattern struct {
	name   string
	re     *regexp.Regexp
	format func(m []string) string
}

// datePatterns are tried in order; the first structural match wins.
var datePatterns = []datePattern{
	{
		name:   "iso_date",
		re:     regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		format: func(m []string) string { return m[0] },
	},
	{
		name: "day_month_year",
		re:   regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2}|\d{4})$`),
		format: func(m []string) string {
			return fmt.Sprintf("%s-%s-%s", expandYear(m[3]), pad2(m[2]), pad2(m[1]))
		},
	},
	{
		name: "year_month",
		re:   regexp.MustCompile(`^(\d{4})[/-](\d{1,2})$`),
		format: func(m []string) string {
			return fmt.Sprintf("%s-%s", m[1], pad2(m[2]))
		},
	},
	{
		name: "month_year",
		re:   regexp.MustCompile(`^(\d{1,2})[/-](\d{4})$`),
		format: func(m []string) string {
			return fmt.Sprintf("%s-%s", m[2], pad2(m[1]))
		},
	},
}

// fallbackLayouts are tried before the generic parser. They cover year-first
// dates with unpadded parts, which the scanner below can produce.
var fallbackLayouts = []string{
	"2006-1-2",
	"2006/1/2",
}

// dateScanPatterns find date-like substrings inside free text: full
// year-first dates, day-month-year, year-month and month-year.
var dateScanPatterns = []string{
	`\d{4}[/-]\d{1,2}[/-]\d{1,2}`,
	`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`,
	`\d{4}[/-]\d{1,2}`,
	`\d{1,2}[/-]\d{4}`,
}

// dateScanner requires a non-digit (or start of text) before a match so that
// longer digit runs are not split. Matches may be followed by anything, which
// keeps the date part of timestamps such as 2024-01-05T10:00:00Z.
var dateScanner = regexp.MustCompile(`(?:^|\D)(` + strings.Join(dateScanPatterns, "|") + `)`)

// NormalizeDate converts a date-like token to YYYY-MM-DD or YYYY-MM. It
// returns "" when the token cannot be read as a date.
func NormalizeDate(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	for _, p := range datePatterns {
		if m := p.re.FindStringSubmatch(s); m != nil {
			return p.format(m)
		}
	}

	return parseGeneric(s)
}

func parseGeneric(s string) (out string) {
	if !strings.ContainsAny(s, "0123456789") {
		return ""
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatParsed(t)
		}
	}

	// NormalizeDate must not panic on arbitrary input.
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return ""
	}
	return formatParsed(t)
}

// formatParsed drops parses without a usable year, such as "1/2" read as
// year 0.
func formatParsed(t time.Time) string {
	if t.Year() < minYear || t.Year() > maxYear {
		return ""
	}
	return t.Format(dayLayout)
}

// ExtractAllDates finds every date-like substring in value, canonicalizes
// each one and returns the distinct results in ascending order.
func ExtractAllDates(value any) []string {
	text := stringify(value)
	if text == "" {
		return []string{}
	}

	matches := dateScanner.FindAllStringSubmatch(text, -1)
	dates := make([]string, 0, len(matches))
	for _, m := range matches {
		if d := NormalizeDate(m[1]); d != "" {
			dates = append(dates, d)
		}
	}

	return uniqueSorted(dates)
}

// FormatDateList renders an ascending list of canonical dates as a single
// date or a "first — last" range. The list is not re-sorted.
func FormatDateList(dates []string) string {
	switch len(dates) {
	case 0:
		return ""
	case 1:
		return dates[0]
	default:
		return dates[0] + DateRangeSeparator + dates[len(dates)-1]
	}
}

// uniqueSorted drops duplicates, keeping first-seen order, then sorts.
func uniqueSorted(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func expandYear(y string) string {
	if len(y) == 2 {
		n, _ := strconv.Atoi(y)
		return strconv.Itoa(2000 + n)
	}
	return y
}

func pad2(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%02d", n)
}
