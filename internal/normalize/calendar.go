package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

// calendarLayouts are the timestamp shapes the reports store and the forms
// emit for report and creation dates.
var calendarLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dayLayout,
	"2006/01/02",
	"2006-1-2",
	"2006/1/2",
}

var (
	reportDateRule = fieldRule{lookups: []lookup{
		{from: fromPayload, aliases: []string{"reportDate", "date"}},
		{from: fromMeta, aliases: []string{"reportDate"}},
	}}

	createdAtRule = fieldRule{lookups: []lookup{
		{from: fromRaw, aliases: []string{"createdAt", "created_at"}},
		{from: fromPayload, aliases: []string{"createdAt", "created_at"}},
	}}
)

// ParseTimestamp reads a timestamp given as one of calendarLayouts or as
// epoch milliseconds (a number, or a string of at least ten digits).
func ParseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case json.Number:
		return parseEpochMillis(t.String())
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), true
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if len(s) >= 10 && strings.Trim(s, "0123456789") == "" {
			return parseEpochMillis(s)
		}
		for _, layout := range calendarLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func parseEpochMillis(s string) (time.Time, bool) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Time{}, false
}

// CalendarDate formats a timestamp-like value as YYYY-MM-DD in UTC. Values
// that are already a plain date are returned unchanged; anything unparsable
// yields "".
func CalendarDate(v any) string {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if datePatterns[0].re.MatchString(s) {
			return s
		}
	}
	ts, ok := ParseTimestamp(v)
	if !ok {
		return ""
	}
	return ts.UTC().Format(dayLayout)
}

// ReportDate resolves the report date of a document: payload reportDate,
// date or meta.reportDate, falling back to the creation timestamp.
func ReportDate(raw domain.RawReport) string {
	return reportDate(viewOf(raw))
}

func reportDate(v docView) string {
	if val, ok := reportDateRule.resolve(v); ok {
		return CalendarDate(val)
	}
	if val, ok := createdAtRule.resolve(v); ok {
		return CalendarDate(val)
	}
	return ""
}

// CreatedAt returns the raw creation timestamp of a document.
func CreatedAt(raw domain.RawReport) (any, bool) {
	return createdAtRule.resolve(viewOf(raw))
}

// CalendarTime is ParseTimestamp returning the zero time for unparsable
// values.
func CalendarTime(v any) time.Time {
	ts, _ := ParseTimestamp(v)
	return ts
}
