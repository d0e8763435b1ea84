package normalize

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "iso date unchanged", input: "2024-01-05", want: "2024-01-05"},
		{name: "surrounding whitespace", input: "  2024-01-05 ", want: "2024-01-05"},
		{name: "two digit year", input: "05/03/99", want: "2099-03-05"},
		{name: "four digit year", input: "05/03/2099", want: "2099-03-05"},
		{name: "dashes and single digits", input: "5-3-2024", want: "2024-03-05"},
		{name: "month year", input: "07-2025", want: "2025-07"},
		{name: "year month slash", input: "2025/07", want: "2025-07"},
		{name: "year month single digit", input: "2025-7", want: "2025-07"},
		{name: "canonical month unchanged", input: "2025-07", want: "2025-07"},
		{name: "unpadded year first", input: "2024-1-5", want: "2024-01-05"},
		{name: "year first slashes", input: "2024/1/5", want: "2024-01-05"},
		{name: "not a date", input: "not a date", want: ""},
		{name: "day and month without year", input: "1/2", want: ""},
		{name: "year zero", input: "0000-01-02 10:00", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "blank", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDate(tt.input); got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDateIsIdempotentOnCanonicalOutput(t *testing.T) {
	inputs := []string{"05/03/99", "07-2025", "2025/07", "2024-01-05", "1/2/2023", "2024/1/5"}

	for _, in := range inputs {
		first := NormalizeDate(in)
		if first == "" {
			t.Fatalf("NormalizeDate(%q) returned empty", in)
		}
		if again := NormalizeDate(first); again != first {
			t.Errorf("NormalizeDate(%q) = %q, want unchanged canonical value", first, again)
		}
	}
}

func TestNormalizeDateNeverPanics(t *testing.T) {
	inputs := []string{"99/99/99", "2024-13-45", "0/0/0000", "12:30", "----", "1/", "/2024", "٢٠٢٤-٠١-٠٥"}

	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("NormalizeDate(%q) panicked: %v", in, r)
				}
			}()
			_ = NormalizeDate(in)
		}()
	}
}

func TestExtractAllDates(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{
			name:  "duplicates collapsed and sorted",
			input: "Born 2024-01-05, also 2024-01-05 and 06/01/2024",
			want:  []string{"2024-01-05", "2024-01-06"},
		},
		{
			name:  "slash dates read day first",
			input: "Born 2024-01-05, also 2024-01-05 and 01/06/2024",
			want:  []string{"2024-01-05", "2024-06-01"},
		},
		{
			name:  "sorted regardless of text order",
			input: "exp 2024-03-01 / prod 2024-01-15",
			want:  []string{"2024-01-15", "2024-03-01"},
		},
		{
			name:  "timestamp keeps its day",
			input: "2024-01-05T10:00:00Z",
			want:  []string{"2024-01-05"},
		},
		{
			name:  "month precision values",
			input: "best before 12/2024, lot 2024-11",
			want:  []string{"2024-11", "2024-12"},
		},
		{
			name:  "nil",
			input: nil,
			want:  []string{},
		},
		{
			name:  "no dates",
			input: "N/A",
			want:  []string{},
		},
		{
			name:  "number is not a date",
			input: json.Number("20240105"),
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAllDates(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractAllDates(%v) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatDateList(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  string
	}{
		{name: "empty", dates: nil, want: ""},
		{name: "single", dates: []string{"2024-01-05"}, want: "2024-01-05"},
		{name: "range", dates: []string{"2024-01-05", "2024-01-09"}, want: "2024-01-05 — 2024-01-09"},
		{name: "first and last only", dates: []string{"2024-01-05", "2024-01-07", "2024-01-09"}, want: "2024-01-05 — 2024-01-09"},
		{name: "not re-sorted", dates: []string{"2024-02-01", "2024-01-01"}, want: "2024-02-01 — 2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDateList(tt.dates); got != tt.want {
				t.Errorf("FormatDateList(%v) = %q, want %q", tt.dates, got, tt.want)
			}
		})
	}
}

func TestCalendarDate(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "plain date", input: "2024-03-01", want: "2024-03-01"},
		{name: "utc timestamp", input: "2024-03-02T10:00:00Z", want: "2024-03-02"},
		{name: "offset before midnight", input: "2024-03-01T23:30:00+02:00", want: "2024-03-01"},
		{name: "offset rolls to next day", input: "2024-03-01T23:30:00-02:00", want: "2024-03-02"},
		{name: "space separated", input: "2024-03-02 08:15:00", want: "2024-03-02"},
		{name: "epoch millis number", input: json.Number("1709373600000"), want: "2024-03-02"},
		{name: "epoch millis string", input: "1709373600000", want: "2024-03-02"},
		{name: "garbage", input: "soon", want: ""},
		{name: "nil", input: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalendarDate(tt.input); got != tt.want {
				t.Errorf("CalendarDate(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
