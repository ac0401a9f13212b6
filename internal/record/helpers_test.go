package record

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func fixNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"zero", NumberCell(0), "0m 00s"},
		{"sixty five", NumberCell(65), "1m 05s"},
		{"fractional seconds floor", NumberCell(59.9), "0m 59s"},
		{"large", NumberCell(3600), "60m 00s"},
		{"negative clamps", NumberCell(-5), "0m 00s"},
		{"preformatted passes through", StringCell("5m 30s"), "5m 30s"},
		{"colon passes through", StringCell("05:30"), "05:30"},
		{"numeric string", StringCell("125"), "2m 05s"},
		{"non numeric string", StringCell("abc"), "0m 00s"},
		{"empty string", StringCell(""), "0m 00s"},
		{"missing", Cell{}, "0m 00s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.cell); got != tt.want {
				t.Errorf("FormatDuration() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"14m 22s", 862},
		{"0m 00s", 0},
		{"05:00", 300},
		{"1:02:03", 3723},
		{"90", 90},
		{"abc", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParseDurationSeconds(tt.in); got != tt.want {
			t.Errorf("ParseDurationSeconds(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fixNow(t, fixed)
	nowISO := FormatISO(fixed)

	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"missing", Cell{}, nowISO},
		{"zero", NumberCell(0), nowISO},
		{"empty string", StringCell(""), nowISO},
		{"iso string", StringCell("2024-05-20T14:30:00Z"), "2024-05-20T14:30:00.000Z"},
		{"unix millis", NumberCell(1716215400000), "2024-05-20T14:30:00.000Z"},
		{"serial date string", StringCell("45432.5"), "2024-05-20T12:00:00.000Z"},
		{"unparseable", StringCell("not a date"), nowISO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDate(tt.cell); got != tt.want {
				t.Errorf("NormalizeDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeDate_SerialWindow(t *testing.T) {
	fixNow(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	got := NormalizeDate(NumberCell(46046.58))
	if !strings.HasPrefix(got, "2026-01-24T13:55") {
		t.Errorf("NormalizeDate(46046.58) = %q, want a 2026-01-24 13:55 instant", got)
	}

	// Just outside the window the value is read as Unix milliseconds.
	got = NormalizeDate(NumberCell(100000))
	if got != "1970-01-01T00:01:40.000Z" {
		t.Errorf("NormalizeDate(100000) = %q, want Unix-millis reading", got)
	}
}

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello+world%21", "hello world!"},
		{"  plain text  ", "plain text"},
		{"100%", "100%"},
		{"bad %zz escape", "bad %zz escape"},
		{"%E2%9C%93 done", "✓ done"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanTranscript(tt.in); got != tt.want {
			t.Errorf("CleanTranscript(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	got := ParseJSON(`{"name":"x"}`, payload{Name: "fallback"})
	if got.Name != "x" {
		t.Errorf("ParseJSON valid = %+v", got)
	}

	got = ParseJSON(`{broken`, payload{Name: "fallback"})
	if got.Name != "fallback" {
		t.Errorf("ParseJSON invalid = %+v, want fallback", got)
	}

	list := ParseJSON[[]string]("", nil)
	if list != nil {
		t.Errorf("ParseJSON empty = %v, want nil fallback", list)
	}
}

func TestGenerateID(t *testing.T) {
	re := regexp.MustCompile(`^call-\d+-[0-9a-z]{9}$`)
	id := GenerateID("call")
	if !re.MatchString(id) {
		t.Errorf("GenerateID(call) = %q, want %s", id, re)
	}
	if !strings.HasPrefix(GenerateID(""), "item-") {
		t.Error("GenerateID with empty prefix should default to item")
	}
	if GenerateID("x") == GenerateID("x") {
		t.Error("GenerateID returned the same id twice")
	}
}

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5550102030", "(555) 010-2030"},
		{"+15550102030", "+1 (555) 010-2030"},
		{"555-010-2030", "(555) 010-2030"},
		{"123", "123"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FormatPhoneNumber(tt.in); got != tt.want {
			t.Errorf("FormatPhoneNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInitialsAndTruncate(t *testing.T) {
	if got := Initials("Brandon Gilles"); got != "BG" {
		t.Errorf("Initials = %q", got)
	}
	if got := Initials("elena maria rodriguez"); got != "EM" {
		t.Errorf("Initials three words = %q", got)
	}
	if got := Initials("  "); got != "?" {
		t.Errorf("Initials blank = %q", got)
	}

	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate short = %q", got)
	}
}
