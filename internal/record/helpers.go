package record

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
)

// ISOLayout matches JavaScript's Date.prototype.toISOString output.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Spreadsheet serial dates count days since 1899-12-30; 25569 is 1970-01-01.
const (
	serialDateMin   = 40000
	serialDateMax   = 100000
	serialUnixEpoch = 25569
)

// now is swapped in tests.
var now = time.Now

// FormatISO renders t the way the rest of the model stores instants.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// FormatDuration renders a duration cell as "Nm SSs".
// Strings that already carry a minute or colon marker pass through unchanged.
func FormatDuration(c Cell) string {
	if c.IsMissing() {
		return "0m 00s"
	}
	var seconds float64
	if c.IsString() {
		s := c.String()
		if s == "" {
			return "0m 00s"
		}
		if strings.Contains(s, "m") || strings.Contains(s, ":") {
			return s
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return "0m 00s"
		}
		seconds = f
	} else {
		f, ok := c.Number()
		if !ok {
			return "0m 00s"
		}
		seconds = f
	}
	return FormatSeconds(seconds)
}

// FormatSeconds renders a seconds count as "Nm SSs". Negative and
// non-finite values render as zero.
func FormatSeconds(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	minutes := int64(math.Floor(seconds / 60))
	rest := int64(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%dm %02ds", minutes, rest)
}

var (
	minSecRe   = regexp.MustCompile(`^\s*(\d+)\s*m\s*(\d+)\s*s\s*$`)
	colonDurRe = regexp.MustCompile(`^\s*(?:(\d+):)?(\d+):(\d{1,2})\s*$`)
)

// ParseDurationSeconds converts "14m 22s", "05:00" or "1:02:03" back into
// seconds. Anything else yields zero.
func ParseDurationSeconds(s string) int {
	if m := minSecRe.FindStringSubmatch(s); m != nil {
		min, _ := strconv.Atoi(m[1])
		sec, _ := strconv.Atoi(m[2])
		return min*60 + sec
	}
	if m := colonDurRe.FindStringSubmatch(s); m != nil {
		hours := 0
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		min, _ := strconv.Atoi(m[2])
		sec, _ := strconv.Atoi(m[3])
		return hours*3600 + min*60 + sec
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}

// NormalizeDate converts a timestamp cell to an ISO-8601 instant.
// Missing or unparseable values resolve to the current instant.
func NormalizeDate(c Cell) string {
	if c.IsMissing() {
		return FormatISO(now())
	}
	if f, ok := c.Number(); ok {
		if f == 0 {
			return FormatISO(now())
		}
		return FormatISO(fromNumber(f))
	}
	s := strings.TrimSpace(c.String())
	if s == "" {
		return FormatISO(now())
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > serialDateMin && f < serialDateMax {
		return FormatISO(fromSerial(f))
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return FormatISO(now())
	}
	return FormatISO(t)
}

// fromNumber interprets a numeric timestamp: spreadsheet serial dates in the
// 40000..100000 window, Unix milliseconds otherwise.
func fromNumber(f float64) time.Time {
	if f > serialDateMin && f < serialDateMax {
		return fromSerial(f)
	}
	if math.Abs(f) > 8.64e15 {
		return now()
	}
	return time.UnixMilli(int64(f))
}

func fromSerial(f float64) time.Time {
	ms := math.Round((f - serialUnixEpoch) * 86400 * 1000)
	return time.UnixMilli(int64(ms))
}

// CleanTranscript decodes a URL-encoded transcript for display.
// Malformed input is returned trimmed rather than failing.
func CleanTranscript(raw string) string {
	decoded, err := url.PathUnescape(strings.ReplaceAll(raw, "+", " "))
	if err != nil || !utf8.ValidString(decoded) {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(decoded)
}

// ParseJSON decodes text into T, returning fallback on any failure.
func ParseJSON[T any](text string, fallback T) T {
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return fallback
	}
	return v
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateID returns "{prefix}-{epoch-ms}-{9 base36 chars}". Uniqueness is
// best-effort.
func GenerateID(prefix string) string {
	if prefix == "" {
		prefix = "item"
	}
	var suffix [9]byte
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now().UnixMilli(), suffix[:])
}

var nonDigitRe = regexp.MustCompile(`\D`)

// FormatPhoneNumber formats 10-digit and 1-prefixed 11-digit North American
// numbers; anything else is returned unchanged.
func FormatPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}
	d := nonDigitRe.ReplaceAllString(phone, "")
	switch {
	case len(d) == 10:
		return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:])
	case len(d) == 11 && d[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", d[1:4], d[4:7], d[7:])
	}
	return phone
}

// PhoneDigits strips everything but digits, for phone comparisons.
func PhoneDigits(phone string) string {
	return nonDigitRe.ReplaceAllString(phone, "")
}

// Initials returns up to two uppercase initials, or "?" for a blank name.
func Initials(name string) string {
	if strings.TrimSpace(name) == "" {
		return "?"
	}
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(r)
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return strings.ToUpper(b.String())
}

// Truncate shortens text to maxLength runes with a trailing ellipsis.
func Truncate(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxLength])) + "..."
}
