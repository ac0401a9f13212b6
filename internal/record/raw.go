package record

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Cell is one spreadsheet value as delivered by the backend. The sheet is not
// schema-enforced, so the same column may hold a string, a number, a boolean
// or nothing at all.
type Cell struct {
	raw json.RawMessage
}

// StringCell returns a cell holding a JSON string.
func StringCell(s string) Cell {
	b, _ := json.Marshal(s)
	return Cell{raw: b}
}

// NumberCell returns a cell holding a JSON number.
func NumberCell(f float64) Cell {
	return Cell{raw: json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))}
}

// UnmarshalJSON stores the raw value for lazy interpretation.
func (c *Cell) UnmarshalJSON(b []byte) error {
	c.raw = append(c.raw[:0], b...)
	return nil
}

// MarshalJSON writes the raw value back unchanged.
func (c Cell) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 {
		return []byte("null"), nil
	}
	return c.raw, nil
}

// IsMissing reports whether the cell was absent or null.
func (c Cell) IsMissing() bool {
	t := bytes.TrimSpace(c.raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// IsString reports whether the cell holds a JSON string.
func (c Cell) IsString() bool {
	t := bytes.TrimSpace(c.raw)
	return len(t) > 0 && t[0] == '"'
}

// Number returns the value if the cell holds a JSON number.
// Numeric strings are not numbers.
func (c Cell) Number() (float64, bool) {
	t := bytes.TrimSpace(c.raw)
	if len(t) == 0 || !(t[0] == '-' || (t[0] >= '0' && t[0] <= '9')) {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(t), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String renders the cell as display text: strings verbatim, numbers in
// their shortest decimal form, booleans as true/false, anything else empty.
func (c Cell) String() string {
	if c.IsMissing() {
		return ""
	}
	if c.IsString() {
		var s string
		if err := json.Unmarshal(c.raw, &s); err != nil {
			return ""
		}
		return s
	}
	if f, ok := c.Number(); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	switch strings.TrimSpace(string(c.raw)) {
	case "true":
		return "true"
	case "false":
		return "false"
	}
	return ""
}

// RawLog is one row of the backend's call log sheet.
type RawLog struct {
	ExternalID     Cell `json:"external_id"`
	Timestamp      Cell `json:"timestamp"`
	ContactName    Cell `json:"contact_name"`
	PhoneNumber    Cell `json:"phone_number"`
	Phone          Cell `json:"phone"`
	Duration       Cell `json:"duration"`
	Transcript     Cell `json:"transcript"`
	Status         Cell `json:"status"`
	StrategicNotes Cell `json:"strategic_notes"`
	Tags           Cell `json:"tags"`
}

// RawContact is one row of the backend's contacts sheet.
type RawContact struct {
	FullName     Cell `json:"full_name"`
	Phone        Cell `json:"phone"`
	Email        Cell `json:"email"`
	Organization Cell `json:"organization"`
	Company      Cell `json:"company"`
	LastSynced   Cell `json:"last_synced"`
	CallCount    Cell `json:"call_count"`
}

// splitTags splits the comma-separated tags column.
func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
