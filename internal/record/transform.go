package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Brief defaults applied when the backend omits a field.
const (
	DefaultBriefTitle    = "Strategic Brief"
	DefaultBriefSummary  = "No summary available."
	PlainBriefTitle      = "Executive Summary"
	ErrorBriefTitle      = "Processing Error"
	ErrorBriefSummary    = "Raw data could not be parsed."
	ErrorTag             = "#error"
	minPlainBriefLength  = 10
	hashFieldSeparator   = "\x1f"
	duplicateIDSeparator = "-"
)

// statusOverrides maps the backend's explicit status column (lowercased)
// to a canonical status.
var statusOverrides = map[string]Status{
	"completed":  StatusCompleted,
	"pending":    StatusQueued,
	"processing": StatusQueued,
	"error":      StatusError,
}

var errNotObject = errors.New("brief is not a JSON object")

// TransformLog maps one raw call-log row to a CallRecord. It never fails:
// unparseable notes become an ERROR record carrying a diagnostic brief.
func TransformLog(raw RawLog, index int) CallRecord {
	rawTags := splitTags(raw.Tags.String())
	brief, status := deriveBrief(raw.StrategicNotes.String(), rawTags)

	if override, ok := statusOverrides[strings.ToLower(strings.TrimSpace(raw.Status.String()))]; ok {
		status = override
	}

	contactName := raw.ContactName.String()
	if contactName == "" {
		contactName = UnknownCaller
	}
	phone := raw.PhoneNumber.String()
	if phone == "" {
		phone = raw.Phone.String()
	}

	tags := rawTags
	if brief != nil {
		tags = brief.Tags
	}

	return CallRecord{
		ID:             logID(raw, contactName, phone, index),
		Timestamp:      NormalizeDate(raw.Timestamp),
		ContactName:    contactName,
		PhoneNumber:    phone,
		Duration:       FormatDuration(raw.Duration),
		Transcript:     raw.Transcript.String(),
		ExecutiveBrief: brief,
		Tags:           dedupe(tags),
		Status:         status,
	}
}

// TransformLogs normalizes a batch, suffixing ids that collide inside it.
func TransformLogs(rows []RawLog) []CallRecord {
	calls := make([]CallRecord, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		c := TransformLog(row, i)
		c.ID = uniqueID(seen, c.ID)
		calls[i] = c
	}
	return calls
}

// TransformContact maps one raw contact row to a Contact.
func TransformContact(raw RawContact, index int) Contact {
	name := raw.FullName.String()
	if name == "" {
		name = UnknownContact
	}
	phone := raw.Phone.String()

	org := raw.Organization.String()
	if org == "" {
		org = raw.Company.String()
	}

	total := 0
	if f, ok := raw.CallCount.Number(); ok && f > 0 {
		total = int(f)
	}

	id := fmt.Sprintf("contact-row-%d", index)
	if raw.FullName.String() != "" || phone != "" {
		id = "contact-" + contentHash(name, phone)
	}

	return Contact{
		ID:            id,
		Name:          name,
		Phone:         phone,
		Email:         raw.Email.String(),
		Organization:  org,
		LastContacted: NormalizeDate(raw.LastSynced),
		TotalCalls:    total,
	}
}

// TransformContacts normalizes a batch of contact rows.
func TransformContacts(rows []RawContact) []Contact {
	contacts := make([]Contact, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		c := TransformContact(row, i)
		c.ID = uniqueID(seen, c.ID)
		contacts[i] = c
	}
	return contacts
}

// deriveBrief applies the strategic-notes rules: JSON object → parsed brief,
// long plain text → verbatim brief, short/empty → queued, malformed JSON →
// error brief.
func deriveBrief(notes string, rawTags []string) (*ExecutiveBrief, Status) {
	trimmed := strings.TrimSpace(notes)

	obj, candidate, err := decodeNotes(trimmed)
	switch {
	case err != nil:
		return &ExecutiveBrief{
			Title:       ErrorBriefTitle,
			Summary:     ErrorBriefSummary,
			ActionItems: []string{},
			Tags:        []string{ErrorTag},
			Sentiment:   SentimentNegative,
		}, StatusError
	case candidate:
		return briefFromObject(obj, rawTags), StatusCompleted
	case len(trimmed) > minPlainBriefLength:
		return &ExecutiveBrief{
			Title:       PlainBriefTitle,
			Summary:     trimmed,
			ActionItems: []string{},
			Tags:        copyStrings(rawTags),
			Sentiment:   SentimentNeutral,
		}, StatusCompleted
	}
	return nil, StatusQueued
}

// decodeNotes parses notes that look like JSON. One level of double encoding
// (a JSON string whose content is the object) is tolerated.
func decodeNotes(trimmed string) (map[string]any, bool, error) {
	switch {
	case strings.HasPrefix(trimmed, "{"):
	case strings.HasPrefix(trimmed, `"`):
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return nil, false, nil
		}
		inner = strings.TrimSpace(inner)
		if !strings.HasPrefix(inner, "{") {
			return nil, false, nil
		}
		trimmed = inner
	default:
		return nil, false, nil
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, true, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, true, errNotObject
	}
	return obj, true, nil
}

// ParseBrief decodes a JSON object into a brief with the same per-field
// defaults the pipeline applies. fallbackTags are used when the object
// carries none.
func ParseBrief(data []byte, fallbackTags []string) (*ExecutiveBrief, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return briefFromObject(obj, fallbackTags), nil
}

func briefFromObject(obj map[string]any, rawTags []string) *ExecutiveBrief {
	tags := stringList(obj["tags"])
	if len(tags) == 0 {
		tags = copyStrings(rawTags)
	}
	return &ExecutiveBrief{
		Title:       stringOr(obj["title"], DefaultBriefTitle),
		Summary:     stringOr(obj["summary"], DefaultBriefSummary),
		ActionItems: stringList(obj["actionItems"]),
		Tags:        tags,
		Sentiment:   stringOr(obj["sentiment"], SentimentNeutral),
	}
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// stringList converts a JSON array to strings; scalars are rendered, nested
// values dropped. Non-arrays yield an empty list.
func stringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		switch x := item.(type) {
		case string:
			out = append(out, x)
		case float64, bool:
			out = append(out, fmt.Sprint(x))
		}
	}
	return out
}

// logID prefers the backend's external id, then a hash of the row content,
// so the same row keeps its id across refreshes.
func logID(raw RawLog, contactName, phone string, index int) string {
	if ext := strings.TrimSpace(raw.ExternalID.String()); ext != "" {
		return "log-" + ext
	}
	ts := raw.Timestamp.String()
	transcript := raw.Transcript.String()
	if ts == "" && raw.ContactName.String() == "" && phone == "" && transcript == "" {
		return fmt.Sprintf("log-row-%d", index)
	}
	return "log-" + contentHash(ts, contactName, phone, transcript)
}

func contentHash(parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.WriteString(hashFieldSeparator)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func uniqueID(seen map[string]int, id string) string {
	n := seen[id]
	seen[id] = n + 1
	if n == 0 {
		return id
	}
	return fmt.Sprintf("%s%s%d", id, duplicateIDSeparator, n)
}

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
