package ops

import (
	"slices"
	"strings"
	"time"

	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/record"
)

// Call sort orders.
const (
	SortStored = "stored"
	SortNewest = "newest"
	SortOldest = "oldest"
)

// ListCallsInput contains parameters for the ListCalls operation.
type ListCallsInput struct {
	Search  string // contact name or transcript, case-insensitive
	Status  string // optional: QUEUED, COMPLETED, ERROR
	Tag     string // optional, matches with or without '#'
	Contact string // optional: phone digits or contact name
	Since   string // optional, any date format
	Until   string // optional, any date format
	Sort    string // stored (default), newest, oldest
	Limit   int    // default: 20, max: 100
	Offset  int    // default: 0
}

// ListCallsOutput contains the result of the ListCalls operation.
type ListCallsOutput struct {
	Items      []record.CallRecord `json:"items"`
	Pagination Pagination          `json:"pagination"`
	Sort       string              `json:"sort"`
}

// ListCalls filters, sorts and pages calls.
func ListCalls(calls []record.CallRecord, input ListCallsInput) (*ListCallsOutput, error) {
	sortBy := strings.ToLower(strings.TrimSpace(input.Sort))
	switch sortBy {
	case "":
		sortBy = SortStored
	case SortStored, SortNewest, SortOldest:
	default:
		return nil, errors.NewInvalidRequest("sort must be one of: stored, newest, oldest")
	}

	var status record.Status
	if input.Status != "" {
		status = record.Status(strings.ToUpper(strings.TrimSpace(input.Status)))
		if !status.Valid() {
			return nil, errors.NewInvalidRequest("status must be one of: QUEUED, COMPLETED, ERROR")
		}
	}

	since, hasSince, err := parseBound("since", input.Since)
	if err != nil {
		return nil, err
	}
	until, hasUntil, err := parseBound("until", input.Until)
	if err != nil {
		return nil, err
	}

	search := strings.TrimSpace(input.Search)
	tagKey := record.TagKey(input.Tag)

	matched := make([]record.CallRecord, 0, len(calls))
	for _, c := range calls {
		if search != "" && !containsFold(c.ContactName, search) && !containsFold(c.Transcript, search) {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		if tagKey != "" && !hasTag(c, tagKey) {
			continue
		}
		if input.Contact != "" && !matchesContact(c, input.Contact, input.Contact) {
			continue
		}
		if hasSince || hasUntil {
			ts, ok := parseTimestamp(c.Timestamp)
			if !ok || (hasSince && ts.Before(since)) || (hasUntil && ts.After(until)) {
				continue
			}
		}
		matched = append(matched, c)
	}

	switch sortBy {
	case SortNewest:
		slices.SortStableFunc(matched, func(a, b record.CallRecord) int {
			return newerFirst(a.Timestamp, b.Timestamp)
		})
	case SortOldest:
		slices.SortStableFunc(matched, func(a, b record.CallRecord) int {
			return olderFirst(a.Timestamp, b.Timestamp)
		})
	}

	lo, hi, page := paginate(len(matched), input.Limit, input.Offset, DefaultListLimit, MaxListLimit)
	items := record.CloneCalls(matched[lo:hi])

	return &ListCallsOutput{
		Items:      items,
		Pagination: page,
		Sort:       sortBy,
	}, nil
}

func parseBound(name, s string) (t time.Time, ok bool, err error) {
	if strings.TrimSpace(s) == "" {
		return t, false, nil
	}
	t, ok = parseTimestamp(s)
	if !ok {
		return t, false, errors.NewInvalidRequest(name + " is not a recognizable date: " + s)
	}
	return t, true, nil
}

func hasTag(c record.CallRecord, key string) bool {
	for _, t := range c.Tags {
		if record.TagKey(t) == key {
			return true
		}
	}
	if c.ExecutiveBrief != nil {
		for _, t := range c.ExecutiveBrief.Tags {
			if record.TagKey(t) == key {
				return true
			}
		}
	}
	return false
}

// matchesContact compares by phone digits when both sides have them, and
// by case-insensitive name otherwise.
func matchesContact(c record.CallRecord, phone, name string) bool {
	want := record.PhoneDigits(phone)
	if want != "" {
		if got := record.PhoneDigits(c.PhoneNumber); got != "" && got == want {
			return true
		}
	}
	name = strings.TrimSpace(name)
	return name != "" && strings.EqualFold(strings.TrimSpace(c.ContactName), name)
}

// FetchCallInput contains parameters for the FetchCall operation.
type FetchCallInput struct {
	ID string
}

// FetchCall returns a copy of the call with the given id.
func FetchCall(calls []record.CallRecord, input FetchCallInput) (*record.CallRecord, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	for _, c := range calls {
		if c.ID == id {
			out := c.Clone()
			return &out, nil
		}
	}
	return nil, errors.NewNotFound("call", id)
}

// ActionItemsOutput lists calls carrying action items.
type ActionItemsOutput struct {
	Items      []record.CallRecord `json:"items"`
	TotalItems int                 `json:"total_action_items"`
}

// ActionItems returns calls with at least one action item, newest first.
func ActionItems(calls []record.CallRecord) *ActionItemsOutput {
	out := &ActionItemsOutput{Items: []record.CallRecord{}}
	for _, c := range calls {
		if c.HasActionItems() {
			out.Items = append(out.Items, c.Clone())
			out.TotalItems += len(c.ExecutiveBrief.ActionItems)
		}
	}
	slices.SortStableFunc(out.Items, func(a, b record.CallRecord) int {
		return newerFirst(a.Timestamp, b.Timestamp)
	})
	return out
}

// ContactCallsInput identifies a contact by phone, name, or both.
type ContactCallsInput struct {
	Phone string
	Name  string
}

// ContactCalls returns the calls belonging to a contact, newest first.
func ContactCalls(calls []record.CallRecord, input ContactCallsInput) ([]record.CallRecord, error) {
	if record.PhoneDigits(input.Phone) == "" && strings.TrimSpace(input.Name) == "" {
		return nil, errors.NewInvalidRequest("phone or name is required")
	}
	out := []record.CallRecord{}
	for _, c := range calls {
		if matchesContact(c, input.Phone, input.Name) {
			out = append(out, c.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b record.CallRecord) int {
		return newerFirst(a.Timestamp, b.Timestamp)
	})
	return out, nil
}
