package ops

import (
	"cmp"
	"slices"
	"strings"

	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/record"
)

// Contact sort orders.
const (
	SortAlpha  = "alpha"
	SortRecent = "recent"
	SortStats  = "stats"
)

// ListContactsInput contains parameters for the ListContacts operation.
type ListContactsInput struct {
	Search string // name (case-insensitive) or phone substring
	Sort   string // alpha (default), recent, stats
	Limit  int    // default: 100, max: 500
	Offset int    // default: 0
}

// ListContactsOutput contains the result of the ListContacts operation.
type ListContactsOutput struct {
	Items      []record.Contact `json:"items"`
	Pagination Pagination       `json:"pagination"`
	Sort       string           `json:"sort"`
}

// ListContacts filters, sorts and pages contacts.
func ListContacts(contacts []record.Contact, input ListContactsInput) (*ListContactsOutput, error) {
	sortBy := strings.ToLower(strings.TrimSpace(input.Sort))
	if sortBy == "" {
		sortBy = SortAlpha
	}
	var less func(a, b record.Contact) int
	switch sortBy {
	case SortAlpha:
		less = func(a, b record.Contact) int {
			return cmp.Or(
				cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
				cmp.Compare(a.Name, b.Name),
			)
		}
	case SortRecent:
		less = func(a, b record.Contact) int { return newerFirst(a.LastContacted, b.LastContacted) }
	case SortStats:
		less = func(a, b record.Contact) int { return cmp.Compare(b.TotalCalls, a.TotalCalls) }
	default:
		return nil, errors.NewInvalidRequest("sort must be one of: alpha, recent, stats")
	}

	search := strings.TrimSpace(input.Search)
	matched := make([]record.Contact, 0, len(contacts))
	for _, c := range contacts {
		if search == "" || containsFold(c.Name, search) || containsFold(c.Organization, search) || strings.Contains(c.Phone, search) {
			matched = append(matched, c)
		}
	}
	slices.SortStableFunc(matched, less)

	lo, hi, page := paginate(len(matched), input.Limit, input.Offset, DefaultContactLimit, MaxContactLimit)
	return &ListContactsOutput{
		Items:      record.CloneContacts(matched[lo:hi]),
		Pagination: page,
		Sort:       sortBy,
	}, nil
}
