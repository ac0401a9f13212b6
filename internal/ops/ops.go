// Package ops implements the read-side queries behind every surface
// (web, MCP, CLI). Each operation is a pure function over the in-memory
// collections held by the datastore.
package ops

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Pagination limits
const (
	DefaultListLimit    = 20
	MaxListLimit        = 100
	DefaultContactLimit = 100
	MaxContactLimit     = 500
	RecentBriefCount    = 3
	TopTagCount         = 5
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// paginate clamps limit and offset and returns the window bounds.
func paginate(total, limit, offset, defLimit, maxLimit int) (lo, hi int, p Pagination) {
	if limit <= 0 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = max(offset, 0)

	lo = min(offset, total)
	hi = min(lo+limit, total)
	return lo, hi, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: hi < total,
		Total:   total,
	}
}

// parseTimestamp reads a record timestamp. ok is false for blank or
// unparseable values.
func parseTimestamp(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// newerFirst orders two timestamps descending, with unparseable ones last.
func newerFirst(a, b string) int {
	return byTimestamp(a, b, true)
}

// olderFirst orders two timestamps ascending, with unparseable ones last.
func olderFirst(a, b string) int {
	return byTimestamp(a, b, false)
}

func byTimestamp(a, b string, desc bool) int {
	ta, okA := parseTimestamp(a)
	tb, okB := parseTimestamp(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	if desc {
		return tb.Compare(ta)
	}
	return ta.Compare(tb)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
