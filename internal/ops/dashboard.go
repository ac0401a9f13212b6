package ops

import (
	"slices"
	"time"

	"github.com/horizonprm/horizon/internal/record"
)

// DayCount is the number of calls that fell on one weekday.
type DayCount struct {
	Day   string `json:"day"`
	Calls int    `json:"calls"`
}

// DashboardInput contains parameters for the Dashboard operation.
type DashboardInput struct {
	Location *time.Location // weekday bucketing zone, default time.Local
}

// DashboardOutput summarizes the current collections.
type DashboardOutput struct {
	CallCount       int                   `json:"call_count"`
	ContactCount    int                   `json:"contact_count"`
	BriefCount      int                   `json:"brief_count"`
	ActionItemCount int                   `json:"action_item_count"`
	StatusCounts    map[record.Status]int `json:"status_counts"`
	RecentBriefs    []record.CallRecord   `json:"recent_briefs"`
	Weekdays        []DayCount            `json:"weekdays"`
	TopTags         []record.TagCount     `json:"top_tags"`
}

// weekdayOrder starts the week on Monday.
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Dashboard computes the overview figures. Calls with unparseable
// timestamps are counted everywhere except the weekday histogram.
func Dashboard(calls []record.CallRecord, contacts []record.Contact, input DashboardInput) *DashboardOutput {
	loc := input.Location
	if loc == nil {
		loc = time.Local
	}

	out := &DashboardOutput{
		CallCount:    len(calls),
		ContactCount: len(contacts),
		StatusCounts: map[record.Status]int{
			record.StatusQueued:    0,
			record.StatusCompleted: 0,
			record.StatusError:     0,
		},
		RecentBriefs: []record.CallRecord{},
	}

	var perDay [7]int
	for _, c := range calls {
		out.StatusCounts[c.Status]++
		if c.ExecutiveBrief != nil {
			out.BriefCount++
			out.ActionItemCount += len(c.ExecutiveBrief.ActionItems)
			out.RecentBriefs = append(out.RecentBriefs, c)
		}
		if ts, ok := parseTimestamp(c.Timestamp); ok {
			perDay[ts.In(loc).Weekday()]++
		}
	}

	slices.SortStableFunc(out.RecentBriefs, func(a, b record.CallRecord) int {
		return newerFirst(a.Timestamp, b.Timestamp)
	})
	if len(out.RecentBriefs) > RecentBriefCount {
		out.RecentBriefs = out.RecentBriefs[:RecentBriefCount]
	}
	out.RecentBriefs = record.CloneCalls(out.RecentBriefs)

	out.Weekdays = make([]DayCount, 0, len(weekdayOrder))
	for _, d := range weekdayOrder {
		out.Weekdays = append(out.Weekdays, DayCount{Day: d.String()[:3], Calls: perDay[d]})
	}

	out.TopTags = record.CountTags(calls)
	if len(out.TopTags) > TopTagCount {
		out.TopTags = out.TopTags[:TopTagCount]
	}
	return out
}
