package ops

import (
	"fmt"
	"testing"
	"time"

	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/record"
)

func testCalls() []record.CallRecord {
	calls := record.MockCalls()
	calls = append(calls,
		record.CallRecord{
			ID:          "log-q1",
			Timestamp:   "2024-05-22T08:00:00.000Z",
			ContactName: "Sarah Miller",
			PhoneNumber: "(555) 020-304",
			Transcript:  "Quick check-in about the Quantum renewal",
			Tags:        []string{"#renewal"},
			Status:      record.StatusQueued,
		},
		record.CallRecord{
			ID:          "log-e1",
			Timestamp:   "not a date",
			ContactName: record.UnknownCaller,
			Transcript:  "garbled",
			Tags:        []string{record.ErrorTag},
			Status:      record.StatusError,
		},
	)
	return calls
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		total, limit, offset int
		wantLo, wantHi       int
		wantLimit            int
		wantMore             bool
	}{
		{total: 5, limit: 0, offset: 0, wantLo: 0, wantHi: 5, wantLimit: 20},
		{total: 50, limit: 10, offset: 0, wantLo: 0, wantHi: 10, wantLimit: 10, wantMore: true},
		{total: 50, limit: 1000, offset: 0, wantLo: 0, wantHi: 50, wantLimit: 100},
		{total: 5, limit: 2, offset: -3, wantLo: 0, wantHi: 2, wantLimit: 2, wantMore: true},
		{total: 5, limit: 2, offset: 10, wantLo: 5, wantHi: 5, wantLimit: 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d/%d", tt.total, tt.limit, tt.offset), func(t *testing.T) {
			lo, hi, p := paginate(tt.total, tt.limit, tt.offset, DefaultListLimit, MaxListLimit)
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("window = [%d,%d), want [%d,%d)", lo, hi, tt.wantLo, tt.wantHi)
			}
			if p.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", p.Limit, tt.wantLimit)
			}
			if p.HasMore != tt.wantMore {
				t.Errorf("HasMore = %v, want %v", p.HasMore, tt.wantMore)
			}
			if p.Total != tt.total {
				t.Errorf("Total = %d, want %d", p.Total, tt.total)
			}
		})
	}
}

func TestListCalls_Filters(t *testing.T) {
	tests := []struct {
		name    string
		input   ListCallsInput
		wantIDs []string
	}{
		{"no filter keeps stored order", ListCallsInput{}, []string{"rec1", "rec2", "log-q1", "log-e1"}},
		{"search name", ListCallsInput{Search: "rodriguez"}, []string{"rec2"}},
		{"search matches name or transcript", ListCallsInput{Search: "elena"}, []string{"rec1", "rec2"}},
		{"search transcript", ListCallsInput{Search: "QUANTUM"}, []string{"log-q1"}},
		{"status", ListCallsInput{Status: "queued"}, []string{"log-q1"}},
		{"tag without hash", ListCallsInput{Tag: "legal"}, []string{"rec2"}},
		{"tag with hash", ListCallsInput{Tag: "#Error"}, []string{"log-e1"}},
		{"contact by phone", ListCallsInput{Contact: "+1 555 010 203"}, []string{"rec1"}},
		{"contact by name", ListCallsInput{Contact: "sarah miller"}, []string{"log-q1"}},
		{"since drops unparseable", ListCallsInput{Since: "2024-05-20 12:00"}, []string{"rec1", "log-q1"}},
		{"until", ListCallsInput{Until: "2024-05-20"}, []string{}},
		{"newest", ListCallsInput{Sort: "newest"}, []string{"log-q1", "rec1", "rec2", "log-e1"}},
		{"oldest keeps unparseable last", ListCallsInput{Sort: "oldest"}, []string{"rec2", "rec1", "log-q1", "log-e1"}},
		{"paged", ListCallsInput{Sort: "newest", Limit: 2, Offset: 1}, []string{"rec1", "rec2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ListCalls(testCalls(), tt.input)
			if err != nil {
				t.Fatalf("ListCalls failed: %v", err)
			}
			got := callIDs(out.Items)
			if fmt.Sprint(got) != fmt.Sprint(tt.wantIDs) {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestListCalls_Invalid(t *testing.T) {
	for _, input := range []ListCallsInput{
		{Sort: "sideways"},
		{Status: "DONE"},
		{Since: "whenever"},
	} {
		_, err := ListCalls(testCalls(), input)
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("ListCalls(%+v) error = %v, want INVALID_REQUEST", input, err)
		}
	}
}

func TestListCalls_ReturnsCopies(t *testing.T) {
	calls := testCalls()
	out, err := ListCalls(calls, ListCallsInput{})
	if err != nil {
		t.Fatalf("ListCalls failed: %v", err)
	}
	out.Items[0].ExecutiveBrief.Title = "changed"
	if calls[0].ExecutiveBrief.Title == "changed" {
		t.Error("ListCalls output aliases the input collection")
	}
	if out.Sort != SortStored {
		t.Errorf("Sort = %q, want %q", out.Sort, SortStored)
	}
}

func TestFetchCall(t *testing.T) {
	got, err := FetchCall(testCalls(), FetchCallInput{ID: " rec2 "})
	if err != nil {
		t.Fatalf("FetchCall failed: %v", err)
	}
	if got.ContactName != "Elena Rodriguez" {
		t.Errorf("ContactName = %q", got.ContactName)
	}

	if _, err := FetchCall(testCalls(), FetchCallInput{ID: "nope"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
	if _, err := FetchCall(testCalls(), FetchCallInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestActionItems(t *testing.T) {
	calls := testCalls()
	calls[0], calls[1] = calls[1], calls[0]

	out := ActionItems(calls)

	if got := callIDs(out.Items); fmt.Sprint(got) != "[rec1 rec2]" {
		t.Errorf("ids = %v, want [rec1 rec2]", got)
	}
	if out.TotalItems != 6 {
		t.Errorf("TotalItems = %d, want 6", out.TotalItems)
	}

	empty := ActionItems(nil)
	if empty.Items == nil || len(empty.Items) != 0 {
		t.Errorf("Items = %v, want empty non-nil", empty.Items)
	}
}

func TestContactCalls(t *testing.T) {
	got, err := ContactCalls(testCalls(), ContactCallsInput{Phone: "+1555040506"})
	if err != nil {
		t.Fatalf("ContactCalls failed: %v", err)
	}
	if ids := callIDs(got); fmt.Sprint(ids) != "[rec2]" {
		t.Errorf("ids = %v, want [rec2]", ids)
	}

	got, err = ContactCalls(testCalls(), ContactCallsInput{Phone: "999", Name: "Brandon Gilles"})
	if err != nil {
		t.Fatalf("ContactCalls failed: %v", err)
	}
	if ids := callIDs(got); fmt.Sprint(ids) != "[rec1]" {
		t.Errorf("ids = %v, want [rec1]", ids)
	}

	if _, err := ContactCalls(testCalls(), ContactCallsInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestListContacts(t *testing.T) {
	tests := []struct {
		name    string
		input   ListContactsInput
		wantIDs []string
	}{
		{"alpha default", ListContactsInput{}, []string{"1", "3", "4", "2"}},
		{"recent", ListContactsInput{Sort: "recent"}, []string{"1", "4", "2", "3"}},
		{"stats", ListContactsInput{Sort: "stats"}, []string{"4", "1", "2", "3"}},
		{"search name", ListContactsInput{Search: "CHEN"}, []string{"3"}},
		{"search phone", ListContactsInput{Search: "010203"}, []string{"1"}},
		{"search organization", ListContactsInput{Search: "logistics"}, []string{"4"}},
		{"paged", ListContactsInput{Limit: 1, Offset: 1}, []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ListContacts(record.MockContacts(), tt.input)
			if err != nil {
				t.Fatalf("ListContacts failed: %v", err)
			}
			var got []string
			for _, c := range out.Items {
				got = append(got, c.ID)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.wantIDs) {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
		})
	}

	if _, err := ListContacts(nil, ListContactsInput{Sort: "size"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestDashboard(t *testing.T) {
	out := Dashboard(testCalls(), record.MockContacts(), DashboardInput{Location: time.UTC})

	if out.CallCount != 4 || out.ContactCount != 4 {
		t.Errorf("counts = %d calls, %d contacts", out.CallCount, out.ContactCount)
	}
	if out.BriefCount != 2 {
		t.Errorf("BriefCount = %d, want 2", out.BriefCount)
	}
	if out.ActionItemCount != 6 {
		t.Errorf("ActionItemCount = %d, want 6", out.ActionItemCount)
	}
	if out.StatusCounts[record.StatusCompleted] != 2 || out.StatusCounts[record.StatusQueued] != 1 || out.StatusCounts[record.StatusError] != 1 {
		t.Errorf("StatusCounts = %v", out.StatusCounts)
	}
	if ids := callIDs(out.RecentBriefs); fmt.Sprint(ids) != "[rec1 rec2]" {
		t.Errorf("RecentBriefs = %v", ids)
	}

	// 2024-05-20 is a Monday, 2024-05-22 a Wednesday.
	want := []DayCount{
		{"Mon", 2}, {"Tue", 0}, {"Wed", 1}, {"Thu", 0}, {"Fri", 0}, {"Sat", 0}, {"Sun", 0},
	}
	if fmt.Sprint(out.Weekdays) != fmt.Sprint(want) {
		t.Errorf("Weekdays = %v, want %v", out.Weekdays, want)
	}
	if len(out.TopTags) != TopTagCount {
		t.Errorf("len(TopTags) = %d, want %d", len(out.TopTags), TopTagCount)
	}
}

func TestDashboard_RecentBriefsCapped(t *testing.T) {
	var calls []record.CallRecord
	for i := range 5 {
		calls = append(calls, record.CallRecord{
			ID:             fmt.Sprintf("c%d", i),
			Timestamp:      fmt.Sprintf("2024-06-0%dT10:00:00.000Z", i+1),
			ExecutiveBrief: &record.ExecutiveBrief{Title: "t"},
			Status:         record.StatusCompleted,
		})
	}

	out := Dashboard(calls, nil, DashboardInput{})

	if ids := callIDs(out.RecentBriefs); fmt.Sprint(ids) != "[c4 c3 c2]" {
		t.Errorf("RecentBriefs = %v, want [c4 c3 c2]", ids)
	}
}

func callIDs(calls []record.CallRecord) []string {
	ids := []string{}
	for _, c := range calls {
		ids = append(ids, c.ID)
	}
	return ids
}
