// Package acr imports HTML call-log exports from the ACR Phone recorder:
// it parses the export into backend rows and uploads them in batches.
package acr

import (
	"io"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/net/html"

	"github.com/horizonprm/horizon/internal/metrics"
	"github.com/horizonprm/horizon/internal/record"
)

// MinTranscriptChars is the shortest transcript kept after cleanup.
const MinTranscriptChars = 5

// UnknownContact names callers recorded only by number.
const UnknownContact = "Unknown"

// Row is one parsed call in the backend's ingest format.
type Row struct {
	ContactName string `json:"contact_name"`
	PhoneNumber string `json:"phone_number"`
	Timestamp   string `json:"timestamp"`
	Duration    string `json:"duration"`
	Transcript  string `json:"transcript"`
	Status      string `json:"status"`
}

// Stats counts the list items skipped and why.
type Stats struct {
	Items           int `json:"items"`
	NoLink          int `json:"skipped_no_link"`
	Orphan          int `json:"skipped_orphan"`
	BadFormat       int `json:"skipped_bad_format"`
	BadDate         int `json:"skipped_bad_date"`
	NoNote          int `json:"skipped_no_note"`
	ShortTranscript int `json:"skipped_short_transcript"`
}

// Skipped is the total of all skip reasons.
func (s Stats) Skipped() int {
	return s.NoLink + s.Orphan + s.BadFormat + s.BadDate + s.NoNote + s.ShortTranscript
}

var (
	clockRe        = regexp.MustCompile(`\d{2}:\d{2}`)
	leadingZeroRe  = regexp.MustCompile(`^\s*00:00\s*`)
	spaceRe        = regexp.MustCompile(`\s+`)
	phoneNoiseRe   = regexp.MustCompile(`[+\s-]`)
	digitsOnlyRe   = regexp.MustCompile(`^\d+$`)
	detailLinkHref = "job=db"
)

// Parse reads an export and returns its calls, oldest first. Each day's
// date header follows that day's calls in the document, so items are
// walked from the bottom up and every call takes the date of the last
// header seen. Times are interpreted in loc (UTC when nil).
func Parse(r io.Reader, loc *time.Location) ([]Row, Stats, error) {
	if loc == nil {
		loc = time.UTC
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, Stats{}, err
	}

	var items []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" {
			items = append(items, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(doc)
	slices.Reverse(items)

	stats := Stats{Items: len(items)}
	rows := []Row{}
	currentDate := ""

	for _, li := range items {
		if hasClass(li, "date-header") {
			currentDate = strings.TrimSpace(textOf(li))
			continue
		}

		link := find(li, func(n *html.Node) bool {
			return n.Data == "a" && strings.Contains(attr(n, "href"), detailLinkHref)
		})
		if link == nil {
			stats.NoLink++
			continue
		}
		if currentDate == "" {
			stats.Orphan++
			continue
		}

		title := strings.TrimSpace(textOf(link))
		at := strings.LastIndex(title, " @ ")
		if at < 0 {
			stats.BadFormat++
			continue
		}
		who := strings.TrimSpace(title[:at])
		clock := strings.TrimSpace(title[at+3:])

		contact, phone := who, ""
		if digitsOnlyRe.MatchString(phoneNoiseRe.ReplaceAllString(who, "")) {
			contact, phone = UnknownContact, who
		}

		ts, err := parseWhen(currentDate, clock, loc)
		if err != nil {
			stats.BadDate++
			continue
		}

		note := find(li, func(n *html.Node) bool {
			return n.Data == "p" && hasClass(n, "tab") && hasClass(n, "note")
		})
		if note == nil {
			stats.NoNote++
			continue
		}

		text := leadingZeroRe.ReplaceAllString(textOf(note), "")
		duration := "00:00"
		if clocks := clockRe.FindAllString(text, -1); len(clocks) > 0 {
			duration = clocks[len(clocks)-1]
		}
		transcript := strings.TrimSpace(spaceRe.ReplaceAllString(clockRe.ReplaceAllString(text, ""), " "))
		if len(transcript) < MinTranscriptChars {
			stats.ShortTranscript++
			continue
		}

		rows = append(rows, Row{
			ContactName: contact,
			PhoneNumber: phone,
			Timestamp:   record.FormatISO(ts),
			Duration:    duration,
			Transcript:  transcript,
			Status:      "completed",
		})
	}

	metrics.ImportedRows.WithLabelValues("parsed").Add(float64(len(rows)))
	metrics.ImportedRows.WithLabelValues("skipped").Add(float64(stats.Skipped()))
	return rows, stats, nil
}

// exportLayouts are the header/time formats the recorder writes. Anything
// else goes through dateparse.
var exportLayouts = []string{
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
	"January 2, 2006 3:04 PM",
}

func parseWhen(date, clock string, loc *time.Location) (time.Time, error) {
	s := date + " " + clock
	for _, layout := range exportLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return dateparse.ParseIn(s, loc)
}

// find returns the first element below n (depth-first) matching match.
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
