package acr

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `<!DOCTYPE html>
<html><body>
<ul>
  <li><a href="view?job=db&id=3">Kiana Stewart @ 11:27 AM</a>
      <p class="tab note">00:00 Hi Kiana here   about the quote 01:15</p></li>
  <li><a href="view?job=db&id=2">+1 555-010-2030 @ 9:05 AM</a>
      <p class="tab note">Calling back about the invoice 00:42</p></li>
  <li class="date-header"> Jan 28, 2026 </li>
  <li><a href="view?job=db&id=1">Bob @ 4:00 PM</a><p class="tab note">ok 00:10</p></li>
  <li><a href="view?job=db">No separator here</a><p class="tab note">long enough text</p></li>
  <li><a href="view?job=db&id=0">Dana @ 3:00 PM</a><p class="note">wrong classes</p></li>
  <li class="date-header">Jan 27, 2026</li>
  <li><a href="view?job=db&id=9">Orphan @ 1:00 PM</a><p class="tab note">before any header</p></li>
  <li><span>settings</span></li>
</ul>
</body></html>`

func TestParse(t *testing.T) {
	rows, stats, err := Parse(strings.NewReader(sampleExport), nil)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, Row{
		ContactName: UnknownContact,
		PhoneNumber: "+1 555-010-2030",
		Timestamp:   "2026-01-28T09:05:00.000Z",
		Duration:    "00:42",
		Transcript:  "Calling back about the invoice",
		Status:      "completed",
	}, rows[0])
	assert.Equal(t, Row{
		ContactName: "Kiana Stewart",
		Timestamp:   "2026-01-28T11:27:00.000Z",
		Duration:    "01:15",
		Transcript:  "Hi Kiana here about the quote",
		Status:      "completed",
	}, rows[1])

	assert.Equal(t, Stats{
		Items:           9,
		NoLink:          1,
		Orphan:          1,
		BadFormat:       1,
		NoNote:          1,
		ShortTranscript: 1,
	}, stats)
	assert.Equal(t, 5, stats.Skipped())
}

func TestParse_Location(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	page := `<ul><li><a href="?job=db">Sam @ 11:00 PM</a><p class="tab note">late night call</p></li>
<li class="date-header">Jan 28, 2026</li></ul>`

	rows, _, err := Parse(strings.NewReader(page), loc)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-01-29T04:00:00.000Z", rows[0].Timestamp)
	assert.Equal(t, "00:00", rows[0].Duration)
}

func TestParse_BadDate(t *testing.T) {
	page := `<ul><li><a href="?job=db">Sam @ teatime</a><p class="tab note">some call text</p></li>
<li class="date-header">Someday</li></ul>`

	rows, stats, err := Parse(strings.NewReader(page), nil)

	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1, stats.BadDate)
}

func TestParse_Empty(t *testing.T) {
	rows, stats, err := Parse(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.Zero(t, stats.Items)
}
