package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/horizonprm/horizon/internal/connlog"
	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/metrics"
	"github.com/horizonprm/horizon/internal/record"
)

// Dataset is a fully normalized backend snapshot.
type Dataset struct {
	Calls    []record.CallRecord `json:"calls"`
	Contacts []record.Contact    `json:"contacts"`
}

// fetchResponse is the GET payload. logs and contacts stay raw so a
// non-array value degrades to an empty list instead of failing the fetch.
type fetchResponse struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	Logs     json.RawMessage `json:"logs"`
	Contacts json.RawMessage `json:"contacts"`
}

// FetchAll reads every call and contact. It returns nil, nil when no
// endpoint is configured; callers treat that as mock-data mode.
func (c *Client) FetchAll(ctx context.Context) (*Dataset, error) {
	if !c.Configured() {
		msg := "Backend URL not configured. Using mock data fallback."
		c.connlog.AddLog(connlog.TypeWarning, http.MethodGet, notConfiguredURL, msg, nil)
		return nil, nil
	}

	body, err := c.do(ctx, request{
		label:   "fetch_all",
		method:  http.MethodGet,
		pending: "Fetching data...",
	})
	if err != nil {
		return nil, err
	}

	var resp fetchResponse
	if err := decode(body, &resp); err != nil {
		c.connlog.AddLog(connlog.TypeError, http.MethodGet, c.url, errors.As(err).Message, nil)
		return nil, err
	}
	if resp.Status == "error" {
		msg := resp.Message
		if msg == "" {
			msg = "Server returned an error"
		}
		c.connlog.AddLog(connlog.TypeError, http.MethodGet, c.url, msg, nil)
		return nil, errors.NewUpstream(msg)
	}

	logs := decodeRows[record.RawLog](resp.Logs)
	contacts := decodeRows[record.RawContact](resp.Contacts)

	ds := &Dataset{
		Calls:    record.TransformLogs(logs),
		Contacts: record.TransformContacts(contacts),
	}
	for _, call := range ds.Calls {
		metrics.NormalizedRecords.WithLabelValues(string(call.Status)).Inc()
	}

	c.success(http.MethodGet, fmt.Sprintf("Fetched %d calls, %d contacts", len(ds.Calls), len(ds.Contacts)))
	return ds, nil
}

// decodeRows decodes a JSON array of rows. Anything else, including a
// malformed array, yields an empty list.
func decodeRows[T any](raw json.RawMessage) []T {
	var rows []T
	if len(raw) == 0 || raw[0] != '[' {
		return []T{}
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return []T{}
	}
	return rows
}

// callPayload is the row shape the backend appends on POST.
type callPayload struct {
	ContactName    string `json:"contact_name"`
	PhoneNumber    string `json:"phone_number"`
	Transcript     string `json:"transcript"`
	Duration       int    `json:"duration"`
	StrategicNotes string `json:"strategic_notes"`
	Tags           string `json:"tags"`
	Status         string `json:"status"`
}

// NewCallPayload converts a record into the backend's row shape. The brief
// travels as JSON in strategic_notes so the next fetch restores it.
func NewCallPayload(call record.CallRecord) (any, error) {
	p := callPayload{
		ContactName: call.ContactName,
		PhoneNumber: call.PhoneNumber,
		Transcript:  call.Transcript,
		Duration:    record.ParseDurationSeconds(call.Duration),
		Status:      string(call.Status),
		Tags:        strings.Join(call.Tags, ","),
	}
	if call.ExecutiveBrief != nil {
		data, err := json.Marshal(call.ExecutiveBrief)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		p.StrategicNotes = string(data)
		if len(call.ExecutiveBrief.Tags) > 0 {
			p.Tags = strings.Join(call.ExecutiveBrief.Tags, ",")
		}
	}
	return p, nil
}

// PostCall appends a call to the backend sheet.
func (c *Client) PostCall(ctx context.Context, call record.CallRecord) error {
	payload, err := NewCallPayload(call)
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, request{
		label:   "post_call",
		method:  http.MethodPost,
		body:    payload,
		pending: "Transmitting call: " + call.ContactName,
	}); err != nil {
		return err
	}
	c.success(http.MethodPost, "Data transmitted successfully")
	return nil
}

// PostBatch uploads rows as one JSON array and returns the raw response text.
func (c *Client) PostBatch(ctx context.Context, rows any) (string, error) {
	body, err := c.do(ctx, request{
		label:   "post_batch",
		method:  http.MethodPost,
		body:    rows,
		pending: "Uploading batch",
	})
	if err != nil {
		return "", err
	}
	c.success(http.MethodPost, "Batch uploaded")
	return string(body), nil
}
