package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/record"
)

// Person is a directory lookup result.
type Person struct {
	Found        bool   `json:"found"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
	Title        string `json:"title,omitempty"`
	PhotoURL     string `json:"photoUrl,omitempty"`
	ResourceName string `json:"resourceName,omitempty"`
	Etag         string `json:"etag,omitempty"`
}

// PersonUpdate carries editable directory fields. ResourceName and Etag
// identify the record and guard against concurrent edits.
type PersonUpdate struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
	Title        string `json:"title,omitempty"`
	ResourceName string `json:"resourceName,omitempty"`
	Etag         string `json:"etag,omitempty"`
}

// UpdatePersonResult is the backend's reply to update_person.
type UpdatePersonResult struct {
	Status  string  `json:"status"`
	Person  *Person `json:"person,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Model is one generative model the backend can use.
type Model struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// TestResult is one backend self-test outcome.
type TestResult struct {
	Test    string `json:"test"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthReport is the run_tests payload.
type HealthReport struct {
	Status  string       `json:"status"`
	Results []TestResult `json:"results"`
}

// Healthy reports whether the backend declared itself healthy.
func (h *HealthReport) Healthy() bool {
	return h != nil && h.Status == "healthy"
}

// UpdatePerson writes contact fields back to the directory.
func (c *Client) UpdatePerson(ctx context.Context, update PersonUpdate) (*UpdatePersonResult, error) {
	if strings.TrimSpace(update.ResourceName) == "" {
		return nil, errors.NewInvalidRequest("resourceName is required")
	}
	payload := struct {
		Action string `json:"action"`
		PersonUpdate
	}{Action: "update_person", PersonUpdate: update}

	body, err := c.do(ctx, request{
		label:   "update_person",
		method:  http.MethodPost,
		body:    payload,
		pending: "Updating contact: " + update.Name,
	})
	if err != nil {
		return nil, err
	}

	var res UpdatePersonResult
	if err := decode(body, &res); err != nil {
		return nil, err
	}
	if res.Status != "success" {
		msg := res.Message
		if msg == "" {
			msg = "Update failed"
		}
		return &res, errors.NewUpstream(msg)
	}
	c.success(http.MethodPost, "Contact updated")
	return &res, nil
}

// analyzeResponse is the analyze_text reply; data is decoded leniently.
type analyzeResponse struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// AnalyzeText asks the backend to generate a brief for transcript.
func (c *Client) AnalyzeText(ctx context.Context, transcript string) (*record.ExecutiveBrief, error) {
	body, err := c.do(ctx, request{
		label:   "analyze_text",
		method:  http.MethodPost,
		body:    map[string]string{"action": "analyze_text", "transcript": transcript},
		pending: "Requesting analysis",
	})
	if err != nil {
		return nil, err
	}

	var res analyzeResponse
	if err := decode(body, &res); err != nil {
		return nil, err
	}
	if res.Status != "success" {
		msg := res.Message
		if msg == "" {
			msg = "Analysis failed"
		}
		return nil, errors.NewUpstream(msg)
	}
	brief, err := record.ParseBrief(res.Data, nil)
	if err != nil {
		return nil, errors.NewUpstream("analysis returned no brief")
	}
	c.success(http.MethodPost, "Analysis complete")
	return brief, nil
}

// SearchPerson looks up query (a name, email or phone) in the directory.
func (c *Client) SearchPerson(ctx context.Context, query string) (*Person, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	body, err := c.do(ctx, request{
		action:  "search_person",
		method:  http.MethodGet,
		query:   url.Values{"query": {query}},
		pending: "Searching directory",
	})
	if err != nil {
		return nil, err
	}

	var p Person
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	c.success(http.MethodGet, "Directory search complete")
	return &p, nil
}

// ListModels returns the models available to the backend's analyzer.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	body, err := c.do(ctx, request{action: "list_models", method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	var res struct {
		Models []Model `json:"models"`
	}
	if err := decode(body, &res); err != nil {
		return nil, err
	}
	if res.Models == nil {
		res.Models = []Model{}
	}
	c.success(http.MethodGet, "Models listed")
	return res.Models, nil
}

// RunTests triggers the backend self-tests.
func (c *Client) RunTests(ctx context.Context) (*HealthReport, error) {
	body, err := c.do(ctx, request{action: "run_tests", method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	var report HealthReport
	if err := decode(body, &report); err != nil {
		return nil, err
	}
	c.success(http.MethodGet, "Diagnostics: "+report.Status)
	return &report, nil
}

// TestGemini runs the backend's model connectivity check. The payload is
// returned as-is.
func (c *Client) TestGemini(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, request{action: "test_gemini", method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.NewUpstream("invalid JSON from backend")
	}
	c.success(http.MethodGet, "Gemini check complete")
	return json.RawMessage(body), nil
}
