package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/horizonprm/horizon/internal/analysis"
	"github.com/horizonprm/horizon/internal/app"
	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	app *app.App
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(a *app.App) *Handlers {
	return &Handlers{app: a}
}

// Request types for each tool

// ListCallsRequest represents the arguments for list_calls.
type ListCallsRequest struct {
	Search  string `json:"search,omitempty"`
	Status  string `json:"status,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Contact string `json:"contact,omitempty"`
	Since   string `json:"since,omitempty"`
	Until   string `json:"until,omitempty"`
	Sort    string `json:"sort,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// IDRequest represents tools addressed by a single id.
type IDRequest struct {
	ID string `json:"id"`
}

// AddCallRequest represents the arguments for add_call.
type AddCallRequest struct {
	Transcript  string   `json:"transcript"`
	ContactName string   `json:"contact_name,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Analyze     bool     `json:"analyze,omitempty"`
	Persona     string   `json:"persona,omitempty"`
}

// ArchiveRequest represents the arguments for archive_calls.
type ArchiveRequest struct {
	IDs []string `json:"ids"`
}

// ListContactsRequest represents the arguments for list_contacts.
type ListContactsRequest struct {
	Search string `json:"search,omitempty"`
	Sort   string `json:"sort,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ContactCallsRequest represents the arguments for contact_calls.
type ContactCallsRequest struct {
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
}

// AnalyzeRequest represents the arguments for analyze.
type AnalyzeRequest struct {
	Transcript string `json:"transcript"`
	Persona    string `json:"persona,omitempty"`
}

// SearchPersonRequest represents the arguments for search_person.
type SearchPersonRequest struct {
	Query string `json:"query"`
}

// ConnectionLogRequest represents the arguments for connection_log.
type ConnectionLogRequest struct {
	Clear bool `json:"clear,omitempty"`
}

// Handler implementations

// HandleRefresh handles the refresh tool call. A failed fetch is not a tool
// error: the store falls back and the result reports the offline state.
func (h *Handlers) HandleRefresh(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = h.app.Store.Refresh(ctx)
	snap := h.app.Store.Snapshot()
	return successResult(map[string]any{
		"connection_status": snap.ConnectionStatus,
		"error":             snap.Error,
		"calls":             len(snap.Calls),
		"contacts":          len(snap.Contacts),
		"refreshed_at":      snap.RefreshedAt,
	})
}

// HandleListCalls handles the list_calls tool call.
func (h *Handlers) HandleListCalls(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListCallsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ListCalls(h.app.Store.Snapshot().Calls, ops.ListCallsInput{
		Search:  input.Search,
		Status:  input.Status,
		Tag:     input.Tag,
		Contact: input.Contact,
		Since:   input.Since,
		Until:   input.Until,
		Sort:    input.Sort,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGetCall handles the get_call tool call.
func (h *Handlers) HandleGetCall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.FetchCall(h.app.Store.Snapshot().Calls, ops.FetchCallInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAddCall handles the add_call tool call.
func (h *Handlers) HandleAddCall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddCallRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	call, item, err := h.app.CreateCall(ctx, app.NewCall{
		Transcript:  input.Transcript,
		ContactName: input.ContactName,
		PhoneNumber: input.PhoneNumber,
		Timestamp:   input.Timestamp,
		Duration:    input.Duration,
		Tags:        input.Tags,
		Analyze:     input.Analyze,
		Persona:     input.Persona,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"call":       call,
		"history_id": item.ID,
	})
}

// HandleArchiveCalls handles the archive_calls tool call.
func (h *Handlers) HandleArchiveCalls(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ArchiveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	archived, err := h.app.ArchiveCalls(ctx, input.IDs)
	if err != nil {
		return errorResult(err), nil
	}

	ids := make([]string, 0, len(archived))
	for _, c := range archived {
		ids = append(ids, c.ID)
	}
	return successResult(map[string]any{
		"archived":   ids,
		"history_id": h.app.History.Items()[0].ID,
	})
}

// HandleListContacts handles the list_contacts tool call.
func (h *Handlers) HandleListContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListContactsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ListContacts(h.app.Store.Snapshot().Contacts, ops.ListContactsInput{
		Search: input.Search,
		Sort:   input.Sort,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleContactCalls handles the contact_calls tool call.
func (h *Handlers) HandleContactCalls(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ContactCallsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	calls, err := ops.ContactCalls(h.app.Store.Snapshot().Calls, ops.ContactCallsInput{
		Phone: input.Phone,
		Name:  input.Name,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"items": calls})
}

// HandleDashboard handles the dashboard tool call.
func (h *Handlers) HandleDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := h.app.Store.Snapshot()
	return successResult(ops.Dashboard(snap.Calls, snap.Contacts, ops.DashboardInput{}))
}

// HandleActionItems handles the action_items tool call.
func (h *Handlers) HandleActionItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.ActionItems(h.app.Store.Snapshot().Calls))
}

// HandleAnalyze handles the analyze tool call.
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Persona != "" {
		if _, err := analysis.LookupPersona(input.Persona); err != nil {
			return errorResult(err), nil
		}
	}

	brief, err := h.app.Analyze(ctx, input.Transcript, input.Persona)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(brief)
}

// HandleSearchPerson handles the search_person tool call.
func (h *Handlers) HandleSearchPerson(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchPersonRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	person, err := h.app.Client.SearchPerson(ctx, input.Query)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(person)
}

// HandleConnectionLog handles the connection_log tool call.
func (h *Handlers) HandleConnectionLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ConnectionLogRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	entries := h.app.ConnLog.Entries()
	if input.Clear {
		h.app.ConnLog.Clear()
	}
	return successResult(map[string]any{"entries": entries})
}

// HandleHistory handles the history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{"items": h.app.History.Items()})
}

// HandleRevert handles the revert tool call.
func (h *Handlers) HandleRevert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	item, err := h.app.History.Revert(input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(item)
}

// Result helpers

// errorResult creates an MCP error result from any error. Internal error
// details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	hErr := errors.As(err)
	errorObj := map[string]any{
		"code":    hErr.Code,
		"message": hErr.Message,
		"status":  hErr.Status,
	}
	if hErr.Code == errors.ErrInternal {
		errorObj["message"] = "an internal error occurred"
	} else if hErr.Details != nil {
		errorObj["details"] = hErr.Details
	}
	payload := map[string]any{"error": errorObj}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
