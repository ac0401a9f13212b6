package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stringItems = mcp.Items(map[string]any{"type": "string"})

var refreshToolDef = mcp.NewTool("horizon_refresh",
	mcp.WithDescription("Reload calls and contacts from the backend. Falls back to cached or sample data when the backend is unreachable."),
)

var listCallsToolDef = mcp.NewTool("horizon_list_calls",
	mcp.WithDescription("List call records with optional filters, with pagination."),
	mcp.WithString("search", mcp.Description("Case-insensitive match on contact name or transcript")),
	mcp.WithString("status", mcp.Description("QUEUED, COMPLETED or ERROR")),
	mcp.WithString("tag", mcp.Description("Only calls carrying this tag, e.g. #budget")),
	mcp.WithString("contact", mcp.Description("Phone number or contact name")),
	mcp.WithString("since", mcp.Description("Only calls at or after this date")),
	mcp.WithString("until", mcp.Description("Only calls at or before this date")),
	mcp.WithString("sort", mcp.Description("stored (default), newest or oldest")),
	mcp.WithNumber("limit", mcp.Description("Max results (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
)

var getCallToolDef = mcp.NewTool("horizon_get_call",
	mcp.WithDescription("Fetch one call record with its transcript and executive brief."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Call id")),
)

var addCallToolDef = mcp.NewTool("horizon_add_call",
	mcp.WithDescription("Save a call locally and mirror it to the backend. Optionally analyze the transcript first."),
	mcp.WithString("transcript", mcp.Required(), mcp.Description("Call transcript")),
	mcp.WithString("contact_name", mcp.Description("Contact name (default Unknown)")),
	mcp.WithString("phone_number", mcp.Description("Contact phone number")),
	mcp.WithString("timestamp", mcp.Description("When the call happened (default now)")),
	mcp.WithString("duration", mcp.Description("Call length, e.g. 05:12 or 5m 12s")),
	mcp.WithArray("tags", mcp.Description("Tags for the call"), stringItems),
	mcp.WithBoolean("analyze", mcp.Description("Generate an executive brief before saving")),
	mcp.WithString("persona", mcp.Description("Analysis persona when analyze is set")),
)

var archiveCallsToolDef = mcp.NewTool("horizon_archive_calls",
	mcp.WithDescription("Remove calls from the working set. The action can be undone with horizon_revert."),
	mcp.WithArray("ids", mcp.Required(), mcp.Description("Call ids to archive"), stringItems),
)

var listContactsToolDef = mcp.NewTool("horizon_list_contacts",
	mcp.WithDescription("List contacts with optional search and sort."),
	mcp.WithString("search", mcp.Description("Case-insensitive match on name, organization or phone")),
	mcp.WithString("sort", mcp.Description("alpha (default), recent or stats")),
	mcp.WithNumber("limit", mcp.Description("Max results (default 100, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
)

var contactCallsToolDef = mcp.NewTool("horizon_contact_calls",
	mcp.WithDescription("List every call with one contact, newest first."),
	mcp.WithString("phone", mcp.Description("Contact phone number")),
	mcp.WithString("name", mcp.Description("Contact name, used when phone is empty")),
)

var dashboardToolDef = mcp.NewTool("horizon_dashboard",
	mcp.WithDescription("Overview figures: counts, recent briefs, calls per weekday and top tags."),
)

var actionItemsToolDef = mcp.NewTool("horizon_action_items",
	mcp.WithDescription("Calls whose briefs carry action items, newest first."),
)

var analyzeToolDef = mcp.NewTool("horizon_analyze",
	mcp.WithDescription("Generate an executive brief for a transcript without saving it."),
	mcp.WithString("transcript", mcp.Required(), mcp.Description("Call transcript")),
	mcp.WithString("persona", mcp.Description("consultant, mobilemech, finance, straight or system")),
)

var searchPersonToolDef = mcp.NewTool("horizon_search_person",
	mcp.WithDescription("Look up a person in the backend directory by name, email or phone."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
)

var connectionLogToolDef = mcp.NewTool("horizon_connection_log",
	mcp.WithDescription("Recent backend requests, newest first."),
	mcp.WithBoolean("clear", mcp.Description("Clear the log after reading it")),
)

var historyToolDef = mcp.NewTool("horizon_history",
	mcp.WithDescription("Session audit log of mutations, newest first."),
)

var revertToolDef = mcp.NewTool("horizon_revert",
	mcp.WithDescription("Undo a revertable history item."),
	mcp.WithString("id", mcp.Required(), mcp.Description("History item id")),
)
