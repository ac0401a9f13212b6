// Package mcp exposes the Horizon session as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"os"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/horizonprm/horizon/internal/app"
	"github.com/horizonprm/horizon/internal/logging"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"horizon_refresh": {
		def:     refreshToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRefresh },
	},
	"horizon_list_calls": {
		def:     listCallsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListCalls },
	},
	"horizon_get_call": {
		def:     getCallToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetCall },
	},
	"horizon_add_call": {
		def:     addCallToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAddCall },
	},
	"horizon_archive_calls": {
		def:     archiveCallsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleArchiveCalls },
	},
	"horizon_list_contacts": {
		def:     listContactsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListContacts },
	},
	"horizon_contact_calls": {
		def:     contactCallsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContactCalls },
	},
	"horizon_dashboard": {
		def:     dashboardToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDashboard },
	},
	"horizon_action_items": {
		def:     actionItemsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleActionItems },
	},
	"horizon_analyze": {
		def:     analyzeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAnalyze },
	},
	"horizon_search_person": {
		def:     searchPersonToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearchPerson },
	},
	"horizon_connection_log": {
		def:     connectionLogToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleConnectionLog },
	},
	"horizon_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"horizon_revert": {
		def:     revertToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRevert },
	},
}

// AllToolNames returns every tool name in sorted order.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns the names in the list that match no tool.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the Horizon tools registered, minus
// any listed in the config's DisabledTools.
func NewServer(a *app.App, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"horizon",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(a)
	log := logging.OrNop(a.Log).Named("mcp")

	if unknown := ValidateDisabledTools(a.Config.DisabledTools); len(unknown) > 0 {
		log.Warn("ignoring unknown disabled tools", zap.Strings("tools", unknown))
	}
	disabled := make(map[string]bool, len(a.Config.DisabledTools))
	for _, name := range a.Config.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves the tools on stdin/stdout until ctx is done or stdin closes.
func Run(ctx context.Context, a *app.App, version string) error {
	s := NewServer(a, version)
	return server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
}
