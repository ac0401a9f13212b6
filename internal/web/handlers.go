package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/horizonprm/horizon/internal/analysis"
	"github.com/horizonprm/horizon/internal/app"
	"github.com/horizonprm/horizon/internal/db"
	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/ops"
	"github.com/horizonprm/horizon/internal/record"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	app      *app.App
	renderer *Renderer
}

// page builds the common page fields from the current store state.
func (h *Handlers) page(r *http.Request, title, nav string) PageData {
	theme, err := h.app.Cache.Theme(r.Context())
	if err != nil {
		theme = db.ThemeLight
	}
	snap := h.app.Store.Snapshot()
	return PageData{
		Title:   title,
		Version: h.renderer.version,
		Nav:     nav,
		Theme:   theme,
		Status:  snap.ConnectionStatus,
		Warning: snap.Warning,
		Error:   snap.Error,
	}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.renderer.renderError(w, r, h.page(r, "Error", ""), err)
}

// redirectOrJSON answers a mutation: JSON clients get v, HTMX clients an
// HX-Redirect, browsers a 303 to target.
func redirectOrJSON(w http.ResponseWriter, r *http.Request, target string, v any) {
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, v)
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleDashboard handles GET /: overview figures.
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.app.Store.Snapshot()
	stats := ops.Dashboard(snap.Calls, snap.Contacts, ops.DashboardInput{})

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, stats)
		return
	}
	h.renderer.renderPage(w, r, "dashboard", DashboardPageData{
		PageData: h.page(r, "Dashboard", "dashboard"),
		Stats:    stats,
	})
}

// HandleCalls handles GET /calls: the call log.
func (h *Handlers) HandleCalls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.ListCallsInput{
		Search:  q.Get("q"),
		Status:  q.Get("status"),
		Tag:     q.Get("tag"),
		Contact: q.Get("contact"),
		Since:   q.Get("since"),
		Until:   q.Get("until"),
		Sort:    q.Get("sort"),
		Limit:   parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:  parseIntParam(r, "offset", 0),
	}

	snap := h.app.Store.Snapshot()
	result, err := ops.ListCalls(snap.Calls, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.renderer.renderPage(w, r, "calls", CallsPageData{
		PageData:     h.page(r, "Call Logs", "calls"),
		Items:        result.Items,
		Pagination:   result.Pagination,
		Search:       input.Search,
		StatusFilter: input.Status,
		Tag:          input.Tag,
		Sort:         result.Sort,
		Tags:         record.CollectTags(snap.Calls),
	})
}

// HandleCall handles GET /calls/{id}: one call with its brief.
func (h *Handlers) HandleCall(w http.ResponseWriter, r *http.Request) {
	snap := h.app.Store.Snapshot()
	call, err := ops.FetchCall(snap.Calls, ops.FetchCallInput{ID: r.PathValue("id")})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, call)
		return
	}
	data := CallPageData{
		PageData:   h.page(r, call.ContactName, "calls"),
		Call:       *call,
		Transcript: renderMarkdown(record.CleanTranscript(call.Transcript)),
	}
	if call.ExecutiveBrief != nil {
		data.Summary = renderMarkdown(call.ExecutiveBrief.Summary)
	}
	h.renderer.renderPage(w, r, "call", data)
}

// HandleArchive handles POST /calls/archive: bulk archive with undo.
func (h *Handlers) HandleArchive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	archived, err := h.app.ArchiveCalls(r.Context(), r.Form["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	redirectOrJSON(w, r, "/calls", map[string]any{"archived": len(archived)})
}

// HandleContacts handles GET /contacts: the contact list.
func (h *Handlers) HandleContacts(w http.ResponseWriter, r *http.Request) {
	input := ops.ListContactsInput{
		Search: r.URL.Query().Get("q"),
		Sort:   r.URL.Query().Get("sort"),
		Limit:  parseIntParam(r, "limit", ops.DefaultContactLimit),
		Offset: parseIntParam(r, "offset", 0),
	}

	result, err := ops.ListContacts(h.app.Store.Snapshot().Contacts, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.renderer.renderPage(w, r, "contacts", ContactsPageData{
		PageData:   h.page(r, "Contacts", "contacts"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Search:     input.Search,
		Sort:       result.Sort,
	})
}

// HandleContact handles GET /contacts/calls: calls for one contact.
func (h *Handlers) HandleContact(w http.ResponseWriter, r *http.Request) {
	input := ops.ContactCallsInput{
		Phone: r.URL.Query().Get("phone"),
		Name:  r.URL.Query().Get("name"),
	}
	calls, err := ops.ContactCalls(h.app.Store.Snapshot().Calls, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"items": calls})
		return
	}
	title := input.Name
	if title == "" {
		title = record.FormatPhoneNumber(input.Phone)
	}
	h.renderer.renderPage(w, r, "contact", ContactPageData{
		PageData: h.page(r, title, "contacts"),
		Name:     input.Name,
		Phone:    input.Phone,
		Calls:    calls,
	})
}

// HandleActions handles GET /actions: calls with action items.
func (h *Handlers) HandleActions(w http.ResponseWriter, r *http.Request) {
	result := ops.ActionItems(h.app.Store.Snapshot().Calls)
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.renderer.renderPage(w, r, "actions", ActionsPageData{
		PageData: h.page(r, "Action Items", "actions"),
		Actions:  result,
	})
}

// HandleHistory handles GET /history: the session audit log.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	items := h.app.History.Items()
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}
	h.renderer.renderPage(w, r, "history", HistoryPageData{
		PageData: h.page(r, "History", "history"),
		Items:    items,
	})
}

// HandleHistoryPin handles POST /history/{id}/pin.
func (h *Handlers) HandleHistoryPin(w http.ResponseWriter, r *http.Request) {
	item, err := h.app.History.TogglePin(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	redirectOrJSON(w, r, "/history", item)
}

// HandleHistoryRevert handles POST /history/{id}/revert.
func (h *Handlers) HandleHistoryRevert(w http.ResponseWriter, r *http.Request) {
	item, err := h.app.History.Revert(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	redirectOrJSON(w, r, "/history", item)
}

// HandleHistoryClear handles POST /history/clear.
func (h *Handlers) HandleHistoryClear(w http.ResponseWriter, r *http.Request) {
	h.app.History.Clear()
	redirectOrJSON(w, r, "/history", map[string]any{"cleared": true})
}

// HandleConnLog handles GET /connection-log: recent backend requests.
func (h *Handlers) HandleConnLog(w http.ResponseWriter, r *http.Request) {
	entries := h.app.ConnLog.Entries()
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"entries": entries})
		return
	}
	h.renderer.renderPage(w, r, "connlog", ConnLogPageData{
		PageData: h.page(r, "Connection Log", "connlog"),
		Entries:  entries,
		Cap:      h.app.ConnLog.Cap(),
	})
}

// HandleConnLogClear handles POST /connection-log/clear.
func (h *Handlers) HandleConnLogClear(w http.ResponseWriter, r *http.Request) {
	h.app.ConnLog.Clear()
	redirectOrJSON(w, r, "/connection-log", map[string]any{"cleared": true})
}

// HandleRefresh handles POST /refresh: reload from the backend. A failed
// fetch still succeeds here: the store falls back and reports offline.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	_ = h.app.Store.Refresh(r.Context())
	snap := h.app.Store.Snapshot()

	target := "/"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" && ref.Host == r.Host {
		target = ref.Path
	}
	redirectOrJSON(w, r, target, map[string]any{
		"connectionStatus": snap.ConnectionStatus,
		"error":            snap.Error,
		"calls":            len(snap.Calls),
		"contacts":         len(snap.Contacts),
	})
}

// HandleDismissWarning handles POST /warning/dismiss.
func (h *Handlers) HandleDismissWarning(w http.ResponseWriter, r *http.Request) {
	h.app.Store.ClearWarning()
	redirectOrJSON(w, r, "/", map[string]any{"dismissed": true})
}

// HandleThemeToggle handles POST /theme/toggle.
func (h *Handlers) HandleThemeToggle(w http.ResponseWriter, r *http.Request) {
	theme, err := h.app.Cache.ToggleTheme(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	target := "/"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" && ref.Host == r.Host {
		target = ref.Path
	}
	redirectOrJSON(w, r, target, map[string]any{"theme": theme})
}

func (h *Handlers) labPage(r *http.Request) LabPageData {
	return LabPageData{
		PageData: h.page(r, "Lab", "lab"),
		Personas: analysis.Personas(),
		Persona:  h.app.Config.DefaultPersona,
	}
}

// HandleLab handles GET /lab: the manual analysis form.
func (h *Handlers) HandleLab(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "lab", h.labPage(r))
}

// HandleLabAnalyze handles POST /lab/analyze: run the analyzer on a pasted transcript.
func (h *Handlers) HandleLabAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	data := h.labPage(r)
	data.Transcript = r.FormValue("transcript")
	data.Phone = r.FormValue("phone")
	if p := r.FormValue("persona"); p != "" {
		data.Persona = p
	}

	brief, err := h.app.Analyze(r.Context(), data.Transcript, data.Persona)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, brief)
		return
	}

	raw, _ := json.Marshal(brief)
	data.Brief = brief
	data.BriefJSON = string(raw)
	h.renderer.renderPage(w, r, "lab", data)
}

// HandleLabSave handles POST /lab/save: store an analyzed transcript as a call.
func (h *Handlers) HandleLabSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	transcript := strings.TrimSpace(r.FormValue("transcript"))
	if transcript == "" {
		h.fail(w, r, errors.NewInvalidRequest("transcript is required"))
		return
	}
	var brief *record.ExecutiveBrief
	if raw := r.FormValue("brief"); raw != "" {
		b, err := record.ParseBrief([]byte(raw), nil)
		if err != nil {
			h.fail(w, r, errors.NewInvalidRequest("brief must be a JSON object"))
			return
		}
		brief = b
	}

	rec := h.app.SaveLab(r.Context(), transcript, r.FormValue("phone"), brief)
	redirectOrJSON(w, r, "/calls/"+url.PathEscape(rec.ID), rec)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
