package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/horizonprm/horizon/internal/analysis"
	"github.com/horizonprm/horizon/internal/connlog"
	"github.com/horizonprm/horizon/internal/datastore"
	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/history"
	"github.com/horizonprm/horizon/internal/ops"
	"github.com/horizonprm/horizon/internal/record"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item
	Theme   string // "dark" or "light"
	Status  datastore.ConnectionStatus
	Warning string
	Error   string
}

// DashboardPageData is the template data for the dashboard.
type DashboardPageData struct {
	PageData
	Stats *ops.DashboardOutput
}

// CallsPageData is the template data for the call log.
type CallsPageData struct {
	PageData
	Items        []record.CallRecord
	Pagination   ops.Pagination
	Search       string
	StatusFilter string
	Tag          string
	Sort         string
	Tags         []string
}

// CallPageData is the template data for a single call.
type CallPageData struct {
	PageData
	Call       record.CallRecord
	Summary    template.HTML
	Transcript template.HTML
}

// ContactsPageData is the template data for the contact list.
type ContactsPageData struct {
	PageData
	Items      []record.Contact
	Pagination ops.Pagination
	Search     string
	Sort       string
}

// ContactPageData is the template data for one contact's calls.
type ContactPageData struct {
	PageData
	Name  string
	Phone string
	Calls []record.CallRecord
}

// ActionsPageData is the template data for the action items view.
type ActionsPageData struct {
	PageData
	Actions *ops.ActionItemsOutput
}

// HistoryPageData is the template data for the audit log.
type HistoryPageData struct {
	PageData
	Items []history.Item
}

// ConnLogPageData is the template data for the connection log.
type ConnLogPageData struct {
	PageData
	Entries []connlog.Entry
	Cap     int
}

// LabPageData is the template data for the processing lab.
type LabPageData struct {
	PageData
	Personas   []analysis.Persona
	Persona    string
	Transcript string
	Phone      string
	Brief      *record.ExecutiveBrief
	BriefJSON  string
	Message    string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer holds one template set per page, each cloned from the layout.
type Renderer struct {
	pages   map[string]*template.Template
	version string
	log     *zap.Logger
}

var funcs = template.FuncMap{
	"add":         func(a, b int) int { return a + b },
	"sub":         func(a, b int) int { return a - b },
	"formatDate":  formatDate,
	"formatTime":  func(t time.Time) string { return t.Local().Format("2006-01-02 15:04:05") },
	"formatPhone": record.FormatPhoneNumber,
	"initials":    record.Initials,
	"truncate":    record.Truncate,
	"clean":       record.CleanTranscript,
	"markdown":    renderMarkdown,
	"join":        strings.Join,
	"lower":       strings.ToLower,
}

// NewRenderer parses layout.html plus every other *.html file in fsys.
// A page is addressed by its file name without the extension.
func NewRenderer(fsys fs.FS, version string, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	base := template.Must(template.New("layout").Funcs(funcs).ParseFS(fsys, "layout.html"))

	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		panic(err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == "layout.html" {
			continue
		}
		page := template.Must(template.Must(base.Clone()).ParseFS(fsys, file))
		pages[strings.TrimSuffix(file, ".html")] = page
	}

	return &Renderer{pages: pages, version: version, log: log}
}

func isHTMX(req *http.Request) bool {
	return req != nil && req.Header.Get("HX-Request") == "true"
}

func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus executes page name. HTMX requests get only the
// "content" block.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	page, ok := r.pages[name]
	if !ok {
		r.log.Error("unknown page template", zap.String("page", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if isHTMX(req) {
		block = "content"
	}

	// Render to a buffer so a template failure never sends a half page.
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, block, data); err != nil {
		r.log.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError writes err as an HTML fragment, a JSON envelope or the error
// page, depending on who asked.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, page PageData, err error) {
	herr := errors.As(err)
	if herr.Status >= http.StatusInternalServerError {
		r.log.Warn("request failed", zap.String("path", req.URL.Path), zap.String("code", string(herr.Code)), zap.Error(err))
	}

	switch {
	case isHTMX(req):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(herr.Status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(herr.Message))
	case wantsJSON(req):
		renderJSON(w, herr.Status, map[string]any{
			"error": map[string]any{
				"code":    string(herr.Code),
				"message": herr.Message,
				"status":  herr.Status,
				"details": herr.Details,
			},
		})
	default:
		page.Title = fmt.Sprintf("Error %d", herr.Status)
		r.renderPageStatus(w, req, herr.Status, "error", ErrorPageData{
			PageData:   page,
			StatusCode: herr.Status,
			Message:    herr.Message,
		})
	}
}

// wantsJSON reports whether the client asked for JSON.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark. Raw HTML in
// the source is not passed through.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatDate renders a record timestamp for display, or the raw value when
// it does not parse.
func formatDate(s string) string {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return s
	}
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}
