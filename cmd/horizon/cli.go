package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/horizonprm/horizon/internal/acr"
	"github.com/horizonprm/horizon/internal/analysis"
	"github.com/horizonprm/horizon/internal/app"
	"github.com/horizonprm/horizon/internal/backend"
	"github.com/horizonprm/horizon/internal/db"
	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/ops"
	"github.com/horizonprm/horizon/internal/web"
)

// newCLIApp creates the CLI application with all commands. a may be nil
// when only help or version output is needed.
func newCLIApp(a *app.App) *cli.App {
	cliApp := &cli.App{
		Name:    "horizon",
		Usage:   "Call intelligence for your relationships",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(a),
			refreshCmd(a),
			callsCmd(a),
			callCmd(a),
			contactsCmd(a),
			contactCmd(a),
			dashboardCmd(a),
			actionsCmd(a),
			addCallCmd(a),
			archiveCmd(a),
			analyzeCmd(a),
			personasCmd(),
			searchPersonCmd(a),
			updatePersonCmd(a),
			diagnosticsCmd(a),
			parseACRCmd(),
			ingestCmd(a),
			watchCmd(a),
			themeCmd(a),
			configCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// start loads the working set. A failed fetch is not fatal: the store has
// already fallen back to cached or sample data.
func start(c *cli.Context, a *app.App) {
	if err := a.Store.Start(c.Context); err != nil {
		a.Log.Warn("backend unavailable, using fallback data", zap.Error(err))
	}
}

// serveCmd creates the serve command.
func serveCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web dashboard (and the ACR drop-folder watcher when configured)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config)"},
		},
		Action: func(c *cli.Context) error {
			addr := a.Config.HTTPAddr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}
			srv, err := web.NewServer(a, Version, addr)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			g, ctx := errgroup.WithContext(c.Context)
			g.Go(func() error {
				if err := a.Store.Start(ctx); err != nil {
					a.Log.Warn("initial refresh failed, serving fallback data", zap.Error(err))
				}
				return nil
			})
			g.Go(func() error {
				return web.Run(ctx, srv, a.Log)
			})
			if w := a.Watcher(); w != nil {
				g.Go(func() error {
					return w.Run(ctx)
				})
			}
			if err := g.Wait(); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// refreshCmd creates the refresh command.
func refreshCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Reload calls and contacts from the backend",
		Action: func(c *cli.Context) error {
			fetchErr := a.Store.Refresh(c.Context)
			snap := a.Store.Snapshot()
			out := map[string]any{
				"connection_status": snap.ConnectionStatus,
				"calls":             len(snap.Calls),
				"contacts":          len(snap.Contacts),
			}
			if fetchErr != nil {
				out["error"] = errors.As(fetchErr).Message
			}
			return outputJSON(out)
		},
	}
}

// callsCmd creates the calls command.
func callsCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "calls",
		Usage: "List call records",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Match contact name or transcript"},
			&cli.StringFlag{Name: "status", Usage: "QUEUED|COMPLETED|ERROR"},
			&cli.StringFlag{Name: "tag", Usage: "Only calls with this tag"},
			&cli.StringFlag{Name: "contact", Usage: "Phone number or contact name"},
			&cli.StringFlag{Name: "since", Usage: "Only calls at or after this date"},
			&cli.StringFlag{Name: "until", Usage: "Only calls at or before this date"},
			&cli.StringFlag{Name: "sort", Value: ops.SortStored, Usage: "stored|newest|oldest"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Results to skip"},
		},
		Action: func(c *cli.Context) error {
			start(c, a)
			output, err := ops.ListCalls(a.Store.Snapshot().Calls, ops.ListCallsInput{
				Search:  c.String("search"),
				Status:  c.String("status"),
				Tag:     c.String("tag"),
				Contact: c.String("contact"),
				Since:   c.String("since"),
				Until:   c.String("until"),
				Sort:    c.String("sort"),
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// callCmd creates the call command.
func callCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Show one call with its brief",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			start(c, a)
			output, err := ops.FetchCall(a.Store.Snapshot().Calls, ops.FetchCallInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// contactsCmd creates the contacts command.
func contactsCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "contacts",
		Usage: "List contacts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Match name, organization or phone"},
			&cli.StringFlag{Name: "sort", Value: ops.SortAlpha, Usage: "alpha|recent|stats"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultContactLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Results to skip"},
		},
		Action: func(c *cli.Context) error {
			start(c, a)
			output, err := ops.ListContacts(a.Store.Snapshot().Contacts, ops.ListContactsInput{
				Search: c.String("search"),
				Sort:   c.String("sort"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// contactCmd creates the contact command.
func contactCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "contact",
		Usage: "List calls with one contact",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "phone", Aliases: []string{"p"}, Usage: "Contact phone number"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Contact name"},
		},
		Action: func(c *cli.Context) error {
			start(c, a)
			calls, err := ops.ContactCalls(a.Store.Snapshot().Calls, ops.ContactCallsInput{
				Phone: c.String("phone"),
				Name:  c.String("name"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"items": calls})
		},
	}
}

// dashboardCmd creates the dashboard command.
func dashboardCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Show overview figures",
		Action: func(c *cli.Context) error {
			start(c, a)
			snap := a.Store.Snapshot()
			return outputJSON(ops.Dashboard(snap.Calls, snap.Contacts, ops.DashboardInput{}))
		},
	}
}

// actionsCmd creates the actions command.
func actionsCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "actions",
		Usage: "List calls with open action items",
		Action: func(c *cli.Context) error {
			start(c, a)
			return outputJSON(ops.ActionItems(a.Store.Snapshot().Calls))
		},
	}
}

// addCallCmd creates the add-call command.
func addCallCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "add-call",
		Usage: "Save a call (reads the transcript from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Contact name"},
			&cli.StringFlag{Name: "phone", Aliases: []string{"p"}, Usage: "Contact phone number"},
			&cli.StringFlag{Name: "timestamp", Usage: "When the call happened (default now)"},
			&cli.StringFlag{Name: "duration", Aliases: []string{"d"}, Usage: "Call length, e.g. 05:12"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.BoolFlag{Name: "analyze", Usage: "Generate an executive brief before saving"},
			&cli.StringFlag{Name: "persona", Usage: "Analysis persona"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("transcript must be piped via stdin"))
			}
			transcript, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			start(c, a)
			call, _, err := a.CreateCall(c.Context, app.NewCall{
				Transcript:  transcript,
				ContactName: c.String("name"),
				PhoneNumber: c.String("phone"),
				Timestamp:   c.String("timestamp"),
				Duration:    c.String("duration"),
				Tags:        parseTags(c.String("tags")),
				Analyze:     c.Bool("analyze"),
				Persona:     c.String("persona"),
			})
			if err != nil {
				return outputError(err)
			}
			a.Store.Wait()

			out := map[string]any{"call": call}
			if w := a.Store.Snapshot().Warning; w != "" {
				out["warning"] = w
			}
			return outputJSON(out)
		},
	}
}

// archiveCmd creates the archive command.
func archiveCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "archive",
		Usage:     "Remove calls from the local working set",
		ArgsUsage: "<id> [id...]",
		Action: func(c *cli.Context) error {
			start(c, a)
			archived, err := a.ArchiveCalls(c.Context, c.Args().Slice())
			if err != nil {
				return outputError(err)
			}
			ids := make([]string, 0, len(archived))
			for _, call := range archived {
				ids = append(ids, call.ID)
			}
			return outputJSON(map[string]any{"archived": ids})
		},
	}
}

// analyzeCmd creates the analyze command.
func analyzeCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Generate an executive brief (reads the transcript from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "persona", Usage: "consultant|mobilemech|finance|straight|system"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("transcript must be piped via stdin"))
			}
			transcript, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if p := c.String("persona"); p != "" {
				if _, err := analysis.LookupPersona(p); err != nil {
					return outputError(err)
				}
			}
			brief, err := a.Analyze(c.Context, transcript, c.String("persona"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(brief)
		},
	}
}

// personasCmd creates the personas command.
func personasCmd() *cli.Command {
	return &cli.Command{
		Name:  "personas",
		Usage: "List analysis personas",
		Action: func(c *cli.Context) error {
			type summary struct {
				ID          string `json:"id"`
				Label       string `json:"label"`
				Description string `json:"description"`
			}
			out := make([]summary, 0, len(analysis.Personas()))
			for _, p := range analysis.Personas() {
				out = append(out, summary{ID: p.ID, Label: p.Label, Description: p.Description})
			}
			return outputJSON(out)
		},
	}
}

// searchPersonCmd creates the search-person command.
func searchPersonCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "search-person",
		Usage:     "Look up a person in the backend directory",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			person, err := a.Client.SearchPerson(c.Context, strings.Join(c.Args().Slice(), " "))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(person)
		},
	}
}

// updatePersonCmd creates the update-person command.
func updatePersonCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "update-person",
		Usage: "Write contact fields back to the backend directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "resource-name", Required: true, Usage: "Directory resource name from search-person"},
			&cli.StringFlag{Name: "etag", Usage: "Etag from search-person"},
			&cli.StringFlag{Name: "name", Usage: "Display name"},
			&cli.StringFlag{Name: "email", Usage: "Email address"},
			&cli.StringFlag{Name: "organization", Usage: "Organization"},
			&cli.StringFlag{Name: "title", Usage: "Job title"},
		},
		Action: func(c *cli.Context) error {
			result, err := a.Client.UpdatePerson(c.Context, backend.PersonUpdate{
				ResourceName: c.String("resource-name"),
				Etag:         c.String("etag"),
				Name:         c.String("name"),
				Email:        c.String("email"),
				Organization: c.String("organization"),
				Title:        c.String("title"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// diagnosticsCmd creates the diagnostics command.
func diagnosticsCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "diagnostics",
		Usage: "Run backend self-tests and list available models",
		Action: func(c *cli.Context) error {
			if !a.Client.Configured() {
				return outputError(errors.NewNotConfigured())
			}
			out := map[string]any{"backend_url": a.Client.URL()}

			if report, err := a.Client.RunTests(c.Context); err != nil {
				out["tests_error"] = errors.As(err).Message
			} else {
				out["tests"] = report
				out["healthy"] = report.Healthy()
			}
			if models, err := a.Client.ListModels(c.Context); err != nil {
				out["models_error"] = errors.As(err).Message
			} else {
				out["models"] = models
			}
			if raw, err := a.Client.TestGemini(c.Context); err != nil {
				out["gemini_error"] = errors.As(err).Message
			} else {
				out["gemini"] = raw
			}
			out["connection_log"] = a.ConnLog.Entries()
			return outputJSON(out)
		},
	}
}

// parseACRCmd creates the parse-acr command.
func parseACRCmd() *cli.Command {
	return &cli.Command{
		Name:      "parse-acr",
		Usage:     "Parse a call-recorder HTML export without uploading it",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("export file is required"))
			}
			f, err := os.Open(c.Args().First())
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			defer f.Close()

			rows, stats, err := acr.Parse(f, time.Local)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			return outputJSON(map[string]any{"rows": rows, "stats": stats})
		},
	}
}

// ingestCmd creates the ingest command.
func ingestCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Parse a call-recorder HTML export and upload it in batches",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("export file is required"))
			}
			stats, result, err := a.ImportFile(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"stats": stats, "result": result})
		},
	}
}

// watchCmd creates the watch command.
func watchCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Import call-recorder exports dropped into a folder until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Folder to watch (default from config)"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("dir") {
				a.Config.ACRWatchDir = c.String("dir")
			}
			w := a.Watcher()
			if w == nil {
				return outputError(errors.NewInvalidRequest("no watch folder: pass --dir or set acr_watch_dir"))
			}
			if err := w.Run(c.Context); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// themeCmd creates the theme command.
func themeCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "theme",
		Usage:     "Show or change the dashboard theme",
		ArgsUsage: "[light|dark|toggle]",
		Action: func(c *cli.Context) error {
			ctx := c.Context
			var (
				theme string
				err   error
			)
			switch arg := c.Args().First(); arg {
			case "":
				theme, err = a.Cache.Theme(ctx)
			case "toggle":
				theme, err = a.Cache.ToggleTheme(ctx)
			case db.ThemeLight, db.ThemeDark:
				theme, err = arg, a.Cache.SetTheme(ctx, arg)
			default:
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown theme %q", arg)))
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]string{"theme": theme})
		},
	}
}

// configCmd creates the config command.
func configCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration (secrets redacted)",
		Action: func(c *cli.Context) error {
			cfg := *a.Config
			if cfg.GeminiAPIKey != "" {
				cfg.GeminiAPIKey = "[redacted]"
			}
			return outputJSON(cfg)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	hErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", hErr.Code, hErr.Message), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
