// Package app wires the stores, clients and session state shared by the
// web dashboard, the MCP server and the CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/horizonprm/horizon/internal/acr"
	"github.com/horizonprm/horizon/internal/analysis"
	"github.com/horizonprm/horizon/internal/backend"
	"github.com/horizonprm/horizon/internal/config"
	"github.com/horizonprm/horizon/internal/connlog"
	"github.com/horizonprm/horizon/internal/datastore"
	"github.com/horizonprm/horizon/internal/db"
	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/history"
	"github.com/horizonprm/horizon/internal/logging"
	"github.com/horizonprm/horizon/internal/record"
)

// App is one running Horizon session.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	DB      *sql.DB
	Cache   *db.Cache
	ConnLog *connlog.Logger
	Client  *backend.Client
	Store   *datastore.Controller
	History *history.Log

	analyzer    analysis.Analyzer
	analyzerErr error
}

// New opens the database under baseDir and builds the session. Nothing
// touches the network until Store.Start or Store.Refresh runs.
func New(ctx context.Context, baseDir string, cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log = logging.OrNop(log)

	database, err := db.Init(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)

	cache := db.NewCache(database)
	clog := connlog.New(cfg.ConnectionLogCap, log)
	client := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.HTTPTimeout()),
		backend.WithConnLog(clog),
		backend.WithLogger(log),
	)

	a := &App{
		Config:  cfg,
		Log:     log,
		DB:      database,
		Cache:   cache,
		ConnLog: clog,
		Client:  client,
		Store:   datastore.New(client, cache, log),
		History: history.New(),
	}
	a.analyzer, a.analyzerErr = analysis.Select(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, client, log)
	if a.analyzerErr != nil {
		log.Info("analysis disabled", zap.Error(a.analyzerErr))
	}
	return a, nil
}

// Close waits for background syncs and closes the database.
func (a *App) Close() error {
	a.Store.Wait()
	return a.DB.Close()
}

// Analyzer returns the configured analyzer, or an ANALYSIS_UNAVAILABLE error.
func (a *App) Analyzer() (analysis.Analyzer, error) {
	if a.analyzer == nil {
		if a.analyzerErr != nil {
			return nil, a.analyzerErr
		}
		return nil, errors.NewAnalysisUnavailable("no analyzer configured")
	}
	return a.analyzer, nil
}

// SetAnalyzer overrides the analyzer selected at startup.
func (a *App) SetAnalyzer(an analysis.Analyzer) {
	a.analyzer, a.analyzerErr = an, nil
}

// Analyze runs the configured analyzer; a blank persona uses the
// configured default.
func (a *App) Analyze(ctx context.Context, transcript, persona string) (*record.ExecutiveBrief, error) {
	an, err := a.Analyzer()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(persona) == "" {
		persona = a.Config.DefaultPersona
	}
	return an.Analyze(ctx, transcript, persona)
}

// AddCall saves call through the store and records it in history. Undoing
// it archives the call again.
func (a *App) AddCall(ctx context.Context, call record.CallRecord) history.Item {
	a.Store.AddCall(ctx, call)
	return a.History.Add("Call Added",
		fmt.Sprintf("Saved call with %s", call.ContactName),
		func() error {
			a.Store.ArchiveCalls(context.Background(), []string{call.ID})
			return nil
		})
}

// NewCall describes a manually entered call.
type NewCall struct {
	Transcript  string
	ContactName string
	PhoneNumber string
	Timestamp   string // any dateparse layout; blank means now
	Duration    string // "05:12", "5m 12s" or seconds
	Tags        []string
	Analyze     bool
	Persona     string
}

// CreateCall builds a record from in, optionally analyzing the transcript
// first, and saves it through AddCall. Unanalyzed calls are QUEUED.
func (a *App) CreateCall(ctx context.Context, in NewCall) (record.CallRecord, history.Item, error) {
	transcript := strings.TrimSpace(in.Transcript)
	if transcript == "" {
		return record.CallRecord{}, history.Item{}, errors.NewInvalidRequest("transcript is required")
	}

	call := record.CallRecord{
		ID:          record.GenerateID("call"),
		Timestamp:   record.FormatISO(time.Now()),
		ContactName: strings.TrimSpace(in.ContactName),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Duration:    record.FormatSeconds(float64(record.ParseDurationSeconds(in.Duration))),
		Transcript:  transcript,
		Tags:        append([]string{}, in.Tags...),
		Status:      record.StatusQueued,
	}
	if strings.TrimSpace(in.Timestamp) != "" {
		call.Timestamp = record.NormalizeDate(record.StringCell(in.Timestamp))
	}
	if call.ContactName == "" {
		call.ContactName = "Unknown"
	}

	if in.Analyze {
		brief, err := a.Analyze(ctx, transcript, in.Persona)
		if err != nil {
			return record.CallRecord{}, history.Item{}, err
		}
		call.ExecutiveBrief = brief
		call.Status = record.StatusCompleted
		if len(call.Tags) == 0 {
			call.Tags = append([]string{}, brief.Tags...)
		}
	}

	item := a.AddCall(ctx, call)
	return call, item, nil
}

// ArchiveCalls removes ids and records a revertable history item. Ids that
// match nothing are reported as NOT_FOUND when no call matched at all.
func (a *App) ArchiveCalls(ctx context.Context, ids []string) ([]record.CallRecord, error) {
	ids = compact(ids)
	if len(ids) == 0 {
		return nil, errors.NewInvalidRequest("at least one call id is required")
	}
	archived := a.Store.ArchiveCalls(ctx, ids)
	if len(archived) == 0 {
		return nil, errors.NewNotFound("call", strings.Join(ids, ","))
	}

	label := "Archived 1 call"
	if len(archived) > 1 {
		label = fmt.Sprintf("Archived %d calls", len(archived))
	}
	names := make([]string, 0, len(archived))
	for _, c := range archived {
		names = append(names, c.ContactName)
	}
	a.History.Add(label, strings.Join(names, ", "), func() error {
		a.Store.RestoreCalls(context.Background(), archived)
		return nil
	})
	return archived, nil
}

// UpdateCall replaces a call locally and records the edit.
func (a *App) UpdateCall(ctx context.Context, updated record.CallRecord) error {
	prev, err := a.Store.Call(updated.ID)
	if err != nil {
		return err
	}
	if err := a.Store.UpdateCall(ctx, updated); err != nil {
		return err
	}
	a.History.Add("Call Updated", "Edited call "+updated.ID, func() error {
		return a.Store.UpdateCall(context.Background(), prev)
	})
	return nil
}

// SaveLab stores a lab brief as a manual call.
func (a *App) SaveLab(ctx context.Context, transcript, phone string, brief *record.ExecutiveBrief) record.CallRecord {
	rec := analysis.LabRecord(transcript, phone, brief)
	a.AddCall(ctx, rec)
	return rec
}

// ImportFile parses an ACR export and uploads it with the configured pacing.
func (a *App) ImportFile(ctx context.Context, path string) (acr.Stats, *acr.IngestResult, error) {
	if !a.Client.Configured() {
		return acr.Stats{}, nil, errors.NewNotConfigured()
	}
	stats, res, err := acr.ImportFile(ctx, path, a.Client, nil, a.IngestOptions())
	if err == nil && res != nil && res.Uploaded > 0 {
		a.History.Add("ACR Import", fmt.Sprintf("Uploaded %d of %d calls", res.Uploaded, res.Total), nil)
	}
	return stats, res, err
}

// IngestOptions returns batch settings from the config.
func (a *App) IngestOptions() acr.IngestOptions {
	opts := acr.IngestOptions{ChunkSize: a.Config.IngestChunkSize, Logger: a.Log}
	if d := a.Config.IngestInterval(); d > 0 {
		opts.Limiter = rate.NewLimiter(rate.Every(d), 1)
	}
	return opts
}

// Watcher returns a drop-folder watcher that imports into the backend and
// refreshes the store after each import, or nil when no folder is set.
func (a *App) Watcher() *acr.Watcher {
	if a.Config.ACRWatchDir == "" {
		return nil
	}
	return acr.NewWatcher(a.Config.ACRWatchDir, 0, func(ctx context.Context, path string) error {
		if _, _, err := a.ImportFile(ctx, path); err != nil {
			return err
		}
		if err := a.Store.Refresh(ctx); err != nil {
			a.Log.Warn("refresh after import failed", zap.Error(err))
		}
		return nil
	}, a.Log)
}

func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
