package analysis

import (
	"context"

	"github.com/horizonprm/horizon/internal/backend"
	"github.com/horizonprm/horizon/internal/metrics"
	"github.com/horizonprm/horizon/internal/record"
)

// Backend delegates analysis to the backend's analyze_text action. The
// backend applies its own prompt, so the persona is only validated.
type Backend struct {
	client *backend.Client
}

// NewBackend wraps client.
func NewBackend(client *backend.Client) *Backend {
	return &Backend{client: client}
}

// Name implements Analyzer.
func (b *Backend) Name() string { return "backend" }

// Analyze implements Analyzer.
func (b *Backend) Analyze(ctx context.Context, transcript, persona string) (brief *record.ExecutiveBrief, err error) {
	defer func() { metrics.ObserveAnalysis(b.Name(), err) }()

	cleaned, err := PrepareTranscript(transcript)
	if err != nil {
		return nil, err
	}
	if _, err := LookupPersona(persona); err != nil {
		return nil, err
	}
	return b.client.AnalyzeText(ctx, cleaned)
}
