// Package analysis turns call transcripts into executive briefs, either
// directly through Gemini or through the backend's analyze_text action.
package analysis

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/horizonprm/horizon/internal/backend"
	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/record"
)

// MinTranscriptChars is the shortest cleaned transcript worth analyzing.
const MinTranscriptChars = 10

// Analyzer produces a brief for a transcript under a persona.
type Analyzer interface {
	Analyze(ctx context.Context, transcript, persona string) (*record.ExecutiveBrief, error)
	Name() string
}

// PrepareTranscript cleans raw and rejects transcripts too short to analyze.
func PrepareTranscript(raw string) (string, error) {
	cleaned := record.CleanTranscript(raw)
	if n := utf8.RuneCountInString(cleaned); n < MinTranscriptChars {
		return "", errors.NewTranscriptTooShort(MinTranscriptChars, n)
	}
	return cleaned, nil
}

var (
	fenceOpenRe  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
)

// stripFences removes a surrounding markdown code fence from model output.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = fenceOpenRe.ReplaceAllString(text, "")
	return fenceCloseRe.ReplaceAllString(text, "")
}

// LabRecord builds the record saved from a manual lab analysis. The backend
// resolves the contact from the phone number when it can.
func LabRecord(transcript, phone string, brief *record.ExecutiveBrief) record.CallRecord {
	rec := record.CallRecord{
		ID:          record.GenerateID("call"),
		Timestamp:   record.FormatISO(time.Now()),
		ContactName: "Manual Entry",
		PhoneNumber: strings.TrimSpace(phone),
		Duration:    record.FormatSeconds(0),
		Transcript:  transcript,
		Tags:        []string{},
		Status:      record.StatusCompleted,
	}
	if brief != nil {
		b := *brief
		b.ActionItems = append([]string{}, brief.ActionItems...)
		b.Tags = append([]string{}, brief.Tags...)
		rec.ExecutiveBrief = &b
		rec.Tags = append([]string{}, brief.Tags...)
	}
	return rec
}

// Select picks Gemini when an API key is configured, else the backend when
// it has an endpoint. With neither, analysis is unavailable.
func Select(ctx context.Context, apiKey, model string, client *backend.Client, log *zap.Logger) (Analyzer, error) {
	if apiKey != "" {
		return NewGemini(ctx, apiKey, model, log)
	}
	if client != nil && client.Configured() {
		return NewBackend(client), nil
	}
	return nil, errors.NewAnalysisUnavailable("no analyzer configured: set a Gemini API key or a backend URL")
}
