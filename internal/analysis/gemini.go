package analysis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/logging"
	"github.com/horizonprm/horizon/internal/metrics"
	"github.com/horizonprm/horizon/internal/record"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

const briefInstructions = `Analyze the following call transcript and provide a structured executive brief.

TRANSCRIPT:
%s

Return ONLY valid JSON in this exact format (no markdown, no code blocks):
{
  "title": "A professional title starting with 'Actionable Input: '",
  "summary": "A 2-3 sentence strategic summary",
  "actionItems": ["Action 1", "Action 2", "Action 3"],
  "tags": ["#tag1", "#tag2", "#tag3"],
  "sentiment": "Positive"
}`

// generator is the slice of the model API the analyzer uses.
type generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// Gemini analyzes transcripts with a Gemini model.
type Gemini struct {
	gen   generator
	model string
	log   *zap.Logger
}

// NewGemini creates a Gemini analyzer. model defaults to DefaultGeminiModel.
func NewGemini(ctx context.Context, apiKey, model string, log *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.NewAnalysisUnavailable("Gemini API key not configured")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{
		gen:   &genaiGenerator{client: client, model: model},
		model: model,
		log:   logging.OrNop(log).Named("gemini"),
	}, nil
}

// Name implements Analyzer.
func (g *Gemini) Name() string { return "gemini" }

// Analyze implements Analyzer.
func (g *Gemini) Analyze(ctx context.Context, transcript, persona string) (brief *record.ExecutiveBrief, err error) {
	defer func() { metrics.ObserveAnalysis(g.Name(), err) }()

	cleaned, err := PrepareTranscript(transcript)
	if err != nil {
		return nil, err
	}
	p, err := LookupPersona(persona)
	if err != nil {
		return nil, err
	}

	text, err := g.gen.Generate(ctx, p.Prompt, fmt.Sprintf(briefInstructions, cleaned))
	if err != nil {
		g.log.Warn("generation failed", zap.String("model", g.model), zap.String("persona", p.ID), zap.Error(err))
		return nil, classifyGenError(err)
	}

	brief, perr := record.ParseBrief([]byte(stripFences(text)), nil)
	if perr != nil {
		g.log.Warn("unparseable model output", zap.String("persona", p.ID), zap.Error(perr))
		return unparsedBrief(), nil
	}
	return brief, nil
}

// unparsedBrief stands in when the model replies with something other than
// a JSON object.
func unparsedBrief() *record.ExecutiveBrief {
	return &record.ExecutiveBrief{
		Title:       "Analysis Complete",
		Summary:     "Failed to parse response",
		ActionItems: []string{},
		Tags:        []string{record.ErrorTag},
		Sentiment:   record.SentimentNeutral,
	}
}

func classifyGenError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "API key"):
		return errors.NewAnalysisUnavailable("Invalid API key. Please check your configuration.")
	case strings.Contains(strings.ToLower(msg), "quota"):
		return errors.NewAnalysisUnavailable("API quota exceeded. Please try again later.")
	}
	return errors.NewUpstream("Analysis failed: " + msg)
}
