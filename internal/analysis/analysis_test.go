package analysis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/horizonprm/horizon/internal/backend"
	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/record"
)

type fakeGenerator struct {
	reply  string
	err    error
	system string
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.system, f.prompt = system, prompt
	return f.reply, f.err
}

func newTestGemini(gen *fakeGenerator) *Gemini {
	return &Gemini{gen: gen, model: DefaultGeminiModel, log: zap.NewNop()}
}

const transcript = "Hey%20it's%20Brandon,%20call%20me+back%20about%20the%20budget."

func TestPrepareTranscript(t *testing.T) {
	got, err := PrepareTranscript("  " + transcript + "  ")
	require.NoError(t, err)
	assert.Equal(t, "Hey it's Brandon, call me back about the budget.", got)

	_, err = PrepareTranscript("%20short%20")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTranscriptTooShort))
	assert.Equal(t, 5, errors.As(err).Details["actual_chars"])
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```JSON {\"a\":1}```":    `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, stripFences(in), "input %q", in)
	}
}

func TestGemini_Analyze(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n" + `{"title":"Actionable Input: Budget","summary":"Brandon needs a budget call.","actionItems":["Call Brandon"],"tags":["#budget"],"sentiment":"Positive"}` + "\n```"}
	g := newTestGemini(gen)

	brief, err := g.Analyze(context.Background(), transcript, "finance")

	require.NoError(t, err)
	assert.Equal(t, "Actionable Input: Budget", brief.Title)
	assert.Equal(t, []string{"Call Brandon"}, brief.ActionItems)
	assert.Equal(t, []string{"#budget"}, brief.Tags)
	assert.Equal(t, "Positive", brief.Sentiment)

	finance, _ := LookupPersona("finance")
	assert.Equal(t, finance.Prompt, gen.system)
	assert.Contains(t, gen.prompt, "Hey it's Brandon, call me back about the budget.")
}

func TestGemini_Analyze_Defaults(t *testing.T) {
	g := newTestGemini(&fakeGenerator{reply: `{"summary":"Only a summary"}`})

	brief, err := g.Analyze(context.Background(), transcript, "")

	require.NoError(t, err)
	assert.Equal(t, record.DefaultBriefTitle, brief.Title)
	assert.Equal(t, "Only a summary", brief.Summary)
	assert.Equal(t, []string{}, brief.ActionItems)
	assert.Equal(t, record.SentimentNeutral, brief.Sentiment)
}

func TestGemini_Analyze_Unparseable(t *testing.T) {
	g := newTestGemini(&fakeGenerator{reply: "I could not do that."})

	brief, err := g.Analyze(context.Background(), transcript, "straight")

	require.NoError(t, err)
	assert.Equal(t, "Analysis Complete", brief.Title)
	assert.Equal(t, []string{record.ErrorTag}, brief.Tags)
}

func TestGemini_Analyze_Errors(t *testing.T) {
	tests := []struct {
		name     string
		genErr   error
		input    string
		persona  string
		wantCode errors.ErrorCode
		wantMsg  string
	}{
		{"too short", nil, "hi", "", errors.ErrTranscriptTooShort, ""},
		{"unknown persona", nil, transcript, "pirate", errors.ErrInvalidRequest, ""},
		{"bad key", stderrors.New("API key not valid"), transcript, "", errors.ErrAnalysisUnavailable, "Invalid API key. Please check your configuration."},
		{"quota", stderrors.New("Quota exceeded for model"), transcript, "", errors.ErrAnalysisUnavailable, "API quota exceeded. Please try again later."},
		{"other", stderrors.New("boom"), transcript, "", errors.ErrUpstream, "Analysis failed: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGemini(&fakeGenerator{err: tt.genErr})
			_, err := g.Analyze(context.Background(), tt.input, tt.persona)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantCode), "got %v", err)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errors.As(err).Message)
			}
		})
	}
}

func TestBackend_Analyze(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]any{"title": "From backend"}})
	}))
	defer srv.Close()

	a := NewBackend(backend.New(srv.URL))
	brief, err := a.Analyze(context.Background(), transcript, "consultant")

	require.NoError(t, err)
	assert.Equal(t, "From backend", brief.Title)
	assert.Equal(t, "analyze_text", got["action"])
	assert.True(t, strings.HasPrefix(got["transcript"], "Hey it's Brandon"))

	_, err = a.Analyze(context.Background(), "tiny", "")
	assert.True(t, errors.Is(err, errors.ErrTranscriptTooShort))
}

func TestSelect(t *testing.T) {
	_, err := Select(context.Background(), "", "", backend.New(""), nil)
	assert.True(t, errors.Is(err, errors.ErrAnalysisUnavailable))

	a, err := Select(context.Background(), "", "", backend.New("http://example.invalid/exec"), nil)
	require.NoError(t, err)
	assert.Equal(t, "backend", a.Name())
}

func TestLookupPersona(t *testing.T) {
	p, err := LookupPersona("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPersona, p.ID)

	p, err = LookupPersona(" MobileMech ")
	require.NoError(t, err)
	assert.Equal(t, "MobileMech AI", p.Label)

	ids := []string{}
	for _, p := range Personas() {
		ids = append(ids, p.ID)
		assert.NotEmpty(t, p.Prompt)
	}
	assert.Equal(t, []string{"consultant", "mobilemech", "finance", "straight", "system"}, ids)
}

func TestLabRecord(t *testing.T) {
	brief := &record.ExecutiveBrief{Title: "T", Summary: "S", ActionItems: []string{"a"}, Tags: []string{"#x"}, Sentiment: "Neutral"}

	rec := LabRecord("the transcript", " 555-0123 ", brief)

	assert.True(t, strings.HasPrefix(rec.ID, "call-"))
	assert.Equal(t, "Manual Entry", rec.ContactName)
	assert.Equal(t, "555-0123", rec.PhoneNumber)
	assert.Equal(t, "0m 00s", rec.Duration)
	assert.Equal(t, record.StatusCompleted, rec.Status)
	assert.Equal(t, []string{"#x"}, rec.Tags)
	require.NotNil(t, rec.ExecutiveBrief)
	assert.Equal(t, "T", rec.ExecutiveBrief.Title)

	brief.ActionItems[0] = "changed"
	assert.Equal(t, "a", rec.ExecutiveBrief.ActionItems[0])

	bare := LabRecord("x", "", nil)
	assert.Nil(t, bare.ExecutiveBrief)
	assert.Equal(t, []string{}, bare.Tags)
}
