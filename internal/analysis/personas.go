package analysis

import (
	"strings"

	"github.com/horizonprm/horizon/internal/errors"
)

// DefaultPersona is used when a request names none.
const DefaultPersona = "consultant"

// Persona is a named analysis style.
type Persona struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Prompt      string `json:"-"`
}

var personas = []Persona{
	{
		ID:          "consultant",
		Label:       "Strategic Consultant",
		Description: "Standard executive briefing",
		Prompt: `You are a Strategic Consultant for a Personal Relationship Management system.
Your goal is to analyze raw call transcripts and generate a professional, structured executive brief.
Focus on identifying actionable items and strategic implications.`,
	},
	{
		ID:          "mobilemech",
		Label:       "MobileMech AI",
		Description: "Technical quoting & diagnostics",
		Prompt: `You are the service writer for a mobile mechanic business.
Extract the vehicle, the reported symptoms, the likely diagnosis and any parts or labor to quote.
Action items are concrete next steps for the technician or the customer.`,
	},
	{
		ID:          "finance",
		Label:       "Financial Analyst",
		Description: "P&L and variance tables",
		Prompt: `You are a Financial Analyst.
Identify every figure, budget, price or variance mentioned and state its impact on profit and loss.
The summary may contain a compact markdown table of the figures.`,
	},
	{
		ID:          "straight",
		Label:       "Straight Answer AI",
		Description: "Bullet-point facts only",
		Prompt: `You report facts only. No opinions, no framing, no filler.
The summary is at most two short sentences. Action items are terse imperatives.`,
	},
	{
		ID:          "system",
		Label:       "System Change",
		Description: "Custom context injection",
		Prompt: `You are reviewing a call for changes to processes, systems or agreements.
Record what is changing, who owns the change and when it takes effect.`,
	},
}

// Personas returns the available personas in display order.
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}

// LookupPersona resolves id, defaulting to DefaultPersona when blank.
func LookupPersona(id string) (Persona, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		id = DefaultPersona
	}
	for _, p := range personas {
		if p.ID == id {
			return p, nil
		}
	}
	return Persona{}, errors.NewInvalidRequest("unknown persona: " + id)
}
