// Package record holds the canonical call/contact model and the pure
// functions that normalize raw spreadsheet rows into it.
package record

// Status is the analysis lifecycle state of a call.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Sentiment values produced by analysis. Input is not restricted to these.
const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

// ExecutiveBrief is the structured summary of a call.
type ExecutiveBrief struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	ActionItems []string `json:"actionItems"`
	Tags        []string `json:"tags"`
	Sentiment   string   `json:"sentiment"`
}

// CallRecord is one communication event.
type CallRecord struct {
	ID             string          `json:"id"`
	Timestamp      string          `json:"timestamp"`
	ContactName    string          `json:"contactName"`
	PhoneNumber    string          `json:"phoneNumber"`
	Duration       string          `json:"duration"`
	Transcript     string          `json:"transcript"`
	ExecutiveBrief *ExecutiveBrief `json:"executiveBrief,omitempty"`
	Tags           []string        `json:"tags"`
	Status         Status          `json:"status"`
}

// HasActionItems reports whether the call carries at least one action item.
func (c CallRecord) HasActionItems() bool {
	return c.ExecutiveBrief != nil && len(c.ExecutiveBrief.ActionItems) > 0
}

// Contact is a resolved person or entity.
type Contact struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	Organization  string `json:"organization"`
	LastContacted string `json:"lastContacted"`
	TotalCalls    int    `json:"totalCalls"`
}

// Default display values for missing fields.
const (
	UnknownCaller  = "Unknown Caller"
	UnknownContact = "Unknown Contact"
)
