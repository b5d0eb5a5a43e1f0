package domain

import "time"

// InvalidIDURL is recorded in place of a destination when resolution fails.
const InvalidIDURL = "invalid ID"

// Event is one resolution attempt, found or not
type Event struct {
	Seq        int64          `json:"-"`
	ID         string         `json:"id"`
	URL        string         `json:"url"`
	Time       time.Time      `json:"time"`
	IP         string         `json:"ip"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Outcome is the result of resolving an identifier
type Outcome struct {
	Found bool
	URL   string
}

// Found builds a successful outcome
func Found(url string) Outcome {
	return Outcome{Found: true, URL: url}
}

// NotFound is the outcome for an unknown identifier.
var NotFound = Outcome{}

// ClientInfo is what the transport knows about the caller.
type ClientInfo struct {
	IP         string
	Attributes map[string]any
}

// EventStats represents aggregated statistics for an identifier
type EventStats struct {
	ID          string `json:"id"`
	TotalEvents int64  `json:"total_events"`
}
