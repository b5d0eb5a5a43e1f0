package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultLocation is stored when a creation request carries no location tag.
	DefaultLocation = "N/A"
	// DefaultStyle is stored when a creation request carries no style.
	DefaultStyle = 1
)

// Redirect maps a short identifier to its destination
type Redirect struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Location  string    `json:"location"`
	Style     Style     `json:"style"`
	CreatedAt time.Time `json:"created_at"`
}

// Triple returns the dedup key of the record
func (r *Redirect) Triple() Triple {
	return Triple{URL: r.URL, Location: r.Location, Style: int(r.Style)}
}

// Triple is the (url, location, style) combination identifying a record.
type Triple struct {
	URL      string
	Location string
	Style    int
}

// Normalize fills in the default location and style.
func (t Triple) Normalize() Triple {
	if t.Location == "" {
		t.Location = DefaultLocation
	}
	if t.Style == 0 {
		t.Style = DefaultStyle
	}
	return t
}

// Style is the presentation variant of a record. Older exports wrote it
// either as a number or as the raw query string, so both decode.
type Style int

func (s *Style) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = DefaultStyle
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		raw = strings.TrimSpace(text)
	}
	if raw == "" {
		*s = DefaultStyle
		return nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("style %q is not an integer", raw)
	}
	*s = Style(n)
	return nil
}
