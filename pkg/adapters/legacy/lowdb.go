// Package legacy reads the JSON documents written by the first version of
// the service, which kept both collections in lowdb files.
package legacy

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
)

// TimeLayout is en-US toLocaleString output, e.g. "10/14/2026, 8:13:05 AM".
const TimeLayout = "1/2/2006, 3:04:05 PM"

type redirectDocument struct {
	Redirects []domain.Redirect `json:"redirects"`
}

type eventDocument struct {
	Events []map[string]json.RawMessage `json:"events"`
}

// DecodeRedirects reads a urlDB.json document.
func DecodeRedirects(r io.Reader) ([]domain.Redirect, error) {
	var doc redirectDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode redirects: %w", err)
	}
	return doc.Redirects, nil
}

// DecodeEvents reads an analyticsDB.json document. Times are interpreted
// in loc; every field other than id, url, time and ip becomes an attribute.
func DecodeEvents(r io.Reader, loc *time.Location) ([]domain.Event, error) {
	var doc eventDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]domain.Event, 0, len(doc.Events))
	for i, raw := range doc.Events {
		e, err := decodeEvent(raw, loc)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func decodeEvent(raw map[string]json.RawMessage, loc *time.Location) (domain.Event, error) {
	var e domain.Event
	var ts string

	fields := map[string]*string{"id": &e.ID, "url": &e.URL, "time": &ts, "ip": &e.IP}
	for key, dst := range fields {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return e, fmt.Errorf("field %s: %w", key, err)
			}
		}
	}

	t, err := ParseTime(ts, loc)
	if err != nil {
		return e, err
	}
	e.Time = t
	e.IP = unquoteIP(e.IP)

	for key, v := range raw {
		if _, known := fields[key]; known {
			continue
		}
		var attr any
		if err := json.Unmarshal(v, &attr); err != nil {
			return e, fmt.Errorf("field %s: %w", key, err)
		}
		if e.Attributes == nil {
			e.Attributes = make(map[string]any)
		}
		e.Attributes[key] = attr
	}
	return e, nil
}

// ParseTime parses TimeLayout, also accepting the narrow no-break space
// newer ICU versions put before AM/PM.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(strings.TrimSpace(s))
	t, err := time.ParseInLocation(TimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: %w", s, err)
	}
	return t, nil
}

// The old service stored ip as JSON.stringify(req.ip), so the value
// carries its own quotes.
func unquoteIP(ip string) string {
	if len(ip) >= 2 && strings.HasPrefix(ip, `"`) && strings.HasSuffix(ip, `"`) {
		var s string
		if err := json.Unmarshal([]byte(ip), &s); err == nil {
			return s
		}
	}
	return ip
}
