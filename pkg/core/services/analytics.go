package services

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
	"github.com/wadjakorntonsri/qr-redirect/pkg/metrics"
	"github.com/wadjakorntonsri/qr-redirect/pkg/ports"
)

// AnalyticsLogger appends one event per resolution attempt.
type AnalyticsLogger struct {
	repo ports.EventRepository
	loc  *time.Location
	now  func() time.Time
}

func NewAnalyticsLogger(repo ports.EventRepository, loc *time.Location) *AnalyticsLogger {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsLogger{repo: repo, loc: loc, now: time.Now}
}

// NewEvent builds the event for a resolution of id.
func (a *AnalyticsLogger) NewEvent(id string, outcome domain.Outcome, client domain.ClientInfo) *domain.Event {
	url := domain.InvalidIDURL
	if outcome.Found {
		url = outcome.URL
	}
	return &domain.Event{
		ID:         id,
		URL:        url,
		Time:       a.now().In(a.loc),
		IP:         client.IP,
		Attributes: client.Attributes,
	}
}

// Record persists event and returns once it is committed. The write is
// detached from ctx cancellation so a client hanging up does not drop it.
func (a *AnalyticsLogger) Record(ctx context.Context, event *domain.Event) error {
	event.Attributes = CompactAttributes(event.Attributes)

	if err := a.repo.Append(context.WithoutCancel(ctx), event); err != nil {
		metrics.AnalyticsWriteFailures.Inc()
		log.Error().Err(err).Str("id", event.ID).Msg("Failed to record analytics event")
		return fmt.Errorf("%w: %v", domain.ErrAnalyticsPersistence, err)
	}

	metrics.AnalyticsEvents.Inc()
	return nil
}

func (a *AnalyticsLogger) Stats(ctx context.Context, id string) (*domain.EventStats, error) {
	total, err := a.repo.CountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.EventStats{ID: id, TotalEvents: total}, nil
}

func (a *AnalyticsLogger) Count(ctx context.Context) (int64, error) {
	return a.repo.Count(ctx)
}

func (a *AnalyticsLogger) Dump(ctx context.Context) ([]domain.Event, error) {
	return a.repo.Dump(ctx)
}

// Import appends previously captured events in order.
func (a *AnalyticsLogger) Import(ctx context.Context, events []domain.Event) (int, error) {
	for i := range events {
		if err := a.Record(ctx, &events[i]); err != nil {
			return i, err
		}
	}
	return len(events), nil
}

// CompactAttributes drops attributes whose value is absent or falsy:
// nil, empty strings, false, numeric zero and empty collections.
func CompactAttributes(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if truthy(v) {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	default:
		return !rv.IsZero()
	}
}

// Ensure interface compliance
var _ ports.Analytics = (*AnalyticsLogger)(nil)
