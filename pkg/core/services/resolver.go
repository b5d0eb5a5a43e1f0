package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
	"github.com/wadjakorntonsri/qr-redirect/pkg/metrics"
	"github.com/wadjakorntonsri/qr-redirect/pkg/ports"
)

// ResolverService decides where an identifier redirects to and records
// the attempt.
type ResolverService struct {
	store     ports.RedirectStore
	analytics ports.Analytics
}

func NewResolverService(store ports.RedirectStore, analytics ports.Analytics) *ResolverService {
	return &ResolverService{store: store, analytics: analytics}
}

// Resolve records exactly one analytics event per call, before returning,
// whatever the outcome. A failed store read still yields a NotFound event
// and is returned as the error.
func (r *ResolverService) Resolve(ctx context.Context, id string, client domain.ClientInfo) (domain.Outcome, error) {
	outcome := domain.NotFound
	var lookupErr error

	link, err := r.store.GetByID(ctx, id)
	switch {
	case err == nil:
		outcome = domain.Found(link.URL)
		metrics.Resolutions.WithLabelValues(metrics.OutcomeFound).Inc()
	case errors.Is(err, domain.ErrNotFound):
		metrics.Resolutions.WithLabelValues(metrics.OutcomeNotFound).Inc()
	default:
		lookupErr = err
		metrics.Resolutions.WithLabelValues(metrics.OutcomeError).Inc()
	}

	event := r.analytics.NewEvent(id, outcome, client)
	if err := r.analytics.Record(ctx, event); err != nil {
		// Losing an event is tolerated; the redirect still goes out.
		log.Warn().Err(err).Str("id", id).Bool("found", outcome.Found).Msg("Resolution served without analytics")
	}

	return outcome, lookupErr
}

// Ensure interface compliance
var _ ports.Resolver = (*ResolverService)(nil)
