package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
	"github.com/wadjakorntonsri/qr-redirect/pkg/metrics"
	"github.com/wadjakorntonsri/qr-redirect/pkg/ports"
)

// RedirectService owns identifier assignment and deduplication.
type RedirectService struct {
	// mu makes find-or-insert one step for this process.
	mu    sync.Mutex
	repo  ports.RedirectRepository
	ids   *IDGenerator
	cache *cache.Cache
}

func NewRedirectService(repo ports.RedirectRepository, ids *IDGenerator, cacheTTL time.Duration) *RedirectService {
	return &RedirectService{
		repo:  repo,
		ids:   ids,
		cache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

// CreateOrGet returns the id of the record for (url, location, style),
// creating and persisting it first if the triple is new.
func (s *RedirectService) CreateOrGet(ctx context.Context, url, location string, style int) (string, error) {
	if err := ValidateURL(url); err != nil {
		return "", err
	}
	t := domain.Triple{URL: url, Location: location, Style: style}.Normalize()

	// Records are never updated, so a hit outside the lock is final.
	if existing, err := s.repo.FindByTriple(ctx, t); err == nil && existing != nil {
		return existing.ID, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	link := &domain.Redirect{
		ID:        s.ids.Next(),
		URL:       t.URL,
		Location:  t.Location,
		Style:     domain.Style(t.Style),
		CreatedAt: time.Now().UTC(),
	}

	stored, created, err := s.repo.CreateOrGet(ctx, link)
	if err != nil {
		metrics.StoreFailures.WithLabelValues("create").Inc()
		log.Error().Err(err).Str("url", t.URL).Str("location", t.Location).Int("style", t.Style).Msg("Failed to persist redirect")
		return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if created {
		metrics.RedirectsCreated.Inc()
		log.Info().Str("id", stored.ID).Str("url", stored.URL).Msg("Redirect created")
	}
	s.cache.Set(stored.ID, stored, cache.DefaultExpiration)

	return stored.ID, nil
}

// GetByID looks a record up without side effects on the store.
func (s *RedirectService) GetByID(ctx context.Context, id string) (*domain.Redirect, error) {
	if cached, ok := s.cache.Get(id); ok {
		link := *cached.(*domain.Redirect)
		return &link, nil
	}

	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		metrics.StoreFailures.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if link == nil {
		return nil, domain.ErrNotFound
	}

	s.cache.Set(id, link, cache.DefaultExpiration)
	copied := *link
	return &copied, nil
}

func (s *RedirectService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *RedirectService) Dump(ctx context.Context) ([]domain.Redirect, error) {
	return s.repo.Dump(ctx)
}

// Import stores records that carry their own ids, e.g. from an export.
// Records whose triple already exists are skipped. It returns how many
// records were added.
func (s *RedirectService) Import(ctx context.Context, links []domain.Redirect) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, l := range links {
		if err := ValidateURL(l.URL); err != nil {
			log.Warn().Err(err).Str("id", l.ID).Msg("Skipping invalid record")
			continue
		}
		t := l.Triple().Normalize()
		l.Location = t.Location
		l.Style = domain.Style(t.Style)
		if l.ID == "" {
			l.ID = s.ids.Next()
		} else if existing, err := s.repo.GetByID(ctx, l.ID); err == nil && existing != nil {
			log.Info().Str("id", l.ID).Msg("Skipping existing code")
			continue
		}

		stored, created, err := s.repo.CreateOrGet(ctx, &l)
		if err != nil {
			return count, fmt.Errorf("%w: import %s: %v", domain.ErrPersistence, l.ID, err)
		}
		if !created {
			log.Info().Str("id", l.ID).Str("existing_id", stored.ID).Msg("Skipping existing triple")
			continue
		}
		count++
	}
	return count, nil
}

// Ensure interface compliance
var _ ports.RedirectStore = (*RedirectService)(nil)
