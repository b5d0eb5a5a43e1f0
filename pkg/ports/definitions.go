package ports

import (
	"context"

	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
)

// RedirectRepository defines storage operations for redirect records
type RedirectRepository interface {
	// CreateOrGet inserts link unless a record with the same triple exists,
	// in one transaction. It returns the stored record and whether it was new.
	CreateOrGet(ctx context.Context, link *domain.Redirect) (*domain.Redirect, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Redirect, error)
	FindByTriple(ctx context.Context, t domain.Triple) (*domain.Redirect, error)
	Count(ctx context.Context) (int64, error)
	Dump(ctx context.Context) ([]domain.Redirect, error) // For migration
	Close() error
}

// EventRepository is the append-only analytics log
type EventRepository interface {
	Append(ctx context.Context, event *domain.Event) error
	Count(ctx context.Context) (int64, error)
	CountByID(ctx context.Context, id string) (int64, error)
	Dump(ctx context.Context) ([]domain.Event, error)
	Close() error
}

// RedirectStore defines the creation and lookup operations
type RedirectStore interface {
	CreateOrGet(ctx context.Context, url, location string, style int) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Redirect, error)
}

// Analytics records resolution attempts
type Analytics interface {
	Record(ctx context.Context, event *domain.Event) error
	NewEvent(id string, outcome domain.Outcome, client domain.ClientInfo) *domain.Event
	Stats(ctx context.Context, id string) (*domain.EventStats, error)
}

// Resolver turns an identifier into a redirect decision
type Resolver interface {
	Resolve(ctx context.Context, id string, client domain.ClientInfo) (domain.Outcome, error)
}
