package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
	"github.com/wadjakorntonsri/qr-redirect/pkg/ports"
)

var redirectSchema = []string{
	`CREATE TABLE IF NOT EXISTS redirects (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT 'N/A',
		style INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	// The triple determines the id.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_redirects_triple ON redirects(url, location, style)`,
}

type RedirectRepository struct {
	db *sql.DB
}

func NewRedirectRepository(ctx context.Context, dbURL string) (*RedirectRepository, error) {
	db, err := open(ctx, dbURL, redirectSchema)
	if err != nil {
		return nil, err
	}
	return &RedirectRepository{db: db}, nil
}

const selectRedirect = `SELECT id, url, location, style, created_at FROM redirects`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRedirect(row rowScanner) (*domain.Redirect, error) {
	var link domain.Redirect
	var createdAt sql.NullTime
	if err := row.Scan(&link.ID, &link.URL, &link.Location, &link.Style, &createdAt); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		link.CreatedAt = createdAt.Time
	}
	return &link, nil
}

func (r *RedirectRepository) CreateOrGet(ctx context.Context, link *domain.Redirect) (*domain.Redirect, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	existing, err := scanRedirect(tx.QueryRowContext(ctx,
		selectRedirect+` WHERE url = ? AND location = ? AND style = ?`,
		link.URL, link.Location, int(link.Style)))
	switch {
	case err == nil:
		return existing, false, tx.Commit()
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, err
	}

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO redirects (id, url, location, style, created_at) VALUES (?, ?, ?, ?, ?)`,
		link.ID, link.URL, link.Location, int(link.Style), link.CreatedAt)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	created := *link
	return &created, true, nil
}

// GetByID returns nil, nil when no record has the id.
func (r *RedirectRepository) GetByID(ctx context.Context, id string) (*domain.Redirect, error) {
	link, err := scanRedirect(r.db.QueryRowContext(ctx, selectRedirect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *RedirectRepository) FindByTriple(ctx context.Context, t domain.Triple) (*domain.Redirect, error) {
	link, err := scanRedirect(r.db.QueryRowContext(ctx,
		selectRedirect+` WHERE url = ? AND location = ? AND style = ?`,
		t.URL, t.Location, t.Style))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *RedirectRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM redirects`).Scan(&count)
	return count, err
}

func (r *RedirectRepository) Dump(ctx context.Context) ([]domain.Redirect, error) {
	rows, err := r.db.QueryContext(ctx, selectRedirect+` ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.Redirect
	for rows.Next() {
		link, err := scanRedirect(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

func (r *RedirectRepository) Close() error {
	return r.db.Close()
}

// Ensure interface compliance
var _ ports.RedirectRepository = (*RedirectRepository)(nil)
