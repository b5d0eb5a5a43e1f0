package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
	"github.com/wadjakorntonsri/qr-redirect/pkg/ports"
)

var eventSchema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		redirect_id TEXT NOT NULL,
		url TEXT NOT NULL,
		time TEXT NOT NULL,
		ip TEXT,
		attributes JSON
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_redirect_id ON events(redirect_id)`,
}

// EventRepository is the analytics log. Rows are only ever inserted.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(ctx context.Context, dbURL string) (*EventRepository, error) {
	db, err := open(ctx, dbURL, eventSchema)
	if err != nil {
		return nil, err
	}
	return &EventRepository{db: db}, nil
}

// Append inserts the event in its own implicit transaction, so it is
// committed to disk when the call returns.
func (r *EventRepository) Append(ctx context.Context, event *domain.Event) error {
	var attrs []byte
	if len(event.Attributes) > 0 {
		var err error
		attrs, err = json.Marshal(event.Attributes)
		if err != nil {
			return err
		}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (redirect_id, url, time, ip, attributes) VALUES (?, ?, ?, ?, ?)`,
		event.ID, event.URL, event.Time.Format(time.RFC3339Nano), event.IP, attrs)
	if err != nil {
		return err
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	event.Seq = seq
	return nil
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	return count, err
}

func (r *EventRepository) CountByID(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE redirect_id = ?`, id).Scan(&count)
	return count, err
}

func (r *EventRepository) Dump(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT seq, redirect_id, url, time, ip, attributes FROM events ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var ts string
		var ip sql.NullString
		var attrs []byte
		if err := rows.Scan(&e.Seq, &e.ID, &e.URL, &ts, &ip, &attrs); err != nil {
			return nil, err
		}
		e.Time, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, err
		}
		e.IP = ip.String
		if len(attrs) > 0 {
			_ = json.Unmarshal(attrs, &e.Attributes)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *EventRepository) Close() error {
	return r.db.Close()
}

// Ensure interface compliance
var _ ports.EventRepository = (*EventRepository)(nil)
