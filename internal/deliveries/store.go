package deliveries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/dmrelay/internal/db"
)

// timeLayout is fixed width so text comparison orders chronologically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("delivery not found")

// Store reads and writes the delivery log.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts d. Missing ID and ReceivedAt are filled in.
func (s *Store) Record(ctx context.Context, d Delivery) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.ReceivedAt.IsZero() {
		d.ReceivedAt = time.Now()
	}
	if d.Status == "" {
		d.Status = StatusError
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (
			id, received_at, sender_id, language, stage, status, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.ReceivedAt.UTC().Format(timeLayout),
		d.SenderID,
		d.Language,
		d.Stage,
		string(d.Status),
		d.Error,
		d.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("inserting delivery: %w", err)
	}
	return nil
}

// Get retrieves a single delivery.
func (s *Store) Get(ctx context.Context, id string) (*Delivery, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, received_at, sender_id, language, stage, status, error, duration_ms
		FROM deliveries WHERE id = ?`, id)

	d, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// Filter controls which deliveries List returns.
type Filter struct {
	Status   Status
	SenderID string
	Since    *time.Time
	Limit    int
}

// List returns deliveries matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Delivery, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.SenderID != "" {
		clauses = append(clauses, "sender_id = ?")
		args = append(args, filter.SenderID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "received_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}

	query := "SELECT id, received_at, sender_id, language, stage, status, error, duration_ms FROM deliveries"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY received_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		d, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Stats counts deliveries per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM deliveries GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting deliveries: %w", err)
	}
	defer rows.Close()

	stats := map[Status]int{StatusSuccess: 0, StatusError: 0, StatusSkipped: 0}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats[Status(status)] = n
	}
	return stats, rows.Err()
}

// DeleteBefore removes deliveries received before the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM deliveries WHERE received_at < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old deliveries: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Delivery, error) {
	var (
		d      Delivery
		ts     string
		status string
	)

	err := sc.Scan(&d.ID, &ts, &d.SenderID, &d.Language, &d.Stage, &status, &d.Error, &d.DurationMS)
	if err != nil {
		return nil, err
	}

	d.Status = Status(status)
	if t, parseErr := time.Parse(timeLayout, ts); parseErr == nil {
		d.ReceivedAt = t
	}

	return &d, nil
}
