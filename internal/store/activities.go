package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/rolodex/internal/contact"
)

// HasActivities reports whether the schema includes the activities table.
func (s *Store) HasActivities() bool {
	return s.version >= 2
}

func (s *Store) requireActivities(op string) error {
	if !s.HasActivities() {
		return contact.Errorf(contact.NotSupported, op, "schema version %d has no activities table", s.version)
	}
	return nil
}

// AddActivities upserts events keyed by (date, title) in one transaction.
// An event with a zero date or an empty title is InvalidArgument.
func (s *Store) AddActivities(ctx context.Context, acts []contact.Activity) (int, error) {
	if err := s.requireActivities("add activities"); err != nil {
		return 0, err
	}

	type row struct {
		date, title, author, payload string
	}
	rows := make([]row, 0, len(acts))
	for i, a := range acts {
		if a.Date.IsZero() || a.Title == "" {
			return 0, contact.Errorf(contact.InvalidArgument, "add activities",
				"activity[%d]: date and title are required", i)
		}
		payload, err := marshalActivity(a)
		if err != nil {
			return 0, contact.E(contact.InvalidArgument, "add activities", err)
		}
		rows = append(rows, row{formatStored(a.Date), a.Title, a.Author, payload})
	}

	err := s.withTx(ctx, "add activities", true, func(ctx context.Context, tx *sql.Tx) error {
		for _, r := range rows {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO activities (date, title, author, payload)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(date, title) DO UPDATE SET
					author = excluded.author,
					payload = excluded.payload
			`, r.date, r.title, r.author, r.payload)
			if err != nil {
				return fmt.Errorf("put activity %s %q: %w", r.date, r.title, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// RecentActivity returns the events matching f, newest first. A date range
// uses the date index; author is an exact match.
func (s *Store) RecentActivity(ctx context.Context, f contact.ActivityFilter) ([]contact.Activity, error) {
	if err := s.requireActivities("recent activity"); err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	if !f.Since.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, formatStored(f.Since))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "date < ?")
		args = append(args, formatStored(f.Until))
	}
	if f.Author != "" {
		conds = append(conds, "author = ?")
		args = append(args, f.Author)
	}
	q := "SELECT payload FROM activities"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY date DESC, title COLLATE BINARY ASC"

	results := []contact.Activity{}
	err := s.withTx(ctx, "recent activity", false, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("query activities: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var payload string
			if err := rows.Scan(&payload); err != nil {
				return fmt.Errorf("scan activity: %w", err)
			}
			a, err := unmarshalActivity(payload)
			if err != nil {
				return err
			}
			results = append(results, a)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate activities: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
