package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/rolodex/internal/contact"
	"github.com/roach88/rolodex/internal/query"
)

var (
	baseColumns       = []string{"id", "published", "updated", "display_name", "family_name", "given_name", "properties"}
	provenanceColumns = []string{"frecency", "source", "sources"}
)

// contactColumns lists the contacts columns present at a schema version.
func contactColumns(version int) []string {
	cols := slices.Clone(baseColumns)
	if version >= 3 {
		cols = append(cols, provenanceColumns...)
	}
	return cols
}

func contactsCompiler(version int) *query.SQLCompiler {
	return &query.SQLCompiler{
		Table:   "contacts",
		Columns: contactColumns(version),
		Indexes: map[string]string{
			contact.FieldID:          "id",
			contact.FieldDisplayName: "display_name",
			contact.FieldFamilyName:  "family_name",
			contact.FieldGivenName:   "given_name",
			contact.FieldPublished:   "published",
			contact.FieldUpdated:     "updated",
		},
		Encoders: map[string]func(string) (any, error){
			contact.FieldPublished: encodeStoredTime,
			contact.FieldUpdated:   encodeStoredTime,
		},
		OrderKey: "id",
	}
}

// encodeStoredTime turns a filter timestamp into the stored column text.
func encodeStoredTime(v string) (any, error) {
	t, err := contact.ParseTime(v)
	if err != nil {
		return nil, err
	}
	return formatStored(t), nil
}

// rowValues returns rec's column values in contactColumns order.
func (s *Store) rowValues(rec contact.Record) ([]any, error) {
	props, err := marshalProperties(rec.Properties)
	if err != nil {
		return nil, err
	}
	vals := []any{
		rec.ID,
		formatStored(rec.Published),
		formatStored(rec.Updated),
		rec.Properties.DisplayName,
		rec.Properties.Name.FamilyName,
		rec.Properties.Name.GivenName,
		props,
	}
	if s.version >= 3 {
		sources, err := marshalSources(rec.Sources)
		if err != nil {
			return nil, err
		}
		vals = append(vals, rec.Frecency, rec.Source, sources)
	}
	return vals, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (s *Store) insertSQL() string {
	cols := s.compiler.Columns
	return fmt.Sprintf("INSERT INTO contacts (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders(len(cols)))
}

// upsertSQL inserts or replaces a row, keeping the stored published time.
func (s *Store) upsertSQL() string {
	var sets []string
	for _, c := range s.compiler.Columns {
		if c == "id" || c == "published" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	return s.insertSQL() + " ON CONFLICT(id) DO UPDATE SET " + strings.Join(sets, ", ")
}

// prepare copies rec and readies it for writing: empty entries dropped,
// displayName derived, entry types checked and an id assigned if missing.
func (s *Store) prepare(op string, rec contact.Record) (contact.Record, error) {
	rec = rec.Clone()
	rec.Properties.Normalize()
	if err := rec.Properties.Validate(); err != nil {
		return rec, contact.E(contact.InvalidArgument, op, err)
	}
	if rec.ID == "" {
		id, err := s.ids.NewID()
		if err != nil {
			return rec, contact.E(contact.IO, op, err)
		}
		rec.ID = id
	}
	return rec, nil
}

// get reads one record inside tx.
func (s *Store) get(ctx context.Context, tx *sql.Tx, id string) (contact.Record, error) {
	row := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM contacts WHERE id = ?", strings.Join(s.compiler.Columns, ", ")), id)
	rec, err := s.scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, contact.Errorf(contact.NotFound, "get", "no contact with id %q", id)
	}
	if err != nil {
		return rec, fmt.Errorf("read contact %q: %w", id, err)
	}
	return rec, nil
}

// Find returns the records selected by opts.
//
// fields must be non-empty and name contact fields; records are returned
// whole. With no filter and no search every record is returned. Results are
// ordered by id.
func (s *Store) Find(ctx context.Context, fields []string, opts query.Options) ([]contact.Record, error) {
	if err := query.ValidateFields(fields); err != nil {
		return nil, err
	}
	plan, err := s.compiler.Compile(opts)
	if err != nil {
		return nil, err
	}

	results := []contact.Record{}
	err = s.withTx(ctx, "find", false, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, plan.SQL, plan.Args...)
		if err != nil {
			return fmt.Errorf("query contacts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := s.scanContact(rows)
			if err != nil {
				return err
			}
			if plan.Match(rec) {
				results = append(results, rec)
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate contacts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// All returns every record ordered by id.
func (s *Store) All(ctx context.Context) ([]contact.Record, error) {
	return s.Find(ctx, contact.Fields, query.Options{})
}

// GetByID returns the record with the given id, or NotFound.
func (s *Store) GetByID(ctx context.Context, id string) (contact.Record, error) {
	if id == "" {
		return contact.Record{}, contact.Errorf(contact.InvalidArgument, "get", "empty id")
	}
	var rec contact.Record
	err := s.withTx(ctx, "get", false, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		rec, err = s.get(ctx, tx, id)
		return err
	})
	return rec, err
}

// Create inserts a new record and returns it as stored.
//
// A random id is assigned when rec.ID is empty. Published and Updated are
// set to the current time. An existing id is InvalidArgument.
func (s *Store) Create(ctx context.Context, rec contact.Record) (contact.Record, error) {
	rec, err := s.prepare("create", rec)
	if err != nil {
		return contact.Record{}, err
	}
	now := s.clock.Now().UTC()
	rec.Published, rec.Updated = now, now

	vals, err := s.rowValues(rec)
	if err != nil {
		return contact.Record{}, contact.E(contact.InvalidArgument, "create", err)
	}

	var created contact.Record
	err = s.withTx(ctx, "create", true, func(ctx context.Context, tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM contacts WHERE id = ?", rec.ID).Scan(&exists)
		if err == nil {
			return contact.Errorf(contact.InvalidArgument, "create", "contact %q already exists", rec.ID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check id: %w", err)
		}

		if _, err := tx.ExecContext(ctx, s.insertSQL(), vals...); err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}
		created, err = s.get(ctx, tx, rec.ID)
		return err
	})
	if err != nil {
		return contact.Record{}, err
	}
	s.logger.Debug("contact created", "id", created.ID)
	return created, nil
}

// Update replaces the stored record with rec and returns it as stored.
//
// Published is kept from the stored row and Updated is refreshed, never
// earlier than Published. A missing id is NotFound.
func (s *Store) Update(ctx context.Context, rec contact.Record) (contact.Record, error) {
	if rec.ID == "" {
		return contact.Record{}, contact.Errorf(contact.InvalidArgument, "update", "empty id")
	}
	rec, err := s.prepare("update", rec)
	if err != nil {
		return contact.Record{}, err
	}

	var updated contact.Record
	err = s.withTx(ctx, "update", true, func(ctx context.Context, tx *sql.Tx) error {
		existing, err := s.get(ctx, tx, rec.ID)
		if err != nil {
			return err
		}
		rec.Published = existing.Published
		rec.Updated = s.clock.Now().UTC()
		if rec.Updated.Before(rec.Published) {
			rec.Updated = rec.Published
		}

		vals, err := s.rowValues(rec)
		if err != nil {
			return contact.E(contact.InvalidArgument, "update", err)
		}
		if _, err := tx.ExecContext(ctx, s.upsertSQL(), vals...); err != nil {
			return fmt.Errorf("update contact: %w", err)
		}
		updated, err = s.get(ctx, tx, rec.ID)
		return err
	})
	if err != nil {
		return contact.Record{}, err
	}
	return updated, nil
}

// Delete removes the record with the given id. A missing id is NotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.DeleteMany(ctx, []string{id})
}

// DeleteMany removes every listed record in one transaction. If any id is
// missing nothing is removed and the result is NotFound.
func (s *Store) DeleteMany(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if id == "" {
			return contact.Errorf(contact.InvalidArgument, "delete", "empty id")
		}
	}
	return s.withTx(ctx, "delete", true, func(ctx context.Context, tx *sql.Tx) error {
		for _, id := range ids {
			n, err := deleteContact(ctx, tx, id)
			if err != nil {
				return err
			}
			if n == 0 {
				return contact.Errorf(contact.NotFound, "delete", "no contact with id %q", id)
			}
		}
		return nil
	})
}

func deleteContact(ctx context.Context, tx *sql.Tx, id string) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete contact %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete contact %q: %w", id, err)
	}
	return n, nil
}

// PutAll inserts or replaces every record in one transaction and returns
// them as stored, in input order.
//
// Records without an id get one. Published is kept for ids that already
// exist; Updated is refreshed on every record.
func (s *Store) PutAll(ctx context.Context, recs []contact.Record) ([]contact.Record, error) {
	prepared, err := s.prepareAll("put", recs)
	if err != nil {
		return nil, err
	}

	var stored []contact.Record
	err = s.withTx(ctx, "put", true, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		stored, err = s.put(ctx, tx, prepared)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("contacts stored", "count", len(stored))
	return stored, nil
}

// PutMerged stores merged identities and removes the records they absorbed,
// in one transaction. A stored record is absorbed when every provenance key
// it carries appears in the sources of the identities being saved. Returns
// the identities as stored and the number of records removed.
func (s *Store) PutMerged(ctx context.Context, recs []contact.Record) ([]contact.Record, int, error) {
	covered := make(map[string]bool)
	keep := make(map[string]bool, len(recs))
	for i, r := range recs {
		if len(r.Sources) == 0 || r.ID == "" {
			return nil, 0, contact.Errorf(contact.InvalidArgument, "put merged",
				"identity %d has no id or no sources", i)
		}
		keep[r.ID] = true
		for _, k := range r.Sources {
			covered[k] = true
		}
	}
	prepared, err := s.prepareAll("put merged", recs)
	if err != nil {
		return nil, 0, err
	}

	var stored []contact.Record
	var removed int
	err = s.withTx(ctx, "put merged", true, func(ctx context.Context, tx *sql.Tx) error {
		absorbed, err := s.absorbed(ctx, tx, covered, keep)
		if err != nil {
			return err
		}
		for _, id := range absorbed {
			if _, err := deleteContact(ctx, tx, id); err != nil {
				return err
			}
		}
		removed = len(absorbed)
		stored, err = s.put(ctx, tx, prepared)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	s.logger.Debug("merged contacts stored", "count", len(stored), "absorbed", removed)
	return stored, removed, nil
}

// absorbed lists the ids of stored records, other than keep, whose keys
// all lie in covered.
func (s *Store) absorbed(ctx context.Context, tx *sql.Tx, covered, keep map[string]bool) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM contacts ORDER BY id COLLATE BINARY ASC", strings.Join(s.compiler.Columns, ", ")))
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		rec, err := s.scanContact(rows)
		if err != nil {
			return nil, err
		}
		if keep[rec.ID] {
			continue
		}
		keys := contact.ObservationFromRecord(rec).Keys()
		if len(keys) > 0 && !slices.ContainsFunc(keys, func(k string) bool { return !covered[k] }) {
			ids = append(ids, rec.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return ids, nil
}

func (s *Store) prepareAll(op string, recs []contact.Record) ([]contact.Record, error) {
	prepared := make([]contact.Record, 0, len(recs))
	for _, r := range recs {
		p, err := s.prepare(op, r)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, p)
	}
	return prepared, nil
}

// put upserts prepared records inside tx and reads each back.
func (s *Store) put(ctx context.Context, tx *sql.Tx, prepared []contact.Record) ([]contact.Record, error) {
	stored := make([]contact.Record, 0, len(prepared))
	now := s.clock.Now().UTC()
	upsert := s.upsertSQL()
	for _, rec := range prepared {
		rec.Published, rec.Updated = now, now
		existing, err := s.get(ctx, tx, rec.ID)
		switch {
		case err == nil:
			rec.Published = existing.Published
			if rec.Updated.Before(rec.Published) {
				rec.Updated = rec.Published
			}
		case !contact.IsKind(err, contact.NotFound):
			return nil, err
		}

		vals, err := s.rowValues(rec)
		if err != nil {
			return nil, contact.E(contact.InvalidArgument, "put", err)
		}
		if _, err := tx.ExecContext(ctx, upsert, vals...); err != nil {
			return nil, fmt.Errorf("put contact %q: %w", rec.ID, err)
		}
		got, err := s.get(ctx, tx, rec.ID)
		if err != nil {
			return nil, err
		}
		stored = append(stored, got)
	}
	return stored, nil
}

// SetFrecency replaces every stored frecency with scores. Contacts absent
// from scores drop to zero. Only rows whose frecency changes are written,
// and those get a fresh Updated. Returns the number of contacts given a
// positive score.
func (s *Store) SetFrecency(ctx context.Context, scores map[string]int64) (int, error) {
	if s.version < 3 {
		return 0, contact.Errorf(contact.NotSupported, "set frecency",
			"schema version %d has no frecency column", s.version)
	}
	var positive int
	err := s.withTx(ctx, "set frecency", true, func(ctx context.Context, tx *sql.Tx) error {
		current, err := frecencies(ctx, tx)
		if err != nil {
			return err
		}
		now := formatStored(s.clock.Now())
		for _, id := range slices.Sorted(maps.Keys(current)) {
			score := max(scores[id], 0)
			if score > 0 {
				positive++
			}
			if score == current[id] {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE contacts SET frecency = ?, updated = MAX(published, ?) WHERE id = ?",
				score, now, id); err != nil {
				return fmt.Errorf("set frecency %q: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return positive, nil
}

func frecencies(ctx context.Context, tx *sql.Tx) (map[string]int64, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id, frecency FROM contacts")
	if err != nil {
		return nil, fmt.Errorf("read frecency: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id string
		var f int64
		if err := rows.Scan(&id, &f); err != nil {
			return nil, fmt.Errorf("read frecency: %w", err)
		}
		out[id] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read frecency: %w", err)
	}
	return out, nil
}

// DeleteAll removes every contact and every activity in one transaction.
func (s *Store) DeleteAll(ctx context.Context) error {
	return s.withTx(ctx, "delete all", true, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM contacts"); err != nil {
			return fmt.Errorf("delete contacts: %w", err)
		}
		if s.version >= 2 {
			if _, err := tx.ExecContext(ctx, "DELETE FROM activities"); err != nil {
				return fmt.Errorf("delete activities: %w", err)
			}
		}
		return nil
	})
}
