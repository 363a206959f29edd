package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/rolodex/internal/contact"
)

// storedTime is the fixed-width timestamp layout used in the database so
// text order matches time order.
const storedTime = "2006-01-02T15:04:05.000000000Z"

func formatStored(t time.Time) string {
	return t.UTC().Format(storedTime)
}

func parseStored(s string) (time.Time, error) {
	t, err := time.Parse(storedTime, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// marshalProperties converts properties to canonical JSON TEXT.
func marshalProperties(p contact.Properties) (string, error) {
	data, err := contact.MarshalCanonical(p)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(data), nil
}

func unmarshalProperties(data string) (contact.Properties, error) {
	var p contact.Properties
	if data == "" || data == "{}" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return p, fmt.Errorf("unmarshal properties: %w", err)
	}
	return p, nil
}

// marshalSources stores provenance as a canonical JSON list.
func marshalSources(sources []string) (string, error) {
	if len(sources) == 0 {
		return "[]", nil
	}
	list := make([]any, len(sources))
	for i, s := range sources {
		list[i] = s
	}
	data, err := contact.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal sources: %w", err)
	}
	return string(data), nil
}

func unmarshalSources(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var sources []string
	if err := json.Unmarshal([]byte(data), &sources); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}
	return sources, nil
}

// marshalActivity stores the whole event as canonical JSON TEXT.
func marshalActivity(a contact.Activity) (string, error) {
	m := map[string]any{
		"date":  contact.FormatTime(a.Date),
		"title": a.Title,
	}
	for k, v := range map[string]string{"author": a.Author, "source": a.Source, "url": a.URL, "body": a.Body} {
		if v != "" {
			m[k] = v
		}
	}
	data, err := contact.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal activity: %w", err)
	}
	return string(data), nil
}

func unmarshalActivity(data string) (contact.Activity, error) {
	var a contact.Activity
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return a, fmt.Errorf("unmarshal activity: %w", err)
	}
	a.Date = a.Date.UTC()
	return a, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanContact reads one row selected with s.columns.
func (s *Store) scanContact(row scanner) (contact.Record, error) {
	var (
		rec                 contact.Record
		published, updated  string
		displayName         string
		family, given       string
		props               string
		frecency            int64
		source, sourcesJSON string
	)
	dest := []any{&rec.ID, &published, &updated, &displayName, &family, &given, &props}
	if s.version >= 3 {
		dest = append(dest, &frecency, &source, &sourcesJSON)
	}
	if err := row.Scan(dest...); err != nil {
		return rec, err
	}

	var err error
	if rec.Published, err = parseStored(published); err != nil {
		return rec, err
	}
	if rec.Updated, err = parseStored(updated); err != nil {
		return rec, err
	}
	if rec.Properties, err = unmarshalProperties(props); err != nil {
		return rec, err
	}
	if rec.Sources, err = unmarshalSources(sourcesJSON); err != nil {
		return rec, err
	}
	rec.Frecency = frecency
	rec.Source = source
	return rec, nil
}
