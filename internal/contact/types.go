package contact

import (
	"slices"
	"strings"
	"time"
)

// FieldType classifies a repeated-value entry.
type FieldType string

const (
	TypeHome   FieldType = "home"
	TypeMobile FieldType = "mobile"
	TypeWork   FieldType = "work"
	TypeOther  FieldType = "other"
)

// FieldTypes lists the allowed entry types in display order.
var FieldTypes = []FieldType{TypeHome, TypeMobile, TypeWork, TypeOther}

// Valid reports whether t is one of FieldTypes. The empty type is valid and
// means "unspecified".
func (t FieldType) Valid() bool {
	return t == "" || slices.Contains(FieldTypes, t)
}

// Entry is one value of a repeated-value field (an email, a phone number, ...).
type Entry struct {
	Type      FieldType `json:"type,omitempty" yaml:"type,omitempty"`
	Value     string    `json:"value" yaml:"value"`
	Preferred bool      `json:"preferred,omitempty" yaml:"preferred,omitempty"`
}

// Name holds the structured name parts of a contact.
type Name struct {
	FamilyName      string `json:"familyName,omitempty" yaml:"familyName,omitempty"`
	GivenName       string `json:"givenName,omitempty" yaml:"givenName,omitempty"`
	HonorificPrefix string `json:"honorificPrefix,omitempty" yaml:"honorificPrefix,omitempty"`
	HonorificSuffix string `json:"honorificSuffix,omitempty" yaml:"honorificSuffix,omitempty"`
	MiddleName      string `json:"middleName,omitempty" yaml:"middleName,omitempty"`
}

// Account identifies a user on an external service, e.g. {twitter.com, jdoe}.
type Account struct {
	Domain string `json:"domain" yaml:"domain"`
	UserID string `json:"userid" yaml:"userid"`
}

// Key returns the "domain:userid" witness key used by the merge engine.
func (a Account) Key() string {
	return a.Domain + ":" + a.UserID
}

// Properties is the payload of a contact: everything except identity and
// bookkeeping timestamps.
type Properties struct {
	DisplayName   string    `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Name          Name      `json:"name,omitzero" yaml:"name,omitempty"`
	Nickname      string    `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	Note          string    `json:"note,omitempty" yaml:"note,omitempty"`
	Birthday      string    `json:"birthday,omitempty" yaml:"birthday,omitempty"`
	Emails        []Entry   `json:"emails,omitempty" yaml:"emails,omitempty"`
	PhoneNumbers  []Entry   `json:"phoneNumbers,omitempty" yaml:"phoneNumbers,omitempty"`
	Addresses     []Entry   `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	IMs           []Entry   `json:"ims,omitempty" yaml:"ims,omitempty"`
	URLs          []Entry   `json:"urls,omitempty" yaml:"urls,omitempty"`
	Organizations []Entry   `json:"organizations,omitempty" yaml:"organizations,omitempty"`
	Photos        []Entry   `json:"photos,omitempty" yaml:"photos,omitempty"`
	Categories    []Entry   `json:"categories,omitempty" yaml:"categories,omitempty"`
	Accounts      []Account `json:"accounts,omitempty" yaml:"accounts,omitempty"`
}

// Clone returns a deep copy of p. Slices in the copy never alias p's.
func (p Properties) Clone() Properties {
	c := p
	c.Emails = slices.Clone(p.Emails)
	c.PhoneNumbers = slices.Clone(p.PhoneNumbers)
	c.Addresses = slices.Clone(p.Addresses)
	c.IMs = slices.Clone(p.IMs)
	c.URLs = slices.Clone(p.URLs)
	c.Organizations = slices.Clone(p.Organizations)
	c.Photos = slices.Clone(p.Photos)
	c.Categories = slices.Clone(p.Categories)
	c.Accounts = slices.Clone(p.Accounts)
	return c
}

// EmailValues returns the non-empty email addresses in declaration order.
func (p Properties) EmailValues() []string {
	return entryValues(p.Emails)
}

// Record is a persisted contact.
//
// ID is unique across the store. Published is set once at creation; Updated
// is refreshed on every write. Frecency is a derived cache recomputed by the
// scoring pass. Source names the system a record was imported from (empty for
// records created locally) and Sources carries provenance when the record is a
// persisted merge result.
type Record struct {
	ID         string     `json:"id"`
	Published  time.Time  `json:"published"`
	Updated    time.Time  `json:"updated"`
	Properties Properties `json:"properties"`
	Frecency   int64      `json:"frecency,omitempty"`
	Source     string     `json:"source,omitempty"`
	Sources    []string   `json:"sources,omitempty"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	c := r
	c.Properties = r.Properties.Clone()
	c.Sources = slices.Clone(r.Sources)
	return c
}

// LocalSource is the source name given to records that were created through
// the store rather than imported from an external system.
const LocalSource = "local"

// Observation is one source system's view of a single contact, keyed by
// (Source, ID). Observations that already carry Sources (a previously merged
// identity fed back into the merge) contribute those keys instead.
type Observation struct {
	Source  string   `json:"source,omitempty" yaml:"source,omitempty"`
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`
	Properties `yaml:",inline"`
	Frecency   int64 `json:"frecency,omitempty" yaml:"frecency,omitempty"`
}

// Key returns the provenance key "source.id".
func (o Observation) Key() string {
	return o.Source + "." + o.ID
}

// Keys returns every provenance key this observation contributes.
func (o Observation) Keys() []string {
	if len(o.Sources) > 0 {
		return o.Sources
	}
	return []string{o.Key()}
}

// Validate checks that the observation carries a source identity.
func (o Observation) Validate() error {
	if len(o.Sources) > 0 {
		if slices.Contains(o.Sources, "") {
			return Errorf(InvalidArgument, "validate observation", "empty source key")
		}
		return nil
	}
	if o.Source == "" || o.ID == "" {
		return Errorf(InvalidArgument, "validate observation",
			"observation is missing required source and id (source=%q, id=%q)", o.Source, o.ID)
	}
	return nil
}

// ObservationFromRecord turns a stored record into merge input.
//
// Records that carry provenance keep it. Imported records (Source set, ID of
// the form "source.localId") map back to their original key; locally created
// records are keyed under LocalSource.
func ObservationFromRecord(r Record) Observation {
	obs := Observation{
		Properties: r.Properties.Clone(),
		Frecency:   r.Frecency,
	}
	switch {
	case len(r.Sources) > 0:
		obs.Sources = slices.Clone(r.Sources)
	case r.Source != "":
		obs.Source = r.Source
		obs.ID = strings.TrimPrefix(r.ID, r.Source+".")
	default:
		obs.Source = LocalSource
		obs.ID = r.ID
	}
	return obs
}

// RecordFromObservation turns an imported observation into a record keyed by
// its provenance key.
func RecordFromObservation(o Observation) Record {
	return Record{
		ID:         o.Key(),
		Properties: o.Properties.Clone(),
		Frecency:   o.Frecency,
		Source:     o.Source,
	}
}

// MergedContact is a unified identity produced by the merge engine.
// Sources is non-empty and duplicate-free.
type MergedContact struct {
	Properties `yaml:",inline"`
	Sources    []string `json:"sources" yaml:"sources"`
	Frecency   int64    `json:"frecency,omitempty" yaml:"frecency,omitempty"`
}

// ToRecord converts a merge result into a record with a deterministic id
// derived from its source set.
func (m MergedContact) ToRecord() (Record, error) {
	id, err := MergedID(m.Sources)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:         id,
		Properties: m.Properties.Clone(),
		Frecency:   m.Frecency,
		Sources:    slices.Clone(m.Sources),
	}, nil
}

// Activity is a timestamped event involving a contact (a message, a post).
// Activities are keyed by (Date, Title).
type Activity struct {
	Date   time.Time `json:"date" yaml:"date"`
	Title  string    `json:"title" yaml:"title"`
	Author string    `json:"author,omitempty" yaml:"author,omitempty"`
	Source string    `json:"source,omitempty" yaml:"source,omitempty"`
	URL    string    `json:"url,omitempty" yaml:"url,omitempty"`
	Body   string    `json:"body,omitempty" yaml:"body,omitempty"`
}

// ActivityFilter selects activities. Zero fields do not constrain.
// Since is inclusive, Until is exclusive.
type ActivityFilter struct {
	Since  time.Time
	Until  time.Time
	Author string
}

// Match reports whether a satisfies the filter.
func (f ActivityFilter) Match(a Activity) bool {
	if !f.Since.IsZero() && a.Date.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !a.Date.Before(f.Until) {
		return false
	}
	if f.Author != "" && a.Author != f.Author {
		return false
	}
	return true
}
