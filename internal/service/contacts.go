// Package service is the caller-facing surface of the contact store.
//
// Contacts opens its database lazily through a store.Manager on first use
// and shares the handle with every later call. Single-record operations
// map one-to-one onto the store; the batch operations compose the store
// with the merge engine and the frecency scorer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/zeebo/xxh3"

	"github.com/roach88/rolodex/internal/contact"
	"github.com/roach88/rolodex/internal/frecency"
	"github.com/roach88/rolodex/internal/merge"
	"github.com/roach88/rolodex/internal/query"
	"github.com/roach88/rolodex/internal/store"
)

// FindOptions selects records: a filter, a search, or neither for all.
type FindOptions = query.Options

// Config configures Contacts.
type Config struct {
	// Database is the database name under the manager's directory.
	Database string

	// SchemaVersion is the expected schema version; zero means current.
	SchemaVersion int

	// MergedCacheTTL bounds how long a merged view is reused. Zero disables
	// the cache.
	MergedCacheTTL time.Duration

	Logger *slog.Logger
}

// Contacts is safe for concurrent use.
type Contacts struct {
	manager *store.Manager
	cfg     Config
	logger  *slog.Logger
	merged  *cache.Cache
}

// New returns a Contacts backed by m. Nothing is opened until first use.
func New(m *store.Manager, cfg Config) *Contacts {
	if m == nil {
		panic("service: nil store manager")
	}
	if cfg.Database == "" {
		cfg.Database = "contacts"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Contacts{manager: m, cfg: cfg, logger: logger}
	if cfg.MergedCacheTTL > 0 {
		c.merged = cache.New(cfg.MergedCacheTTL, 2*cfg.MergedCacheTTL)
	}
	return c
}

// Store returns the shared store handle, opening it if needed.
func (c *Contacts) Store(ctx context.Context) (*store.Store, error) {
	return c.manager.Open(ctx, c.cfg.Database, c.cfg.SchemaVersion)
}

// Find returns the records selected by opts. fields must be non-empty.
func (c *Contacts) Find(ctx context.Context, fields []string, opts FindOptions) ([]contact.Record, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return nil, err
	}
	return s.Find(ctx, fields, opts)
}

// Create stores a new record and returns it as stored.
func (c *Contacts) Create(ctx context.Context, rec contact.Record) (contact.Record, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return contact.Record{}, err
	}
	return s.Create(ctx, rec)
}

// Update replaces an existing record and returns it as stored.
func (c *Contacts) Update(ctx context.Context, rec contact.Record) (contact.Record, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return contact.Record{}, err
	}
	return s.Update(ctx, rec)
}

// Delete removes a record by id.
func (c *Contacts) Delete(ctx context.Context, id string) error {
	s, err := c.Store(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, id)
}

// DeleteMany removes every listed record, or none if any is missing.
func (c *Contacts) DeleteMany(ctx context.Context, ids []string) error {
	s, err := c.Store(ctx)
	if err != nil {
		return err
	}
	return s.DeleteMany(ctx, ids)
}

// GetByID returns one record.
func (c *Contacts) GetByID(ctx context.Context, id string) (contact.Record, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return contact.Record{}, err
	}
	return s.GetByID(ctx, id)
}

// DeleteAll clears contacts and activities.
func (c *Contacts) DeleteAll(ctx context.Context) error {
	s, err := c.Store(ctx)
	if err != nil {
		return err
	}
	if err := s.DeleteAll(ctx); err != nil {
		return err
	}
	c.logger.Info("all contacts and activities deleted", "database", c.cfg.Database)
	return nil
}

// AddContacts upserts records by id in one transaction.
func (c *Contacts) AddContacts(ctx context.Context, recs []contact.Record) ([]contact.Record, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := s.PutAll(ctx, recs)
	if err != nil {
		return nil, err
	}
	c.logger.Info("contacts added", "count", len(stored))
	return stored, nil
}

// AddObservations stores per-source observations as records keyed
// "source.id", replacing earlier imports of the same key.
func (c *Contacts) AddObservations(ctx context.Context, obs []contact.Observation) ([]contact.Record, error) {
	recs := make([]contact.Record, len(obs))
	for i, o := range obs {
		if err := o.Validate(); err != nil {
			return nil, contact.E(contact.InvalidArgument, "add observations", fmt.Errorf("observation %d: %w", i, err))
		}
		if len(o.Sources) > 0 {
			return nil, contact.Errorf(contact.InvalidArgument, "add observations",
				"observation %d: merged identities are saved with SaveMerged", i)
		}
		recs[i] = contact.RecordFromObservation(o)
	}
	return c.AddContacts(ctx, recs)
}

// GetMerged finds records with opts and merges them into identities.
//
// With a cache TTL configured, the result is reused until the TTL expires
// or the store commits a write.
func (c *Contacts) GetMerged(ctx context.Context, opts FindOptions) ([]contact.MergedContact, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return nil, err
	}

	var key string
	if c.merged != nil {
		key, err = mergedCacheKey(c.cfg.Database, s.Generation(), opts)
		if err != nil {
			return nil, err
		}
		if v, ok := c.merged.Get(key); ok {
			return cloneMerged(v.([]contact.MergedContact)), nil
		}
	}

	gen := s.Generation()
	recs, err := s.Find(ctx, contact.Fields, opts)
	if err != nil {
		return nil, err
	}
	merged, err := merge.MergeRecords(recs)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("contacts merged", "records", len(recs), "identities", len(merged))

	// Only cache what was read under the generation the key names.
	if c.merged != nil && s.Generation() == gen {
		c.merged.Set(key, cloneMerged(merged), cache.DefaultExpiration)
	}
	return merged, nil
}

// SaveMerged persists merge output. Each identity is stored under an id
// derived from its sorted source keys, so saving the same identity twice
// updates one record. Stored records whose keys an identity absorbed are
// removed in the same transaction, so every key stays counted once.
func (c *Contacts) SaveMerged(ctx context.Context, merged []contact.MergedContact) ([]contact.Record, error) {
	recs := make([]contact.Record, len(merged))
	for i, m := range merged {
		rec, err := m.ToRecord()
		if err != nil {
			return nil, contact.E(contact.InvalidArgument, "save merged", fmt.Errorf("identity %d: %w", i, err))
		}
		recs[i] = rec
	}
	s, err := c.Store(ctx)
	if err != nil {
		return nil, err
	}
	stored, removed, err := s.PutMerged(ctx, recs)
	if err != nil {
		return nil, err
	}
	c.logger.Info("merged contacts saved", "identities", len(stored), "absorbed", removed)
	return stored, nil
}

// MergeAll merges every stored record and saves the identities.
func (c *Contacts) MergeAll(ctx context.Context) ([]contact.Record, error) {
	merged, err := c.GetMerged(ctx, FindOptions{})
	if err != nil {
		return nil, err
	}
	return c.SaveMerged(ctx, merged)
}

// UpdateContactScoring recomputes every contact's frecency from the stored
// activities and returns how many contacts scored above zero.
func (c *Contacts) UpdateContactScoring(ctx context.Context) (int, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return 0, err
	}

	recsF := Async(ctx, s.All)
	actsF := Async(ctx, func(ctx context.Context) ([]contact.Activity, error) {
		return s.RecentActivity(ctx, contact.ActivityFilter{})
	})
	recs, err := recsF.Await(ctx)
	if err != nil {
		return 0, err
	}
	acts, err := actsF.Await(ctx)
	if err != nil {
		return 0, err
	}

	scores := frecency.Scores(recs, acts)
	n, err := s.SetFrecency(ctx, scores)
	if err != nil {
		return 0, err
	}
	c.logger.Info("contact scoring updated", "contacts", len(recs), "activities", len(acts), "scored", n)
	return n, nil
}

// AddActivities upserts activity events.
func (c *Contacts) AddActivities(ctx context.Context, acts []contact.Activity) (int, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return 0, err
	}
	return s.AddActivities(ctx, acts)
}

// RecentActivity returns events matching f, newest first.
func (c *Contacts) RecentActivity(ctx context.Context, f contact.ActivityFilter) ([]contact.Activity, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return nil, err
	}
	return s.RecentActivity(ctx, f)
}

// SchemaVersion reports the version stamped in the database file.
func (c *Contacts) SchemaVersion(ctx context.Context) (int, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return 0, err
	}
	return s.SchemaVersion(ctx)
}

// mergedCacheKey identifies a merged view by database, store generation
// and options.
func mergedCacheKey(db string, gen uint64, opts FindOptions) (string, error) {
	data, err := contact.MarshalCanonical(opts)
	if err != nil {
		return "", fmt.Errorf("merged cache key: %w", err)
	}
	return fmt.Sprintf("%s/%d/%016x", db, gen, xxh3.Hash(data)), nil
}

func cloneMerged(in []contact.MergedContact) []contact.MergedContact {
	out := slices.Clone(in)
	for i := range out {
		out[i].Properties = in[i].Properties.Clone()
		out[i].Sources = slices.Clone(in[i].Sources)
	}
	return out
}
