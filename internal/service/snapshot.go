package service

import (
	"context"

	"github.com/roach88/rolodex/internal/contact"
)

// Snapshot is the full contents of one database.
type Snapshot struct {
	SchemaVersion int                `json:"schemaVersion"`
	Contacts      []contact.Record   `json:"contacts"`
	Activities    []contact.Activity `json:"activities"`
}

// Export reads every contact and activity. The two reads run concurrently.
// Schemas without an activities table export no activities.
func (c *Contacts) Export(ctx context.Context) (Snapshot, error) {
	s, err := c.Store(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	recsF := Async(ctx, s.All)
	actsF := Async(ctx, func(ctx context.Context) ([]contact.Activity, error) {
		if !s.HasActivities() {
			return nil, nil
		}
		return s.RecentActivity(ctx, contact.ActivityFilter{})
	})

	snap := Snapshot{SchemaVersion: s.Version()}
	if snap.Contacts, err = recsF.Await(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Activities, err = actsF.Await(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Import upserts the contacts and activities of snap.
func (c *Contacts) Import(ctx context.Context, snap Snapshot) (contacts, activities int, err error) {
	if len(snap.Contacts) > 0 {
		stored, err := c.AddContacts(ctx, snap.Contacts)
		if err != nil {
			return 0, 0, err
		}
		contacts = len(stored)
	}
	if len(snap.Activities) > 0 {
		if activities, err = c.AddActivities(ctx, snap.Activities); err != nil {
			return contacts, 0, err
		}
	}
	return contacts, activities, nil
}
