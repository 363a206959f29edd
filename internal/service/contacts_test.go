package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolodex/internal/contact"
	"github.com/roach88/rolodex/internal/query"
	"github.com/roach88/rolodex/internal/store"
	"github.com/roach88/rolodex/internal/testutil"
)

func newTestContacts(t *testing.T, ttl time.Duration) *Contacts {
	t.Helper()
	m := store.NewManager(filepath.Join(t.TempDir(), "data"), store.Options{
		Clock: testutil.NewDeterministicClock(),
		IDs:   testutil.NewSequenceIDs("c"),
	})
	t.Cleanup(func() { m.Close() })
	return New(m, Config{Database: "test", MergedCacheTTL: ttl})
}

func person(id, name string, emails ...string) contact.Record {
	r := contact.Record{ID: id, Properties: contact.Properties{DisplayName: name}}
	for _, e := range emails {
		r.Properties.Emails = append(r.Properties.Emails, contact.Entry{Value: e})
	}
	return r
}

func TestContacts_CRUD(t *testing.T) {
	c := newTestContacts(t, 0)
	ctx := context.Background()

	created, err := c.Create(ctx, person("", "Jane Doe", "jane@x"))
	require.NoError(t, err)
	assert.Equal(t, "c-0001", created.ID)

	got, err := c.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	created.Properties.Nickname = "jd"
	updated, err := c.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "jd", updated.Properties.Nickname)

	found, err := c.Find(ctx, []string{"displayName"}, FindOptions{
		Search: &query.Search{Query: "jane", Fields: []string{"displayName"}},
	})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, c.Delete(ctx, created.ID))
	assert.True(t, contact.IsKind(c.Delete(ctx, created.ID), contact.NotFound))
}

func TestContacts_OpensLazilyAndShares(t *testing.T) {
	c := newTestContacts(t, 0)
	ctx := context.Background()

	a, err := c.Store(ctx)
	require.NoError(t, err)
	b, err := c.Store(ctx)
	require.NoError(t, err)
	assert.Same(t, a, b)

	v, err := c.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.CurrentSchemaVersion, v)
}

func TestContacts_ScoringExample(t *testing.T) {
	c := newTestContacts(t, 0)
	ctx := context.Background()

	_, err := c.AddContacts(ctx, []contact.Record{
		person("a", "Active", "active@x"),
		person("q", "Quiet", "quiet@x"),
	})
	require.NoError(t, err)

	when := testutil.Epoch
	_, err = c.AddActivities(ctx, []contact.Activity{
		{Date: when, Title: "first", Author: "active@x"},
		{Date: when.Add(time.Minute), Title: "second", Author: "active@x"},
		{Date: when.Add(2 * time.Minute), Title: "third", Author: "nobody@x"},
	})
	require.NoError(t, err)

	n, err := c.UpdateContactScoring(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := c.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), active.Frecency)

	quiet, err := c.GetByID(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, int64(0), quiet.Frecency)
}

func TestContacts_GetMergedAndSave(t *testing.T) {
	c := newTestContacts(t, 0)
	ctx := context.Background()

	_, err := c.AddObservations(ctx, []contact.Observation{
		{Source: "gmail", ID: "1", Properties: contact.Properties{DisplayName: "Jane", Emails: []contact.Entry{{Value: "jane@x"}}}},
		{Source: "twitter", ID: "jd", Properties: contact.Properties{DisplayName: "Jane Doe", Emails: []contact.Entry{{Value: "jane@x"}}}},
		{Source: "gmail", ID: "2", Properties: contact.Properties{DisplayName: "Bob"}},
	})
	require.NoError(t, err)

	merged, err := c.GetMerged(ctx, FindOptions{})
	require.NoError(t, err)
	require.Len(t, merged, 2)

	saved, err := c.SaveMerged(ctx, merged)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	// Saving again updates the same records.
	again, err := c.SaveMerged(ctx, merged)
	require.NoError(t, err)
	assert.Equal(t, saved[0].ID, again[0].ID)

	// The observations were absorbed into the saved identities.
	all, err := c.Find(ctx, contact.Fields, FindOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Previously merged records re-merge onto the same identities.
	remerged, err := c.GetMerged(ctx, FindOptions{})
	require.NoError(t, err)
	assert.Len(t, remerged, 2)
}

func TestContacts_AddObservationsRejectsMissingSource(t *testing.T) {
	c := newTestContacts(t, 0)
	_, err := c.AddObservations(context.Background(), []contact.Observation{{ID: "1"}})
	assert.True(t, contact.IsKind(err, contact.InvalidArgument))
}

func TestContacts_MergedCacheInvalidatedByWrite(t *testing.T) {
	c := newTestContacts(t, time.Minute)
	ctx := context.Background()

	_, err := c.AddContacts(ctx, []contact.Record{person("a", "Ann", "ann@x")})
	require.NoError(t, err)

	first, err := c.GetMerged(ctx, FindOptions{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Mutating the returned slice must not leak into the cache.
	first[0].DisplayName = "changed"
	cached, err := c.GetMerged(ctx, FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Ann", cached[0].DisplayName)

	_, err = c.AddContacts(ctx, []contact.Record{person("b", "Bea", "bea@x")})
	require.NoError(t, err)

	after, err := c.GetMerged(ctx, FindOptions{})
	require.NoError(t, err)
	assert.Len(t, after, 2)
}

func TestContacts_ExportImport(t *testing.T) {
	src := newTestContacts(t, 0)
	ctx := context.Background()

	_, err := src.AddContacts(ctx, []contact.Record{person("a", "Ann", "ann@x"), person("b", "Bea")})
	require.NoError(t, err)
	_, err = src.AddActivities(ctx, []contact.Activity{{Date: testutil.Epoch, Title: "hello", Author: "ann@x"}})
	require.NoError(t, err)

	snap, err := src.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.CurrentSchemaVersion, snap.SchemaVersion)
	assert.Len(t, snap.Contacts, 2)
	assert.Len(t, snap.Activities, 1)

	dst := newTestContacts(t, 0)
	nc, na, err := dst.Import(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, 2, nc)
	assert.Equal(t, 1, na)

	got, err := dst.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, snap.Contacts[0].Properties, got.Properties)
}

func TestContacts_DeleteAll(t *testing.T) {
	c := newTestContacts(t, 0)
	ctx := context.Background()

	_, err := c.AddContacts(ctx, []contact.Record{person("a", "Ann")})
	require.NoError(t, err)
	require.NoError(t, c.DeleteAll(ctx))

	all, err := c.Find(ctx, contact.Fields, FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNew_PanicsOnNilManager(t *testing.T) {
	assert.Panics(t, func() { New(nil, Config{}) })
}

func TestContacts_MergeAllIsStable(t *testing.T) {
	c := newTestContacts(t, 0)
	ctx := context.Background()

	_, err := c.AddObservations(ctx, []contact.Observation{
		{Source: "gmail", ID: "1", Properties: contact.Properties{DisplayName: "Jane", Emails: []contact.Entry{{Value: "jane@x"}}}},
		{Source: "twitter", ID: "jd", Properties: contact.Properties{DisplayName: "Jane Doe", Emails: []contact.Entry{{Value: "jane@x"}}}},
	})
	require.NoError(t, err)
	_, err = c.AddActivities(ctx, []contact.Activity{
		{Date: testutil.Epoch, Title: "one", Author: "jane@x"},
		{Date: testutil.Epoch.Add(time.Minute), Title: "two", Author: "jane@x"},
	})
	require.NoError(t, err)
	_, err = c.UpdateContactScoring(ctx)
	require.NoError(t, err)

	check := func() {
		t.Helper()
		merged, err := c.GetMerged(ctx, FindOptions{})
		require.NoError(t, err)
		require.Len(t, merged, 1)
		assert.Equal(t, int64(2), merged[0].Frecency)
		assert.ElementsMatch(t, []string{"gmail.1", "twitter.jd"}, merged[0].Sources)
	}

	check()
	for range 2 {
		saved, err := c.MergeAll(ctx)
		require.NoError(t, err)
		require.Len(t, saved, 1)
		check()

		all, err := c.Find(ctx, contact.Fields, FindOptions{})
		require.NoError(t, err)
		assert.Len(t, all, 1, "each key is stored once")
	}
}

func TestContacts_DeleteMany(t *testing.T) {
	c := newTestContacts(t, 0)
	ctx := context.Background()

	_, err := c.AddContacts(ctx, []contact.Record{person("a", "A"), person("b", "B")})
	require.NoError(t, err)

	assert.True(t, contact.IsKind(c.DeleteMany(ctx, []string{"a", "zz"}), contact.NotFound))
	require.NoError(t, c.DeleteMany(ctx, []string{"a", "b"}))

	all, err := c.Find(ctx, contact.Fields, FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
