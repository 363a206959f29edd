package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolodex/internal/contact"
)

func TestMigrations_ChainIsContiguous(t *testing.T) {
	for i, m := range migrations {
		assert.Equal(t, i+1, m.version, "migration %q out of order", m.name)
		assert.NotEmpty(t, m.stmts)
	}
	assert.Equal(t, CurrentSchemaVersion, migrations[len(migrations)-1].version)
}

func TestMigrate_FromOlderVersionKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	ctx := context.Background()

	v1, err := Open(ctx, path, Options{SchemaVersion: 1})
	require.NoError(t, err)
	created, err := v1.Create(ctx, janeDoe())
	require.NoError(t, err)

	_, err = v1.RecentActivity(ctx, contact.ActivityFilter{})
	assert.True(t, contact.IsKind(err, contact.NotSupported), "v1 has no activities table")
	require.NoError(t, v1.Close())

	s := openTestStore(t, path, Options{})
	v, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)

	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Properties, got.Properties)
	assert.Equal(t, created.Published, got.Published)
	assert.Equal(t, int64(0), got.Frecency)
	assert.Empty(t, got.Sources)

	_, err = s.AddActivities(ctx, []contact.Activity{{Date: created.Published, Title: "migrated"}})
	assert.NoError(t, err)
}

func TestMigrate_StepByStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.db")
	ctx := context.Background()

	for v := 1; v <= CurrentSchemaVersion; v++ {
		s, err := Open(ctx, path, Options{SchemaVersion: v})
		require.NoError(t, err, "open at v%d", v)
		got, err := s.SchemaVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		require.NoError(t, s.Close())
	}
}

func TestMigrate_NewerDatabaseNotSupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.db")
	ctx := context.Background()

	s, err := Open(ctx, path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, path, Options{SchemaVersion: 2})
	require.Error(t, err)
	assert.True(t, contact.IsKind(err, contact.NotSupported))
}

func TestMigrate_UnknownStepNotSupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	ctx := context.Background()

	_, err := Open(ctx, path, Options{SchemaVersion: CurrentSchemaVersion + 4})
	require.Error(t, err)
	assert.True(t, contact.IsKind(err, contact.NotSupported))

	// Nothing was applied.
	s := openTestStore(t, path, Options{SchemaVersion: 1})
	v, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
