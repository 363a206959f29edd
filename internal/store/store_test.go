package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolodex/internal/contact"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s := openTestStore(t, path, Options{})

	_, err := os.Stat(path)
	require.NoError(t, err, "database file was not created")
	assert.Equal(t, CurrentSchemaVersion, s.Version())

	v, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := Open(ctx, path, Options{})
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s := openTestStore(t, path, Options{})
	tables := []string{"contacts", "activities"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s, _ := createTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestOpen_Indexes(t *testing.T) {
	s, _ := createTestStore(t)

	indexes := []string{
		"idx_contacts_display_name",
		"idx_contacts_family_name",
		"idx_contacts_given_name",
		"idx_contacts_published",
		"idx_contacts_updated",
		"idx_activities_date",
	}
	for _, idx := range indexes {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		assert.NoError(t, err, "index %q missing", idx)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want contact.Kind
	}{
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, contact.PendingOperation},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, contact.PendingOperation},
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, contact.InvalidArgument},
		{"readonly", sqlite3.Error{Code: sqlite3.ErrReadonly}, contact.PermissionDenied},
		{"io", sqlite3.Error{Code: sqlite3.ErrIoErr}, contact.IO},
		{"deadline", context.DeadlineExceeded, contact.Timeout},
		{"permission", os.ErrPermission, contact.PermissionDenied},
		{"plain", errors.New("disk on fire"), contact.IO},
		{"typed", contact.E(contact.NotFound, "x", nil), contact.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contact.KindOf(classify("op", tt.err)))
		})
	}
	assert.NoError(t, classify("op", nil))
}

func TestWithTx_DoneContextAbortsBeforeBegin(t *testing.T) {
	s, _ := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, janeDoe())
	require.Error(t, err)
	assert.True(t, contact.IsKind(err, contact.Timeout))

	all, err := s.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGeneration_ChangesOnWrite(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	g0 := s.Generation()
	_, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, g0, s.Generation(), "reads must not bump the generation")

	_, err = s.Create(ctx, janeDoe())
	require.NoError(t, err)
	assert.Greater(t, s.Generation(), g0)
}
