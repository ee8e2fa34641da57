package boltdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"contactbook/boltdb"
	"contactbook/contact"
	"contactbook/contact/contacttest"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(tb testing.TB) *bolt.DB {
	tb.Helper()
	db, err := boltdb.Open(boltdb.Options{Path: filepath.Join(tb.TempDir(), "contacts.db")})
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

func TestContactRepository(t *testing.T) {
	contacttest.RepositoryContract{
		Subject: func(tb testing.TB) contact.Repository {
			return boltdb.NewContactRepository(openTestDB(tb))
		},
	}.Test(t)
}

func TestOpen(t *testing.T) {
	t.Run("requires a path", func(t *testing.T) {
		_, err := boltdb.Open(boltdb.Options{Path: " "})
		assert.EqualError(t, err, "boltdb: path is required")
	})

	t.Run("creates missing directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "contacts.db")
		db, err := boltdb.Open(boltdb.Options{Path: path})
		require.NoError(t, err)
		assert.NoError(t, db.Close())
	})
}

func TestContactRepository_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.db")

	db, err := boltdb.Open(boltdb.Options{Path: path})
	require.NoError(t, err)
	created, err := boltdb.NewContactRepository(db).CreateContact(ctx, contacttest.NewContact())
	require.NoError(t, err)
	require.NoError(t, boltdb.NewContactRepository(db).DeleteAll(ctx))
	require.NoError(t, db.Close())

	db, err = boltdb.Open(boltdb.Options{Path: path})
	require.NoError(t, err)
	defer db.Close()

	r := boltdb.NewContactRepository(db)
	next, err := r.CreateContact(ctx, contacttest.NewContact())
	require.NoError(t, err)
	assert.Greater(t, next.ID, created.ID)

	all, err := r.AllContacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []contact.Contact{next}, all)
}
