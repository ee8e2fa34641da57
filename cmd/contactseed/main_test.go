package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contactbook/boltdb"
	"contactbook/contact"
	"contactbook/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadContacts(t *testing.T) {
	t.Run("reads every column in any order", func(t *testing.T) {
		in := "lastName,firstName,mobileNumber,dateOfBirth,emailAddress\n" +
			"Beckett,Kate,07777777777,1993-04-06,kate.beckett@mycoolmail.com\n" +
			"Castle, Richard ,07777777767,,\n"

		contacts, err := readContacts(strings.NewReader(in), 0)

		require.NoError(t, err)
		assert.Equal(t, []contact.Contact{
			{
				FirstName:    "Kate",
				LastName:     "Beckett",
				MobileNumber: "07777777777",
				EmailAddress: "kate.beckett@mycoolmail.com",
				DateOfBirth:  contact.NewDate(1993, 4, 6),
			},
			{FirstName: "Richard", LastName: "Castle", MobileNumber: "07777777767"},
		}, contacts)
	})

	t.Run("optional columns may be absent", func(t *testing.T) {
		in := "firstName,lastName,mobileNumber\nKevin,Ryan,07777777757\n"

		contacts, err := readContacts(strings.NewReader(in), 0)

		require.NoError(t, err)
		assert.Equal(t, []contact.Contact{{FirstName: "Kevin", LastName: "Ryan", MobileNumber: "07777777757"}}, contacts)
	})

	t.Run("stops at limit", func(t *testing.T) {
		in := "firstName,lastName,mobileNumber\nKate,Beckett,07777777777\nKevin,Ryan,07777777757\n"

		contacts, err := readContacts(strings.NewReader(in), 1)

		require.NoError(t, err)
		assert.Len(t, contacts, 1)
	})

	t.Run("rejects a header without required columns", func(t *testing.T) {
		_, err := readContacts(strings.NewReader("firstName,lastName\nKate,Beckett\n"), 0)

		assert.EqualError(t, err, `missing required column "mobileNumber" in csv header`)
	})

	t.Run("reports the line of a bad date", func(t *testing.T) {
		in := "firstName,lastName,mobileNumber,dateOfBirth\nKate,Beckett,07777777777,06/04/1993\n"

		_, err := readContacts(strings.NewReader(in), 0)

		assert.ErrorContains(t, err, "line 2:")
	})
}

func boltConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.DB.Driver = config.DriverBolt
	cfg.Bolt.Path = filepath.Join(t.TempDir(), "contacts.db")
	return cfg
}

func storedContacts(t *testing.T, path string) []contact.Contact {
	t.Helper()
	db, err := boltdb.Open(boltdb.Options{Path: path, Timeout: 200 * time.Millisecond})
	require.NoError(t, err, "the seeder should have released the database file")
	defer db.Close()

	contacts, err := boltdb.NewContactRepository(db).AllContacts(context.Background())
	require.NoError(t, err)
	return contacts
}

func TestRun(t *testing.T) {
	t.Run("seeds the development contacts once", func(t *testing.T) {
		cfg := boltConfig(t)

		require.NoError(t, run(context.Background(), cfg, "", 0))
		require.NoError(t, run(context.Background(), cfg, "", 0))

		contacts := storedContacts(t, cfg.Bolt.Path)
		require.Len(t, contacts, 3)
		assert.Equal(t, "Beckett", contacts[0].LastName)
	})

	t.Run("imports a csv up to the limit", func(t *testing.T) {
		cfg := boltConfig(t)
		csvPath := filepath.Join(t.TempDir(), "contacts.csv")
		require.NoError(t, os.WriteFile(csvPath, []byte("firstName,lastName,mobileNumber\n"+
			"Kate,Beckett,07777777777\n"+
			"Richard,Castle,07777777767\n"), 0o600))

		require.NoError(t, run(context.Background(), cfg, csvPath, 1))

		contacts := storedContacts(t, cfg.Bolt.Path)
		require.Len(t, contacts, 1)
		assert.Equal(t, "Kate", contacts[0].FirstName)
	})

	t.Run("closes the store when the csv cannot be read", func(t *testing.T) {
		cfg := boltConfig(t)
		missing := filepath.Join(t.TempDir(), "missing.csv")

		err := run(context.Background(), cfg, missing, 0)

		assert.ErrorContains(t, err, "read "+missing)
		assert.Empty(t, storedContacts(t, cfg.Bolt.Path))
	})
}
